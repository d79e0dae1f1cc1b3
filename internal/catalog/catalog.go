// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog maintains a SQLite index over harvested metadata so the
// document-only download pass can select pending papers by category and
// priority without re-reading thousands of JSON files.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/arxiv-harvest/internal/store"
	"github.com/pdiddy/arxiv-harvest/pkg/types"
)

// Priority orders candidate selection for the download pass. Newer arXiv
// IDs sort lexicographically after older ones within a scheme, which is
// the ordering the original harvest relies on.
type Priority string

const (
	PriorityNewest Priority = "newest"
	PriorityOldest Priority = "oldest"
	PriorityRandom Priority = "random"
)

// ParsePriority validates a priority flag value.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityNewest, PriorityOldest, PriorityRandom:
		return Priority(s), nil
	default:
		return "", fmt.Errorf("unknown priority %q (want newest, oldest, or random)", s)
	}
}

// Catalog wraps the SQLite index database.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path, creating the
// schema if needed.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			arxiv_id TEXT PRIMARY KEY,
			title TEXT,
			abstract TEXT,
			authors TEXT,
			categories TEXT,
			published TEXT,
			updated TEXT,
			pdf_url TEXT,
			abs_url TEXT,
			document_fetched INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_fetched ON papers(document_fetched)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_published ON papers(published)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Upsert inserts or replaces one paper row.
func (c *Catalog) Upsert(ctx context.Context, m *types.Metadata) error {
	authors, err := json.Marshal(m.Authors)
	if err != nil {
		return fmt.Errorf("marshaling authors for %s: %w", m.ArxivID, err)
	}
	categories, err := json.Marshal(m.Categories)
	if err != nil {
		return fmt.Errorf("marshaling categories for %s: %w", m.ArxivID, err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO papers (arxiv_id, title, abstract, authors, categories,
			published, updated, pdf_url, abs_url, document_fetched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(arxiv_id) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			authors = excluded.authors,
			categories = excluded.categories,
			published = excluded.published,
			updated = excluded.updated,
			pdf_url = excluded.pdf_url,
			abs_url = excluded.abs_url,
			document_fetched = excluded.document_fetched`,
		m.ArxivID, m.Title, m.Abstract, string(authors), string(categories),
		m.Published, m.Updated, m.PDFURL, m.AbsURL, boolToInt(m.DocumentFetched))
	if err != nil {
		return fmt.Errorf("upserting %s: %w", m.ArxivID, err)
	}
	return nil
}

// MarkFetched flags one paper's document as downloaded.
func (c *Catalog) MarkFetched(ctx context.Context, arxivID string) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE papers SET document_fetched = 1 WHERE arxiv_id = ?`, arxivID)
	if err != nil {
		return fmt.Errorf("marking %s fetched: %w", arxivID, err)
	}
	return nil
}

// Rebuild repopulates the catalog from the metadata directory. It is the
// recovery path when the catalog is missing or stale relative to disk.
func (c *Catalog) Rebuild(ctx context.Context, st *store.Store, w io.Writer) (int, error) {
	records, err := st.ListMetadata()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range records {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		if err := c.Upsert(ctx, m); err != nil {
			fmt.Fprintf(w, "warning: %v\n", err)
			continue
		}
		n++
	}
	fmt.Fprintf(w, "catalog rebuilt: %d records indexed\n", n)
	return n, nil
}

// Pending returns papers whose documents are not yet downloaded, filtered
// to categories when non-empty, ordered by priority, limited to limit
// (zero means no limit).
func (c *Catalog) Pending(ctx context.Context, categories []string, priority Priority, limit int) ([]types.Record, error) {
	query := `SELECT arxiv_id, title, abstract, authors, categories,
		published, updated, pdf_url, abs_url
		FROM papers WHERE document_fetched = 0`

	var order string
	switch priority {
	case PriorityOldest:
		order = " ORDER BY arxiv_id ASC"
	case PriorityRandom:
		order = " ORDER BY RANDOM()"
	default:
		order = " ORDER BY arxiv_id DESC"
	}
	query += order
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit*candidateOverfetch(categories))
	}

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying pending papers: %w", err)
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		var rec types.Record
		var authors, cats string
		if err := rows.Scan(&rec.ArxivID, &rec.Title, &rec.Abstract, &authors, &cats,
			&rec.Published, &rec.Updated, &rec.PDFURL, &rec.AbsURL); err != nil {
			return nil, fmt.Errorf("scanning pending paper: %w", err)
		}
		if err := json.Unmarshal([]byte(authors), &rec.Authors); err != nil {
			rec.Authors = nil
		}
		if err := json.Unmarshal([]byte(cats), &rec.Categories); err != nil {
			rec.Categories = nil
		}
		if len(categories) > 0 && !hasAnyCategory(rec.Categories, categories) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, rows.Err()
}

// Count returns total and fetched paper counts.
func (c *Catalog) Count(ctx context.Context) (total, fetched int, err error) {
	err = c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(document_fetched), 0) FROM papers`,
	).Scan(&total, &fetched)
	if err != nil {
		return 0, 0, fmt.Errorf("counting papers: %w", err)
	}
	return total, fetched, nil
}

// candidateOverfetch widens the SQL limit when category filtering happens
// in Go, so a filtered query still finds enough candidates.
func candidateOverfetch(categories []string) int {
	if len(categories) == 0 {
		return 1
	}
	return 10
}

func hasAnyCategory(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
