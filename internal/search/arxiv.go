// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the arXiv API and returns parsed records. The
// client paces its own requests and pages through large result sets with
// increasing offsets.
package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-harvest/internal/httputil"
	"github.com/pdiddy/arxiv-harvest/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// Document URL bases. Old-style IDs ("math/9201254") take no .pdf
// suffix; new-style IDs do.
var (
	arxivPDFBase = "https://arxiv.org/pdf/"
	arxivAbsBase = "https://arxiv.org/abs/"
)

const defaultPageSize = 1000

// Client queries the arXiv API.
type Client struct {
	client *http.Client
	cfg    types.SearchConfig

	// lastRequest drives the minimum spacing between API calls.
	lastRequest time.Time

	// sleep and now are swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewClient returns a Client using client for transport.
func NewClient(client *http.Client, cfg types.SearchConfig) *Client {
	return &Client{
		client: client,
		cfg:    cfg,
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

// Search runs one paged query against the arXiv API and returns the
// parsed records plus the API's total-result count.
func (c *Client) Search(ctx context.Context, query string, start, maxResults int) ([]types.Record, int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, fmt.Errorf("empty arXiv query")
	}
	if err := c.enforceRateLimit(ctx); err != nil {
		return nil, 0, err
	}

	pageSize := c.cfg.MaxResultsPerQuery
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if maxResults > 0 && maxResults < pageSize {
		pageSize = maxResults
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", strconv.Itoa(start))
	params.Set("max_results", strconv.Itoa(pageSize))
	params.Set("sortBy", defaultString(c.cfg.SortBy, "submittedDate"))
	params.Set("sortOrder", defaultString(c.cfg.SortOrder, "descending"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, 0, fmt.Errorf("parsing arXiv response: %w", err)
	}

	records := make([]types.Record, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if rec, ok := recordFromEntry(entry); ok {
			records = append(records, rec)
		}
	}
	return records, feed.TotalResults, nil
}

// SearchAll pages through a query with increasing offsets until the
// results are exhausted or maxTotal records have been collected. Progress
// is written to w.
func (c *Client) SearchAll(ctx context.Context, query string, maxTotal int, w io.Writer) ([]types.Record, error) {
	var all []types.Record
	start := 0

	for maxTotal <= 0 || start < maxTotal {
		remaining := 0
		if maxTotal > 0 {
			remaining = maxTotal - start
		}
		page, total, err := c.Search(ctx, query, start, remaining)
		if err != nil {
			return all, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		start += len(page)
		fmt.Fprintf(w, "fetched %d/%d records\n", len(all), total)

		pageSize := c.cfg.MaxResultsPerQuery
		if pageSize <= 0 {
			pageSize = defaultPageSize
		}
		if len(page) < pageSize {
			break
		}
	}
	if maxTotal > 0 && len(all) > maxTotal {
		all = all[:maxTotal]
	}
	return all, nil
}

// enforceRateLimit spaces API requests at least RequestDelay apart.
func (c *Client) enforceRateLimit(ctx context.Context) error {
	if c.cfg.RequestDelay > 0 && !c.lastRequest.IsZero() {
		elapsed := c.now().Sub(c.lastRequest)
		if elapsed < c.cfg.RequestDelay {
			if err := c.sleep(ctx, c.cfg.RequestDelay-elapsed); err != nil {
				return err
			}
		}
	}
	c.lastRequest = c.now()
	return nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	TotalResults int          `xml:"totalResults"`
	Entries      []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Updated    string          `xml:"updated"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// recordFromEntry converts one feed entry into a Record. Entries whose ID
// cannot be extracted are dropped.
func recordFromEntry(entry arxivEntry) (types.Record, bool) {
	id := extractArxivID(entry.ID)
	if id == "" {
		return types.Record{}, false
	}

	rec := types.Record{
		ArxivID:   id,
		Title:     strings.TrimSpace(entry.Title),
		Abstract:  strings.TrimSpace(entry.Summary),
		Published: entry.Published,
		Updated:   entry.Updated,
		PDFURL:    PDFURL(id),
		AbsURL:    arxivAbsBase + id,
	}
	for _, a := range entry.Authors {
		rec.Authors = append(rec.Authors, strings.TrimSpace(a.Name))
	}
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			rec.Categories = append(rec.Categories, cat.Term)
		}
	}
	return rec, true
}

// PDFURL returns the document URL for an arXiv ID. Pre-2007 IDs contain
// a slash and take no extension; later IDs need ".pdf".
func PDFURL(arxivID string) string {
	if strings.Contains(arxivID, "/") {
		return arxivPDFBase + arxivID
	}
	return arxivPDFBase + arxivID + ".pdf"
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" yields "2301.07041") and
// strips the version suffix.
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
