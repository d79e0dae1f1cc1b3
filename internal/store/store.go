// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store manages the on-disk artifact pairs: one JSON metadata file
// and one PDF per paper, both keyed by the sanitized arXiv identifier.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-harvest/pkg/types"
)

// Store provides path mapping and metadata persistence for one storage root.
type Store struct {
	baseDir     string
	pdfDir      string
	metadataDir string
}

// StorageStats summarizes the storage root for display.
type StorageStats struct {
	TotalPapers    int
	TotalMetadata  int
	TotalSizeBytes int64
	StoragePath    string
}

// NewStore creates the storage directories and returns a Store. An
// unwritable storage root is the one fatal startup condition.
func NewStore(cfg types.StorageConfig) (*Store, error) {
	s := &Store{
		baseDir:     cfg.BaseDir,
		pdfDir:      cfg.PDFDir(),
		metadataDir: cfg.MetadataDir(),
	}
	for _, dir := range []string{s.baseDir, s.pdfDir, s.metadataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// QuotaStatePath is where the daily download counter lives.
func (s *Store) QuotaStatePath() string {
	return filepath.Join(s.baseDir, "download_stats.json")
}

// PDFPath returns the document path for an arXiv identifier.
func (s *Store) PDFPath(arxivID string) string {
	return filepath.Join(s.pdfDir, SanitizeID(arxivID)+".pdf")
}

// MetadataPath returns the metadata path for an arXiv identifier.
func (s *Store) MetadataPath(arxivID string) string {
	return filepath.Join(s.metadataDir, SanitizeID(arxivID)+".json")
}

// DocumentExists reports whether the document file is present.
func (s *Store) DocumentExists(arxivID string) bool {
	_, err := os.Stat(s.PDFPath(arxivID))
	return err == nil
}

// MetadataExists reports whether the metadata file is present.
func (s *Store) MetadataExists(arxivID string) bool {
	_, err := os.Stat(s.MetadataPath(arxivID))
	return err == nil
}

// HasPair reports whether both halves of the artifact pair are present.
func (s *Store) HasPair(arxivID string) bool {
	return s.DocumentExists(arxivID) && s.MetadataExists(arxivID)
}

// WriteMetadata persists the metadata half of the artifact pair. It is
// written before the document download so a crash can only ever leave an
// orphaned metadata file, which the reconciler removes.
func (s *Store) WriteMetadata(rec types.Record, documentFetched bool) error {
	m := types.Metadata{
		Record:          rec,
		FetchedAt:       time.Now(),
		DocumentFetched: documentFetched,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata for %s: %w", rec.ArxivID, err)
	}
	if err := os.WriteFile(s.MetadataPath(rec.ArxivID), data, 0o644); err != nil {
		return fmt.Errorf("writing metadata for %s: %w", rec.ArxivID, err)
	}
	return nil
}

// ReadMetadata loads the metadata record for an arXiv identifier.
func (s *Store) ReadMetadata(arxivID string) (*types.Metadata, error) {
	return readMetadataFile(s.MetadataPath(arxivID))
}

func readMetadataFile(path string) (*types.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m types.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &m, nil
}

// MarkDocumentFetched flips the document_fetched flag in an existing
// metadata file. Used by the document-only download pass.
func (s *Store) MarkDocumentFetched(arxivID string) error {
	m, err := s.ReadMetadata(arxivID)
	if err != nil {
		return fmt.Errorf("reading metadata for %s: %w", arxivID, err)
	}
	m.DocumentFetched = true
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata for %s: %w", arxivID, err)
	}
	return os.WriteFile(s.MetadataPath(arxivID), data, 0o644)
}

// RemoveMetadata deletes the metadata file, undoing the reservation when a
// document fetch permanently fails.
func (s *Store) RemoveMetadata(arxivID string) error {
	err := os.Remove(s.MetadataPath(arxivID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListMetadata walks the metadata directory and returns every record.
// Unreadable files are skipped.
func (s *Store) ListMetadata() ([]*types.Metadata, error) {
	entries, err := os.ReadDir(s.metadataDir)
	if err != nil {
		return nil, fmt.Errorf("reading metadata directory: %w", err)
	}
	var out []*types.Metadata
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		m, err := readMetadataFile(filepath.Join(s.metadataDir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Stats returns counts and aggregate document size for the storage root.
func (s *Store) Stats() (StorageStats, error) {
	st := StorageStats{}

	abs, err := filepath.Abs(s.baseDir)
	if err != nil {
		abs = s.baseDir
	}
	st.StoragePath = abs

	pdfs, err := os.ReadDir(s.pdfDir)
	if err != nil {
		return st, fmt.Errorf("reading pdf directory: %w", err)
	}
	for _, e := range pdfs {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pdf") {
			continue
		}
		st.TotalPapers++
		if info, err := e.Info(); err == nil {
			st.TotalSizeBytes += info.Size()
		}
	}

	metas, err := os.ReadDir(s.metadataDir)
	if err != nil {
		return st, fmt.Errorf("reading metadata directory: %w", err)
	}
	for _, e := range metas {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			st.TotalMetadata++
		}
	}
	return st, nil
}
