// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sweep removes orphaned artifacts: documents with no metadata record and
// metadata records with no document. A complete pair is never touched, so
// a second sweep with no intervening activity removes nothing. Progress
// is written to w; the return value is the number of files removed.
func (s *Store) Sweep(w io.Writer) (int, error) {
	pdfKeys, err := keysWithSuffix(s.pdfDir, ".pdf")
	if err != nil {
		return 0, err
	}
	metaKeys, err := keysWithSuffix(s.metadataDir, ".json")
	if err != nil {
		return 0, err
	}

	removed := 0
	for key := range pdfKeys {
		if metaKeys[key] {
			continue
		}
		path := filepath.Join(s.pdfDir, key+".pdf")
		if err := os.Remove(path); err != nil {
			fmt.Fprintf(w, "warning: could not remove orphaned PDF %s: %v\n", key, err)
			continue
		}
		fmt.Fprintf(w, "removed orphaned PDF: %s.pdf\n", key)
		removed++
	}
	for key := range metaKeys {
		if pdfKeys[key] {
			continue
		}
		path := filepath.Join(s.metadataDir, key+".json")
		if err := os.Remove(path); err != nil {
			fmt.Fprintf(w, "warning: could not remove orphaned metadata %s: %v\n", key, err)
			continue
		}
		fmt.Fprintf(w, "removed orphaned metadata: %s.json\n", key)
		removed++
	}
	return removed, nil
}

// keysWithSuffix returns the set of file stems in dir carrying suffix.
func keysWithSuffix(dir, suffix string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	keys := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		keys[strings.TrimSuffix(e.Name(), suffix)] = true
	}
	return keys, nil
}
