// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the arxiv-harvest pipeline:
// the Record produced by the arXiv API client, the Metadata view persisted
// next to each downloaded document, and the configuration structs consumed
// by each stage.
package types

import "time"

// Record is one bibliographic entry returned by the arXiv search API.
// It is produced by the search client and consumed read-only by the
// download stage. The published/updated timestamps are kept as the
// ISO-8601 strings the API returns rather than parsed times, so metadata
// files round-trip byte-for-byte.
type Record struct {
	// ArxivID is the identifier without version suffix. Old-style IDs
	// contain a slash (e.g. "math/9201254"); new-style do not ("2301.07041").
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Categories lists the arXiv subject categories (e.g. "cs.AI").
	Categories []string `json:"categories" yaml:"categories"`

	// Published is the submission timestamp as returned by the API.
	Published string `json:"published" yaml:"published"`

	// Updated is the last-revision timestamp as returned by the API.
	Updated string `json:"updated" yaml:"updated"`

	// PDFURL is the document download URL.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// AbsURL is the abstract page URL.
	AbsURL string `json:"abs_url" yaml:"abs_url"`
}

// Metadata is the persisted view of a Record: one JSON file per paper in
// the metadata directory, keyed by the sanitized identifier. Together with
// the document file it forms the artifact pair for one paper.
type Metadata struct {
	Record `yaml:",inline"`

	// FetchedAt is when the metadata record was written.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`

	// DocumentFetched reports whether the PDF has been downloaded.
	// Metadata-only harvesting leaves it false; the download pass
	// flips it after a successful fetch.
	DocumentFetched bool `json:"document_fetched" yaml:"document_fetched"`
}
