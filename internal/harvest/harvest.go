// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest orchestrates the download of candidate records: quota
// enforcement, skip-if-complete, metadata-first writes, document fetches,
// and the pacing that keeps the run inside the upstream rate budget.
package harvest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/arxiv-harvest/internal/quota"
	"github.com/pdiddy/arxiv-harvest/internal/store"
	"github.com/pdiddy/arxiv-harvest/pkg/types"
)

// progressEvery controls how often a progress line is printed.
const progressEvery = 50

// Fetcher downloads one URL to a destination path. *fetch.Fetcher
// implements it; tests substitute stubs.
type Fetcher interface {
	Fetch(ctx context.Context, url, destPath string) error
}

// Statistics counts the outcomes of one Process invocation.
type Statistics struct {
	// Attempted is the number of records examined before the pass ended.
	Attempted int

	// Succeeded counts new artifact pairs committed to disk.
	Succeeded int

	// Failed counts records whose metadata write or document fetch failed.
	Failed int

	// SkippedExisting counts records whose artifact pair was already complete.
	SkippedExisting int

	// SkippedLimit counts records left unprocessed because the daily
	// quota ran out. Quota exhaustion is a normal condition, not an error.
	SkippedLimit int
}

// Options selects the processing variant.
type Options struct {
	// MetadataOnly writes metadata records without fetching documents.
	// Metadata-only passes consume no quota and need no pacing.
	MetadataOnly bool
}

// Harvester runs download passes over candidate records. Exactly one pass
// is active at a time; records are processed strictly in input order with
// no concurrent fetches.
type Harvester struct {
	store   *store.Store
	quota   *quota.Tracker
	fetcher Fetcher
	cfg     types.DownloadConfig
	w       io.Writer

	// sessionDownloads spans all passes in this process, driving the
	// session pause.
	sessionDownloads int

	// sleep is the pacing primitive; tests substitute it.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Harvester writing progress to w.
func New(st *store.Store, qt *quota.Tracker, f Fetcher, cfg types.DownloadConfig, w io.Writer) *Harvester {
	return &Harvester{
		store:   st,
		quota:   qt,
		fetcher: f,
		cfg:     cfg,
		w:       w,
		sleep:   sleepCtx,
	}
}

// Process walks records in order and downloads each missing artifact pair.
// The pass stops early when the daily quota is exhausted or ctx is
// cancelled; both stop between items, never mid-fetch, and statistics are
// returned either way.
func (h *Harvester) Process(ctx context.Context, records []types.Record, opts Options) Statistics {
	var stats Statistics
	total := len(records)
	newInPass := 0

	for i, rec := range records {
		if ctx.Err() != nil {
			fmt.Fprintf(h.w, "interrupted: stopping after %d/%d records\n", i, total)
			break
		}

		if opts.MetadataOnly {
			h.processMetadataOnly(rec, &stats)
			continue
		}

		if !h.quota.CanProceed(h.cfg.DailyLimit) {
			stats.SkippedLimit = total - i
			fmt.Fprintf(h.w, "daily limit reached (%d downloads today); stopping, %d records left\n",
				h.quota.Today(), stats.SkippedLimit)
			break
		}

		stats.Attempted++

		if h.store.HasPair(rec.ArxivID) {
			stats.SkippedExisting++
			continue
		}

		// Metadata first: the cheap half of the pair acts as a
		// reservation before the expensive fetch. Pre-existing metadata
		// (from a metadata-only pass) survives a failed fetch.
		hadMetadata := h.store.MetadataExists(rec.ArxivID)
		if err := h.store.WriteMetadata(rec, false); err != nil {
			fmt.Fprintf(h.w, "failed: %s (%v)\n", rec.ArxivID, err)
			stats.Failed++
			continue
		}

		fmt.Fprintf(h.w, "downloading: %s\n", rec.ArxivID)
		err := h.fetcher.Fetch(ctx, rec.PDFURL, h.store.PDFPath(rec.ArxivID))
		if err != nil {
			// Undo the reservation so the pair never straddles a
			// failed fetch.
			if !hadMetadata {
				if rmErr := h.store.RemoveMetadata(rec.ArxivID); rmErr != nil {
					fmt.Fprintf(h.w, "warning: could not remove metadata for %s: %v\n", rec.ArxivID, rmErr)
				}
			}
			fmt.Fprintf(h.w, "failed: %s (%v)\n", rec.ArxivID, err)
			stats.Failed++
		} else {
			if err := h.store.MarkDocumentFetched(rec.ArxivID); err != nil {
				fmt.Fprintf(h.w, "warning: could not mark %s fetched: %v\n", rec.ArxivID, err)
			}
			if err := h.quota.RecordSuccess(); err != nil {
				fmt.Fprintf(h.w, "warning: %v\n", err)
			}
			stats.Succeeded++
			newInPass++
			h.sessionDownloads++
		}

		if (i+1)%progressEvery == 0 {
			fmt.Fprintf(h.w, "progress: %d/%d (success: %d, failed: %d, skipped: %d, today: %d)\n",
				i+1, total, stats.Succeeded, stats.Failed, stats.SkippedExisting, h.quota.Today())
		}

		if i < total-1 {
			h.pace(ctx, err == nil, newInPass)
		}
	}

	fmt.Fprintf(h.w, "pass complete: %d succeeded, %d failed, %d skipped existing, %d skipped by limit (today: %d)\n",
		stats.Succeeded, stats.Failed, stats.SkippedExisting, stats.SkippedLimit, h.quota.Today())
	return stats
}

// pace applies the per-item delay plus, after genuinely new downloads,
// the batch and session pauses. Skip-existing hits never reach here, so a
// re-run over a fully downloaded set finishes with no artificial delay.
func (h *Harvester) pace(ctx context.Context, downloaded bool, newInPass int) {
	if err := h.sleep(ctx, h.cfg.RateLimit); err != nil {
		return
	}
	if !downloaded {
		return
	}
	if h.cfg.BatchSize > 0 && newInPass%h.cfg.BatchSize == 0 {
		fmt.Fprintf(h.w, "batch of %d complete, pausing %v\n", h.cfg.BatchSize, h.cfg.BatchPause)
		if err := h.sleep(ctx, h.cfg.BatchPause); err != nil {
			return
		}
	}
	if h.cfg.SessionPauseAfter > 0 && h.sessionDownloads%h.cfg.SessionPauseAfter == 0 {
		fmt.Fprintf(h.w, "session milestone: %d downloads, pausing %v\n", h.sessionDownloads, h.cfg.SessionPauseDuration)
		if err := h.sleep(ctx, h.cfg.SessionPauseDuration); err != nil {
			return
		}
	}
}

// processMetadataOnly writes the metadata half of the pair and leaves the
// document for a later download pass.
func (h *Harvester) processMetadataOnly(rec types.Record, stats *Statistics) {
	stats.Attempted++
	if h.store.MetadataExists(rec.ArxivID) {
		stats.SkippedExisting++
		return
	}
	if err := h.store.WriteMetadata(rec, false); err != nil {
		fmt.Fprintf(h.w, "failed: %s (%v)\n", rec.ArxivID, err)
		stats.Failed++
		return
	}
	stats.Succeeded++
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
