// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves documents over HTTP with bounded retries. Bodies
// stream to a temporary file in fixed-size chunks and are renamed into
// place only on success, so the destination never holds a partial file.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/arxiv-harvest/pkg/types"
)

const defaultChunkSize = 8192

// permanentError marks failures that retrying cannot fix: malformed URLs
// and client-side HTTP status codes.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// IsPermanent reports whether err was classified as non-retryable.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Fetcher downloads documents subject to the retry policy in cfg.
type Fetcher struct {
	client *http.Client
	cfg    types.DownloadConfig

	// sleep is the retry pause; tests substitute it.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher returns a Fetcher using client for transport.
func NewFetcher(client *http.Client, cfg types.DownloadConfig) *Fetcher {
	return &Fetcher{client: client, cfg: cfg, sleep: sleepCtx}
}

// Fetch downloads rawURL to destPath, retrying transient failures up to
// the configured attempt count with the configured delay between
// attempts. Transport errors, timeouts, and 5xx/429 responses are
// transient; a malformed URL or any other non-200 status fails
// immediately. On failure of any kind destPath is left untouched.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destPath string) error {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return &permanentError{fmt.Errorf("invalid URL %q: %w", rawURL, err)}
	}

	attempts := f.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := f.fetchOnce(ctx, rawURL, destPath)
		if err == nil {
			return nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return err
		}
		lastErr = err
		if attempt < attempts {
			if serr := f.sleep(ctx, f.cfg.RetryDelay); serr != nil {
				return serr
			}
		}
	}
	return fmt.Errorf("all %d download attempts failed: %w", attempts, lastErr)
}

// fetchOnce performs a single attempt: request, stream to temp file,
// rename into place.
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &permanentError{fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	default:
		return &permanentError{fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return &permanentError{fmt.Errorf("creating temp file: %w", err)}
	}
	tmpPath := tmpFile.Name()

	chunk := f.cfg.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	_, copyErr := io.CopyBuffer(tmpFile, resp.Body, make([]byte, chunk))
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return &permanentError{fmt.Errorf("renaming temp file: %w", err)}
	}
	return nil
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
