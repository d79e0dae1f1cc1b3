// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/arxiv-harvest/pkg/types"
)

const fakePDF = "%PDF-1.4 fake"

func testFetcher(client *http.Client, maxRetries int) *Fetcher {
	f := NewFetcher(client, types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "arxiv-harvest-test/0.1",
		},
		ChunkSize:  64,
		MaxRetries: maxRetries,
		RetryDelay: time.Hour, // tests never really sleep
	})
	f.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return f
}

func TestFetchSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("User-Agent") != "arxiv-harvest-test/0.1" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(fakePDF))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "2301.07041.pdf")
	f := testFetcher(ts.Client(), 3)

	if err := f.Fetch(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if string(data) != fakePDF {
		t.Errorf("content = %q, want %q", string(data), fakePDF)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestFetchRetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(fakePDF))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "out.pdf")
	f := testFetcher(ts.Client(), 3)

	if err := f.Fetch(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("destination missing: %v", err)
	}
}

func TestFetchExhaustsRetriesLeavesNoFile(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.pdf")
	f := testFetcher(ts.Client(), 2)

	err := f.Fetch(context.Background(), ts.URL, dest)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination should not exist after failure")
	}

	// No stray temp files either.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("directory should be empty, found %d entries", len(entries))
	}
}

func TestFetchPermanentStatusNoRetry(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "out.pdf")
	f := testFetcher(ts.Client(), 5)

	err := f.Fetch(context.Background(), ts.URL, dest)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !IsPermanent(err) {
		t.Errorf("404 should be permanent, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 404)", n)
	}
}

func TestFetchMalformedURL(t *testing.T) {
	f := testFetcher(http.DefaultClient, 3)
	err := f.Fetch(context.Background(), "not a url", filepath.Join(t.TempDir(), "out.pdf"))
	if err == nil {
		t.Fatal("expected error for malformed URL")
	}
	if !IsPermanent(err) {
		t.Errorf("malformed URL should be permanent, got %v", err)
	}
}

func TestFetchContextCancelledDuringRetryWait(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	f := NewFetcher(ts.Client(), types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "t"},
		MaxRetries: 5,
		RetryDelay: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := f.Fetch(ctx, ts.URL, filepath.Join(t.TempDir(), "out.pdf"))
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if !strings.Contains(err.Error(), "context deadline exceeded") {
		t.Errorf("err = %v, want context deadline exceeded", err)
	}
}

func TestFetchLargeBodyStreams(t *testing.T) {
	// 1 MiB body with a 64-byte chunk buffer exercises the streaming path.
	body := strings.Repeat("x", 1<<20)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "big.pdf")
	f := testFetcher(ts.Client(), 1)
	if err := f.Fetch(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != int64(len(body)) {
		t.Errorf("size = %d, want %d", info.Size(), len(body))
	}
}
