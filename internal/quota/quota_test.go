// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quota

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func statsPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "download_stats.json")
}

func TestNewTrackerMissingFile(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(statsPath(t), &buf)

	if !tr.CanProceed(1) {
		t.Error("fresh tracker should permit downloads")
	}
	if tr.Today() != 0 {
		t.Errorf("Today() = %d, want 0", tr.Today())
	}
	if buf.Len() != 0 {
		t.Errorf("missing file should not warn, got %q", buf.String())
	}
}

func TestNewTrackerCorruptFile(t *testing.T) {
	path := statsPath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	tr := NewTracker(path, &buf)

	if tr.Today() != 0 {
		t.Errorf("Today() = %d, want 0 after corrupt load", tr.Today())
	}
	if !strings.Contains(buf.String(), "warning:") {
		t.Errorf("corrupt file should warn, got %q", buf.String())
	}
}

func TestRecordSuccessPersists(t *testing.T) {
	path := statsPath(t)
	var buf bytes.Buffer

	tr := NewTracker(path, &buf)
	for i := 0; i < 3; i++ {
		if err := tr.RecordSuccess(); err != nil {
			t.Fatalf("RecordSuccess: %v", err)
		}
	}
	if tr.Today() != 3 {
		t.Errorf("Today() = %d, want 3", tr.Today())
	}

	// A new tracker over the same file sees the persisted count.
	tr2 := NewTracker(path, &buf)
	if tr2.Today() != 3 {
		t.Errorf("reloaded Today() = %d, want 3", tr2.Today())
	}
}

func TestCanProceedLimit(t *testing.T) {
	tr := NewTracker(statsPath(t), os.Stderr)

	for i := 0; i < 3; i++ {
		if !tr.CanProceed(3) {
			t.Fatalf("download %d should be allowed under limit 3", i+1)
		}
		if err := tr.RecordSuccess(); err != nil {
			t.Fatal(err)
		}
	}
	if tr.CanProceed(3) {
		t.Error("limit 3 reached, CanProceed should be false")
	}
	if !tr.CanProceed(0) {
		t.Error("limit 0 means unlimited")
	}
	if !tr.CanProceed(-1) {
		t.Error("negative limit means unlimited")
	}
}

func TestDayRollover(t *testing.T) {
	path := statsPath(t)
	var buf bytes.Buffer

	yesterday := time.Now().Add(-24 * time.Hour)
	tr := NewTracker(path, &buf)
	tr.now = func() time.Time { return yesterday }
	for i := 0; i < 5; i++ {
		if err := tr.RecordSuccess(); err != nil {
			t.Fatal(err)
		}
	}
	if tr.CanProceed(5) {
		t.Fatal("yesterday's quota should be exhausted")
	}

	// Same tracker, clock advances past midnight: full fresh quota.
	tr.now = time.Now
	if !tr.CanProceed(5) {
		t.Error("new day should permit a full fresh limit")
	}
	if tr.Today() != 0 {
		t.Errorf("Today() = %d, want 0 on the new day", tr.Today())
	}
}

func TestOldEntriesPrunedOnLoad(t *testing.T) {
	path := statsPath(t)

	old := time.Now().AddDate(0, 0, -10).Format(dayFmt)
	recent := time.Now().AddDate(0, 0, -2).Format(dayFmt)
	s := state{
		DailyDownloads: map[string]int{old: 40, recent: 7},
		LastUpdated:    time.Now().Format(time.RFC3339),
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	tr := NewTracker(path, os.Stderr)
	got := tr.Recent()
	if _, ok := got[old]; ok {
		t.Errorf("entry older than retention window should be pruned: %v", got)
	}
	if got[recent] != 7 {
		t.Errorf("recent entry = %d, want 7", got[recent])
	}
}

func TestStateFileShape(t *testing.T) {
	path := statsPath(t)
	tr := NewTracker(path, os.Stderr)
	if err := tr.RecordSuccess(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if s.LastUpdated == "" {
		t.Error("last_updated should be set")
	}
	today := time.Now().Format(dayFmt)
	if s.DailyDownloads[today] != 1 {
		t.Errorf("daily_downloads[%s] = %d, want 1", today, s.DailyDownloads[today])
	}
}
