// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quota tracks successful downloads per calendar day so the daily
// cap survives process restarts. State lives in a small JSON file under
// the storage root and is rewritten after every successful download, so a
// crash mid-run loses at most the in-flight item.
package quota

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// retentionDays is how long old per-day entries are kept before being
// pruned on load.
const retentionDays = 7

const dayFmt = "2006-01-02"

// state is the on-disk representation of the tracker.
type state struct {
	DailyDownloads map[string]int `json:"daily_downloads"`
	LastUpdated    string         `json:"last_updated"`
}

// Tracker counts successful downloads per local calendar day.
type Tracker struct {
	path   string
	counts map[string]int

	// now is the clock; tests substitute it to simulate day rollover.
	now func() time.Time
}

// NewTracker loads the tracker state from path. A missing or corrupt
// state file degrades to zero downloads today; load never fails. Warnings
// are written to w.
func NewTracker(path string, w io.Writer) *Tracker {
	t := &Tracker{
		path:   path,
		counts: make(map[string]int),
		now:    time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(w, "warning: could not load daily stats: %v\n", err)
		}
		return t
	}

	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		fmt.Fprintf(w, "warning: could not parse daily stats: %v\n", err)
		return t
	}

	// Keep only the retention window.
	today := t.today()
	for day, count := range s.DailyDownloads {
		d, err := time.ParseInLocation(dayFmt, day, time.Local)
		if err != nil {
			continue
		}
		if today.Sub(d) < retentionDays*24*time.Hour {
			t.counts[day] = count
		}
	}
	return t
}

// CanProceed reports whether another download is allowed under limit.
// A limit of zero or less means unlimited. The day key is the local date
// at the moment of the check, so a run spanning midnight rolls over to a
// fresh quota on its own.
func (t *Tracker) CanProceed(limit int) bool {
	if limit <= 0 {
		return true
	}
	return t.counts[t.todayKey()] < limit
}

// Today returns the number of successful downloads recorded for the
// current local date.
func (t *Tracker) Today() int {
	return t.counts[t.todayKey()]
}

// Recent returns a copy of the retained per-day counts.
func (t *Tracker) Recent() map[string]int {
	out := make(map[string]int, len(t.counts))
	for day, count := range t.counts {
		out[day] = count
	}
	return out
}

// RecordSuccess increments today's count and persists the state. A save
// failure is returned but leaves the in-memory count incremented, so the
// run can continue with a stale file.
func (t *Tracker) RecordSuccess() error {
	t.counts[t.todayKey()]++
	return t.save()
}

func (t *Tracker) save() error {
	s := state{
		DailyDownloads: t.counts,
		LastUpdated:    t.now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling daily stats: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("writing daily stats: %w", err)
	}
	return nil
}

func (t *Tracker) todayKey() string {
	return t.now().Format(dayFmt)
}

func (t *Tracker) today() time.Time {
	y, m, d := t.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
