package types

import (
	"path/filepath"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-attempt HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "arxiv-harvest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DownloadConfig holds settings for the download stage, including the
// pacing controls that keep the harvester inside arXiv's rate budget.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// RateLimit is the delay between consecutive downloads (default 3s).
	RateLimit time.Duration `json:"rate_limit" yaml:"rate_limit"`

	// ChunkSize is the buffer size for streaming document bodies to disk
	// (default 8192 bytes).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// MaxRetries is the total number of attempts per download (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryDelay is the pause between retry attempts (default 5s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// BatchSize is the number of new downloads before a longer pause (default 10).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// BatchPause is how long to pause after each batch (default 10s).
	BatchPause time.Duration `json:"batch_pause" yaml:"batch_pause"`

	// SessionPauseAfter is the number of downloads in one process lifetime
	// between session pauses (default 100).
	SessionPauseAfter int `json:"session_pause_after" yaml:"session_pause_after"`

	// SessionPauseDuration is how long a session pause lasts (default 60s).
	SessionPauseDuration time.Duration `json:"session_pause_duration" yaml:"session_pause_duration"`

	// DailyLimit caps successful document downloads per calendar day.
	// Zero means unlimited.
	DailyLimit int `json:"daily_limit" yaml:"daily_limit"`
}

// StorageConfig holds the on-disk layout for harvested artifacts.
type StorageConfig struct {
	// BaseDir is the storage root (default "arxiv_papers"). It also holds
	// the quota state file.
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// PDFSubdir is the document directory under BaseDir (default "pdf").
	PDFSubdir string `json:"pdf_subdir" yaml:"pdf_subdir"`

	// MetadataSubdir is the metadata directory under BaseDir (default "metadata").
	MetadataSubdir string `json:"metadata_subdir" yaml:"metadata_subdir"`
}

// PDFDir returns the full path to the document directory.
func (c StorageConfig) PDFDir() string {
	return filepath.Join(c.BaseDir, c.PDFSubdir)
}

// MetadataDir returns the full path to the metadata directory.
func (c StorageConfig) MetadataDir() string {
	return filepath.Join(c.BaseDir, c.MetadataSubdir)
}

// SearchConfig holds settings for the arXiv API client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResultsPerQuery caps the page size for one API request (default 1000).
	MaxResultsPerQuery int `json:"max_results_per_query" yaml:"max_results_per_query"`

	// SortBy is the API sort field (default "submittedDate").
	SortBy string `json:"sort_by" yaml:"sort_by"`

	// SortOrder is the API sort order (default "descending").
	SortOrder string `json:"sort_order" yaml:"sort_order"`

	// RequestDelay is the minimum spacing between API requests (default 3s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// JobConfig describes one named harvest job in a jobs file. Jobs bundle a
// query scope (categories, date range or days-back window, or a custom
// query string) with per-run caps so recurring harvests are configuration
// rather than command lines.
type JobConfig struct {
	// Name is the job key from the jobs file.
	Name string `json:"name" yaml:"name"`

	// Disabled skips the job. Jobs run by default so a jobs file entry
	// needs no boilerplate to be active.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`

	// Categories filters results to these arXiv categories.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// MaxPapersPerRun caps how many records one run processes. Zero means
	// no cap beyond the daily limit.
	MaxPapersPerRun int `json:"max_papers_per_run,omitempty" yaml:"max_papers_per_run,omitempty"`

	// DateRangeDays harvests the trailing N days when set.
	DateRangeDays int `json:"date_range_days,omitempty" yaml:"date_range_days,omitempty"`

	// StartDate and EndDate bound an explicit date range (YYYY-MM-DD).
	StartDate string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty" yaml:"end_date,omitempty"`

	// MetadataOnly harvests metadata records without downloading documents.
	MetadataOnly bool `json:"metadata_only,omitempty" yaml:"metadata_only,omitempty"`

	// CustomQuery overrides the generated query string when set.
	CustomQuery string `json:"custom_query,omitempty" yaml:"custom_query,omitempty"`
}

// Config groups all stage configurations.
type Config struct {
	Download DownloadConfig `json:"download" yaml:"download"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Search   SearchConfig   `json:"search" yaml:"search"`
}
