// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxiv-harvest CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-harvest/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the arxiv-harvest CLI.
var rootCmd = &cobra.Command{
	Use:   "arxiv-harvest",
	Short: "Harvest arXiv papers and metadata into a local archive",
	Long: `arxiv-harvest searches the arXiv API for papers matching categories or
date ranges, downloads their PDFs and metadata into a local directory
layout, and tracks daily download quotas so long-running harvests stay
inside arXiv's rate expectations.

Each operation is a subcommand: harvest fetches metadata and documents
for a query, download completes documents for already-harvested
metadata, stats reports archive and quota state, and clean removes
incomplete artifact pairs.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./arxiv-harvest.yaml or ~/.config/arxiv-harvest/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "base directory for the archive (default: ./arxiv_papers)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("arxiv-harvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arxiv-harvest"))
		}
	}

	viper.SetEnvPrefix("ARXIV_HARVEST")
	viper.AutomaticEnv()

	viper.SetDefault("download.timeout", 30*time.Second)
	viper.SetDefault("download.user_agent", "arxiv-harvest/"+version)
	viper.SetDefault("download.rate_limit", 3*time.Second)
	viper.SetDefault("download.chunk_size", 8192)
	viper.SetDefault("download.max_retries", 3)
	viper.SetDefault("download.retry_delay", 5*time.Second)
	viper.SetDefault("download.batch_size", 10)
	viper.SetDefault("download.batch_pause", 10*time.Second)
	viper.SetDefault("download.session_pause_after", 100)
	viper.SetDefault("download.session_pause_duration", time.Minute)
	viper.SetDefault("download.daily_limit", 0)

	viper.SetDefault("storage.base_dir", "arxiv_papers")
	viper.SetDefault("storage.pdf_subdir", "pdf")
	viper.SetDefault("storage.metadata_subdir", "metadata")

	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.max_results_per_query", 1000)
	viper.SetDefault("search.sort_by", "submittedDate")
	viper.SetDefault("search.sort_order", "descending")
	viper.SetDefault("search.request_delay", 3*time.Second)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig materializes the effective configuration from viper plus the
// persistent flags.
func loadConfig() types.Config {
	cfg := types.Config{
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("download.timeout"),
				UserAgent: viper.GetString("download.user_agent"),
			},
			RateLimit:            viper.GetDuration("download.rate_limit"),
			ChunkSize:            viper.GetInt("download.chunk_size"),
			MaxRetries:           viper.GetInt("download.max_retries"),
			RetryDelay:           viper.GetDuration("download.retry_delay"),
			BatchSize:            viper.GetInt("download.batch_size"),
			BatchPause:           viper.GetDuration("download.batch_pause"),
			SessionPauseAfter:    viper.GetInt("download.session_pause_after"),
			SessionPauseDuration: viper.GetDuration("download.session_pause_duration"),
			DailyLimit:           viper.GetInt("download.daily_limit"),
		},
		Storage: types.StorageConfig{
			BaseDir:        viper.GetString("storage.base_dir"),
			PDFSubdir:      viper.GetString("storage.pdf_subdir"),
			MetadataSubdir: viper.GetString("storage.metadata_subdir"),
		},
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: viper.GetString("download.user_agent"),
			},
			MaxResultsPerQuery: viper.GetInt("search.max_results_per_query"),
			SortBy:             viper.GetString("search.sort_by"),
			SortOrder:          viper.GetString("search.sort_order"),
			RequestDelay:       viper.GetDuration("search.request_delay"),
		},
	}

	if dataDir, _ := rootCmd.PersistentFlags().GetString("data-dir"); dataDir != "" {
		cfg.Storage.BaseDir = dataDir
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
