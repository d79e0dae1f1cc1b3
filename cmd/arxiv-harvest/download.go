package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-harvest/internal/catalog"
	"github.com/pdiddy/arxiv-harvest/internal/fetch"
	"github.com/pdiddy/arxiv-harvest/internal/harvest"
	"github.com/pdiddy/arxiv-harvest/internal/quota"
	"github.com/pdiddy/arxiv-harvest/internal/store"
)

const catalogFile = "catalog.db"

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download documents for already-harvested metadata",
	Long: `Download completes the archive for papers that have metadata but no
document yet, typically after a metadata-only harvest. Candidates are
selected from a SQLite catalog rebuilt from the metadata directory, so
selection stays fast as the archive grows.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().Int("limit", 0, "maximum documents to download this run (0 = no cap)")
	downloadCmd.Flags().String("priority", "newest", "candidate order: newest, oldest, or random")
	downloadCmd.Flags().StringSlice("categories", nil, "restrict to these arXiv categories")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	priorityFlag, _ := cmd.Flags().GetString("priority")
	priority, err := catalog.ParsePriority(priorityFlag)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	categories, _ := cmd.Flags().GetStringSlice("categories")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore(cfg.Storage)
	if err != nil {
		return err
	}
	tracker := quota.NewTracker(st.QuotaStatePath(), os.Stderr)

	cat, err := catalog.Open(filepath.Join(cfg.Storage.BaseDir, catalogFile))
	if err != nil {
		return err
	}
	defer cat.Close()

	// The metadata directory is the source of truth; the catalog is an
	// index over it.
	if _, err := cat.Rebuild(ctx, st, os.Stdout); err != nil {
		return err
	}

	pending, err := cat.Pending(ctx, categories, priority, limit)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("no pending documents")
		return nil
	}
	fmt.Printf("pending documents: %d\n", len(pending))

	client := &http.Client{Timeout: cfg.Download.Timeout}
	fetcher := fetch.NewFetcher(client, cfg.Download)
	harvester := harvest.New(st, tracker, fetcher, cfg.Download, os.Stdout)

	harvester.Process(ctx, pending, harvest.Options{})

	for _, rec := range pending {
		if st.HasPair(rec.ArxivID) {
			if err := cat.MarkFetched(ctx, rec.ArxivID); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		}
	}
	return ctx.Err()
}
