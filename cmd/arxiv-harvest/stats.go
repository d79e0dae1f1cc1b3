package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-harvest/internal/quota"
	"github.com/pdiddy/arxiv-harvest/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report archive size and download quota state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		st, err := store.NewStore(cfg.Storage)
		if err != nil {
			return err
		}
		storageStats, err := st.Stats()
		if err != nil {
			return err
		}

		tracker := quota.NewTracker(st.QuotaStatePath(), os.Stderr)

		fmt.Printf("storage path:    %s\n", storageStats.StoragePath)
		fmt.Printf("documents:       %d\n", storageStats.TotalPapers)
		fmt.Printf("metadata:        %d\n", storageStats.TotalMetadata)
		fmt.Printf("total size:      %.1f MB\n", float64(storageStats.TotalSizeBytes)/(1024*1024))
		fmt.Printf("downloads today: %d", tracker.Today())
		if cfg.Download.DailyLimit > 0 {
			fmt.Printf(" / %d", cfg.Download.DailyLimit)
		}
		fmt.Println()

		recent := tracker.Recent()
		if len(recent) > 0 {
			days := make([]string, 0, len(recent))
			for day := range recent {
				days = append(days, day)
			}
			sort.Strings(days)
			fmt.Println("recent days:")
			for _, day := range days {
				fmt.Printf("  %s: %d\n", day, recent[day])
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
