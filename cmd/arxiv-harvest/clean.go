package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-harvest/internal/store"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove incomplete artifact pairs from the archive",
	Long: `Clean removes documents without metadata and metadata without
documents, leaving only complete pairs. Note that metadata written by a
metadata-only harvest counts as incomplete; run download first to
complete those pairs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		st, err := store.NewStore(cfg.Storage)
		if err != nil {
			return err
		}

		removed, err := st.Sweep(os.Stdout)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d incomplete artifact(s)\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
