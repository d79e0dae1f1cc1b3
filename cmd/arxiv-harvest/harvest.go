package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-harvest/internal/fetch"
	"github.com/pdiddy/arxiv-harvest/internal/harvest"
	"github.com/pdiddy/arxiv-harvest/internal/quota"
	"github.com/pdiddy/arxiv-harvest/internal/search"
	"github.com/pdiddy/arxiv-harvest/internal/store"
	"github.com/pdiddy/arxiv-harvest/pkg/types"
)

const dateLayout = "2006-01-02"

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Search arXiv and download matching papers",
	Long: `Harvest queries the arXiv API for papers matching categories, a date
range, or a custom query, then downloads metadata and PDFs for each
result. Papers already present in the archive are skipped, and the pass
stops cleanly when the daily download limit is reached.

With --jobs-file, harvest runs the named job (--job) or every job the
file does not mark disabled.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("query", "", "custom arXiv query string (overrides category/date flags)")
	harvestCmd.Flags().StringSlice("categories", nil, "arXiv categories to harvest (e.g. cs.AI,cs.LG)")
	harvestCmd.Flags().Int("days-back", 0, "harvest papers submitted in the trailing N days")
	harvestCmd.Flags().String("from", "", "date range start (YYYY-MM-DD)")
	harvestCmd.Flags().String("to", "", "date range end (YYYY-MM-DD, default today)")
	harvestCmd.Flags().Int("max-results", 0, "cap on records processed this run (0 = no cap)")
	harvestCmd.Flags().Bool("metadata-only", false, "harvest metadata without downloading documents")
	harvestCmd.Flags().String("jobs-file", "", "YAML jobs file to run instead of flags")
	harvestCmd.Flags().String("job", "", "run only this job from the jobs file")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore(cfg.Storage)
	if err != nil {
		return err
	}
	tracker := quota.NewTracker(st.QuotaStatePath(), os.Stderr)

	client := &http.Client{Timeout: cfg.Download.Timeout}
	fetcher := fetch.NewFetcher(client, cfg.Download)
	searcher := search.NewClient(&http.Client{Timeout: cfg.Search.Timeout}, cfg.Search)
	harvester := harvest.New(st, tracker, fetcher, cfg.Download, os.Stdout)

	jobsFile, _ := cmd.Flags().GetString("jobs-file")
	if jobsFile != "" {
		return runJobs(ctx, cmd, harvester, searcher, jobsFile)
	}

	job, err := jobFromFlags(cmd)
	if err != nil {
		return err
	}
	return runJob(ctx, harvester, searcher, job)
}

// jobFromFlags assembles an ad-hoc job from the harvest command's flags.
func jobFromFlags(cmd *cobra.Command) (types.JobConfig, error) {
	var job types.JobConfig
	job.Name = "adhoc"
	job.CustomQuery, _ = cmd.Flags().GetString("query")
	job.Categories, _ = cmd.Flags().GetStringSlice("categories")
	job.DateRangeDays, _ = cmd.Flags().GetInt("days-back")
	job.StartDate, _ = cmd.Flags().GetString("from")
	job.EndDate, _ = cmd.Flags().GetString("to")
	job.MaxPapersPerRun, _ = cmd.Flags().GetInt("max-results")
	job.MetadataOnly, _ = cmd.Flags().GetBool("metadata-only")

	if job.CustomQuery == "" && len(job.Categories) == 0 && job.DateRangeDays == 0 && job.StartDate == "" {
		return job, fmt.Errorf("provide --query, --categories, --days-back, or --from (or use --jobs-file)")
	}
	return job, nil
}

// runJobs loads the jobs file and runs the selected job, or every
// non-disabled job in name order.
func runJobs(ctx context.Context, cmd *cobra.Command, h *harvest.Harvester, searcher *search.Client, path string) error {
	jobs, err := harvest.LoadJobs(path)
	if err != nil {
		return err
	}

	if name, _ := cmd.Flags().GetString("job"); name != "" {
		job, ok := jobs[name]
		if !ok {
			return fmt.Errorf("job %q not found in %s", name, path)
		}
		return runJob(ctx, h, searcher, job)
	}

	names := make([]string, 0, len(jobs))
	for name := range jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		job := jobs[name]
		if job.Disabled {
			fmt.Printf("skipping disabled job: %s\n", name)
			continue
		}
		fmt.Printf("running job: %s\n", name)
		if err := runJob(ctx, h, searcher, job); err != nil {
			return fmt.Errorf("job %s: %w", name, err)
		}
	}
	return nil
}

// runJob searches for the job's candidates and processes them.
func runJob(ctx context.Context, h *harvest.Harvester, searcher *search.Client, job types.JobConfig) error {
	query, err := buildQuery(job)
	if err != nil {
		return err
	}

	records, err := searcher.SearchAll(ctx, query, job.MaxPapersPerRun, os.Stdout)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("no matching papers found")
		return nil
	}

	h.Process(ctx, records, harvest.Options{MetadataOnly: job.MetadataOnly})
	return ctx.Err()
}

// buildQuery turns a job's scope into an arXiv query string.
func buildQuery(job types.JobConfig) (string, error) {
	if job.CustomQuery != "" {
		return job.CustomQuery, nil
	}

	if job.StartDate != "" {
		start, err := time.Parse(dateLayout, job.StartDate)
		if err != nil {
			return "", fmt.Errorf("parsing start date %q: %w", job.StartDate, err)
		}
		end := time.Now()
		if job.EndDate != "" {
			end, err = time.Parse(dateLayout, job.EndDate)
			if err != nil {
				return "", fmt.Errorf("parsing end date %q: %w", job.EndDate, err)
			}
		}
		return search.DateRangeQuery(start, end, job.Categories), nil
	}

	if job.DateRangeDays > 0 {
		return search.RecentQuery(job.DateRangeDays, job.Categories), nil
	}

	if q := search.CategoryQuery(job.Categories); q != "" {
		return q, nil
	}
	return "", fmt.Errorf("job %s has no query scope", job.Name)
}
