package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docingest/internal/config"
	"docingest/internal/pipeline"
	"docingest/internal/progress"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		workers       int
		minSimilarity float64
		noContent     bool
		live          bool
		noLive        bool
		reports       bool
		noReports     bool
		details       bool
		strictCache   bool
	)

	cmd := &cobra.Command{
		Use:   "run <root-dir>",
		Short: "Scan a directory tree and ingest every matched document",
		Long: `Scan a directory tree, resolve each document to an employee, and store the
matched documents. Files already recorded by earlier runs are reported as
duplicates. The command exits with a non-zero status only when the run could
not start.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("workers") {
				cfg.Ingest.Workers = config.ClampWorkers(workers)
			}
			if flags.Changed("min-similarity") {
				if minSimilarity < 0 || minSimilarity > 1 {
					return fmt.Errorf("--min-similarity must be between 0 and 1, got %v", minSimilarity)
				}
				cfg.Ingest.MinSimilarity = minSimilarity
			}
			if noContent {
				cfg.Ingest.ContentExtraction = false
			}
			if flags.Changed("progress") {
				cfg.Progress.Live = live
			}
			if noLive {
				cfg.Progress.Live = false
			}
			if flags.Changed("reports") {
				cfg.Reports.Enabled = reports
			}
			if noReports {
				cfg.Reports.Enabled = false
			}
			if details {
				cfg.Reports.Details = true
			}
			if strictCache {
				cfg.Ingest.CacheKey = config.CacheKeyFingerprint
			}

			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			summary, err := pipeline.New(cfg, logger).Run(cmd.Context(), pipeline.Options{
				Root:   root,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, progress.RenderSummary(summary.Stats))
			fmt.Fprintf(out, "Matcher cache: %d hits, %d misses\n", summary.CacheHits, summary.CacheMisses)
			for _, path := range summary.Reports {
				fmt.Fprintf(out, "Report: %s\n", path)
			}
			if summary.Interrupted {
				fmt.Fprintln(out, "Run interrupted; rerun the same directory to process the remaining files")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, fmt.Sprintf("Concurrent workers (%d-%d)", config.MinWorkers, config.MaxWorkers))
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0, "Minimum name similarity for a match (0-1)")
	cmd.Flags().BoolVar(&noContent, "no-content", false, "Disable document text extraction")
	cmd.Flags().BoolVar(&live, "progress", true, "Show live progress")
	cmd.Flags().BoolVar(&noLive, "no-progress", false, "Hide live progress")
	cmd.Flags().BoolVar(&reports, "reports", true, "Write JSON reports")
	cmd.Flags().BoolVar(&noReports, "no-reports", false, "Skip JSON reports")
	cmd.Flags().BoolVar(&details, "details", false, "Include the per-file details report")
	cmd.Flags().BoolVar(&strictCache, "strict-cache", false, "Cache matches per file fingerprint instead of name and size")
	return cmd
}
