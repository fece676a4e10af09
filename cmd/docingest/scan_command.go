package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"docingest/internal/config"
	"docingest/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan <root-dir>",
		Short: "Walk a directory tree and report what a run would process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			stats, err := scanner.New(scanner.OptionsFromConfig(cfg), logger).Walk(cmd.Context(), root, func(scanner.FileDescriptor) error {
				return nil
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, stats)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderScanStats(stats))
			return nil
		},
	}
	addJSONFlag(cmd, &asJSON, "statistics")
	return cmd
}

func renderScanStats(s scanner.Stats) string {
	rows := [][]string{
		{"Directories", strconv.Itoa(s.Directories)},
		{"Unreadable directories", strconv.Itoa(s.UnreadableDirectories)},
		{"Entries", strconv.Itoa(s.Entries)},
		{"Accepted files", strconv.Itoa(s.Accepted)},
		{"Accepted size", humanize.Bytes(uint64(s.AcceptedBytes))},
	}
	exts := make([]string, 0, len(s.ByExtension))
	for ext := range s.ByExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		rows = append(rows, []string{"Files " + ext, strconv.Itoa(s.ByExtension[ext])})
	}
	reasons := make([]string, 0, len(s.Skipped))
	for reason := range s.Skipped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		rows = append(rows, []string{"Skipped (" + reason + ")", strconv.Itoa(s.Skipped[scanner.SkipReason(reason)])})
	}
	if s.LargestPath != "" {
		rows = append(rows,
			[]string{"Smallest file", fmt.Sprintf("%s (%s)", s.SmallestPath, humanize.Bytes(uint64(s.SmallestSize)))},
			[]string{"Largest file", fmt.Sprintf("%s (%s)", s.LargestPath, humanize.Bytes(uint64(s.LargestSize)))},
		)
	}
	return renderTable([]column{textCol("Metric"), numCol("Value")}, rows)
}
