package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"docingest/internal/matcher"
	"docingest/internal/registry"
	"docingest/internal/scanner"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var (
		limit     int
		asJSON    bool
		noContent bool
	)

	cmd := &cobra.Command{
		Use:   "match <file>...",
		Short: "Explain how files resolve against the employee registry",
		Long: `Resolve each argument against the employee registry and print the extracted
candidates, identifiers, and the nearest employees. Arguments that do not
exist on disk are treated as bare file names.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			opts := matcher.OptionsFromConfig(cfg)
			if noContent {
				opts.Text = nil
			}

			return ctx.withRegistry(cmd.Context(), func(reg *registry.Registry) error {
				m := matcher.New(reg, opts, logger)
				diagnoses := make([]matcher.Diagnosis, 0, len(args))
				for _, arg := range args {
					diagnoses = append(diagnoses, m.Diagnose(cmd.Context(), describe(arg), limit))
				}
				if asJSON {
					return writeJSON(cmd, diagnoses)
				}
				out := cmd.OutOrStdout()
				for _, d := range diagnoses {
					printDiagnosis(out, d)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 3, "Nearest employees to show per file")
	addJSONFlag(cmd, &asJSON, "diagnoses")
	cmd.Flags().BoolVar(&noContent, "no-content", false, "Ignore document text")
	return cmd
}

// describe builds a descriptor for a path, or a name-only descriptor when
// the path does not exist.
func describe(arg string) scanner.FileDescriptor {
	fd := scanner.FileDescriptor{Path: arg, DisplayName: filepath.Base(arg), Extension: strings.ToLower(filepath.Ext(arg))}
	if info, err := os.Stat(arg); err == nil && info.Mode().IsRegular() {
		fd.Size = info.Size()
		fd.ModifiedAt = info.ModTime()
		fd.Fingerprint = scanner.Fingerprint(arg, info.Size(), info.ModTime())
	}
	return fd
}

func printDiagnosis(out io.Writer, d matcher.Diagnosis) {
	fmt.Fprintf(out, "%s\n", d.File)
	if d.Result.Matched() {
		e := d.Result.Employee
		fmt.Fprintf(out, "  Match:       employee %d (%s) via %s, score %.3f\n", e.ID, e.Name, d.Result.Via, d.Result.Score)
	} else {
		fmt.Fprintln(out, "  Match:       none")
	}
	fmt.Fprintf(out, "  Reason:      %s\n", d.Result.Reason)
	fmt.Fprintf(out, "  Candidates:  %s\n", joinOrDash(d.Candidates))
	fmt.Fprintf(out, "  Identifiers: %s\n", joinOrDash(d.Identifiers))
	if len(d.Emails) > 0 {
		fmt.Fprintf(out, "  Emails:      %s\n", strings.Join(d.Emails, ", "))
	}
	if len(d.Nearest) > 0 {
		rows := make([][]string, 0, len(d.Nearest))
		for _, n := range d.Nearest {
			rows = append(rows, []string{n.Candidate, n.Target, strconv.FormatFloat(n.Score, 'f', 3, 64)})
		}
		fmt.Fprintln(out, renderTable([]column{textCol("Candidate"), textCol("Employee"), numCol("Score")}, rows))
	}
	fmt.Fprintln(out)
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
