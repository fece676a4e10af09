package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"docingest/internal/store"
)

func newDocumentsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Inspect documents recorded in the store",
	}
	cmd.AddCommand(newDocumentsListCommand(ctx))
	return cmd
}

func newDocumentsListCommand(ctx *commandContext) *cobra.Command {
	var (
		employeeID int64
		runID      string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents by employee or by run",
		Long: "List the documents linked to one employee (--employee) or inserted by one run (--run).\n" +
			"Without a filter, prints the number of stored documents.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if employeeID != 0 && runID != "" {
				return errors.New("--employee and --run are mutually exclusive")
			}
			return ctx.withStore(func(st *store.Store) error {
				out := cmd.OutOrStdout()
				var (
					docs []*store.Document
					err  error
				)
				switch {
				case employeeID != 0:
					docs, err = st.DocumentsByEmployee(cmd.Context(), employeeID)
				case runID != "":
					docs, err = st.DocumentsByRun(cmd.Context(), runID)
				default:
					n, err := st.CountDocuments(cmd.Context())
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(cmd, map[string]int{"documents": n})
					}
					fmt.Fprintf(out, "%d documents stored in %s\n", n, st.Path())
					return nil
				}
				if err != nil {
					return err
				}
				if asJSON {
					if docs == nil {
						docs = []*store.Document{}
					}
					return writeJSON(cmd, docs)
				}
				if len(docs) == 0 {
					fmt.Fprintln(out, "No documents")
					return nil
				}
				rows := make([][]string, 0, len(docs))
				for _, d := range docs {
					rows = append(rows, []string{
						d.CreatedAt.Local().Format("2006-01-02 15:04"),
						strconv.FormatInt(d.EmployeeID, 10),
						d.FileName,
						d.MatchedVia,
						strconv.FormatFloat(d.Score, 'f', 3, 64),
						humanize.IBytes(uint64(d.SizeBytes)),
						d.StorageRef,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					textCol("Stored"), numCol("Employee"), textCol("File"), textCol("Via"),
					numCol("Score"), numCol("Size"), textCol("Ref"),
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&employeeID, "employee", 0, "Only documents linked to this employee id")
	cmd.Flags().StringVar(&runID, "run", "", "Only documents inserted by this run id")
	addJSONFlag(cmd, &asJSON, "documents")
	return cmd
}
