package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"docingest/internal/config"
	"docingest/internal/registry"
	"docingest/internal/store"
)

func newEmployeesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Inspect and seed the employee registry",
	}
	cmd.AddCommand(newEmployeesListCommand(ctx))
	cmd.AddCommand(newEmployeesImportCommand(ctx))
	return cmd
}

func newEmployeesListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(cmd.Context(), func(reg *registry.Registry) error {
				employees := reg.Employees()
				if asJSON {
					return writeJSON(cmd, employees)
				}
				out := cmd.OutOrStdout()
				if len(employees) == 0 {
					fmt.Fprintln(out, "No active employees")
					return nil
				}
				rows := make([][]string, 0, len(employees))
				for _, e := range employees {
					rows = append(rows, []string{strconv.FormatInt(e.ID, 10), e.Name, e.TaxID, e.Badge, e.Email})
				}
				fmt.Fprintln(out, renderTable([]column{
					numCol("ID"), textCol("Name"), textCol("Tax ID"), textCol("Badge"), textCol("Email"),
				}, rows))
				return nil
			})
		},
	}
	addJSONFlag(cmd, &asJSON, "employees")
	return cmd
}

func newEmployeesImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <employees.json>",
		Short: "Load employee records into the document store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			records, err := registry.ReadJSON(path)
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				n, err := st.UpsertEmployees(cmd.Context(), records)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d employee records into %s\n", n, st.Path())
				return nil
			})
		},
	}
}
