package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// addJSONFlag registers the --json switch shared by the read-only commands.
func addJSONFlag(cmd *cobra.Command, target *bool, what string) {
	cmd.Flags().BoolVar(target, "json", false, "Print "+what+" as JSON")
}

// writeJSON prints v as indented JSON. File paths are written verbatim, so
// HTML escaping is off.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
