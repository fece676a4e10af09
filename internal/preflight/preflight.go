package preflight

import (
	"errors"
	"fmt"
	"strings"

	"docingest/internal/config"
	"docingest/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for a run over root.
func RunAll(cfg *config.Config, root string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckReadableDirectory("Root directory", root)}
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Reports.Enabled {
		results = append(results, CheckDirectoryAccess("Reports directory", cfg.Paths.ReportsDir))
	}

	switch cfg.Ingest.StorageMode {
	case config.StorageModeCopy:
		results = append(results, CheckDirectoryAccess("Documents directory", cfg.Paths.DocumentsDir))
	case config.StorageModeRemote:
		if cfg.Transport.Kind == config.TransportLocal {
			results = append(results, CheckDirectoryAccess("Transport directory", cfg.Transport.RemoteDir))
		}
	}

	if cfg.Registry.Source == config.RegistrySourceJSON {
		results = append(results, CheckReadableFile("Registry file", cfg.Registry.JSONPath))
	}
	return results
}

// Failed converts failed results into a single fatal error, or nil when
// every check passed.
func Failed(results []Result) error {
	var failures []string
	for _, r := range results {
		if !r.Passed {
			failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return services.Fatal("preflight", "run checks", errors.New(strings.Join(failures, "; ")))
}
