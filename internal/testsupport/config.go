package testsupport

import (
	"path/filepath"
	"testing"

	"docingest/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Live progress is disabled so test output stays quiet. It applies any
// provided options after the defaults.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ReportsDir = filepath.Join(base, "reports")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.DocumentsDir = filepath.Join(base, "documents")
	cfgVal.Store.Path = filepath.Join(base, "state", "documents.db")
	cfgVal.Transport.RemoteDir = filepath.Join(base, "remote")
	cfgVal.Progress.Live = false
	cfgVal.Ingest.GracePeriodSeconds = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithStorageMode sets ingest.storage_mode on the test config.
func WithStorageMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.StorageMode = mode
	}
}

// WithWorkers sets the worker pool size on the test config.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.Workers = n
	}
}

// WithRegistryJSON points the registry at a JSON export.
func WithRegistryJSON(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Registry.Source = config.RegistrySourceJSON
		b.cfg.Registry.JSONPath = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
