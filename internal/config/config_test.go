package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"docingest/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "docingest", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Store.Path != filepath.Join(tempHome, ".local", "share", "docingest", "documents.db") {
		t.Fatalf("unexpected store path: %q", cfg.Store.Path)
	}
	if cfg.Ingest.Workers != 5 {
		t.Fatalf("expected 5 workers by default, got %d", cfg.Ingest.Workers)
	}
	if cfg.Ingest.MinSimilarity != 0.7 {
		t.Fatalf("expected min similarity 0.7, got %v", cfg.Ingest.MinSimilarity)
	}
	if cfg.Ingest.CacheKey != config.CacheKeyNameSize {
		t.Fatalf("expected name_size cache key by default, got %q", cfg.Ingest.CacheKey)
	}
	if cfg.MaxFileSizeBytes() != 50*1024*1024 {
		t.Fatalf("unexpected max file size: %d", cfg.MaxFileSizeBytes())
	}
	if cfg.ProgressInterval().Seconds() != 1 {
		t.Fatalf("unexpected progress interval: %v", cfg.ProgressInterval())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DOCINGEST_FTP_PASSWORD", "from-env")

	configPath := filepath.Join(tempHome, "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"reports_dir": "~/reports",
		},
		"ingest": map[string]any{
			"workers":            64,
			"min_similarity":     0.85,
			"allowed_extensions": []string{"PDF", ".png", "pdf"},
			"storage_mode":       "remote",
			"cache_key":          "FINGERPRINT",
		},
		"transport": map[string]any{
			"kind":     "ftp",
			"address":  "ftp.internal:21",
			"username": "svc",
			"base_url": "https://files.internal/docs/",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to be loaded from %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.ReportsDir != filepath.Join(tempHome, "reports") {
		t.Fatalf("unexpected reports dir: %q", cfg.Paths.ReportsDir)
	}
	if cfg.Ingest.Workers != config.MaxWorkers {
		t.Fatalf("expected workers clamped to %d, got %d", config.MaxWorkers, cfg.Ingest.Workers)
	}
	if got := strings.Join(cfg.Ingest.AllowedExtensions, ","); got != ".pdf,.png" {
		t.Fatalf("unexpected extensions: %q", got)
	}
	if cfg.Ingest.CacheKey != config.CacheKeyFingerprint {
		t.Fatalf("unexpected cache key: %q", cfg.Ingest.CacheKey)
	}
	if cfg.Transport.Password != "from-env" {
		t.Fatalf("expected password from env, got %q", cfg.Transport.Password)
	}
	if cfg.Transport.BaseURL != "https://files.internal/docs" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Transport.BaseURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"similarity above one", func(c *config.Config) { c.Ingest.MinSimilarity = 1.5 }, "min_similarity"},
		{"unknown storage mode", func(c *config.Config) { c.Ingest.StorageMode = "tape" }, "storage_mode"},
		{"unknown cache key", func(c *config.Config) { c.Ingest.CacheKey = "path" }, "cache_key"},
		{"json registry without path", func(c *config.Config) { c.Registry.Source = config.RegistrySourceJSON }, "json_path"},
		{"ftp without address", func(c *config.Config) {
			c.Ingest.StorageMode = config.StorageModeRemote
			c.Transport.Kind = config.TransportFTP
		}, "transport.address"},
		{"s3 without bucket", func(c *config.Config) {
			c.Ingest.StorageMode = config.StorageModeRemote
			c.Transport.Kind = config.TransportS3
			c.Transport.Endpoint = "minio:9000"
		}, "transport.bucket"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestClampWorkers(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{7, 7},
		{20, 20},
		{21, 20},
	}
	for _, tt := range tests {
		if got := config.ClampWorkers(tt.in); got != tt.want {
			t.Errorf("ClampWorkers(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Ingest.StorageMode != config.StorageModeMetadata {
		t.Fatalf("unexpected storage mode in sample: %q", cfg.Ingest.StorageMode)
	}
}

func TestEncodeMasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Transport.Password = "hunter2"
	cfg.Transport.SecretKey = "s3cr3t"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	text := string(data)
	if strings.Contains(text, "hunter2") || strings.Contains(text, "s3cr3t") {
		t.Fatalf("expected secrets to be masked, got:\n%s", text)
	}
	if cfg.Transport.Password != "hunter2" {
		t.Fatal("Encode must not mutate the receiver")
	}
}
