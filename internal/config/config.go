package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir       string `toml:"log_dir"`
	ReportsDir   string `toml:"reports_dir"`
	StateDir     string `toml:"state_dir"`
	DocumentsDir string `toml:"documents_dir"`
}

// Store contains configuration for the SQLite document store.
type Store struct {
	Path string `toml:"path"`
}

// Registry selects where the employee snapshot is loaded from.
type Registry struct {
	// Source is "store" (employees table of the document store) or "json".
	Source   string `toml:"source"`
	JSONPath string `toml:"json_path"`
}

// Ingest contains configuration for scanning, matching, and persisting files.
type Ingest struct {
	Workers            int      `toml:"workers"`
	MinSimilarity      float64  `toml:"min_similarity"`
	ContentExtraction  bool     `toml:"content_extraction"`
	MaxFileSizeMB      int      `toml:"max_file_size_mb"`
	AllowedExtensions  []string `toml:"allowed_extensions"`
	CacheKey           string   `toml:"cache_key"`
	StorageMode        string   `toml:"storage_mode"`
	GracePeriodSeconds int      `toml:"grace_period_seconds"`
	ScanBatchSize      int      `toml:"scan_batch_size"`
}

// Transport contains configuration for the remote object-storage session used
// when ingest.storage_mode is "remote".
type Transport struct {
	Kind           string `toml:"kind"`
	Address        string `toml:"address"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	RemoteDir      string `toml:"remote_dir"`
	Endpoint       string `toml:"endpoint"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Progress contains configuration for the live progress display.
type Progress struct {
	Live       bool `toml:"live"`
	IntervalMS int  `toml:"interval_ms"`
}

// Reports contains configuration for the JSON run artifacts.
type Reports struct {
	Enabled bool `toml:"enabled"`
	Details bool `toml:"details"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for docingest.
//
// Configuration sections by subsystem:
//   - Paths: log, report, state, and local document directories
//   - Store: SQLite document store location
//   - Registry: employee snapshot source
//   - Ingest: scanner filters, matcher thresholds, worker pool, storage mode
//   - Transport: FTP / S3 / local remote session settings
//   - Progress: live display toggles and redraw interval
//   - Reports: JSON artifact generation
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Store     Store     `toml:"store"`
	Registry  Registry  `toml:"registry"`
	Ingest    Ingest    `toml:"ingest"`
	Transport Transport `toml:"transport"`
	Progress  Progress  `toml:"progress"`
	Reports   Reports   `toml:"reports"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("docingest.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a batch run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.StateDir, filepath.Dir(c.Store.Path)}
	if c.Reports.Enabled {
		dirs = append(dirs, c.Paths.ReportsDir)
	}
	if c.Ingest.StorageMode == StorageModeCopy {
		dirs = append(dirs, c.Paths.DocumentsDir)
	}
	if c.Ingest.StorageMode == StorageModeRemote && c.Transport.Kind == TransportLocal {
		dirs = append(dirs, c.Transport.RemoteDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MaxFileSizeBytes returns the scanner size ceiling in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Ingest.MaxFileSizeMB) * 1024 * 1024
}

// GracePeriod returns how long in-flight uploads may run after an interrupt.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Ingest.GracePeriodSeconds) * time.Second
}

// ProgressInterval returns the minimum delay between live progress redraws.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Progress.IntervalMS) * time.Millisecond
}

// TransportTimeout returns the per-command timeout for remote sessions.
func (c *Config) TransportTimeout() time.Duration {
	return time.Duration(c.Transport.TimeoutSeconds) * time.Second
}

// LockPath returns the single-run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "docingest.lock")
}

// ClampWorkers bounds a requested worker count to the supported pool size.
func ClampWorkers(n int) int {
	switch {
	case n < MinWorkers:
		return MinWorkers
	case n > MaxWorkers:
		return MaxWorkers
	default:
		return n
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML, masking secrets.
func (c *Config) Encode() ([]byte, error) {
	masked := *c
	masked.Transport.Password = maskSecret(masked.Transport.Password)
	masked.Transport.SecretKey = maskSecret(masked.Transport.SecretKey)
	return toml.Marshal(masked)
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}
