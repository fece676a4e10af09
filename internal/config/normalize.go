package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeRegistry(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeTransport()
	c.normalizeProgress()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(orDefault(c.Paths.LogDir, defaultLogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ReportsDir, err = expandPath(orDefault(c.Paths.ReportsDir, defaultReportsDir)); err != nil {
		return fmt.Errorf("paths.reports_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(orDefault(c.Paths.StateDir, defaultStateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.DocumentsDir, err = expandPath(orDefault(c.Paths.DocumentsDir, defaultDocumentsDir)); err != nil {
		return fmt.Errorf("paths.documents_dir: %w", err)
	}
	if c.Store.Path, err = expandPath(orDefault(c.Store.Path, defaultStorePath)); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeRegistry() error {
	c.Registry.Source = strings.ToLower(strings.TrimSpace(c.Registry.Source))
	if c.Registry.Source == "" {
		c.Registry.Source = defaultRegistrySource
	}
	if strings.TrimSpace(c.Registry.JSONPath) == "" {
		return nil
	}
	var err error
	if c.Registry.JSONPath, err = expandPath(strings.TrimSpace(c.Registry.JSONPath)); err != nil {
		return fmt.Errorf("registry.json_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeIngest() {
	c.Ingest.Workers = ClampWorkers(c.Ingest.Workers)
	if c.Ingest.MaxFileSizeMB <= 0 {
		c.Ingest.MaxFileSizeMB = defaultMaxFileSizeMB
	}
	if c.Ingest.ScanBatchSize <= 0 {
		c.Ingest.ScanBatchSize = defaultScanBatchSize
	}
	if c.Ingest.GracePeriodSeconds <= 0 {
		c.Ingest.GracePeriodSeconds = defaultGracePeriodSeconds
	}
	c.Ingest.CacheKey = strings.ToLower(strings.TrimSpace(c.Ingest.CacheKey))
	if c.Ingest.CacheKey == "" {
		c.Ingest.CacheKey = defaultCacheKey
	}
	c.Ingest.StorageMode = strings.ToLower(strings.TrimSpace(c.Ingest.StorageMode))
	if c.Ingest.StorageMode == "" {
		c.Ingest.StorageMode = defaultStorageMode
	}

	exts := make([]string, 0, len(c.Ingest.AllowedExtensions))
	seen := make(map[string]struct{}, len(c.Ingest.AllowedExtensions))
	for _, ext := range c.Ingest.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = defaultAllowedExtensions()
	}
	c.Ingest.AllowedExtensions = exts
}

func (c *Config) normalizeTransport() {
	c.Transport.Kind = strings.ToLower(strings.TrimSpace(c.Transport.Kind))
	if c.Transport.Kind == "" {
		c.Transport.Kind = defaultTransportKind
	}
	c.Transport.Address = strings.TrimSpace(c.Transport.Address)
	c.Transport.Endpoint = strings.TrimSpace(c.Transport.Endpoint)
	c.Transport.Bucket = strings.TrimSpace(c.Transport.Bucket)
	c.Transport.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transport.BaseURL), "/")
	c.Transport.RemoteDir = strings.TrimSpace(c.Transport.RemoteDir)
	if c.Transport.Password == "" {
		if value, ok := os.LookupEnv("DOCINGEST_FTP_PASSWORD"); ok {
			c.Transport.Password = value
		}
	}
	if c.Transport.AccessKey == "" {
		if value, ok := os.LookupEnv("DOCINGEST_S3_ACCESS_KEY"); ok {
			c.Transport.AccessKey = strings.TrimSpace(value)
		}
	}
	if c.Transport.SecretKey == "" {
		if value, ok := os.LookupEnv("DOCINGEST_S3_SECRET_KEY"); ok {
			c.Transport.SecretKey = strings.TrimSpace(value)
		}
	}
	if c.Transport.TimeoutSeconds <= 0 {
		c.Transport.TimeoutSeconds = defaultTransportTimeout
	}
}

func (c *Config) normalizeProgress() {
	if c.Progress.IntervalMS <= 0 {
		c.Progress.IntervalMS = defaultProgressIntervalMS
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
