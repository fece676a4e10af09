package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRegistry(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateTransport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRegistry() error {
	switch c.Registry.Source {
	case RegistrySourceStore:
		return nil
	case RegistrySourceJSON:
		if strings.TrimSpace(c.Registry.JSONPath) == "" {
			return errors.New("registry.json_path must be set when registry.source is \"json\"")
		}
		return nil
	default:
		return fmt.Errorf("registry.source: unsupported value %q (expected store or json)", c.Registry.Source)
	}
}

func (c *Config) validateIngest() error {
	if c.Ingest.Workers < MinWorkers || c.Ingest.Workers > MaxWorkers {
		return fmt.Errorf("ingest.workers must be between %d and %d", MinWorkers, MaxWorkers)
	}
	if c.Ingest.MinSimilarity < 0 || c.Ingest.MinSimilarity > 1 {
		return errors.New("ingest.min_similarity must be between 0 and 1")
	}
	switch c.Ingest.CacheKey {
	case CacheKeyNameSize, CacheKeyFingerprint:
	default:
		return fmt.Errorf("ingest.cache_key: unsupported value %q (expected name_size or fingerprint)", c.Ingest.CacheKey)
	}
	switch c.Ingest.StorageMode {
	case StorageModeMetadata, StorageModeCopy, StorageModeRemote:
	default:
		return fmt.Errorf("ingest.storage_mode: unsupported value %q (expected metadata, copy, or remote)", c.Ingest.StorageMode)
	}
	return nil
}

func (c *Config) validateTransport() error {
	if c.Ingest.StorageMode != StorageModeRemote {
		return nil
	}
	switch c.Transport.Kind {
	case TransportFTP:
		if c.Transport.Address == "" {
			return errors.New("transport.address must be set when transport.kind is \"ftp\"")
		}
		if c.Transport.Username == "" {
			return errors.New("transport.username must be set when transport.kind is \"ftp\"")
		}
	case TransportS3:
		if c.Transport.Endpoint == "" {
			return errors.New("transport.endpoint must be set when transport.kind is \"s3\"")
		}
		if c.Transport.Bucket == "" {
			return errors.New("transport.bucket must be set when transport.kind is \"s3\"")
		}
		if c.Transport.AccessKey == "" || c.Transport.SecretKey == "" {
			return errors.New("transport.access_key and transport.secret_key are required for s3 (or set DOCINGEST_S3_ACCESS_KEY / DOCINGEST_S3_SECRET_KEY)")
		}
	case TransportLocal:
		if c.Transport.RemoteDir == "" {
			return errors.New("transport.remote_dir must be set when transport.kind is \"local\"")
		}
	default:
		return fmt.Errorf("transport.kind: unsupported value %q (expected ftp, s3, or local)", c.Transport.Kind)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
