package config

const (
	defaultConfigPath         = "~/.config/docingest/config.toml"
	defaultLogDir             = "~/.local/share/docingest/logs"
	defaultReportsDir         = "~/.local/share/docingest/reports"
	defaultStateDir           = "~/.local/share/docingest/state"
	defaultDocumentsDir       = "~/.local/share/docingest/documents"
	defaultStorePath          = "~/.local/share/docingest/documents.db"
	defaultRegistrySource     = RegistrySourceStore
	defaultWorkers            = 5
	defaultMinSimilarity      = 0.7
	defaultMaxFileSizeMB      = 50
	defaultCacheKey           = CacheKeyNameSize
	defaultStorageMode        = StorageModeMetadata
	defaultGracePeriodSeconds = 30
	defaultScanBatchSize      = 100
	defaultTransportKind      = TransportFTP
	defaultTransportTimeout   = 60
	defaultProgressIntervalMS = 1000
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Worker pool bounds.
const (
	MinWorkers = 1
	MaxWorkers = 20
)

// Registry sources.
const (
	RegistrySourceStore = "store"
	RegistrySourceJSON  = "json"
)

// Matcher cache keys. CacheKeyNameSize reuses one resolution for files that
// share a base name and size, even in different directories.
const (
	CacheKeyNameSize    = "name_size"
	CacheKeyFingerprint = "fingerprint"
)

// Storage modes describe where document bytes end up.
const (
	StorageModeMetadata = "metadata"
	StorageModeCopy     = "copy"
	StorageModeRemote   = "remote"
)

// Transport kinds.
const (
	TransportFTP   = "ftp"
	TransportS3    = "s3"
	TransportLocal = "local"
)

func defaultAllowedExtensions() []string {
	return []string{".pdf", ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".doc", ".docx", ".txt"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:       defaultLogDir,
			ReportsDir:   defaultReportsDir,
			StateDir:     defaultStateDir,
			DocumentsDir: defaultDocumentsDir,
		},
		Store: Store{
			Path: defaultStorePath,
		},
		Registry: Registry{
			Source: defaultRegistrySource,
		},
		Ingest: Ingest{
			Workers:            defaultWorkers,
			MinSimilarity:      defaultMinSimilarity,
			ContentExtraction:  true,
			MaxFileSizeMB:      defaultMaxFileSizeMB,
			AllowedExtensions:  defaultAllowedExtensions(),
			CacheKey:           defaultCacheKey,
			StorageMode:        defaultStorageMode,
			GracePeriodSeconds: defaultGracePeriodSeconds,
			ScanBatchSize:      defaultScanBatchSize,
		},
		Transport: Transport{
			Kind:           defaultTransportKind,
			TimeoutSeconds: defaultTransportTimeout,
		},
		Progress: Progress{
			Live:       true,
			IntervalMS: defaultProgressIntervalMS,
		},
		Reports: Reports{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
