package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "LCEXTRACT_CONFIG"
	databaseDSNEnv = "DATABASE_DSN"
	bandsEnv       = "LCEXTRACT_BANDS"
	objectListEnv  = "LCEXTRACT_OBJECTS"
	exportDirEnv   = "LCEXTRACT_EXPORT_DIR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig   `yaml:"logging"`
	Database DatabaseConfig  `yaml:"database"`
	Search   SearchConfig    `yaml:"search"`
	Merge    MergeConfig     `yaml:"merge"`
	Resolver ResolverConfig  `yaml:"resolver"`
	Archives []ArchiveConfig `yaml:"archives"`
	Objects  ObjectsConfig   `yaml:"objects"`
	Export   ExportConfig    `yaml:"export"`
	Metrics  MetricsConfig   `yaml:"metrics"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the optional Postgres summary store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SearchConfig carries the cone search and band selection defaults.
type SearchConfig struct {
	ConeRadiusArcsec float64 `yaml:"coneRadiusArcsec"`
	// Bands is a compact selection string, e.g. "gri". Empty means every
	// band the configured archives support.
	Bands string `yaml:"bands"`
}

// MergeConfig tunes the merge engine.
type MergeConfig struct {
	EpochToleranceDays float64 `yaml:"epochToleranceDays"`
	// EpochPolicy is "retain-all" (default) or "collapse-weighted".
	EpochPolicy string `yaml:"epochPolicy"`
}

// ResolverConfig points at the MAST name lookup service.
type ResolverConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// ArchiveConfig describes a single archive client instance.
type ArchiveConfig struct {
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
	Enabled *bool         `yaml:"enabled"`
}

// IsEnabled defaults to true when the flag is omitted.
func (a ArchiveConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// ObjectsConfig locates the object list input.
type ObjectsConfig struct {
	File string `yaml:"file"`
}

// ExportConfig controls the CSV export collaborator.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the listener
}

// Load reads `.env` (if present), the YAML configuration (if pointed to by
// LCEXTRACT_CONFIG) and applies environment overrides.
func Load() Config {
	_ = godotenv.Load(".env")

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Archives) == 0 {
		cfg.Archives = defaultConfig().Archives
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(bandsEnv); v != "" {
		c.Search.Bands = v
	}
	if v := os.Getenv(objectListEnv); v != "" {
		c.Objects.File = v
	}
	if v := os.Getenv(exportDirEnv); v != "" {
		c.Export.Dir = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Search.ConeRadiusArcsec > 0 {
		base.Search.ConeRadiusArcsec = override.Search.ConeRadiusArcsec
	}
	if override.Search.Bands != "" {
		base.Search.Bands = override.Search.Bands
	}

	if override.Merge.EpochToleranceDays > 0 {
		base.Merge.EpochToleranceDays = override.Merge.EpochToleranceDays
	}
	if override.Merge.EpochPolicy != "" {
		base.Merge.EpochPolicy = override.Merge.EpochPolicy
	}

	if override.Resolver.Endpoint != "" {
		base.Resolver.Endpoint = override.Resolver.Endpoint
	}

	if len(override.Archives) > 0 {
		base.Archives = override.Archives
	}

	if override.Objects.File != "" {
		base.Objects.File = override.Objects.File
	}
	if override.Export.Dir != "" {
		base.Export.Dir = override.Export.Dir
	}
	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Search: SearchConfig{
			ConeRadiusArcsec: 5,
		},
		Merge: MergeConfig{
			EpochToleranceDays: 0.01,
			EpochPolicy:        "retain-all",
		},
		Resolver: ResolverConfig{
			Endpoint: "https://mast.stsci.edu/api/v0/invoke",
		},
		Archives: []ArchiveConfig{
			{Name: "ZTF", BaseURL: "https://irsa.ipac.caltech.edu/cgi-bin/ZTF", Timeout: 30 * time.Second},
			{Name: "PanSTARRS", BaseURL: "https://catalogs.mast.stsci.edu/api/v0.1/panstarrs", Timeout: 30 * time.Second},
			{Name: "PTF", BaseURL: "https://irsa.ipac.caltech.edu/cgi-bin/Gator/nph-query", Timeout: 30 * time.Second},
		},
		Objects: ObjectsConfig{File: "data/objects.csv"},
		Export:  ExportConfig{Dir: "data/LC"},
	}
}
