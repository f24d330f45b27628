package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/nxny-map-etl/internal/domain"
)

// Config holds all extractor and lookup-server settings, populated from
// environment variables.
type Config struct {
	InputPath  string
	OutputPath string
	Columns    domain.Columns

	LogLevel        string
	LogFormat       string
	MetricsTextfile string
	ShutdownTimeout time.Duration

	// Kafka publisher; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int

	// Object store upload; disabled when MinioEndpoint is empty.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string
	MinioObjectKey string

	// PostgreSQL publisher; disabled when DatabaseURL is empty.
	DatabaseURL string

	// Lookup server.
	HTTPAddr string

	// Mapbox geocoding fallback for the lookup server.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	outputPath := sharedcfg.EnvOrDefault("NXNY_OUTPUT_PATH", "nxny_map.json")

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		InputPath:  sharedcfg.EnvOrDefault("NXNY_INPUT_PATH", "격자_위경도(2411).xlsx"),
		OutputPath: outputPath,
		Columns:    LoadColumns(),

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		ShutdownTimeout: shutdownTimeout,

		KafkaTopic: sharedcfg.EnvOrDefault("KAFKA_TOPIC", "nxny-grid"),
		BatchSize:  batchSize,

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		MinioBucket:    sharedcfg.EnvOrDefault("MINIO_BUCKET", "nxny-maps"),
		MinioObjectKey: sharedcfg.EnvOrDefault("MINIO_OBJECT_KEY", filepath.Base(outputPath)),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		HTTPAddr: sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	// KAFKA_BROKERS has no default: an unset variable leaves the publisher off.
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(v)
	}

	if cfg.InputPath == "" {
		return nil, errors.New("NXNY_INPUT_PATH is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("NXNY_OUTPUT_PATH is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MinioEndpoint != "" && (cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "") {
		return nil, errors.New("MINIO_ENDPOINT is set but MINIO_ACCESS_KEY or MINIO_SECRET_KEY is not")
	}
	if cfg.MinioEndpoint == "" && (cfg.MinioAccessKey != "" || cfg.MinioSecretKey != "") {
		return nil, errors.New("MINIO_ACCESS_KEY or MINIO_SECRET_KEY is set but MINIO_ENDPOINT is not")
	}
	if cfg.MinioEndpoint != "" && cfg.MinioBucket == "" {
		return nil, errors.New("MINIO_BUCKET is required when MINIO_ENDPOINT is set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// LoadColumns reads the NXNY_COLUMN_* header names, falling back to the KMA
// sheet's headers.
func LoadColumns() domain.Columns {
	defaults := domain.DefaultColumns()
	return domain.Columns{
		Levels: [3]string{
			sharedcfg.EnvOrDefault("NXNY_COLUMN_LEVEL1", defaults.Levels[0]),
			sharedcfg.EnvOrDefault("NXNY_COLUMN_LEVEL2", defaults.Levels[1]),
			sharedcfg.EnvOrDefault("NXNY_COLUMN_LEVEL3", defaults.Levels[2]),
		},
		GridX: sharedcfg.EnvOrDefault("NXNY_COLUMN_GRID_X", defaults.GridX),
		GridY: sharedcfg.EnvOrDefault("NXNY_COLUMN_GRID_Y", defaults.GridY),
	}
}

// KafkaEnabled reports whether the Kafka publisher is configured.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// MinioEnabled reports whether the object store upload is configured.
func (c *Config) MinioEnabled() bool { return c.MinioEndpoint != "" }

// PostgresEnabled reports whether the PostgreSQL publisher is configured.
func (c *Config) PostgresEnabled() bool { return c.DatabaseURL != "" }

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
