package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Airspace store.
	StoreDriver     string
	SQLitePath      string
	DatabaseURL     string
	CleanupInterval time.Duration

	GeometryCacheSize int
	SourceName        string
	DefaultFIR        string
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

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cleanupInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("CLEANUP_INTERVAL", "15m"))
	if err != nil || cleanupInterval < 0 {
		return nil, errors.New("invalid CLEANUP_INTERVAL")
	}

	cacheSize, err := parseGeometryCacheSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-notams"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "airspace-restrictions"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "notam-airspace-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		StoreDriver:     strings.ToLower(sharedcfg.EnvOrDefault("STORE_DRIVER", StoreDriverSQLite)),
		SQLitePath:      sharedcfg.EnvOrDefault("SQLITE_PATH", "airspace.db"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		CleanupInterval: cleanupInterval,

		GeometryCacheSize: cacheSize,
		SourceName:        sharedcfg.EnvOrDefault("NOTAM_SOURCE_NAME", "notam"),
		DefaultFIR:        strings.ToUpper(os.Getenv("DEFAULT_FIR")),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	switch cfg.StoreDriver {
	case StoreDriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLITE_PATH is required")
		}
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: must be sqlite or postgres", cfg.StoreDriver)
	}

	return cfg, nil
}

func parseGeometryCacheSize() (int, error) {
	s := os.Getenv("GEOMETRY_CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid GEOMETRY_CACHE_SIZE: must be a positive integer")
	}
	return n, nil
}
