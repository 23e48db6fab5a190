package config

import (
	"errors"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
// Credentials are resolved once here and injected; nothing else in the
// process reads the environment.
type Config struct {
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	USGSBaseURL string

	RunTimeout time.Duration
	HTTPAddr   string
	LogLevel   string
	LogFormat  string

	// Optional landed-object notifier.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. The secret pair ACCESS_KEY/SECRET_KEY has no default;
// a missing value is fatal before any run starts.
func Load() (*Config, error) {
	runTimeout, err := parseRunTimeout()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		S3Endpoint:  sharedcfg.EnvOrDefault("S3_ENDPOINT", "minio:9000"),
		S3AccessKey: os.Getenv("ACCESS_KEY"),
		S3SecretKey: os.Getenv("SECRET_KEY"),
		S3Bucket:    sharedcfg.EnvOrDefault("S3_BUCKET", "prod"),
		S3UseSSL:    os.Getenv("S3_USE_SSL") == "true",

		USGSBaseURL: sharedcfg.EnvOrDefault("USGS_BASE_URL", "https://earthquake.usgs.gov/fdsnws/event/1/query"),

		RunTimeout: runTimeout,
		HTTPAddr:   os.Getenv("HTTP_ADDR"),
		LogLevel:   sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:  sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "raw-ingestion-events"),
		KafkaEnabled: kafkaEnabled,
	}

	if cfg.S3AccessKey == "" {
		return nil, errors.New("ACCESS_KEY is required")
	}
	if cfg.S3SecretKey == "" {
		return nil, errors.New("SECRET_KEY is required")
	}
	if cfg.S3Endpoint == "" {
		return nil, errors.New("S3_ENDPOINT is required")
	}
	if cfg.S3Bucket == "" {
		return nil, errors.New("S3_BUCKET is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// parseRunTimeout reads RUN_TIMEOUT as a duration bounding a single run.
// Zero disables the bound; the scheduler's own task timeout still applies.
func parseRunTimeout() (time.Duration, error) {
	s := sharedcfg.EnvOrDefault("RUN_TIMEOUT", "30m")
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.New("invalid RUN_TIMEOUT")
	}
	return d, nil
}
