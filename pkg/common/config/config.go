package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BlobBackendS3     = "s3"
	BlobBackendRedis  = "redis"
	BlobBackendMemory = "memory"

	NotifierGlue  = "glue"
	NotifierKafka = "kafka"

	DefaultCrawlerName = "hospital_json_crawler"
)

type Config struct {
	// Server
	ServerPort     string        `yaml:"server_port"`
	ServerHost     string        `yaml:"server_host"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxRequestBody int64         `yaml:"max_request_body"`

	// Database
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	// Redis
	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Kafka
	KafkaBrokers      []string `yaml:"kafka_brokers"`
	KafkaGroupID      string   `yaml:"kafka_group_id"`
	TriggerTopic      string   `yaml:"trigger_topic"`
	CatalogEventTopic string   `yaml:"catalog_event_topic"`

	// Gateways
	BlobBackend     string `yaml:"blob_backend"`
	NotifierBackend string `yaml:"notifier_backend"`
	AWSRegion       string `yaml:"aws_region"`
	CrawlerName     string `yaml:"crawler_name"`

	// Run tracking
	RunTrackingEnabled bool          `yaml:"run_tracking_enabled"`
	RunRetention       time.Duration `yaml:"run_retention"`
	CleanupSchedule    string        `yaml:"cleanup_schedule"`
}

func Load() *Config {
	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 60*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "etl"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "order_etl"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "order-etl"),
		TriggerTopic:      getEnv("TRIGGER_TOPIC", ""),
		CatalogEventTopic: getEnv("CATALOG_EVENT_TOPIC", "catalog-events"),

		BlobBackend:     strings.ToLower(getEnv("BLOB_BACKEND", BlobBackendS3)),
		NotifierBackend: strings.ToLower(getEnv("NOTIFIER_BACKEND", NotifierGlue)),
		AWSRegion:       getEnv("AWS_REGION", ""),
		CrawlerName:     getEnv("CATALOG_CRAWLER_NAME", DefaultCrawlerName),

		RunTrackingEnabled: getBoolEnv("RUN_TRACKING_ENABLED", false),
		RunRetention:       getDuration("RUN_RETENTION", 30*24*time.Hour),
		CleanupSchedule:    getEnv("RUN_CLEANUP_SCHEDULE", "@every 12h"),
	}

	return cfg
}

// LoadWithFile loads the environment config and overlays the YAML file at
// path. Keys missing from the file keep their environment value.
func LoadWithFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return cfg, fmt.Errorf("decoding config file: %w", err)
	}
	cfg.BlobBackend = strings.ToLower(cfg.BlobBackend)
	cfg.NotifierBackend = strings.ToLower(cfg.NotifierBackend)

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.BlobBackend {
	case BlobBackendS3, BlobBackendRedis, BlobBackendMemory:
	default:
		return fmt.Errorf("unsupported blob backend %q", c.BlobBackend)
	}
	switch c.NotifierBackend {
	case NotifierGlue, NotifierKafka:
	default:
		return fmt.Errorf("unsupported notifier backend %q", c.NotifierBackend)
	}
	if strings.TrimSpace(c.CrawlerName) == "" {
		return errors.New("crawler name required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
