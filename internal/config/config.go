// Package config defines all configuration structures for the
// RxMatch-Intelligence platform.  No I/O or parsing logic lives here, only
// plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the catalog store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds connection parameters for the precomputed response cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds catalog-change event stream parameters.
type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	AutoOffsetReset string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchSize       int      `mapstructure:"batch_size"`
}

// MilvusConfig holds vector-index connection parameters.  An empty Addr means
// the index is not configured; retrieval degrades to the lexical fallback
// tier instead of failing.
type MilvusConfig struct {
	Addr          string        `mapstructure:"addr"`
	DBName        string        `mapstructure:"db_name"`
	Collection    string        `mapstructure:"collection"`
	Namespace     string        `mapstructure:"namespace"`
	EmbeddingDim  int           `mapstructure:"embedding_dim"`
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
}

// MinIOConfig holds object-storage parameters for bulk catalog dump ingestion.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// EncoderConfig holds embedding-encoder parameters.  ModelEndpoint empty
// means no remote encoder; the deterministic seeded fallback vector is used.
type EncoderConfig struct {
	ModelEndpoint string        `mapstructure:"model_endpoint"`
	APIKey        string        `mapstructure:"api_key"`
	ModelName     string        `mapstructure:"model_name"`
	Dimension     int           `mapstructure:"dimension"`
	EncodeTimeout time.Duration `mapstructure:"encode_timeout"`
}

// MatchingConfig carries the deterministic scoring policy.  The thresholds
// and penalty magnitudes are operational policy, not clinical law; they are
// hot-reloadable via PolicyPath.
type MatchingConfig struct {
	// PolicyPath optionally points at a YAML file watched for live updates.
	PolicyPath string `mapstructure:"policy_path"`

	HighConfidenceThreshold   float64 `mapstructure:"high_confidence_threshold"`
	MediumConfidenceThreshold float64 `mapstructure:"medium_confidence_threshold"`

	VariantMismatchPenalty float64 `mapstructure:"variant_mismatch_penalty"`
	VariantAbsencePenalty  float64 `mapstructure:"variant_absence_penalty"`
	FormMismatchPenalty    float64 `mapstructure:"form_mismatch_penalty"`

	HistoryBoostPerMapping float64 `mapstructure:"history_boost_per_mapping"`
	HistoryBoostCap        float64 `mapstructure:"history_boost_cap"`

	LexicalFallbackScore float64 `mapstructure:"lexical_fallback_score"`
}

// WorkerConfig holds catalog sync worker parameters.
type WorkerConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Config is the root configuration structure for the platform.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Milvus   MilvusConfig   `mapstructure:"milvus"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Encoder  EncoderConfig  `mapstructure:"encoder"`
	Matching MatchingConfig `mapstructure:"matching"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// Callers should treat any error as fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host must not be empty")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}

	if c.Encoder.Dimension < 1 {
		return fmt.Errorf("config: encoder.dimension %d must be positive", c.Encoder.Dimension)
	}

	m := c.Matching
	if m.HighConfidenceThreshold <= m.MediumConfidenceThreshold {
		return fmt.Errorf("config: matching.high_confidence_threshold %.2f must exceed medium_confidence_threshold %.2f",
			m.HighConfidenceThreshold, m.MediumConfidenceThreshold)
	}
	for name, v := range map[string]float64{
		"high_confidence_threshold":   m.HighConfidenceThreshold,
		"medium_confidence_threshold": m.MediumConfidenceThreshold,
		"variant_mismatch_penalty":    m.VariantMismatchPenalty,
		"variant_absence_penalty":     m.VariantAbsencePenalty,
		"form_mismatch_penalty":       m.FormMismatchPenalty,
		"history_boost_cap":           m.HistoryBoostCap,
		"lexical_fallback_score":      m.LexicalFallbackScore,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: matching.%s %.4f is out of range [0, 1]", name, v)
		}
	}

	return nil
}
