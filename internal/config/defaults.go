package config

import "time"

// Default value constants.
const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "rxmatch"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisTTL       = 15 * time.Minute
	DefaultRedisKeyPrefix = "rxmatch:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "rxmatch-catalog-sync"

	DefaultMilvusCollection    = "medicine_catalog"
	DefaultMilvusNamespace     = "medicines"
	DefaultMilvusSearchTimeout = 3 * time.Second

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "catalog-dumps"

	DefaultEncoderModel     = "all-MiniLM-L6-v2"
	DefaultEncoderDimension = 384
	DefaultEncodeTimeout    = 2 * time.Second

	DefaultWorkerConcurrency = 4
	DefaultWorkerBatchSize   = 128

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Scoring policy defaults.  These mirror the shipped operational policy;
// deployments override them via configuration, not code.
const (
	DefaultHighConfidenceThreshold   = 0.85
	DefaultMediumConfidenceThreshold = 0.65
	DefaultVariantMismatchPenalty    = 0.35
	DefaultVariantAbsencePenalty     = 0.15
	DefaultFormMismatchPenalty       = 0.30
	DefaultHistoryBoostPerMapping    = 0.03
	DefaultHistoryBoostCap           = 0.15
	DefaultLexicalFallbackScore      = 0.78
)

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so explicit
// configuration always wins.  Must be called after unmarshalling and before
// Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "db/migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	if cfg.Milvus.Collection == "" {
		cfg.Milvus.Collection = DefaultMilvusCollection
	}
	if cfg.Milvus.Namespace == "" {
		cfg.Milvus.Namespace = DefaultMilvusNamespace
	}
	if cfg.Milvus.EmbeddingDim == 0 {
		cfg.Milvus.EmbeddingDim = DefaultEncoderDimension
	}
	if cfg.Milvus.SearchTimeout == 0 {
		cfg.Milvus.SearchTimeout = DefaultMilvusSearchTimeout
	}
	if cfg.Milvus.DBName == "" {
		cfg.Milvus.DBName = "default"
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	if cfg.Encoder.ModelName == "" {
		cfg.Encoder.ModelName = DefaultEncoderModel
	}
	if cfg.Encoder.Dimension == 0 {
		cfg.Encoder.Dimension = DefaultEncoderDimension
	}
	if cfg.Encoder.EncodeTimeout == 0 {
		cfg.Encoder.EncodeTimeout = DefaultEncodeTimeout
	}

	if cfg.Matching.HighConfidenceThreshold == 0 {
		cfg.Matching.HighConfidenceThreshold = DefaultHighConfidenceThreshold
	}
	if cfg.Matching.MediumConfidenceThreshold == 0 {
		cfg.Matching.MediumConfidenceThreshold = DefaultMediumConfidenceThreshold
	}
	if cfg.Matching.VariantMismatchPenalty == 0 {
		cfg.Matching.VariantMismatchPenalty = DefaultVariantMismatchPenalty
	}
	if cfg.Matching.VariantAbsencePenalty == 0 {
		cfg.Matching.VariantAbsencePenalty = DefaultVariantAbsencePenalty
	}
	if cfg.Matching.FormMismatchPenalty == 0 {
		cfg.Matching.FormMismatchPenalty = DefaultFormMismatchPenalty
	}
	if cfg.Matching.HistoryBoostPerMapping == 0 {
		cfg.Matching.HistoryBoostPerMapping = DefaultHistoryBoostPerMapping
	}
	if cfg.Matching.HistoryBoostCap == 0 {
		cfg.Matching.HistoryBoostCap = DefaultHistoryBoostCap
	}
	if cfg.Matching.LexicalFallbackScore == 0 {
		cfg.Matching.LexicalFallbackScore = DefaultLexicalFallbackScore
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.BatchSize == 0 {
		cfg.Worker.BatchSize = DefaultWorkerBatchSize
	}
	if cfg.Worker.PollInterval == 0 {
		cfg.Worker.PollInterval = 30 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// NewDefaultConfig returns a Config populated entirely from defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
