package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Storage backends
const (
	StorageMongo  = "mongodb"
	StorageMemory = "memory"
)

// RetryConfig bounds the retry loops of the change orchestrator.
type RetryConfig struct {
	// ConflictMaxRetries is how many times a read-modify-write cycle is
	// re-run after a version conflict before giving up.
	ConflictMaxRetries uint `env:"CONFLICT_MAX_RETRIES" envDefault:"5" json:"conflict_max_retries"`

	// CompensationMaxRetries bounds the compensating card write before the
	// divergence is parked in the reconciliation outbox.
	CompensationMaxRetries uint `env:"COMPENSATION_MAX_RETRIES" envDefault:"3" json:"compensation_max_retries"`

	InitialInterval time.Duration `env:"INITIAL_INTERVAL" envDefault:"20ms" json:"initial_interval"`
	MaxInterval     time.Duration `env:"MAX_INTERVAL" envDefault:"500ms" json:"max_interval"`
}

// ReconcileConfig drives the background outbox drain in cmd/main.go.
type ReconcileConfig struct {
	Interval  time.Duration `env:"INTERVAL" envDefault:"30s" json:"interval"`
	BatchSize int           `env:"BATCH_SIZE" envDefault:"50" json:"batch_size"`
}

// CollectionConfig holds all configuration for the collection module.
type CollectionConfig struct {
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"mongodb" json:"storage_backend"`

	MongoDBURI         string `env:"MONGODB_URI" json:"-"`
	DatabaseName       string `env:"MONGODB_DATABASE" envDefault:"collection_tracker" json:"database_name"`
	CardsCollection    string `env:"MONGODB_CARDS_COLLECTION" envDefault:"user_cards" json:"cards_collection"`
	SetsCollection     string `env:"MONGODB_SETS_COLLECTION" envDefault:"user_sets" json:"sets_collection"`
	CatalogCollection  string `env:"MONGODB_CATALOG_COLLECTION" envDefault:"cards" json:"catalog_collection"`
	OutboxCollection   string `env:"MONGODB_OUTBOX_COLLECTION" envDefault:"reconciliation_outbox" json:"outbox_collection"`
	CatalogCacheSize   int    `env:"CATALOG_CACHE_SIZE" envDefault:"4096" json:"catalog_cache_size"`
	ChangeFeedEnabled  bool   `env:"CHANGE_FEED_ENABLED" envDefault:"true" json:"change_feed_enabled"`
	ChangeStream       string `env:"CHANGE_STREAM" envDefault:"collection:changes" json:"change_stream"`
	ChangeStreamMaxLen int64  `env:"CHANGE_STREAM_MAXLEN" envDefault:"100000" json:"change_stream_maxlen"`
	JWTSecret          string `env:"JWT_SECRET" json:"-"`
	JWTIssuer          string `env:"JWT_ISSUER" envDefault:"collection-tracker" json:"jwt_issuer"`
	LogBackend         string `env:"LOG_BACKEND" envDefault:"logrus" json:"log_backend"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info" json:"log_level"`
	LogFormat          string `env:"LOG_FORMAT" envDefault:"text" json:"log_format"`

	Redis     RedisConfig     `envPrefix:"REDIS_" json:"redis"`
	Retry     RetryConfig     `envPrefix:"RETRY_" json:"retry"`
	Reconcile ReconcileConfig `envPrefix:"RECONCILE_" json:"reconcile"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*CollectionConfig, error) {
	cfg := &CollectionConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load collection configuration from environment: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the module cannot start with and fills zero
// values that have safe defaults.
func (c *CollectionConfig) Validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case StorageMongo:
		if c.MongoDBURI == "" {
			return errors.New("MONGODB_URI environment variable is not set")
		}
	case StorageMemory:
	default:
		return errors.New("STORAGE_BACKEND must be one of mongodb, memory")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}
	if c.CatalogCacheSize <= 0 {
		c.CatalogCacheSize = 4096
	}
	if c.ChangeStream == "" {
		c.ChangeStream = "collection:changes"
	}
	if c.Reconcile.BatchSize <= 0 {
		c.Reconcile.BatchSize = 50
	}
	return nil
}

// DefaultCollectionConfig returns a CollectionConfig with default values for
// local development and tests.
func DefaultCollectionConfig() *CollectionConfig {
	return &CollectionConfig{
		StorageBackend:     StorageMemory,
		MongoDBURI:         "mongodb://localhost:27017",
		DatabaseName:       "collection_tracker",
		CardsCollection:    "user_cards",
		SetsCollection:     "user_sets",
		CatalogCollection:  "cards",
		OutboxCollection:   "reconciliation_outbox",
		CatalogCacheSize:   4096,
		ChangeFeedEnabled:  false,
		ChangeStream:       "collection:changes",
		ChangeStreamMaxLen: 100000,
		JWTSecret:          "dev-secret-change-me",
		JWTIssuer:          "collection-tracker",
		LogBackend:         "logrus",
		LogLevel:           "info",
		LogFormat:          "text",
		Redis:              *DefaultRedisConfig(),
		Retry: RetryConfig{
			ConflictMaxRetries:     5,
			CompensationMaxRetries: 3,
			InitialInterval:        20 * time.Millisecond,
			MaxInterval:            500 * time.Millisecond,
		},
		Reconcile: ReconcileConfig{
			Interval:  30 * time.Second,
			BatchSize: 50,
		},
	}
}
