// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Qdrant configuration
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Embedding configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Generation configuration
	Generation GenerationConfig `yaml:"generation"`

	// Query understanding configuration
	Query QueryConfig `yaml:"query"`

	// Retrieval configuration
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Host       string `envconfig:"SHELF_QDRANT_HOST" yaml:"host"`
	Port       int    `envconfig:"SHELF_QDRANT_PORT" yaml:"port"`
	APIKey     string `envconfig:"SHELF_QDRANT_API_KEY" yaml:"api_key"`
	UseTLS     bool   `envconfig:"SHELF_QDRANT_TLS" yaml:"use_tls"`
	Collection string `envconfig:"SHELF_QDRANT_COLLECTION" yaml:"collection"`
	TimeoutSec int    `envconfig:"SHELF_QDRANT_TIMEOUT_SEC" yaml:"timeout_sec"`
}

// EmbeddingConfig holds embedding service settings.
type EmbeddingConfig struct {
	BaseURL    string  `envconfig:"SHELF_EMBED_URL" yaml:"base_url"`
	APIKey     string  `envconfig:"SHELF_EMBED_API_KEY" yaml:"api_key"`
	Model      string  `envconfig:"SHELF_EMBED_MODEL" yaml:"model"`
	Dimension  int     `envconfig:"SHELF_EMBED_DIM" yaml:"dimension"`
	TimeoutSec int     `envconfig:"SHELF_EMBED_TIMEOUT_SEC" yaml:"timeout_sec"`
	RateLimit  float64 `envconfig:"SHELF_EMBED_RATE_LIMIT" yaml:"rate_limit"` // requests/sec, 0 = unlimited
}

// GenerationConfig holds generative response settings.
type GenerationConfig struct {
	Enabled         bool   `envconfig:"SHELF_GEN_ENABLED" yaml:"enabled"`
	BaseURL         string `envconfig:"SHELF_GEN_URL" yaml:"base_url"`
	APIKey          string `envconfig:"SHELF_GEN_API_KEY" yaml:"api_key"`
	Model           string `envconfig:"SHELF_GEN_MODEL" yaml:"model"`
	TimeoutSec      int    `envconfig:"SHELF_GEN_TIMEOUT_SEC" yaml:"timeout_sec"`
	MaxContextItems int    `envconfig:"SHELF_GEN_MAX_CONTEXT_ITEMS" yaml:"max_context_items"`
}

// QueryConfig holds query understanding settings.
type QueryConfig struct {
	// ConfidenceThreshold is the minimum classification confidence before
	// falling back to the search intent.
	ConfidenceThreshold float64 `envconfig:"SHELF_CONFIDENCE_THRESHOLD" yaml:"confidence_threshold"`
}

// RetrievalConfig holds retrieval and ranking settings.
type RetrievalConfig struct {
	DefaultLimit        int     `envconfig:"SHELF_DEFAULT_LIMIT" yaml:"default_limit"`
	RecommendationLimit int     `envconfig:"SHELF_RECOMMENDATION_LIMIT" yaml:"recommendation_limit"`
	MaxLimit            int     `envconfig:"SHELF_MAX_LIMIT" yaml:"max_limit"`
	OverfetchMultiplier int     `envconfig:"SHELF_OVERFETCH_MULTIPLIER" yaml:"overfetch_multiplier"`
	SimilarityWeight    float64 `envconfig:"SHELF_SIMILARITY_WEIGHT" yaml:"similarity_weight"`
	RatingWeight        float64 `envconfig:"SHELF_RATING_WEIGHT" yaml:"rating_weight"`
	DiversityWeight     float64 `envconfig:"SHELF_DIVERSITY_WEIGHT" yaml:"diversity_weight"`
	TimeoutSec          int     `envconfig:"SHELF_RETRIEVAL_TIMEOUT_SEC" yaml:"timeout_sec"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Type     string `envconfig:"SHELF_CACHE_TYPE" yaml:"type"`
	Size     int    `envconfig:"SHELF_CACHE_SIZE" yaml:"size"`
	TTLSec   int    `envconfig:"SHELF_CACHE_TTL_SEC" yaml:"ttl_sec"` // 0 = no expiry
	RedisURL string `envconfig:"SHELF_REDIS_URL" yaml:"redis_url"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"SHELF_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"SHELF_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"SHELF_KAFKA_GROUP" yaml:"kafka_group"`

	// EventLogPath enables JSON-lines event logging to the given file.
	EventLogPath string `envconfig:"SHELF_BUS_EVENT_LOG" yaml:"event_log_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"SHELF_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"SHELF_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Qdrant = QdrantConfig{
		Host:       "localhost",
		Port:       6334,
		Collection: "books",
		TimeoutSec: 30,
	}

	cfg.Embedding = EmbeddingConfig{
		BaseURL:    "http://localhost:11434/v1",
		Model:      "all-minilm",
		Dimension:  384,
		TimeoutSec: 10,
		RateLimit:  0,
	}

	cfg.Generation = GenerationConfig{
		Enabled:         false,
		BaseURL:         "http://localhost:11434/v1",
		Model:           "llama3.2",
		TimeoutSec:      20,
		MaxContextItems: 10,
	}

	cfg.Query = QueryConfig{
		ConfidenceThreshold: 0.3,
	}

	cfg.Retrieval = RetrievalConfig{
		DefaultLimit:        10,
		RecommendationLimit: 20,
		MaxLimit:            100,
		OverfetchMultiplier: 4,
		SimilarityWeight:    0.7,
		RatingWeight:        0.2,
		DiversityWeight:     0.1,
		TimeoutSec:          15,
	}

	cfg.Cache = CacheConfig{
		Type:     "memory",
		Size:     10000,
		TTLSec:   0,
		RedisURL: "redis://localhost:6379",
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Qdrant.Port < 1 || c.Qdrant.Port > 65535 {
		errs = append(errs, "qdrant port must be between 1 and 65535")
	}

	if c.Qdrant.Collection == "" {
		errs = append(errs, "qdrant collection must not be empty")
	}

	if c.Embedding.Dimension < 1 {
		errs = append(errs, "embedding dimension must be positive")
	}

	if c.Embedding.RateLimit < 0 {
		errs = append(errs, "embedding rate_limit must not be negative")
	}

	if c.Generation.MaxContextItems < 1 {
		errs = append(errs, "max_context_items must be positive")
	}

	if c.Query.ConfidenceThreshold < 0 || c.Query.ConfidenceThreshold > 1 {
		errs = append(errs, "confidence_threshold must be between 0 and 1")
	}

	if c.Retrieval.DefaultLimit < 1 {
		errs = append(errs, "default_limit must be positive")
	}

	if c.Retrieval.RecommendationLimit < c.Retrieval.DefaultLimit {
		errs = append(errs, "recommendation_limit must be at least default_limit")
	}

	if c.Retrieval.OverfetchMultiplier < 1 {
		errs = append(errs, "overfetch_multiplier must be at least 1")
	}

	for _, w := range []struct {
		name  string
		value float64
	}{
		{"similarity_weight", c.Retrieval.SimilarityWeight},
		{"rating_weight", c.Retrieval.RatingWeight},
		{"diversity_weight", c.Retrieval.DiversityWeight},
	} {
		if w.value < 0 || w.value > 1 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 1", w.name))
		}
	}

	validCacheTypes := map[string]bool{"memory": true, "redis": true}
	if !validCacheTypes[c.Cache.Type] {
		errs = append(errs, fmt.Sprintf("invalid cache type: %s (must be memory or redis)", c.Cache.Type))
	}

	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// RetrievalTimeout returns the retrieval timeout as a duration.
func (c *Config) RetrievalTimeout() time.Duration {
	return time.Duration(c.Retrieval.TimeoutSec) * time.Second
}

// GenerationTimeout returns the generation timeout as a duration.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSec) * time.Second
}

// EmbeddingTimeout returns the embedding timeout as a duration.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSec) * time.Second
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
