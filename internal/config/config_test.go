package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	// Set environment variables
	os.Setenv("SHELF_DEFAULT_LIMIT", "5")
	os.Setenv("SHELF_LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("SHELF_DEFAULT_LIMIT")
		os.Unsetenv("SHELF_LOG_LEVEL")
	}()

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Retrieval.DefaultLimit != 5 {
		t.Errorf("Retrieval.DefaultLimit = %d, want 5", cfg.Retrieval.DefaultLimit)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
log:
  level: warn
  format: json
qdrant:
  host: custom
  port: 7334
  collection: shelf_books
retrieval:
  default_limit: 8
  recommendation_limit: 16
generation:
  enabled: true
  model: llama3.1
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Qdrant.Host != "custom" {
		t.Errorf("Qdrant.Host = %s, want custom", cfg.Qdrant.Host)
	}
	if cfg.Qdrant.Port != 7334 {
		t.Errorf("Qdrant.Port = %d, want 7334", cfg.Qdrant.Port)
	}
	if cfg.Retrieval.DefaultLimit != 8 {
		t.Errorf("Retrieval.DefaultLimit = %d, want 8", cfg.Retrieval.DefaultLimit)
	}
	if !cfg.Generation.Enabled {
		t.Error("Generation.Enabled = false, want true")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %s, want warn", cfg.Log.Level)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Retrieval.DefaultLimit != 10 {
		t.Errorf("DefaultLimit = %d, want 10", cfg.Retrieval.DefaultLimit)
	}
	if cfg.Retrieval.RecommendationLimit != 20 {
		t.Errorf("RecommendationLimit = %d, want 20", cfg.Retrieval.RecommendationLimit)
	}
	if cfg.Retrieval.OverfetchMultiplier != 4 {
		t.Errorf("OverfetchMultiplier = %d, want 4", cfg.Retrieval.OverfetchMultiplier)
	}
	if cfg.Query.ConfidenceThreshold != 0.3 {
		t.Errorf("ConfidenceThreshold = %f, want 0.3", cfg.Query.ConfidenceThreshold)
	}
	if cfg.Cache.Type != "memory" {
		t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
	}
	if cfg.Bus.Type != "memory" {
		t.Errorf("Bus.Type = %s, want memory", cfg.Bus.Type)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			modify:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "bad qdrant port",
			modify:  func(c *Config) { c.Qdrant.Port = 0 },
			wantErr: "qdrant port",
		},
		{
			name:    "empty collection",
			modify:  func(c *Config) { c.Qdrant.Collection = "" },
			wantErr: "collection",
		},
		{
			name:    "zero default limit",
			modify:  func(c *Config) { c.Retrieval.DefaultLimit = 0 },
			wantErr: "default_limit",
		},
		{
			name: "recommendation limit below default",
			modify: func(c *Config) {
				c.Retrieval.DefaultLimit = 10
				c.Retrieval.RecommendationLimit = 5
			},
			wantErr: "recommendation_limit",
		},
		{
			name:    "overfetch below one",
			modify:  func(c *Config) { c.Retrieval.OverfetchMultiplier = 0 },
			wantErr: "overfetch_multiplier",
		},
		{
			name:    "weight out of range",
			modify:  func(c *Config) { c.Retrieval.SimilarityWeight = 1.5 },
			wantErr: "similarity_weight",
		},
		{
			name:    "confidence threshold out of range",
			modify:  func(c *Config) { c.Query.ConfidenceThreshold = 2 },
			wantErr: "confidence_threshold",
		},
		{
			name:    "bad cache type",
			modify:  func(c *Config) { c.Cache.Type = "disk" },
			wantErr: "invalid cache type",
		},
		{
			name:    "bad bus type",
			modify:  func(c *Config) { c.Bus.Type = "nats" },
			wantErr: "invalid bus type",
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
