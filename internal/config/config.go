// Package config provides configuration loading and structs for the Kokoro server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	Profile   ProfileConfig   `yaml:"profile"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

// StorageConfig holds paths for the database and the vector index.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	IndexPath    string `yaml:"index_path"`
}

// IndexConfig selects the vector index backend.
// Type is "flat" (in-process, persisted under Storage.IndexPath) or
// "qdrant". The qdrant fields are ignored by the flat backend.
type IndexConfig struct {
	Type             string `yaml:"type"`
	QdrantURL        string `yaml:"qdrant_url"`
	QdrantCollection string `yaml:"qdrant_collection"`
	QdrantAPIKeyEnv  string `yaml:"qdrant_api_key_env"`
}

// EmbeddingConfig selects and tunes the embedding provider.
// Provider is one of "openai", "onnx", or "mock".
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// CacheConfig holds embedding cache settings. An empty RedisAddr selects
// the in-process cache.
type CacheConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLHours      int    `yaml:"ttl_hours"`
}

// SearchConfig holds retrieval bounds.
type SearchConfig struct {
	CandidateLimit int `yaml:"candidate_limit"`
	DefaultLimit   int `yaml:"default_limit"`
	MaxLimit       int `yaml:"max_limit"`
	PreviewLength  int `yaml:"preview_length"`
}

// ProfileConfig holds vector profile aggregation bounds.
type ProfileConfig struct {
	WindowDays int `yaml:"window_days"`
	MaxEntries int `yaml:"max_entries"`
}

// AnalysisConfig selects the sentiment and summarization backends.
// When OpenAIKeyEnv names an environment variable holding a key, the
// chat-backed analyzers are used; otherwise the local fallbacks.
type AnalysisConfig struct {
	OpenAIKeyEnv string `yaml:"openai_key_env"`
	ChatModel    string `yaml:"chat_model"`
}

// SchedulerConfig holds cron specs for the recurring jobs.
type SchedulerConfig struct {
	Enabled        bool   `yaml:"enabled"`
	DailySummaries string `yaml:"daily_summaries"`
	Trends         string `yaml:"trends"`
	ProfileRefresh string `yaml:"profile_refresh"`
	Cleanup        string `yaml:"cleanup"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
