// Package config provides configuration loading and structs for the Kotae server.
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
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	QA        QAConfig        `yaml:"qa"`
	Query     QueryConfig     `yaml:"query"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ChunkingConfig holds word-window chunking settings.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// EmbeddingConfig holds embedding oracle settings. Provider selects the
// implementation: "onnx" (local model, requires CGO) or "mock" (deterministic,
// for development and tests).
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// QAConfig holds extractive-answer oracle settings. Provider selects the
// implementation: "http" (remote question-answering endpoint) or "mock".
type QAConfig struct {
	Provider       string `yaml:"provider"`
	Endpoint       string `yaml:"endpoint"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// QueryConfig holds retrieval and answer-synthesis settings.
type QueryConfig struct {
	// TopK is the default number of chunks retrieved as answer context.
	TopK int `yaml:"top_k"`
	// MaxSources caps how many sources a QueryResult reports.
	MaxSources int `yaml:"max_sources"`
	// PreviewLength bounds the source preview text, in bytes.
	PreviewLength int `yaml:"preview_length"`
	// MinAnswerWords triggers answer expansion for oracle spans shorter than this.
	MinAnswerWords int `yaml:"min_answer_words"`
	// TargetAnswerWords is the length expansion aims for.
	TargetAnswerWords int `yaml:"target_answer_words"`
}

// WatchConfig holds upload-directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
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
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path. Used for persisting watch directory changes.
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

// Validate checks settings that are fatal at startup. Chunk overlap must be
// strictly less than chunk size, embedding dimensions must be positive, and
// query limits must be positive.
func Validate(cfg *Config) error {
	if cfg.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking: chunk_size must be positive, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.ChunkOverlap < 0 {
		return fmt.Errorf("chunking: chunk_overlap must not be negative, got %d", cfg.Chunking.ChunkOverlap)
	}
	if cfg.Chunking.ChunkOverlap >= cfg.Chunking.ChunkSize {
		return fmt.Errorf("chunking: chunk_overlap (%d) must be less than chunk_size (%d)",
			cfg.Chunking.ChunkOverlap, cfg.Chunking.ChunkSize)
	}
	if cfg.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding: dimensions must be positive, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Query.TopK <= 0 {
		return fmt.Errorf("query: top_k must be positive, got %d", cfg.Query.TopK)
	}
	if cfg.Query.MaxSources <= 0 {
		return fmt.Errorf("query: max_sources must be positive, got %d", cfg.Query.MaxSources)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
