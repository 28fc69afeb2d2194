// Package config provides configuration loading for diaryd.
package config

import (
	"fmt"
	"time"
)

// Config is the immutable application configuration. It is loaded once at
// startup and passed explicitly to the components that need it.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	LLM      LLMConfig      `koanf:"llm"`
	Cache    CacheConfig    `koanf:"cache"`
	History  HistoryConfig  `koanf:"history"`
	Analyzer AnalyzerConfig `koanf:"analyzer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
}

// LLMConfig holds model-fallback parser settings.
type LLMConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Model       string  `koanf:"model"`
	APIKey      Secret  `koanf:"api_key"`
	BaseURL     string  `koanf:"base_url"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`

	// Timeout bounds a single request; Budget bounds the whole
	// retry loop wall-clock.
	Timeout    Duration `koanf:"timeout"`
	Budget     Duration `koanf:"budget"`
	MaxRetries int      `koanf:"max_retries"`

	RatePerMinute float64 `koanf:"rate_per_minute"`
	Burst         int     `koanf:"burst"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Enabled  bool     `koanf:"enabled"`
	Provider string   `koanf:"provider"` // "memory" or "nats"
	TTL      Duration `koanf:"ttl"`
	NATSURL  string   `koanf:"nats_url"`
	Bucket   string   `koanf:"bucket"`
}

// HistoryConfig holds action-template store settings.
type HistoryConfig struct {
	Provider string `koanf:"provider"` // "memory" or "nats"
	NATSURL  string `koanf:"nats_url"`
	Bucket   string `koanf:"bucket"`
}

// AnalyzerConfig holds pipeline policy knobs.
type AnalyzerConfig struct {
	// ConfidenceThreshold gates the model fallback: the model parser
	// runs when aggregate heuristic confidence falls below it.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	DefaultMinutes           int     `koanf:"default_minutes"`
	DefaultAchievementWeight int     `koanf:"default_achievement_weight"`
	SimilarityThreshold      float64 `koanf:"similarity_threshold"`
	MaxTextLength            int     `koanf:"max_text_length"`
	RedactionEnabled         bool    `koanf:"redaction_enabled"`
}

// Default returns the production-ready default configuration. The loader
// feeds it into koanf as the lowest-precedence layer, so a YAML or env
// value of false still overrides a default of true.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		LLM: LLMConfig{
			Enabled:       false,
			Model:         "gpt-4o-mini",
			BaseURL:       "https://api.openai.com",
			MaxTokens:     2000,
			Temperature:   0.3,
			Timeout:       Duration(10 * time.Second),
			Budget:        Duration(10 * time.Second),
			MaxRetries:    2,
			RatePerMinute: 60,
			Burst:         5,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Provider: "memory",
			TTL:      Duration(7 * 24 * time.Hour),
			NATSURL:  "nats://localhost:4222",
			Bucket:   "diaryd_cache",
		},
		History: HistoryConfig{
			Provider: "memory",
			NATSURL:  "nats://localhost:4222",
			Bucket:   "diaryd_history",
		},
		Analyzer: AnalyzerConfig{
			ConfidenceThreshold:      0.8,
			DefaultMinutes:           10,
			DefaultAchievementWeight: 10,
			SimilarityThreshold:      0.85,
			MaxTextLength:            10000,
			RedactionEnabled:         true,
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.Analyzer.ConfidenceThreshold < 0 || c.Analyzer.ConfidenceThreshold > 1 {
		return fmt.Errorf("analyzer.confidence_threshold out of range: %v", c.Analyzer.ConfidenceThreshold)
	}
	if c.Analyzer.SimilarityThreshold <= 0 || c.Analyzer.SimilarityThreshold > 1 {
		return fmt.Errorf("analyzer.similarity_threshold out of range: %v", c.Analyzer.SimilarityThreshold)
	}
	if c.Analyzer.MaxTextLength < 1 {
		return fmt.Errorf("analyzer.max_text_length must be positive")
	}
	switch c.Cache.Provider {
	case "memory", "nats":
	default:
		return fmt.Errorf("cache.provider must be memory or nats, got %q", c.Cache.Provider)
	}
	switch c.History.Provider {
	case "memory", "nats":
	default:
		return fmt.Errorf("history.provider must be memory or nats, got %q", c.History.Provider)
	}
	if c.LLM.Enabled && !c.LLM.APIKey.IsSet() {
		return fmt.Errorf("llm.api_key is required when llm.enabled is true")
	}
	return nil
}
