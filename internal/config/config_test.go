package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.False(t, cfg.LLM.Enabled)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "memory", cfg.Cache.Provider)
	assert.Equal(t, 7*24*time.Hour, cfg.Cache.TTL.Duration())
	assert.Equal(t, "memory", cfg.History.Provider)

	assert.Equal(t, 0.8, cfg.Analyzer.ConfidenceThreshold)
	assert.Equal(t, 10, cfg.Analyzer.DefaultMinutes)
	assert.Equal(t, 10, cfg.Analyzer.DefaultAchievementWeight)
	assert.Equal(t, 0.85, cfg.Analyzer.SimilarityThreshold)
	assert.Equal(t, 10000, cfg.Analyzer.MaxTextLength)
	assert.True(t, cfg.Analyzer.RedactionEnabled)

	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)

	// Behaviors that are on by default must survive an empty load.
	assert.True(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Analyzer.RedactionEnabled)
}

func TestLoad_ExplicitFalseOverridesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
cache:
  enabled: false
analyzer:
  redaction_enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Analyzer.RedactionEnabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
logging:
  level: debug
  format: console
analyzer:
  confidence_threshold: 0.6
  max_text_length: 500
cache:
  provider: nats
  ttl: 48h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 0.6, cfg.Analyzer.ConfidenceThreshold)
	assert.Equal(t, 500, cfg.Analyzer.MaxTextLength)
	assert.Equal(t, "nats", cfg.Cache.Provider)
	assert.Equal(t, 48*time.Hour, cfg.Cache.TTL.Duration())

	// Untouched sections keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 10, cfg.Analyzer.DefaultMinutes)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("DIARYD_SERVER_PORT", "7070")
	t.Setenv("DIARYD_LLM_API_KEY", "sk-test")
	t.Setenv("DIARYD_LLM_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey.Value())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(cfg *Config) { cfg.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "bad log format",
			mutate:  func(cfg *Config) { cfg.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name:    "confidence threshold out of range",
			mutate:  func(cfg *Config) { cfg.Analyzer.ConfidenceThreshold = 1.5 },
			wantErr: "confidence_threshold",
		},
		{
			name:    "similarity threshold out of range",
			mutate:  func(cfg *Config) { cfg.Analyzer.SimilarityThreshold = 1.5 },
			wantErr: "similarity_threshold",
		},
		{
			name:    "negative text length",
			mutate:  func(cfg *Config) { cfg.Analyzer.MaxTextLength = -1 },
			wantErr: "max_text_length",
		},
		{
			name:    "unknown cache provider",
			mutate:  func(cfg *Config) { cfg.Cache.Provider = "redis" },
			wantErr: "cache.provider",
		},
		{
			name:    "unknown history provider",
			mutate:  func(cfg *Config) { cfg.History.Provider = "postgres" },
			wantErr: "history.provider",
		},
		{
			name:    "llm enabled without api key",
			mutate:  func(cfg *Config) { cfg.LLM.Enabled = true },
			wantErr: "llm.api_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "30s", want: 30 * time.Second},
		{input: "1h30m", want: 90 * time.Minute},
		{input: "-5s", wantErr: true},
		{input: "forever", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("sk-very-secret")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "sk-very-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}
