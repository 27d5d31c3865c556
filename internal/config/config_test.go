package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"LLM_PROVIDER", "CHART_TTL", "DEV_MODE", "API_ADDR", "CLICKHOUSE_ADDR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, 24*time.Hour, cfg.ChartTTL)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, ":8090", cfg.APIAddr)
	assert.Empty(t, cfg.ClickHouseAddr)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenRouter")
	t.Setenv("CHART_TTL", "90m")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("ASK_RATE_LIMIT", "oops")
	t.Setenv("COINQUERY_DATA_DIR", "/data/coins")

	cfg := Load()
	assert.Equal(t, "openrouter", cfg.LLMProvider)
	assert.Equal(t, 90*time.Minute, cfg.ChartTTL)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 5, cfg.AskRateLimit, "unparseable values fall back to the default")
	assert.Equal(t, "/data/coins", cfg.DataDir)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		t.Setenv("LLM_PROVIDER", "")
		t.Setenv("LOG_LEVEL", "")
		return Load()
	}

	cfg := base()
	cfg.LLMProvider = "bard"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.ChartTTL = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.AskRateBurst = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateGenerator(t *testing.T) {
	cfg := &Config{LLMProvider: "gemini"}
	assert.ErrorContains(t, cfg.ValidateGenerator(), "GENAI_API_KEY")
	cfg.GeminiAPIKey = "k"
	assert.NoError(t, cfg.ValidateGenerator())

	cfg = &Config{LLMProvider: "openrouter"}
	assert.ErrorContains(t, cfg.ValidateGenerator(), "OPENROUTER_API_KEY")
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, (&Config{LogLevel: "debug"}).NewLogger().GetLevel())
	assert.Equal(t, logrus.InfoLevel, (&Config{LogLevel: "nope"}).NewLogger().GetLevel())
}
