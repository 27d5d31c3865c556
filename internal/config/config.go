package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/coinquery/internal/constants"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Data settings
	DataDir string

	// LLM settings
	LLMProvider      string
	GeminiAPIKey     string
	GeminiModel      string
	OpenRouterAPIKey string
	OpenRouterModel  string
	GenerateTimeout  time.Duration

	// Speech-to-text settings
	OpenAIAPIKey    string
	TranscribeModel string

	// Redis settings; empty disables the cache
	RedisAddr string
	ChartTTL  time.Duration

	// ClickHouse settings; empty address disables the audit log
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// API settings
	APIAddr      string
	APIKey       string
	DevMode      bool
	AskRateLimit int
	AskRateBurst int

	LogLevel string
}

func Load() *Config {
	return &Config{
		// Data
		DataDir: getEnv("COINQUERY_DATA_DIR", ""),

		// LLM
		LLMProvider:      strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
		GeminiAPIKey:     getEnv("GENAI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "models/gemini-1.5-flash-001"),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "openai/gpt-4.1-mini"),
		GenerateTimeout:  getDurationEnv("GENERATE_TIMEOUT", constants.DefaultGenerateTimeout),

		// Speech
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		TranscribeModel: getEnv("TRANSCRIBE_MODEL", "whisper-1"),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		ChartTTL:  getDurationEnv("CHART_TTL", constants.DefaultChartTTL),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "coinquery"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// API
		APIAddr:      getEnv("API_ADDR", ":8090"),
		APIKey:       getEnv("API_KEY", ""),
		DevMode:      getBoolEnv("DEV_MODE", false),
		AskRateLimit: getIntEnv("ASK_RATE_LIMIT", 5),
		AskRateBurst: getIntEnv("ASK_RATE_BURST", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks settings every binary depends on. Provider credentials
// are checked by ValidateGenerator since not every command needs them.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "gemini", "openrouter":
	default:
		return fmt.Errorf("LLM_PROVIDER must be gemini or openrouter, got %q", c.LLMProvider)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.ChartTTL <= 0 {
		return fmt.Errorf("CHART_TTL must be positive")
	}
	if c.GenerateTimeout < 0 {
		return fmt.Errorf("GENERATE_TIMEOUT must not be negative")
	}
	if c.AskRateLimit <= 0 || c.AskRateBurst <= 0 {
		return fmt.Errorf("ASK_RATE_LIMIT and ASK_RATE_BURST must be positive")
	}
	if strings.TrimSpace(c.APIAddr) == "" {
		return fmt.Errorf("API_ADDR is required")
	}
	return nil
}

// ValidateGenerator checks that the selected provider has a key.
func (c *Config) ValidateGenerator() error {
	switch c.LLMProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GENAI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouterAPIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter provider")
		}
	}
	return nil
}

// NewLogger builds the text logger every binary uses.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
