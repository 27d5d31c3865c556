// Package ai wraps the hosted language models that turn a question into
// candidate SQL.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/coinquery/internal/schema"
	"github.com/sirupsen/logrus"
)

// Supported providers.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

var errEmptyOutput = errors.New("model returned no text")

// Generator turns a question into raw candidate SQL. The output is not
// normalized.
type Generator interface {
	Generate(ctx context.Context, question string) (string, error)
}

// GenerationError is returned when the model is unreachable or its output
// is unusable.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GeneratorConfig holds configuration for NewGenerator.
type GeneratorConfig struct {
	Provider string

	GeminiAPIKey string
	GeminiModel  string

	OpenRouterAPIKey string
	// Model name as understood by OpenRouter, e.g. "openai/gpt-4.1-mini".
	OpenRouterModel string

	Registry *schema.Registry
	Logger   *logrus.Logger
}

// Closer is implemented by generators that hold network clients.
type Closer interface {
	Close() error
}

// NewGenerator builds the generator for cfg.Provider.
func NewGenerator(ctx context.Context, cfg GeneratorConfig) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini, "":
		return NewGeminiGenerator(ctx, cfg)
	case ProviderOpenRouter:
		return NewOpenRouterGenerator(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

func checkOutput(provider, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{Provider: provider, Err: errEmptyOutput}
	}
	return text, nil
}
