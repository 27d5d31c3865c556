package ai

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/coinquery/internal/schema"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	openRouterBaseURL      = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel = "openai/gpt-4.1-mini"
)

// OpenRouterGenerator generates SQL through OpenRouter's OpenAI-compatible API.
type OpenRouterGenerator struct {
	llm    llms.Model
	prompt string
	model  string
	logger *logrus.Logger
}

// NewOpenRouterGenerator creates a generator backed by OpenRouter.
func NewOpenRouterGenerator(cfg GeneratorConfig) (*OpenRouterGenerator, error) {
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if cfg.OpenRouterModel == "" {
		cfg.OpenRouterModel = defaultOpenRouterModel
	}

	llm, err := openai.New(
		openai.WithToken(cfg.OpenRouterAPIKey),
		openai.WithBaseURL(openRouterBaseURL),
		openai.WithModel(cfg.OpenRouterModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter LLM: %w", err)
	}

	return NewOpenRouterGeneratorWithModel(llm, cfg), nil
}

// NewOpenRouterGeneratorWithModel wraps an existing langchaingo model.
func NewOpenRouterGeneratorWithModel(llm llms.Model, cfg GeneratorConfig) *OpenRouterGenerator {
	if cfg.Registry == nil {
		cfg.Registry = schema.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cfg.Logger.WithField("model", cfg.OpenRouterModel).Info("initialized OpenRouter generator")

	return &OpenRouterGenerator{
		llm:    llm,
		prompt: BuildPrompt(cfg.Registry),
		model:  cfg.OpenRouterModel,
		logger: cfg.Logger,
	}
}

// Generate sends the fixed prompt followed by question.
func (g *OpenRouterGenerator) Generate(ctx context.Context, question string) (string, error) {
	resp, err := llms.GenerateFromSinglePrompt(
		ctx,
		g.llm,
		g.prompt+"\n"+question,
		llms.WithMaxTokens(512),
	)
	if err != nil {
		return "", &GenerationError{Provider: ProviderOpenRouter, Err: err}
	}

	g.logger.WithField("raw", resp).Debug("generated SQL from question")
	return checkOutput(ProviderOpenRouter, resp)
}
