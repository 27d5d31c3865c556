package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/coinquery/internal/schema"
	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "models/gemini-1.5-flash-001"

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator generates SQL with Google's Gemini models.
type GeminiGenerator struct {
	client *genai.Client
	model  contentGenerator
	prompt string
	logger *logrus.Logger
}

// NewGeminiGenerator creates a Gemini client for cfg.GeminiModel.
func NewGeminiGenerator(ctx context.Context, cfg GeneratorConfig) (*GeminiGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is required")
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := newGeminiGenerator(client.GenerativeModel(cfg.GeminiModel), cfg)
	g.client = client
	g.logger.WithField("model", cfg.GeminiModel).Info("initialized Gemini generator")
	return g, nil
}

func newGeminiGenerator(model contentGenerator, cfg GeneratorConfig) *GeminiGenerator {
	if cfg.Registry == nil {
		cfg.Registry = schema.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &GeminiGenerator{
		model:  model,
		prompt: BuildPrompt(cfg.Registry),
		logger: cfg.Logger,
	}
}

// Generate sends the prompt and the question as two text parts.
func (g *GeminiGenerator) Generate(ctx context.Context, question string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(g.prompt), genai.Text(question))
	if err != nil {
		return "", &GenerationError{Provider: ProviderGemini, Err: err}
	}

	text := responseText(resp)
	g.logger.WithField("raw", text).Debug("generated SQL from question")
	return checkOutput(ProviderGemini, text)
}

// Close releases the underlying client.
func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		g.logger.Debug("closing Gemini client")
		return g.client.Close()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// ListGeminiModels returns the model names available to apiKey.
func ListGeminiModels(ctx context.Context, apiKey string) ([]string, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	var names []string
	it := client.ListModels(ctx)
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return names, fmt.Errorf("list models: %w", err)
		}
		names = append(names, m.Name)
	}
	return names, nil
}
