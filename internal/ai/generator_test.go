package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/aman-zulfiqar/coinquery/internal/schema"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range messages {
		for _, p := range m.Parts {
			if t, ok := p.(llms.TextContent); ok {
				f.prompt += t.Text
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

type fakeGemini struct {
	resp  *genai.GenerateContentResponse
	err   error
	parts []genai.Part
}

func (f *fakeGemini) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func geminiReply(texts ...string) *genai.GenerateContentResponse {
	parts := make([]genai.Part, len(texts))
	for i, t := range texts {
		parts[i] = genai.Text(t)
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(schema.Default())
	assert.Contains(t, p, "coin_chainlink")
	assert.Contains(t, p, "UNION ALL")
	assert.Contains(t, p, "23:59:59")
	assert.Contains(t, p, "'Source'")
}

func TestOpenRouterGenerate(t *testing.T) {
	llm := &fakeLLM{reply: "```sql\nSELECT 1\n```"}
	g := NewOpenRouterGeneratorWithModel(llm, GeneratorConfig{})

	out, err := g.Generate(context.Background(), "max close of bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "```sql\nSELECT 1\n```", out, "output is passed through raw")
	assert.Contains(t, llm.prompt, "max close of bitcoin")
	assert.Contains(t, llm.prompt, "coin_bitcoin")
}

func TestOpenRouterGenerate_Errors(t *testing.T) {
	upstream := errors.New("connection refused")
	g := NewOpenRouterGeneratorWithModel(&fakeLLM{err: upstream}, GeneratorConfig{})

	_, err := g.Generate(context.Background(), "q")
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, ProviderOpenRouter, gerr.Provider)
	assert.ErrorIs(t, err, upstream)

	g = NewOpenRouterGeneratorWithModel(&fakeLLM{reply: "   "}, GeneratorConfig{})
	_, err = g.Generate(context.Background(), "q")
	assert.ErrorAs(t, err, &gerr)
}

func TestGeminiGenerate(t *testing.T) {
	fake := &fakeGemini{resp: geminiReply("SELECT ", "1")}
	g := newGeminiGenerator(fake, GeneratorConfig{})

	out, err := g.Generate(context.Background(), "how many rows?")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", out)
	require.Len(t, fake.parts, 2)
	assert.Equal(t, genai.Text("how many rows?"), fake.parts[1])
	assert.NoError(t, g.Close())
}

func TestGeminiGenerate_Errors(t *testing.T) {
	g := newGeminiGenerator(&fakeGemini{err: errors.New("quota")}, GeneratorConfig{})
	_, err := g.Generate(context.Background(), "q")
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, ProviderGemini, gerr.Provider)

	g = newGeminiGenerator(&fakeGemini{resp: &genai.GenerateContentResponse{}}, GeneratorConfig{})
	_, err = g.Generate(context.Background(), "q")
	assert.ErrorAs(t, err, &gerr)
}

func TestNewGenerator_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewGenerator(ctx, GeneratorConfig{Provider: "bard"})
	assert.ErrorContains(t, err, "unknown LLM provider")

	_, err = NewGenerator(ctx, GeneratorConfig{Provider: ProviderOpenRouter})
	assert.ErrorContains(t, err, "OPENROUTER_API_KEY")

	_, err = NewGenerator(ctx, GeneratorConfig{Provider: ProviderGemini})
	assert.ErrorContains(t, err, "GENAI_API_KEY")

	_, err = ListGeminiModels(ctx, "")
	assert.Error(t, err)
}
