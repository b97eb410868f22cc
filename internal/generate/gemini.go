package generate

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"storyforge/internal/config"
	"storyforge/internal/logging"
)

// GeminiGenerator produces story text through Google's Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model, timeout: timeout}, nil
}

// FromConfig builds the configured provider's generator.
func FromConfig(ctx context.Context, cfg *config.Config) (Generator, error) {
	timeout, err := cfg.GenerateTimeout()
	if err != nil {
		return nil, fmt.Errorf("generate timeout: %w", err)
	}
	switch cfg.Generate.Provider {
	case "gemini", "":
		return NewGeminiGenerator(ctx, cfg.Generate.APIKey, cfg.Generate.Model, timeout)
	default:
		return nil, fmt.Errorf("unknown generation provider: %q", cfg.Generate.Provider)
	}
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := BuildPrompt(req)
	logging.APIDebug("gemini request: model=%s prompt=%d bytes", g.model, len(prompt))

	timer := logging.StartTimer(logging.CategoryAPI, "gemini generate")
	result, err := g.client.Models.GenerateContent(reqCtx,
		g.model,
		genai.Text(prompt),
		nil,
	)
	timer.Stop()
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty response")
	}

	artifact := StripCodeFence(text)
	logging.Generate("generated %d bytes for %q", len(artifact), req.Title)
	return artifact, nil
}
