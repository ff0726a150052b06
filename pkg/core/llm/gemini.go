package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiAnalyzer implements TextAnalyzer on Google's Gemini models via the
// official GenAI SDK.
type GeminiAnalyzer struct {
	APIKey string
	Model  string // e.g. "gemini-2.0-flash-exp"
}

var _ TextAnalyzer = (*GeminiAnalyzer)(nil)

// Analyze sends a generateContent request in JSON mode. Returns Disabled
// when no API key is configured.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if g.APIKey == "" {
		return "", Disabled{}
	}

	model := g.Model
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("llm: create GenAI client: %w", err)
	}

	// Low temperature: extraction, not generation.
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("llm: gemini generation failed: %w", err)
	}
	return result.Text(), nil
}
