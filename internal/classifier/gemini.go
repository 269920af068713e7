package classifier

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini: классификатор на базе Google Gemini.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini создаёт клиент Gemini API.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	return newGemini(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model)
}

func newGemini(ctx context.Context, cc *genai.ClientConfig, model string) (*Gemini, error) {
	const op = "classifier/gemini/New"

	if cc.APIKey == "" {
		return nil, fmt.Errorf("%s: api key is required", op)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Gemini{client: client, model: model}, nil
}

// Classify отправляет запрос в Gemini и возвращает текст первого кандидата.
func (g *Gemini) Classify(ctx context.Context, kind Kind, payload string) (string, error) {
	const op = "classifier/gemini/Classify"

	var cfg *genai.GenerateContentConfig
	if kind.JSON() {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	prompt := kind.systemPrompt() + "\n\n" + payload

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, kind, err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%s: %s: %w", op, kind, ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%s: %s: %w", op, kind, ErrEmptyResponse)
	}

	return text, nil
}
