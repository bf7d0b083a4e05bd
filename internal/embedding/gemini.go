package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taxrag/internal/models"

	"google.golang.org/genai"
)

// GeminiEmbedder embeds text with the Google genai embedding models.
type GeminiEmbedder struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, &models.ValidationError{Field: "api_key", Reason: "gemini api key required for embeddings"}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: model, timeout: timeout}, nil
}

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	resp, err := g.client.Models.EmbedContent(ctx, g.model, genai.Text(text), nil)
	if err != nil {
		return nil, &models.ExternalServiceError{Service: "embedding", Err: err}
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, &models.ExternalServiceError{Service: "embedding", Err: errors.New("empty embedding response")}
	}
	return resp.Embeddings[0].Values, nil
}
