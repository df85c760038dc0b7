package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/eokafor/go-pharmacy-backend/internal/config"
)

// OpenAIProvider produces embeddings from any OpenAI-compatible API.
type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dims   int
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds a provider from config. BaseURL may point at
// a proxy or a self-hosted compatible server; empty means the default
// OpenAI endpoint.
func NewOpenAIProvider(cfg config.EmbeddingConfig) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("embedding: API key is required")
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		cc.BaseURL = trimmed
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cc),
		model:  openai.EmbeddingModel(cfg.Model),
		dims:   cfg.Dimensions,
	}, nil
}

// Embed requests a single embedding at the configured dimensionality.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      p.model,
		Dimensions: p.dims,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding: empty response")
	}
	vec := resp.Data[0].Embedding
	if len(vec) != p.dims {
		return nil, fmt.Errorf("embedding: got %d dimensions, want %d", len(vec), p.dims)
	}
	return vec, nil
}

// Dimensions returns the configured vector width.
func (p *OpenAIProvider) Dimensions() int { return p.dims }
