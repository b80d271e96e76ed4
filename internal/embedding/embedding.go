// Package embedding implements the Embedding Client (C1): turning a query
// string into a dense vector.
package embedding

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/embedding/dashscope"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/ashwinyue/next-ai/internal/config"
)

// Client wraps an eino embedding.Embedder behind the single method C4's
// searchKnowledge tool needs.
type Client struct {
	embedder embedding.Embedder
}

// New constructs a DashScope-backed embedding client. cfg reuses the remote
// model endpoint configuration since DashScope serves both chat and
// embedding under one API key.
func New(ctx context.Context, cfg config.ModelEndpoint) (*Client, error) {
	e, err := dashscope.NewEmbedder(ctx, &dashscope.EmbeddingConfig{
		APIKey: cfg.APIKey,
		Model:  "text-embedding-v3",
	})
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &Client{embedder: e}, nil
}

// Embed turns text into a single dense vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}
	return vectors[0], nil
}
