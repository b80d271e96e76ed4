// Package vectorindex implements the Vector Index Client (C2): a minimal
// search(vector, k, minScore) contract against a Qdrant-compatible backend.
package vectorindex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/ashwinyue/next-ai/internal/apperr"
	"github.com/ashwinyue/next-ai/internal/config"
)

// Segment is one retrieved passage with its similarity score.
type Segment struct {
	Text     string
	Filename string
	DocumentID string
	ChunkIndex int
	Score    float64
}

// Client wraps a Qdrant gRPC client behind the search contract C4's
// searchKnowledge tool needs.
type Client struct {
	client     *qdrant.Client
	collection string
}

// New connects to Qdrant, deriving the gRPC port from a REST-style URL the
// way parseQdrantURL does in the grounding example.
func New(cfg config.VectorConfig) (*Client, error) {
	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s:%d: %w", host, port, err)
	}

	return &Client{client: c, collection: cfg.Collection}, nil
}

func parseQdrantURL(rawURL string) (host string, port int, useTLS bool, err error) {
	u, parseErr := url.Parse(rawURL)
	if parseErr != nil || u.Host == "" {
		return "", 0, false, fmt.Errorf("invalid qdrant URL: %q", rawURL)
	}

	useTLS = u.Scheme == "https"
	host = u.Hostname()

	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid port in qdrant URL: %q", portStr)
		}
		if p == 6333 {
			port = 6334
		} else {
			port = p
		}
	} else {
		port = 6334
	}

	return host, port, useTLS, nil
}

// Search performs a nearest-neighbour search and drops any match whose score
// is below minScore before returning.
func (c *Client) Search(ctx context.Context, vector []float64, k int, minScore float64) ([]Segment, error) {
	dense := make([]float32, len(vector))
	for i, v := range vector {
		dense[i] = float32(v)
	}

	limit := uint64(k)
	points, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQueryDense(dense),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.VectorBackendError, "qdrant query", err)
	}

	segments := make([]Segment, 0, len(points))
	for _, p := range points {
		score := float64(p.Score)
		if score < minScore {
			continue
		}
		payload := p.GetPayload()
		seg := Segment{
			Text:  stringField(payload, "text"),
			Score: score,
		}
		if fn := stringField(payload, "filename"); fn != "" {
			seg.Filename = fn
		}
		if did := stringField(payload, "document_id"); did != "" {
			seg.DocumentID = did
		}
		if ci, ok := payload["chunk_index"]; ok && ci != nil {
			seg.ChunkIndex = int(ci.GetIntegerValue())
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func stringField(payload map[string]*qdrant.Value, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	return v.GetStringValue()
}
