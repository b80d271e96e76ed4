package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashwinyue/next-ai/internal/embedding"
	"github.com/ashwinyue/next-ai/internal/vectorindex"
)

// SearchKnowledgeInput is the schema-inferred parameter struct for
// searchKnowledge.
type SearchKnowledgeInput struct {
	Query      string `json:"query" jsonschema:"description=natural-language search query"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"description=maximum number of matches to return"`
}

// Knowledge wires the embedding client and vector index client behind the
// searchKnowledge tool.
type Knowledge struct {
	Embedder   *embedding.Client
	Vectors    *vectorindex.Client
	MaxResults int
	MinScore   float64
}

// SearchKnowledge embeds query, searches the vector index, and formats each
// surviving match as "[source=<filename>, score=<s>]\n<text>" joined by a
// blank line.
func (k *Knowledge) SearchKnowledge(ctx context.Context, query string, maxResults int) (string, []vectorindex.Segment, error) {
	if maxResults <= 0 {
		maxResults = k.MaxResults
	}

	vector, err := k.Embedder.Embed(ctx, query)
	if err != nil {
		return "", nil, fmt.Errorf("embed query: %w", err)
	}

	segments, err := k.Vectors.Search(ctx, vector, maxResults, k.MinScore)
	if err != nil {
		return "", nil, err
	}

	if len(segments) == 0 {
		return "未在知识库中找到相关内容。", segments, nil
	}

	var b strings.Builder
	for i, s := range segments {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[source=%s, score=%.4f]\n%s", s.Filename, s.Score, s.Text)
	}
	return b.String(), segments, nil
}
