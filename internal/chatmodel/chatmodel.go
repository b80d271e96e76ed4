// Package chatmodel implements the Chat Model Abstraction (C3): a uniform
// call surface over a local (Ollama-style) and a remote (OpenAI-compatible
// DashScope) chat provider.
package chatmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/ashwinyue/next-ai/internal/config"
)

// Provider carries a chat model handle plus a tag identifying its origin,
// so the router's decision can report provider identity without runtime
// type inspection.
type Provider struct {
	Tag   string // "local" | "remote"
	Model model.ToolCallingChatModel
}

// Set holds both configured providers, constructed once at process start.
type Set struct {
	Local  *Provider
	Remote *Provider
}

// New builds both providers. Both speak the same OpenAI-compatible
// chat-completions wire format at the eino-ext client layer; only the
// BaseURL/APIKey/Model differ between them.
func New(ctx context.Context, local, remote config.ModelEndpoint) (*Set, error) {
	localModel, err := newOpenAICompatModel(ctx, local)
	if err != nil {
		return nil, fmt.Errorf("create local chat model: %w", err)
	}
	remoteModel, err := newOpenAICompatModel(ctx, remote)
	if err != nil {
		return nil, fmt.Errorf("create remote chat model: %w", err)
	}

	return &Set{
		Local:  &Provider{Tag: "local", Model: localModel},
		Remote: &Provider{Tag: "remote", Model: remoteModel},
	}, nil
}

// ByTag resolves a provider by its "local"/"remote" tag, falling back to
// Local for any unrecognised tag so callers never crash on a bad decision.
func (s *Set) ByTag(tag string) *Provider {
	if tag == "remote" {
		return s.Remote
	}
	return s.Local
}

func newOpenAICompatModel(ctx context.Context, ep config.ModelEndpoint) (model.ToolCallingChatModel, error) {
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: ep.BaseURL,
		APIKey:  ep.APIKey,
		Model:   ep.ModelName,
		Timeout: time.Duration(ep.Timeout) * time.Second,
	})
}
