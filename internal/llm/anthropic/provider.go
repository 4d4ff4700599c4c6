package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Rrens/pdf-chat/internal/config"
	"github.com/Rrens/pdf-chat/internal/llm"
)

const defaultMaxTokens = 1024

// Provider implements llm.Provider for Anthropic
type Provider struct {
	apiKey       string
	defaultModel string
	client       anthropicsdk.Client
}

// NewProvider creates a new Anthropic provider
func NewProvider(cfg config.AnthropicConfig, opts ...option.RequestOption) *Provider {
	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &Provider{
		apiKey:       cfg.APIKey,
		defaultModel: model,
		client:       anthropicsdk.NewClient(clientOpts...),
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "anthropic"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"claude-3-5-haiku-latest",
		"claude-3-5-sonnet-latest",
		"claude-3-7-sonnet-latest",
		"claude-sonnet-4-0",
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

// Generate sends the prompt as a single user message
func (p *Provider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if model == "" {
		model = p.defaultModel
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	start := time.Now()
	msg, err := p.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropicsdk.Float(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	latencyMs := time.Since(start).Milliseconds()

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return nil, errors.New("no text content from anthropic")
	}

	return &llm.Response{
		Text:       b.String(),
		Model:      model,
		TokensUsed: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		LatencyMs:  latencyMs,
	}, nil
}
