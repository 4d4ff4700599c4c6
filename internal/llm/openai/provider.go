package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Rrens/pdf-chat/internal/config"
	"github.com/Rrens/pdf-chat/internal/llm"
)

// Provider implements llm.Provider for OpenAI and OpenAI-compatible APIs
type Provider struct {
	name         string
	apiKey       string
	defaultModel string
	models       []string
	client       openaisdk.Client
}

// NewProvider creates a new OpenAI provider
func NewProvider(cfg config.OpenAIConfig, opts ...option.RequestOption) *Provider {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return NewCompatibleProvider("openai", cfg.APIKey, model, cfg.BaseURL, []string{
		"gpt-4o-mini",
		"gpt-4o",
		"gpt-4.1-mini",
		"gpt-4.1",
		"gpt-4-turbo",
	}, opts...)
}

// NewCompatibleProvider creates a provider for any endpoint speaking the
// OpenAI chat completions protocol. SDK retries are disabled.
func NewCompatibleProvider(name, apiKey, defaultModel, baseURL string, models []string, opts ...option.RequestOption) *Provider {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &Provider{
		name:         name,
		apiKey:       apiKey,
		defaultModel: defaultModel,
		models:       models,
		client:       openaisdk.NewClient(clientOpts...),
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return p.name
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return p.models
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

	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(req.Prompt),
		},
		Temperature: openaisdk.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", p.name, err)
	}
	latencyMs := time.Since(start).Milliseconds()

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errors.New("no response from " + p.name)
	}

	return &llm.Response{
		Text:       resp.Choices[0].Message.Content,
		Model:      model,
		TokensUsed: int(resp.Usage.TotalTokens),
		LatencyMs:  latencyMs,
	}, nil
}
