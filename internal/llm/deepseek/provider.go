package deepseek

import (
	"github.com/openai/openai-go/option"

	"github.com/Rrens/pdf-chat/internal/config"
	"github.com/Rrens/pdf-chat/internal/llm/openai"
)

const defaultBaseURL = "https://api.deepseek.com/v1"

// NewProvider creates a DeepSeek provider over its OpenAI-compatible API
func NewProvider(cfg config.DeepSeekConfig, opts ...option.RequestOption) *openai.Provider {
	model := cfg.Model
	if model == "" {
		model = "deepseek-chat"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return openai.NewCompatibleProvider("deepseek", cfg.APIKey, model, baseURL, []string{
		"deepseek-chat",
		"deepseek-reasoner",
	}, opts...)
}
