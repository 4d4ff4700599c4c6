package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/pdf-chat/internal/llm"
)

type stubProvider struct {
	name       string
	configured bool
}

func (p *stubProvider) Name() string              { return p.name }
func (p *stubProvider) AvailableModels() []string { return []string{p.name + "-model"} }
func (p *stubProvider) DefaultModel() string      { return p.name + "-model" }
func (p *stubProvider) IsConfigured() bool        { return p.configured }
func (p *stubProvider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	return &llm.Response{Text: "ok", Model: model}, nil
}

func TestRouter_GetProvider(t *testing.T) {
	r := llm.NewRouter("gemini")
	r.RegisterProvider(&stubProvider{name: "gemini", configured: true})
	r.RegisterProvider(&stubProvider{name: "openai", configured: false})

	t.Run("default", func(t *testing.T) {
		p, err := r.GetProvider("")
		require.NoError(t, err)
		assert.Equal(t, "gemini", p.Name())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := r.GetProvider("mistral")
		assert.ErrorContains(t, err, "provider not found")
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := r.GetProvider("openai")
		assert.ErrorContains(t, err, "provider not configured")
	})
}

func TestRouter_ListProviders(t *testing.T) {
	r := llm.NewRouter("ollama")
	r.RegisterProvider(&stubProvider{name: "ollama", configured: true})
	r.RegisterProvider(&stubProvider{name: "anthropic", configured: true})
	r.RegisterProvider(&stubProvider{name: "openai", configured: false})

	assert.Equal(t, []string{"anthropic", "ollama"}, r.ListProviders())

	infos := r.GetProvidersInfo()
	require.Len(t, infos, 3)
	assert.Equal(t, "anthropic", infos[0].Name)
	assert.Equal(t, "ollama", infos[1].Name)
	assert.True(t, infos[1].Default)
	assert.Equal(t, "ollama-model", infos[1].DefaultModel)
	assert.False(t, infos[2].Configured)
}
