package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/pdf-chat/internal/config"
	"github.com/Rrens/pdf-chat/internal/llm"
)

func TestProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Equal(t, "the prompt", req.Prompt)
		assert.False(t, req.Stream)
		assert.Equal(t, float64(256), req.Options["num_predict"])

		_ = json.NewEncoder(w).Encode(generateResponse{
			Response:        "- grounded answer",
			Done:            true,
			PromptEvalCount: 30,
			EvalCount:       7,
		})
	}))
	defer srv.Close()

	p := NewProvider(config.OllamaConfig{Host: srv.URL + "/"})
	resp, err := p.Generate(context.Background(), llm.Request{Prompt: "the prompt", MaxTokens: 256}, "")
	require.NoError(t, err)

	assert.Equal(t, "- grounded answer", resp.Text)
	assert.Equal(t, "llama3", resp.Model)
	assert.Equal(t, 37, resp.TokensUsed)
}

func TestProvider_GenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "bad status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
			},
			wantErr: "ollama returned status 404",
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			wantErr: "failed to decode response",
		},
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"response":"","done":true}`))
			},
			wantErr: "empty response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p := NewProvider(config.OllamaConfig{Host: srv.URL})
			_, err := p.Generate(context.Background(), llm.Request{Prompt: "x"}, "")
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestProvider_GenerateHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewProvider(config.OllamaConfig{Host: srv.URL}).Generate(ctx, llm.Request{Prompt: "x"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProvider_Metadata(t *testing.T) {
	p := NewProvider(config.OllamaConfig{})
	assert.Equal(t, "ollama", p.Name())
	assert.False(t, p.IsConfigured())
	assert.Equal(t, "llama3", p.DefaultModel())
}
