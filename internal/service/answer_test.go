package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/pdf-chat/internal/config"
	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/llm"
	"github.com/Rrens/pdf-chat/internal/metrics"
)

func newMockProvider() *MockProvider {
	p := new(MockProvider)
	p.On("Name").Return("gemini")
	p.On("DefaultModel").Return("gemini-2.0-flash")
	p.On("IsConfigured").Return(true)
	return p
}

func newAnswerService(p llm.Provider, timeout time.Duration, m *metrics.Metrics) *AnswerService {
	router := llm.NewRouter("gemini")
	router.RegisterProvider(p)
	return NewAnswerService(router, config.LLMConfig{
		DefaultProvider: "gemini",
		Timeout:         timeout,
		Temperature:     0.2,
		MaxTokens:       2048,
	}, m)
}

func TestAnswerService_Answer(t *testing.T) {
	ctx := context.Background()

	t.Run("trims output", func(t *testing.T) {
		p := newMockProvider()
		m := metrics.NewMetrics()
		p.On("Generate", mock.Anything, llm.Request{Prompt: "prompt", Temperature: 0.2, MaxTokens: 2048}, "gemini-2.0-flash").
			Return(&llm.Response{Text: "  - point one\n", Model: "gemini-2.0-flash"}, nil).Once()

		answer, err := newAnswerService(p, time.Minute, m).Answer(ctx, "prompt")
		require.NoError(t, err)
		assert.Equal(t, "- point one", answer)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelRequestsTotal.WithLabelValues("gemini", "ok")))
		p.AssertExpectations(t)
	})

	t.Run("provider error becomes model error", func(t *testing.T) {
		p := newMockProvider()
		m := metrics.NewMetrics()
		p.On("Generate", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("quota exceeded")).Once()

		_, err := newAnswerService(p, time.Minute, m).Answer(ctx, "prompt")
		var modelErr *domain.ModelError
		require.ErrorAs(t, err, &modelErr)
		assert.Equal(t, "gemini", modelErr.Provider)
		assert.Equal(t, "quota exceeded", err.Error())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelRequestsTotal.WithLabelValues("gemini", "error")))
		p.AssertNumberOfCalls(t, "Generate", 1)
	})

	t.Run("blank output is a model error", func(t *testing.T) {
		p := newMockProvider()
		p.On("Generate", mock.Anything, mock.Anything, mock.Anything).
			Return(&llm.Response{Text: " \n "}, nil).Once()

		_, err := newAnswerService(p, time.Minute, nil).Answer(ctx, "prompt")
		var modelErr *domain.ModelError
		require.ErrorAs(t, err, &modelErr)
		assert.Contains(t, err.Error(), "empty response")
	})

	t.Run("deadline applied to call", func(t *testing.T) {
		p := newMockProvider()
		p.On("Generate", mock.MatchedBy(func(ctx context.Context) bool {
			deadline, ok := ctx.Deadline()
			return ok && time.Until(deadline) <= 5*time.Second
		}), mock.Anything, mock.Anything).
			Return(&llm.Response{Text: "ok"}, nil).Once()

		answer, err := newAnswerService(p, 5*time.Second, nil).Answer(ctx, "prompt")
		require.NoError(t, err)
		assert.Equal(t, "ok", answer)
		p.AssertExpectations(t)
	})

	t.Run("unregistered provider", func(t *testing.T) {
		svc := NewAnswerService(llm.NewRouter("gemini"), config.LLMConfig{DefaultProvider: "gemini"}, nil)

		_, err := svc.Answer(ctx, "prompt")
		var modelErr *domain.ModelError
		require.ErrorAs(t, err, &modelErr)
		assert.EqualError(t, err, "provider not found: gemini")
	})
}
