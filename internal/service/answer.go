package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/pdf-chat/internal/config"
	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/llm"
	"github.com/Rrens/pdf-chat/internal/metrics"
)

// AnswerService sends composed prompts to the configured LLM provider
type AnswerService struct {
	router      *llm.Router
	provider    string
	timeout     time.Duration
	temperature float64
	maxTokens   int
	metrics     *metrics.Metrics
}

// NewAnswerService creates a new answer service
func NewAnswerService(router *llm.Router, cfg config.LLMConfig, m *metrics.Metrics) *AnswerService {
	return &AnswerService{
		router:      router,
		provider:    cfg.DefaultProvider,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		metrics:     m,
	}
}

// Answer makes a single generation attempt and returns the trimmed text.
// Every failure is reported as a *domain.ModelError.
func (s *AnswerService) Answer(ctx context.Context, prompt string) (string, error) {
	provider, err := s.router.GetProvider(s.provider)
	if err != nil {
		return "", domain.NewModelError(s.provider, err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := provider.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}, provider.DefaultModel())
	elapsed := time.Since(start)

	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = errors.New("empty response from " + provider.Name())
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	if s.metrics != nil {
		s.metrics.ModelRequestsTotal.WithLabelValues(provider.Name(), status).Inc()
		s.metrics.ModelRequestDuration.WithLabelValues(provider.Name()).Observe(elapsed.Seconds())
	}

	if err != nil {
		log.Error().
			Err(err).
			Str("provider", provider.Name()).
			Int64("latency_ms", elapsed.Milliseconds()).
			Msg("Model request failed")
		return "", domain.NewModelError(provider.Name(), err)
	}

	log.Info().
		Str("provider", provider.Name()).
		Str("model", resp.Model).
		Int("tokens_used", resp.TokensUsed).
		Int64("latency_ms", elapsed.Milliseconds()).
		Msg("Model request completed")

	return strings.TrimSpace(resp.Text), nil
}
