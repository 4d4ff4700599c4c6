package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/pdf-chat/internal/document"
	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/llm"
	"github.com/Rrens/pdf-chat/internal/metrics"
)

// TextExtractor turns a stored upload into document text
type TextExtractor interface {
	Extract(ctx context.Context, path string) (*document.Extraction, error)
}

// Answerer produces an answer for a composed prompt
type Answerer interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

// ChatOptions holds the tunables of ChatService
type ChatOptions struct {
	UploadDir        string
	KeepFiles        bool
	HistoryWindow    int
	MaxMessageLength int
}

// ChatResult is the outcome of one chat turn
type ChatResult struct {
	Answer     string
	HistoryLen int
}

// ChatService handles PDF upload, chat turns and session reset
type ChatService struct {
	store     domain.SessionStore
	extractor TextExtractor
	answerer  Answerer
	opts      ChatOptions
	locks     *sessionLocks
	metrics   *metrics.Metrics
}

// NewChatService creates a new chat service
func NewChatService(
	store domain.SessionStore,
	extractor TextExtractor,
	answerer Answerer,
	opts ChatOptions,
	m *metrics.Metrics,
) *ChatService {
	return &ChatService{
		store:     store,
		extractor: extractor,
		answerer:  answerer,
		opts:      opts,
		locks:     newSessionLocks(),
		metrics:   m,
	}
}

// Upload stores the file, extracts its text and opens a new session for it
func (s *ChatService) Upload(ctx context.Context, filename string, r io.Reader) (*domain.Session, error) {
	if !allowedFile(filename) {
		s.countUpload("invalid")
		return nil, domain.NewValidationError("Invalid file")
	}

	path, err := s.saveUpload(filename, r)
	if err != nil {
		s.countUpload("error")
		return nil, err
	}

	extraction, err := s.extractor.Extract(ctx, path)
	if err != nil || !s.opts.KeepFiles {
		if rmErr := os.Remove(path); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove upload")
		}
	}
	if err != nil {
		s.countUpload("invalid")
		log.Warn().Err(err).Str("file", filename).Msg("PDF extraction failed")
		return nil, err
	}

	session, err := s.store.Create(ctx, extraction.Text)
	if err != nil {
		s.countUpload("error")
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.countUpload("ok")
	if s.metrics != nil {
		s.metrics.DocumentChars.Observe(float64(extraction.Chars))
		if extraction.Truncated {
			s.metrics.DocumentsTruncated.Inc()
		}
		s.metrics.SessionsCreated.Inc()
	}

	log.Info().
		Str("session_id", session.ID).
		Str("file", filename).
		Int("chars", extraction.Chars).
		Bool("truncated", extraction.Truncated).
		Msg("PDF uploaded and processed")

	return session, nil
}

// saveUpload writes r to <upload_dir>/<hex>_<sanitized name>
func (s *ChatService) saveUpload(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	id := uuid.New()
	name := hex.EncodeToString(id[:]) + "_" + secureFilename(filename)
	path := filepath.Join(s.opts.UploadDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	return path, nil
}

// Chat answers message against the session document and records both turns.
// Turns on the same session are serialised.
func (s *ChatService) Chat(ctx context.Context, sessionID, message string) (*ChatResult, error) {
	if sessionID == "" {
		s.countTurn("invalid")
		return nil, domain.ErrSessionNotFound
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		s.countTurn("invalid")
		return nil, err
	}

	message = strings.TrimSpace(message)
	if message == "" {
		s.countTurn("invalid")
		return nil, domain.NewValidationError("Empty message")
	}
	if s.opts.MaxMessageLength > 0 && utf8.RuneCountInString(message) > s.opts.MaxMessageLength {
		s.countTurn("invalid")
		return nil, domain.NewValidationError("Message too long")
	}

	// the prompt carries the history as it was before this turn
	prompt := llm.BuildPrompt(session.DocumentText, session.History, message, s.opts.HistoryWindow)

	if _, err := s.store.AppendTurn(ctx, sessionID, domain.Turn{Role: domain.RoleUser, Content: message}); err != nil {
		s.countTurn("error")
		return nil, fmt.Errorf("failed to record user turn: %w", err)
	}

	answer, err := s.answerer.Answer(ctx, prompt)
	if err != nil {
		s.countTurn("model_error")
		return nil, err
	}

	historyLen, err := s.store.AppendTurn(ctx, sessionID, domain.Turn{Role: domain.RoleAssistant, Content: answer})
	if err != nil {
		s.countTurn("error")
		return nil, fmt.Errorf("failed to record assistant turn: %w", err)
	}

	s.countTurn("ok")
	log.Debug().
		Str("session_id", sessionID).
		Int("history_len", historyLen).
		Msg("Chat turn completed")

	return &ChatResult{Answer: answer, HistoryLen: historyLen}, nil
}

// Reset forgets the session and its history
func (s *ChatService) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrSessionNotFound
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.SessionsReset.Inc()
	}
	log.Info().Str("session_id", sessionID).Msg("Session reset")
	return nil
}

func (s *ChatService) countUpload(status string) {
	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues(status).Inc()
	}
}

func (s *ChatService) countTurn(status string) {
	if s.metrics != nil {
		s.metrics.ChatTurnsTotal.WithLabelValues(status).Inc()
	}
}
