package handler

import (
	"context"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/service"
)

var validate = validator.New()

const (
	msgInvalidSession  = "Invalid or missing session_id. Upload a PDF first."
	msgInvalidBody     = "Invalid request body"
	msgInvalidFile     = "Invalid file"
	msgUploadProcessed = "PDF uploaded and processed"
)

// ChatUseCase is the application surface the HTTP handlers drive
type ChatUseCase interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*domain.Session, error)
	Chat(ctx context.Context, sessionID, message string) (*service.ChatResult, error)
	Reset(ctx context.Context, sessionID string) error
}

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
	Message   string `json:"message"`
}

// ResetRequest is the body of POST /reset_session
type ResetRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
}

// UploadResponse is the success body of POST /upload_pdf
type UploadResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatResponse is the success body of POST /chat
type ChatResponse struct {
	Success    bool   `json:"success"`
	Answer     string `json:"answer"`
	HistoryLen int    `json:"history_len"`
}
