package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/pdf-chat/internal/api/response"
	"github.com/Rrens/pdf-chat/internal/domain"
)

// ChatHandler handles chat turns and session resets
type ChatHandler struct {
	chat ChatUseCase
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat ChatUseCase) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat answers one question about the session document
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, msgInvalidBody)
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, msgInvalidSession)
		return
	}

	result, err := h.chat.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		var (
			vErr     *domain.ValidationError
			modelErr *domain.ModelError
		)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			response.BadRequest(w, msgInvalidSession)
		case errors.As(err, &vErr):
			response.BadRequest(w, vErr.Message)
		case errors.As(err, &modelErr):
			response.InternalError(w, "Model error: "+modelErr.Error())
		default:
			log.Error().Err(err).Str("session_id", req.SessionID).Msg("Chat turn failed")
			response.InternalError(w, "Internal server error")
		}
		return
	}

	response.OK(w, ChatResponse{
		Success:    true,
		Answer:     result.Answer,
		HistoryLen: result.HistoryLen,
	})
}

// Reset deletes the session and its history
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || validate.Struct(req) != nil {
		response.Message(w, http.StatusBadRequest, "Invalid session")
		return
	}

	if err := h.chat.Reset(r.Context(), req.SessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			response.Message(w, http.StatusBadRequest, "Invalid session")
			return
		}
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("Session reset failed")
		response.Message(w, http.StatusInternalServerError, "Failed to reset session")
		return
	}

	response.Message(w, http.StatusOK, "Session reset")
}
