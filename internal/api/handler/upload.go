package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/pdf-chat/internal/api/response"
	"github.com/Rrens/pdf-chat/internal/domain"
)

const uploadField = "pdf"

// UploadHandler handles PDF uploads
type UploadHandler struct {
	chat     ChatUseCase
	maxBytes int64
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(chat ChatUseCase, maxBytes int64) *UploadHandler {
	return &UploadHandler{chat: chat, maxBytes: maxBytes}
}

// Upload accepts a multipart "pdf" file, extracts it and returns a new session id
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Message(w, http.StatusBadRequest, "File too large")
			return
		}
		response.Message(w, http.StatusBadRequest, "No file part")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		// an empty file input arrives as a plain form value
		if _, ok := r.MultipartForm.Value[uploadField]; ok {
			response.Message(w, http.StatusBadRequest, "No selected file")
			return
		}
		response.Message(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		response.Message(w, http.StatusBadRequest, "No selected file")
		return
	}

	session, err := h.chat.Upload(r.Context(), header.Filename, file)
	if err != nil {
		var extErr *domain.ExtractionError
		switch {
		case domain.IsValidation(err), errors.As(err, &extErr):
			response.Message(w, http.StatusBadRequest, msgInvalidFile)
		default:
			log.Error().Err(err).Str("file", header.Filename).Msg("Upload failed")
			response.Message(w, http.StatusInternalServerError, "Failed to process upload")
		}
		return
	}

	response.OK(w, UploadResponse{
		Success:   true,
		Message:   msgUploadProcessed,
		SessionID: session.ID,
	})
}
