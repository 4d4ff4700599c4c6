package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "message success",
			write:      func(w http.ResponseWriter) { Message(w, http.StatusOK, "Session reset") },
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"message":"Session reset"}`,
		},
		{
			name:       "message failure",
			write:      func(w http.ResponseWriter) { Message(w, http.StatusBadRequest, "Invalid session") },
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"message":"Invalid session"}`,
		},
		{
			name:       "bad request",
			write:      func(w http.ResponseWriter) { BadRequest(w, "Empty message") },
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"error":"Empty message"}`,
		},
		{
			name:       "internal error",
			write:      func(w http.ResponseWriter) { InternalError(w, "Model error: boom") },
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"success":false,"error":"Model error: boom"}`,
		},
		{
			name:       "unavailable",
			write:      func(w http.ResponseWriter) { ServiceUnavailable(w, "store not ready") },
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"success":false,"error":"store not ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
