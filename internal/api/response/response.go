package response

import (
	"encoding/json"
	"net/http"
)

// Status is the envelope shared by every reply. Payload fields sit next to
// success at the top level.
type Status struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON sends body as a JSON response
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// OK sends a 200 OK response with body
func OK(w http.ResponseWriter, body any) {
	JSON(w, http.StatusOK, body)
}

// Message sends {success, message}; success follows the status code
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Status{
		Success: status >= 200 && status < 300,
		Message: message,
	})
}

// Error sends {success:false, error}
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Status{Success: false, Error: message})
}

// BadRequest sends a 400 Bad Request response
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// InternalError sends a 500 Internal Server Error response
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

// ServiceUnavailable sends a 503 Service Unavailable response
func ServiceUnavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, message)
}

// TooManyRequests sends a 429 Too Many Requests response
func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, message)
}

// NotFound sends a 404 Not Found response
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}
