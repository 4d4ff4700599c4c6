package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/pdf-chat/internal/api/response"
	"github.com/Rrens/pdf-chat/internal/llm"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type statusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, statusResponse{Success: true, Status: "ok"})
}

// ReadyCheck returns readiness status including session store connectivity
func ReadyCheck(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			response.ServiceUnavailable(w, "session store not ready")
			return
		}
		response.OK(w, statusResponse{Success: true, Status: "ready"})
	}
}

type providersResponse struct {
	Success         bool               `json:"success"`
	Providers       []llm.ProviderInfo `json:"providers"`
	DefaultProvider string             `json:"default_provider"`
}

// ListLLMProviders returns the registered LLM providers
func ListLLMProviders(router *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, providersResponse{
			Success:         true,
			Providers:       router.GetProvidersInfo(),
			DefaultProvider: router.DefaultProvider(),
		})
	}
}
