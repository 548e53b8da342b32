package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/drfirst/dental-claims/pkg/circuitbreaker"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness.
type HealthHandler struct {
	service  string
	version  string
	store    Pinger
	breakers *circuitbreaker.Manager
}

// NewHealthHandler creates a new handler. breakers may be nil.
func NewHealthHandler(service, version string, store Pinger, breakers *circuitbreaker.Manager) *HealthHandler {
	return &HealthHandler{service: service, version: version, store: store, breakers: breakers}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": h.service,
		"version": h.version,
	})
}

// ReadyResponse is the response for GET /ready
type ReadyResponse struct {
	Status   string                        `json:"status"`
	Store    string                        `json:"store"`
	Breakers []circuitbreaker.HealthStatus `json:"breakers,omitempty"`
}

// Ready handles GET /ready. The store must answer a ping; an open breaker
// only degrades the status.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Store: "ok"}
	if h.breakers != nil {
		resp.Breakers = h.breakers.GetHealthStatus()
		for _, b := range resp.Breakers {
			if !b.Healthy {
				resp.Status = "degraded"
			}
		}
	}
	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "not ready"
		resp.Store = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
