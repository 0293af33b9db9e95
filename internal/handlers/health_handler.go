package handlers

import (
	"net/http"

	"github.com/motorunner/api/internal/platform/httpx"
)

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	version string
	ready   func(r *http.Request) error
}

func NewHealthHandler(version string, ready func(r *http.Request) error) *HealthHandler {
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{version: version, ready: ready}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.version,
	})
}

// Ready reports whether downstream dependencies are reachable. With no probe
// configured it reports ready, matching the liveness answer.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unavailable",
				"reason": err.Error(),
			})
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.version,
	})
}
