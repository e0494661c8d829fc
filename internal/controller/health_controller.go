package controller

import (
	"net/http"

	"github.com/veropos/terminal-bridge/internal/settings"
)

type HealthController struct {
	settings settings.Store
}

func NewHealthController(store settings.Store) *HealthController {
	return &HealthController{settings: store}
}

func (h *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness fails when the settings store cannot produce a terminal
// configuration; without one, every operation would fail anyway.
func (h *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	if _, err := h.settings.Terminal(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
