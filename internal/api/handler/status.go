package handler

import (
	"net/http"

	"github.com/mcoot/towerduel/internal/api/response"
	"github.com/mcoot/towerduel/internal/services/session"
)

// StatsSource reports live registry counts
type StatsSource interface {
	Stats() session.Stats
}

// StatusHandler serves live lobby and battle counts
type StatusHandler struct {
	registry StatsSource
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(registry StatsSource) *StatusHandler {
	return &StatusHandler{registry: registry}
}

// Get handles GET /api/v1/status
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.Live(w, http.StatusOK, response.StatusFromStats(h.registry.Stats()))
}
