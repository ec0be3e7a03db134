package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/towerduel/internal/api/request"
	"github.com/mcoot/towerduel/internal/api/response"
	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/storage"
)

// HistoryHandler serves finished battle summaries
type HistoryHandler struct {
	storage storage.Storage
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(store storage.Storage) *HistoryHandler {
	return &HistoryHandler{storage: store}
}

// List handles GET /api/v1/battles/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := request.ParseHistoryQuery(r)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	summaries, err := h.storage.ListBattleSummaries(r.Context(), query.Limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Live(w, http.StatusOK, response.HistoryFromModel(summaries))
}

// Get handles GET /api/v1/battles/{id}
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.BattleID(mux.Vars(r)["id"])

	summary, err := h.storage.GetBattleSummary(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BattleSummaryFromModel(summary))
}
