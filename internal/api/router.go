package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/towerduel/internal/api/handler"
	"github.com/mcoot/towerduel/internal/api/middleware"
	"github.com/mcoot/towerduel/internal/api/response"
	"github.com/mcoot/towerduel/internal/services/catalog"
	"github.com/mcoot/towerduel/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Catalog  *catalog.Catalog
	HandSize int
	Registry handler.StatsSource
	Storage  storage.Storage

	// WebSocket serves GET /ws. The route is omitted if nil.
	WebSocket http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	catalogHandler := handler.NewCatalogHandler(cfg.Catalog, cfg.HandSize)
	statusHandler := handler.NewStatusHandler(cfg.Registry)
	historyHandler := handler.NewHistoryHandler(cfg.Storage)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Websocket endpoint
	if cfg.WebSocket != nil {
		r.Handle("/ws", recoveryMiddleware(loggingMiddleware(cfg.WebSocket))).Methods(http.MethodGet)
	}

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/catalog", catalogHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/status", statusHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/battles/history", historyHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/battles/{id}", historyHandler.Get).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
