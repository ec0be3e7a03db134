package handler

import (
	"net/http"

	"github.com/mcoot/towerduel/internal/api/response"
	"github.com/mcoot/towerduel/internal/services/catalog"
)

// CatalogHandler serves the unit catalog
type CatalogHandler struct {
	catalog  *catalog.Catalog
	handSize int
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(cat *catalog.Catalog, handSize int) *CatalogHandler {
	return &CatalogHandler{catalog: cat, handSize: handSize}
}

// List handles GET /api/v1/catalog
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.CatalogFromModel(h.catalog.Units(), h.handSize))
}
