package handler

import (
	"net/http"

	"github.com/mcoot/towerduel/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest   = apierr.CodeInvalidRequest
	CodeBattleNotFound   = apierr.CodeBattleNotFound
	CodeCatalogNotStored = apierr.CodeCatalogNotStored
	CodeInvalidCatalog   = apierr.CodeInvalidCatalog
	CodeInternalError    = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}
