package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/towerduel/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeBattleNotFound   = "BATTLE_NOT_FOUND"
	CodeCatalogNotStored = "CATALOG_NOT_STORED"
	CodeInvalidCatalog   = "INVALID_CATALOG"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrBattleNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeBattleNotFound, "Battle not found"}}
	case errors.Is(err, model.ErrCatalogNotStored):
		return &httpError{http.StatusNotFound, APIError{CodeCatalogNotStored, "No catalog has been published"}}
	case errors.Is(err, model.ErrInvalidCatalog):
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeInvalidCatalog, err.Error()}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
