package request

import (
	"fmt"
	"net/http"
	"strconv"
)

// History paging bounds
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HistoryQuery holds the query parameters for the battle history endpoint
type HistoryQuery struct {
	Limit int
}

// ParseHistoryQuery reads ?limit=N, defaulting and capping it
func ParseHistoryQuery(r *http.Request) (HistoryQuery, error) {
	q := HistoryQuery{Limit: DefaultHistoryLimit}

	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return q, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return q, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	q.Limit = min(limit, MaxHistoryLimit)
	return q, nil
}
