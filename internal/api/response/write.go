package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Live writes a JSON response that clients and proxies must not cache,
// for data that changes with every battle
func Live(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Cache-Control", "no-store")
	JSON(w, status, data)
}
