// Package respond holds the JSON response helpers shared by all API
// handlers.
package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error writes a structured error message. No stack traces leave the
// process.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// NotFound writes the standard 404 body.
func NotFound(w http.ResponseWriter, what string) {
	Error(w, http.StatusNotFound, what+" not found")
}
