package common

import (
	"encoding/json"
	"net/http"
)

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response in the legacy till format: a single
// top-level "error" string parsed by the terminal frontend.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// JSONData renders an informational response in the legacy till format.
func JSONData(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"data": message})
}
