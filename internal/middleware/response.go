package middleware

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// writeError writes the API's failure envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{OK: false, Message: message})
}
