package handlers

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	OK   bool      `json:"ok"`
	Time time.Time `json:"time"`
}

// Root handles GET /.
func Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("API is running"))
}

// Healthz handles GET /healthz. It reports liveness only and does not touch
// the database.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{OK: true, Time: time.Now().UTC()})
}
