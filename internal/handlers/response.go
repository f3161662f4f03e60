package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/services"
)

// errorResponse is the failure envelope every route returns.
type errorResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{OK: status < 400, Message: message})
}

// writeError maps a service error to its status code. Identity failures get
// generic messages; unexpected errors are logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeMessage(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, services.ErrConflict):
		writeMessage(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, services.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrUnknownUser):
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "You can only delete your own listings")
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrUnsupportedMediaType):
		writeMessage(w, http.StatusBadRequest, "Only image and video files are allowed")
	case errors.Is(err, services.ErrTooManyFiles):
		writeMessage(w, http.StatusBadRequest, capitalize(err.Error()))
	case errors.Is(err, services.ErrPayloadTooLarge):
		writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
	default:
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
	if msg == err.Error() || msg == "" {
		return "Invalid request"
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// decodeJSON reads a JSON body, rejecting bodies over 1 MiB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
