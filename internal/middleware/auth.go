package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/services"
)

// Authenticator resolves an Authorization header to a stored user.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*models.User, error)
}

type identityKey struct{}

// ContextWithIdentity returns a copy of ctx carrying id.
func ContextWithIdentity(ctx context.Context, id models.Identity) context.Context {
	setLogUserID(ctx, id.UserID.Hex())
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller set by RequireAuth or OptionalAuth.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

// RequireAuth rejects the request with 401 unless it carries a valid bearer
// token; the handler is never called on failure.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeAuthError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), user.Identity())))
		})
	}
}

// OptionalAuth attaches the caller when a valid token is present. An unusable
// token lets the request through anonymously; a failure to check it is a 500.
func OptionalAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := auth.Authenticate(r.Context(), header)
			if err != nil {
				if !isIdentityError(err) {
					writeAuthError(w, r, err)
					return
				}
				slog.Debug("ignoring unusable bearer token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), user.Identity())))
		})
	}
}

func isIdentityError(err error) bool {
	return errors.Is(err, services.ErrUnauthenticated) ||
		errors.Is(err, services.ErrInvalidToken) ||
		errors.Is(err, services.ErrUnknownUser)
}

// writeAuthError keeps the three identity failures generic on the wire.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrUnknownUser):
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
	default:
		slog.Error("authentication failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}
