package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/services"
)

type stubAuthenticator struct {
	user *models.User
	err  error
}

func (s stubAuthenticator) Authenticate(ctx context.Context, header string) (*models.User, error) {
	if header == "" {
		return nil, services.ErrUnauthenticated
	}
	return s.user, s.err
}

func identityEcho(t *testing.T, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		id, ok := IdentityFromContext(r.Context())
		if ok {
			_, _ = w.Write([]byte(id.UserID.Hex()))
		} else {
			_, _ = w.Write([]byte("anonymous"))
		}
	})
}

func TestRequireAuth(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Name: "Asha", Email: "a@x.com"}

	tests := []struct {
		name       string
		auth       stubAuthenticator
		header     string
		wantStatus int
		wantCalled bool
		wantMsg    string
	}{
		{"valid", stubAuthenticator{user: user}, "Bearer ok", 200, true, ""},
		{"missing", stubAuthenticator{user: user}, "", 401, false, "Authentication required"},
		{"invalid", stubAuthenticator{err: services.ErrInvalidToken}, "Bearer bad", 401, false, "Invalid or expired token"},
		{"unknown user", stubAuthenticator{err: services.ErrUnknownUser}, "Bearer ghost", 401, false, "Invalid or expired token"},
		{"store down", stubAuthenticator{err: errors.New("db down")}, "Bearer x", 500, false, "Server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := RequireAuth(tt.auth)(identityEcho(t, &called))

			req := httptest.NewRequest(http.MethodGet, "/api/notifications/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantMsg != "" {
				var body errorBody
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.OK || body.Message != tt.wantMsg {
					t.Errorf("body = %+v", body)
				}
			} else if rec.Body.String() != user.ID.Hex() {
				t.Errorf("identity = %q, want %q", rec.Body.String(), user.ID.Hex())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID()}

	tests := []struct {
		name   string
		auth   stubAuthenticator
		header string
		want   string
	}{
		{"no header", stubAuthenticator{user: user}, "", "anonymous"},
		{"valid token", stubAuthenticator{user: user}, "Bearer ok", user.ID.Hex()},
		{"stale token", stubAuthenticator{err: services.ErrInvalidToken}, "Bearer old", "anonymous"},
		{"deleted user", stubAuthenticator{err: services.ErrUnknownUser}, "Bearer ghost", "anonymous"},
		{"not bearer", stubAuthenticator{err: services.ErrUnauthenticated}, "Basic abc", "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := OptionalAuth(tt.auth)(identityEcho(t, &called))
			req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if !called || rec.Body.String() != tt.want {
				t.Errorf("called=%v body=%q, want %q", called, rec.Body.String(), tt.want)
			}
		})
	}
}

func TestOptionalAuth_StoreFailureIsServerError(t *testing.T) {
	called := false
	h := OptionalAuth(stubAuthenticator{err: errors.New("server selection timeout")})(identityEcho(t, &called))
	req := httptest.NewRequest(http.MethodPost, "/api/animals", nil)
	req.Header.Set("Authorization", "Bearer ok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if called {
		t.Error("handler ran after the token could not be checked")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "Server error" {
		t.Errorf("message = %v", body["message"])
	}
}
