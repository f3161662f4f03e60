package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/middleware"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/services"
)

// CredentialService is the part of services.AuthService the handlers use.
type CredentialService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
}

type AuthHandler struct {
	auth CredentialService
}

func NewAuthHandler(auth CredentialService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	OK    bool              `json:"ok"`
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

type MeResponse struct {
	OK   bool              `json:"ok"`
	User models.PublicUser `json:"user"`
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{OK: true, Token: res.Token, User: res.User})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{OK: true, Token: res.Token, User: res.User})
}

// Me handles GET /api/me behind RequireAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, services.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{OK: true, User: models.PublicUser{
		ID:    id.UserID.Hex(),
		Name:  id.Name,
		Email: id.Email,
		Phone: id.Phone,
	}})
}
