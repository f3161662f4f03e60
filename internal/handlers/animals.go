package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/middleware"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
)

type ListingService interface {
	Create(ctx context.Context, in models.NewAnimal, identity *models.Identity) (*models.Animal, error)
	List(ctx context.Context) ([]models.Animal, error)
	Delete(ctx context.Context, id string, identity *models.Identity) error
}

type AnimalHandler struct {
	listings ListingService
}

func NewAnimalHandler(listings ListingService) *AnimalHandler {
	return &AnimalHandler{listings: listings}
}

type AnimalsResponse struct {
	OK      bool            `json:"ok"`
	Animals []models.Animal `json:"animals"`
}

type AnimalResponse struct {
	OK     bool           `json:"ok"`
	Animal *models.Animal `json:"animal"`
}

// List handles GET /api/animals.
func (h *AnimalHandler) List(w http.ResponseWriter, r *http.Request) {
	animals, err := h.listings.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AnimalsResponse{OK: true, Animals: animals})
}

// Create handles POST /api/animals. The caller is optional unless listing
// auth is enforced by the service.
func (h *AnimalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.NewAnimal
	if !decodeJSON(w, r, &req) {
		return
	}
	animal, err := h.listings.Create(r.Context(), req, identityPtr(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AnimalResponse{OK: true, Animal: animal})
}

// Delete handles DELETE /api/animals/{id}.
func (h *AnimalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Delete(r.Context(), chi.URLParam(r, "id"), identityPtr(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Deleted")
}

func identityPtr(r *http.Request) *models.Identity {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	return &id
}
