package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/queue"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/repository"
)

type AnimalStore interface {
	Create(ctx context.Context, a *models.Animal) error
	List(ctx context.Context) ([]models.Animal, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Animal, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// EventPublisher announces created listings.
type EventPublisher interface {
	PublishListingCreated(ctx context.Context, ev queue.ListingCreatedEvent) error
}

// ListingOptions holds the optional collaborators of a ListingService.
type ListingOptions struct {
	Cache   ListingCache
	Events  EventPublisher
	Metrics Recorder
	Logger  *slog.Logger

	// RequireAuth makes create need an identity and delete need the owner.
	RequireAuth bool
}

// ListingService runs the listing lifecycle: a listing is active from
// creation until it is deleted, and deletion is permanent.
type ListingService struct {
	store       AnimalStore
	cache       ListingCache
	events      EventPublisher
	metrics     Recorder
	logger      *slog.Logger
	requireAuth bool
	policy      *bluemonday.Policy
}

func NewListingService(store AnimalStore, opts ListingOptions) *ListingService {
	s := &ListingService{
		store:       store,
		cache:       opts.Cache,
		events:      opts.Events,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		requireAuth: opts.RequireAuth,
		policy:      bluemonday.StrictPolicy(),
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Create validates and stores a new listing. The photo URLs are taken as
// given; they are not checked against uploaded files.
func (s *ListingService) Create(ctx context.Context, in models.NewAnimal, identity *models.Identity) (*models.Animal, error) {
	if s.requireAuth && identity == nil {
		return nil, ErrUnauthenticated
	}

	a := &models.Animal{
		Title:       s.clean(in.Title),
		AnimalType:  s.clean(in.AnimalType),
		Breed:       s.clean(in.Breed),
		Age:         s.clean(in.Age),
		Location:    s.clean(in.Location),
		Description: s.clean(in.Description),
		Photos:      nonBlank(in.Photos),
		SellerName:  s.clean(in.SellerName),
		SellerPhone: strings.TrimSpace(in.SellerPhone),
		SellerEmail: strings.TrimSpace(in.SellerEmail),
		Verified:    false,
		Rating:      models.DefaultRating,
	}

	// seller contact is a snapshot of the caller, filled only where left blank
	if identity != nil {
		owner := identity.UserID
		a.OwnerID = &owner
		if a.SellerName == "" {
			a.SellerName = identity.Name
		}
		if a.SellerPhone == "" {
			a.SellerPhone = identity.Phone
		}
		if a.SellerEmail == "" {
			a.SellerEmail = identity.Email
		}
	}

	for _, f := range []struct{ name, value string }{
		{"title", a.Title},
		{"animalType", a.AnimalType},
		{"breed", a.Breed},
		{"age", a.Age},
		{"location", a.Location},
	} {
		if f.value == "" {
			return nil, validationError("%s is required", f.name)
		}
	}
	if in.Price == nil {
		return nil, validationError("price is required")
	}
	if *in.Price <= 0 {
		return nil, validationError("price must be a positive number")
	}
	a.Price = *in.Price
	if len(a.Photos) == 0 {
		return nil, validationError("at least one photo is required")
	}

	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	s.metrics.ListingCreated()
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	if identity != nil && s.events != nil {
		ev := queue.ListingCreatedEvent{
			ListingID: a.ID.Hex(),
			OwnerID:   identity.UserID.Hex(),
			Title:     a.Title,
			CreatedAt: a.CreatedAt,
		}
		if err := s.events.PublishListingCreated(ctx, ev); err != nil {
			s.logger.Warn("publish listing.created failed",
				slog.String("listing_id", ev.ListingID),
				slog.String("error", err.Error()),
			)
		}
	}

	return a, nil
}

// List returns every listing newest first.
func (s *ListingService) List(ctx context.Context) ([]models.Animal, error) {
	if s.cache != nil {
		if animals, ok := s.cache.Get(ctx); ok {
			return animals, nil
		}
	}

	animals, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, animals)
	}
	return animals, nil
}

// Delete removes a listing. A malformed id is reported as not found.
func (s *ListingService) Delete(ctx context.Context, id string, identity *models.Identity) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	if s.requireAuth {
		if identity == nil {
			return ErrUnauthenticated
		}
		existing, err := s.store.FindByID(ctx, oid)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("find listing: %w", err)
		}
		// listings created anonymously have no owner to check against
		if existing.OwnerID != nil && *existing.OwnerID != identity.UserID {
			return ErrForbidden
		}
	}

	if err := s.store.Delete(ctx, oid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete listing: %w", err)
	}
	s.metrics.ListingDeleted()
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return nil
}

// maxCleanRounds bounds how many layers of entity encoding clean unwraps.
const maxCleanRounds = 8

// clean strips markup from free text and returns plain, trimmed text. Each
// round sanitizes and then decodes entities, so markup hidden behind entity
// encoding is decoded and stripped on the next round. The result is stable:
// sanitizing it again removes nothing.
func (s *ListingService) clean(v string) string {
	for i := 0; i < maxCleanRounds; i++ {
		next := html.UnescapeString(s.policy.Sanitize(v))
		if next == v {
			return strings.TrimSpace(v)
		}
		v = next
	}
	// still changing: keep the escaped form rather than decoded markup
	return strings.TrimSpace(s.policy.Sanitize(v))
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

