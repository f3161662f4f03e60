package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/queue"
)

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// Broadcaster pushes a stored notification to live clients.
type Broadcaster interface {
	Publish(ctx context.Context, n models.Notification) error
}

// NotificationService scopes every operation to the user id it is given;
// handlers pass the authenticated identity, never request input.
type NotificationService struct {
	store   NotificationStore
	hub     Broadcaster
	metrics Recorder
	logger  *slog.Logger
}

func NewNotificationService(store NotificationStore, hub Broadcaster, metrics Recorder, logger *slog.Logger) *NotificationService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{store: store, hub: hub, metrics: metrics, logger: logger}
}

func (s *NotificationService) Create(ctx context.Context, userID primitive.ObjectID, typ, message string) (*models.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, validationError("message is required")
	}
	typ = strings.TrimSpace(typ)
	if typ == "" {
		typ = models.DefaultNotificationType
	}

	n := &models.Notification{
		User:    userID,
		Type:    typ,
		Message: message,
		Read:    false,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	s.metrics.NotificationCreated()

	if s.hub != nil {
		if err := s.hub.Publish(ctx, *n); err != nil {
			s.logger.Warn("notification broadcast failed",
				slog.String("user_id", userID.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}
	return n, nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// MarkAllRead returns how many notifications changed; a repeat call returns 0.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return n, nil
}

// HandleListingCreated tells a listing's owner that it is live.
func (s *NotificationService) HandleListingCreated(ctx context.Context, ev queue.ListingCreatedEvent) error {
	owner, err := primitive.ObjectIDFromHex(ev.OwnerID)
	if err != nil {
		return fmt.Errorf("listing event owner %q: %w", ev.OwnerID, err)
	}
	_, err = s.Create(ctx, owner, models.DefaultNotificationType,
		fmt.Sprintf("Your listing \"%s\" is now live", ev.Title))
	return err
}
