package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/database"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
)

type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(database.NotificationsCollection)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.CreatedAt = now
	n.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByUser returns userID's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := r.col.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	defer cur.Close(ctx)

	notifications := make([]models.Notification, 0)
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, nil
}

// MarkAllRead flags every unread notification of userID and returns how many
// changed. Running it again changes nothing.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.col.UpdateMany(ctx,
		bson.M{"user": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}
