package database

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the stores rely on. The unique email
// index is what makes registration race-free.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_email").SetUnique(true),
			},
		},
		AnimalsCollection: {
			{
				Keys:    bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
				Options: options.Index().SetName("idx_created_at"),
			},
		},
		NotificationsCollection: {
			{
				Keys: bson.D{
					{Key: "user", Value: 1},
					{Key: "createdAt", Value: -1},
				},
				Options: options.Index().SetName("idx_user_created_at"),
			},
			{
				Keys:    bson.D{{Key: "user", Value: 1}, {Key: "read", Value: 1}},
				Options: options.Index().SetName("idx_user_read"),
			},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// IndexRetry bounds the backoff of EnsureIndexesUntilDone.
type IndexRetry struct {
	Initial time.Duration
	Max     time.Duration
}

// EnsureIndexesUntilDone calls ensure until it succeeds or ctx is done,
// doubling the wait between attempts up to retry.Max. A server that boots
// while MongoDB is down still gets its indexes once MongoDB is back.
func EnsureIndexesUntilDone(ctx context.Context, ensure func(context.Context) error, retry IndexRetry, logger *slog.Logger) error {
	if retry.Initial <= 0 {
		retry.Initial = time.Second
	}
	if retry.Max < retry.Initial {
		retry.Max = retry.Initial
	}
	if logger == nil {
		logger = slog.Default()
	}

	backoff := retry.Initial
	for {
		attemptCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := ensure(attemptCtx)
		cancel()
		if err == nil {
			logger.Info("MongoDB indexes ensured")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("failed to ensure MongoDB indexes",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", backoff),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > retry.Max {
			backoff = retry.Max
		}
	}
}
