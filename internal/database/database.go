package database

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection         = "users"
	AnimalsCollection       = "animals"
	NotificationsCollection = "notifications"
)

// Connect creates a MongoDB client for mongoURI and selects dbName.
//
// A failed ping is returned alongside a usable client: the driver keeps
// trying to reach the cluster in the background, so callers may log the
// error and keep serving while individual requests fail until it recovers.
func Connect(mongoURI, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, err
	}
	db := client.Database(dbName)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return client, db, err
	}

	slog.Info("connected to MongoDB", slog.String("database", dbName))
	return client, db, nil
}

func Disconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}
