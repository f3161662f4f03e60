package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/database"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
)

// AnimalRepository is the listing store backed by the animals collection.
type AnimalRepository struct {
	col *mongo.Collection
}

func NewAnimalRepository(db *mongo.Database) *AnimalRepository {
	return &AnimalRepository{col: db.Collection(database.AnimalsCollection)}
}

func (r *AnimalRepository) Create(ctx context.Context, a *models.Animal) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert animal: %w", err)
	}
	return nil
}

// List returns every listing, newest first. ObjectIDs break ties between
// listings created in the same millisecond.
func (r *AnimalRepository) List(ctx context.Context) ([]models.Animal, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find animals: %w", err)
	}
	defer cur.Close(ctx)

	animals := make([]models.Animal, 0)
	if err := cur.All(ctx, &animals); err != nil {
		return nil, fmt.Errorf("decode animals: %w", err)
	}
	return animals, nil
}

func (r *AnimalRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Animal, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var a models.Animal
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find animal: %w", err)
	}
	return &a, nil
}

// Delete removes the listing permanently. Of two concurrent deletes of the
// same id, exactly one sees a deleted document; the other gets ErrNotFound.
func (r *AnimalRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete animal: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
