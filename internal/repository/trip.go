package repository

import (
	"context"
	"errors"
	"fleet-console/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrTripNotFound = errors.New("trip not found")

type TripRepository struct {
	collection *mongo.Collection
}

func NewTripRepository(db *mongo.Database) *TripRepository {
	return &TripRepository{
		collection: db.Collection("trips"),
	}
}

func (r *TripRepository) Create(trip *models.Trip) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		return nil, err
	}

	trip.ID = result.InsertedID.(primitive.ObjectID)
	return trip, nil
}

func (r *TripRepository) FindByID(id string) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid trip ID")
	}

	var trip models.Trip
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	return &trip, nil
}

func (r *TripRepository) FindAll() ([]*models.Trip, error) {
	return r.find(bson.M{})
}

func (r *TripRepository) FindByStatus(status string) ([]*models.Trip, error) {
	return r.find(bson.M{"status": status})
}

func (r *TripRepository) FindByDispatchStatus(dispatchStatus string) ([]*models.Trip, error) {
	return r.find(bson.M{"dispatch_status": dispatchStatus})
}

func (r *TripRepository) FindByChauffeur(chauffeurID string) ([]*models.Trip, error) {
	return r.find(bson.M{"chauffeur_id": chauffeurID})
}

func (r *TripRepository) find(filter bson.M) ([]*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var trips []*models.Trip
	for cursor.Next(ctx) {
		var trip models.Trip
		if err := cursor.Decode(&trip); err != nil {
			return nil, err
		}
		trips = append(trips, &trip)
	}

	return trips, nil
}

func (r *TripRepository) Update(id string, trip *models.Trip) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid trip ID")
	}

	trip.UpdatedAt = time.Now()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": trip},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Trip
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	return &updated, nil
}

func (r *TripRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid trip ID")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrTripNotFound
	}

	return nil
}

// CreateIndexes creates necessary indexes for the trips collection
func (r *TripRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "dispatch_status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "chauffeur_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
