package repository

import (
	"context"
	"fleet-console/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EmailRepository struct {
	collection *mongo.Collection
}

func NewEmailRepository(db *mongo.Database) *EmailRepository {
	return &EmailRepository{
		collection: db.Collection("compliance_emails"),
	}
}

func (r *EmailRepository) Create(email *models.ComplianceEmail) (*models.ComplianceEmail, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, email)
	if err != nil {
		return nil, err
	}

	email.ID = result.InsertedID.(primitive.ObjectID)
	return email, nil
}

func (r *EmailRepository) FindAll() ([]*models.ComplianceEmail, error) {
	return r.find(bson.M{})
}

// FindSince returns emails sent at or after the given time. The compliance
// notifier reads back the current month to de-duplicate its output.
func (r *EmailRepository) FindSince(since time.Time) ([]*models.ComplianceEmail, error) {
	return r.find(bson.M{"timestamp": bson.M{"$gte": since}})
}

func (r *EmailRepository) FindByVehicle(vehicleID string) ([]*models.ComplianceEmail, error) {
	return r.find(bson.M{"vehicle_id": vehicleID})
}

func (r *EmailRepository) find(filter bson.M) ([]*models.ComplianceEmail, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var emails []*models.ComplianceEmail
	for cursor.Next(ctx) {
		var email models.ComplianceEmail
		if err := cursor.Decode(&email); err != nil {
			return nil, err
		}
		emails = append(emails, &email)
	}

	return emails, nil
}

// CreateIndexes creates necessary indexes for the compliance_emails collection
func (r *EmailRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "vehicle_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "alert_type", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
