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

var ErrChauffeurNotFound = errors.New("chauffeur not found")

type ChauffeurRepository struct {
	collection *mongo.Collection
}

func NewChauffeurRepository(db *mongo.Database) *ChauffeurRepository {
	return &ChauffeurRepository{
		collection: db.Collection("chauffeurs"),
	}
}

func (r *ChauffeurRepository) Create(chauffeur *models.Chauffeur) (*models.Chauffeur, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, chauffeur)
	if err != nil {
		return nil, err
	}

	chauffeur.ID = result.InsertedID.(primitive.ObjectID)
	return chauffeur, nil
}

func (r *ChauffeurRepository) FindByID(id string) (*models.Chauffeur, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid chauffeur ID")
	}

	var chauffeur models.Chauffeur
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&chauffeur)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrChauffeurNotFound
		}
		return nil, err
	}

	return &chauffeur, nil
}

func (r *ChauffeurRepository) FindByLicenseNumber(licenseNumber string) (*models.Chauffeur, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var chauffeur models.Chauffeur
	err := r.collection.FindOne(ctx, bson.M{"license_number": licenseNumber}).Decode(&chauffeur)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrChauffeurNotFound
		}
		return nil, err
	}

	return &chauffeur, nil
}

func (r *ChauffeurRepository) FindAll() ([]*models.Chauffeur, error) {
	return r.find(bson.M{})
}

func (r *ChauffeurRepository) FindByOnboardingStatus(status string) ([]*models.Chauffeur, error) {
	return r.find(bson.M{"onboarding_status": status})
}

func (r *ChauffeurRepository) find(filter bson.M) ([]*models.Chauffeur, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chauffeurs []*models.Chauffeur
	for cursor.Next(ctx) {
		var chauffeur models.Chauffeur
		if err := cursor.Decode(&chauffeur); err != nil {
			return nil, err
		}
		chauffeurs = append(chauffeurs, &chauffeur)
	}

	return chauffeurs, nil
}

func (r *ChauffeurRepository) Update(id string, chauffeur *models.Chauffeur) (*models.Chauffeur, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid chauffeur ID")
	}

	chauffeur.UpdatedAt = time.Now()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": chauffeur},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Chauffeur
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrChauffeurNotFound
		}
		return nil, err
	}

	return &updated, nil
}

func (r *ChauffeurRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid chauffeur ID")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrChauffeurNotFound
	}

	return nil
}

// CreateIndexes creates necessary indexes for the chauffeurs collection
func (r *ChauffeurRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "license_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "onboarding_status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "assigned_vehicle_id", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
