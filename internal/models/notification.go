package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SystemNotification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type        string             `bson:"type" json:"type" validate:"required,oneof=trip_dispatch trip_accepted trip_rejected document_expiry chauffeur_onboarding"`
	Subject     string             `bson:"subject" json:"subject" validate:"required"`
	Details     string             `bson:"details" json:"details"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
	IsRead      bool               `bson:"is_read" json:"isRead"`
	TripID      string             `bson:"trip_id,omitempty" json:"tripId,omitempty"`
	ChauffeurID string             `bson:"chauffeur_id,omitempty" json:"chauffeurId,omitempty"`
	VehicleID   string             `bson:"vehicle_id,omitempty" json:"vehicleId,omitempty"`
}

// Notification type constants
const (
	NotificationTripDispatch        = "trip_dispatch"
	NotificationTripAccepted        = "trip_accepted"
	NotificationTripRejected        = "trip_rejected"
	NotificationDocumentExpiry      = "document_expiry"
	NotificationChauffeurOnboarding = "chauffeur_onboarding"
)
