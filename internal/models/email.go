package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComplianceEmail is an append-only record of an email produced by the
// compliance notifier. The collection is the sink of record; SMTP delivery
// is a best-effort relay on top of it.
type ComplianceEmail struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Recipient string             `bson:"recipient" json:"recipient"`
	CC        []string           `bson:"cc,omitempty" json:"cc,omitempty"`
	Subject   string             `bson:"subject" json:"subject"`
	Body      string             `bson:"body" json:"body"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	VehicleID string             `bson:"vehicle_id,omitempty" json:"vehicleId,omitempty"`
	AlertType string             `bson:"alert_type" json:"alertType"`
}

// Compliance alert type constants
const (
	AlertMonthlyReminder = "monthly_reminder"
	AlertUrgentExpiry    = "urgent_expiry"
	AlertDocumentUpdate  = "document_update"
)
