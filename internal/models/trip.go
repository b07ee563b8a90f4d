package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Trip struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID               string             `bson:"vehicle_id,omitempty" json:"vehicleId,omitempty"`
	ChauffeurID             string             `bson:"chauffeur_id,omitempty" json:"chauffeurId,omitempty"`
	Status                  string             `bson:"status" json:"status" validate:"required,oneof=planned ongoing completed cancelled delayed"`
	DispatchStatus          string             `bson:"dispatch_status,omitempty" json:"dispatchStatus,omitempty" validate:"omitempty,oneof=pending awaiting_acceptance accepted rejected"`
	TripPurpose             string             `bson:"trip_purpose" json:"tripPurpose" validate:"required,oneof=employee guest pool"`
	BookingMadeForEmployee  string             `bson:"booking_made_for_employee_id,omitempty" json:"bookingMadeForEmployeeId,omitempty"`
	OfferedToChauffeurID    string             `bson:"offered_to_chauffeur_id,omitempty" json:"offeredToChauffeurId,omitempty"`
	OfferedVehicleID        string             `bson:"offered_vehicle_id,omitempty" json:"offeredVehicleId,omitempty"`
	RejectionReason         string             `bson:"rejection_reason,omitempty" json:"rejectionReason,omitempty"`
	PickupLocation          string             `bson:"pickup_location,omitempty" json:"pickupLocation,omitempty"`
	DropLocation            string             `bson:"drop_location,omitempty" json:"dropLocation,omitempty"`
	ScheduledAt             *time.Time         `bson:"scheduled_at,omitempty" json:"scheduledAt,omitempty"`
	CreatedAt               time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt               time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Trip status constants
const (
	TripStatusPlanned   = "planned"
	TripStatusOngoing   = "ongoing"
	TripStatusCompleted = "completed"
	TripStatusCancelled = "cancelled"
	TripStatusDelayed   = "delayed"
)

// Dispatch status constants
const (
	DispatchPending            = "pending"
	DispatchAwaitingAcceptance = "awaiting_acceptance"
	DispatchAccepted           = "accepted"
	DispatchRejected           = "rejected"
)

// Trip purpose constants
const (
	TripPurposeEmployee = "employee"
	TripPurposeGuest    = "guest"
	TripPurposePool     = "pool"
)

// IsTerminal reports whether the trip has reached a final status.
func (t *Trip) IsTerminal() bool {
	return t.Status == TripStatusCompleted || t.Status == TripStatusCancelled
}
