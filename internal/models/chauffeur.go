package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Chauffeur struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName          string             `bson:"first_name" json:"firstName" validate:"required"`
	LastName           string             `bson:"last_name" json:"lastName" validate:"required"`
	Email              string             `bson:"email" json:"email" validate:"required,email"`
	Phone              string             `bson:"phone" json:"phone"`
	LicenseNumber      string             `bson:"license_number" json:"licenseNumber" validate:"required"`
	ChauffeurType      string             `bson:"chauffeur_type" json:"chauffeurType" validate:"required,oneof=m_car pool"`
	OnboardingStatus   string             `bson:"onboarding_status" json:"onboardingStatus" validate:"required,oneof=invited awaiting_approval approved rejected"`
	AssignedVehicleID  string             `bson:"assigned_vehicle_id,omitempty" json:"assignedVehicleId,omitempty"`
	ReportingManagerID string             `bson:"reporting_manager_id,omitempty" json:"reportingManagerId,omitempty"` // employee id, m_car chauffeurs only
	CreatedAt          time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Chauffeur type constants
const (
	ChauffeurTypeMCar = "m_car"
	ChauffeurTypePool = "pool"
)

// Onboarding status constants
const (
	OnboardingInvited          = "invited"
	OnboardingAwaitingApproval = "awaiting_approval"
	OnboardingApproved         = "approved"
	OnboardingRejected         = "rejected"
)

func (c *Chauffeur) FullName() string {
	return c.FirstName + " " + c.LastName
}
