package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Vehicle struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LicensePlate        string             `bson:"license_plate" json:"licensePlate" validate:"required"`
	VIN                 string             `bson:"vin" json:"vin"`
	Make                string             `bson:"make" json:"make"`
	Model               string             `bson:"model" json:"model"`
	Year                int                `bson:"year" json:"year"`
	Status              string             `bson:"status" json:"status" validate:"required,oneof=active maintenance inactive retired removed"`
	CarType             string             `bson:"car_type" json:"carType" validate:"required,oneof=m_car pool test"`
	Odometer            int                `bson:"odometer" json:"odometer"`
	AssignedEmployeeID  string             `bson:"assigned_employee_id,omitempty" json:"assignedEmployeeId,omitempty"`
	AssignedChauffeurID string             `bson:"assigned_chauffeur_id,omitempty" json:"assignedChauffeurId,omitempty"`
	Documents           []VehicleDocument  `bson:"documents" json:"documents"`
	StatusHistory       []StatusChange     `bson:"status_history" json:"statusHistory"`
	AssignmentHistory   []AssignmentEntry  `bson:"assignment_history" json:"assignmentHistory"`
	CreatedAt           time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updated_at" json:"updatedAt"`
}

// VehicleDocument is one compliance document on a vehicle. The fleet keeps
// at most one current document per type; the newest entry of a type wins.
type VehicleDocument struct {
	Type       string     `bson:"type" json:"type" validate:"required,oneof=rc insurance puc fitness permit"`
	Number     string     `bson:"number,omitempty" json:"number,omitempty"`
	Vendor     string     `bson:"vendor,omitempty" json:"vendor,omitempty"`
	StartDate  *time.Time `bson:"start_date,omitempty" json:"startDate,omitempty"`
	ExpiryDate time.Time  `bson:"expiry_date" json:"expiryDate" validate:"required"`
}

type StatusChange struct {
	Status string    `bson:"status" json:"status"`
	Date   time.Time `bson:"date" json:"date"`
}

// AssignmentEntry is one row of the vehicle's assignment ledger. An entry
// with EndDate == nil is the open assignment; a vehicle has at most one.
type AssignmentEntry struct {
	AssignedToID   string     `bson:"assigned_to_id" json:"assignedToId"`
	AssignedToName string     `bson:"assigned_to_name" json:"assignedToName"`
	Type           string     `bson:"type" json:"type"` // employee or chauffeur
	StartDate      time.Time  `bson:"start_date" json:"startDate"`
	EndDate        *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
	StartMileage   int        `bson:"start_mileage" json:"startMileage"`
	EndMileage     *int       `bson:"end_mileage,omitempty" json:"endMileage,omitempty"`
	TransferReason string     `bson:"transfer_reason,omitempty" json:"transferReason,omitempty"`
}

// Vehicle status constants
const (
	VehicleStatusActive      = "active"
	VehicleStatusMaintenance = "maintenance"
	VehicleStatusInactive    = "inactive"
	VehicleStatusRetired     = "retired"
	VehicleStatusRemoved     = "removed"
)

// Car type constants
const (
	CarTypeMCar = "m_car"
	CarTypePool = "pool"
	CarTypeTest = "test"
)

// Document type constants
const (
	DocumentTypeRC        = "rc"
	DocumentTypeInsurance = "insurance"
	DocumentTypePUC       = "puc"
	DocumentTypeFitness   = "fitness"
	DocumentTypePermit    = "permit"
)

// Assignment entry type constants
const (
	AssignmentTypeEmployee  = "employee"
	AssignmentTypeChauffeur = "chauffeur"
)

// OpenAssignment returns the index of the open assignment entry, or -1.
func (v *Vehicle) OpenAssignment() int {
	for i := range v.AssignmentHistory {
		if v.AssignmentHistory[i].EndDate == nil {
			return i
		}
	}
	return -1
}

// CurrentDocument returns the newest document of the given type, or nil.
func (v *Vehicle) CurrentDocument(docType string) *VehicleDocument {
	var current *VehicleDocument
	for i := range v.Documents {
		if v.Documents[i].Type != docType {
			continue
		}
		if current == nil || v.Documents[i].ExpiryDate.After(current.ExpiryDate) {
			current = &v.Documents[i]
		}
	}
	return current
}
