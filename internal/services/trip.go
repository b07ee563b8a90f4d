package services

import (
	"errors"
	"fleet-console/internal/models"
	"fleet-console/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrTripAlreadyFinal = errors.New("trip has already reached a final status")

type TripService struct {
	tripRepo *repository.TripRepository
}

func NewTripService(tripRepo *repository.TripRepository) *TripService {
	return &TripService{tripRepo: tripRepo}
}

type CreateTripRequest struct {
	TripPurpose              string     `json:"tripPurpose" validate:"required,oneof=employee guest pool"`
	BookingMadeForEmployeeID string     `json:"bookingMadeForEmployeeId,omitempty"`
	PickupLocation           string     `json:"pickupLocation,omitempty"`
	DropLocation             string     `json:"dropLocation,omitempty"`
	ScheduledAt              *time.Time `json:"scheduledAt,omitempty"`
}

type UpdateTripRequest struct {
	Status         string     `json:"status,omitempty" validate:"omitempty,oneof=planned ongoing completed cancelled delayed"`
	PickupLocation string     `json:"pickupLocation,omitempty"`
	DropLocation   string     `json:"dropLocation,omitempty"`
	ScheduledAt    *time.Time `json:"scheduledAt,omitempty"`
}

func (s *TripService) GetAllTrips() ([]*models.Trip, error) {
	return s.tripRepo.FindAll()
}

func (s *TripService) GetTripByID(id string) (*models.Trip, error) {
	return s.tripRepo.FindByID(id)
}

func (s *TripService) GetTripsByStatus(status string) ([]*models.Trip, error) {
	return s.tripRepo.FindByStatus(status)
}

func (s *TripService) GetTripsByDispatchStatus(status string) ([]*models.Trip, error) {
	return s.tripRepo.FindByDispatchStatus(status)
}

func (s *TripService) GetTripsByChauffeur(chauffeurID string) ([]*models.Trip, error) {
	return s.tripRepo.FindByChauffeur(chauffeurID)
}

// CreateTrip books a trip. Every new trip starts in the planned status with a
// pending dispatch, waiting for an operator to offer it to a chauffeur.
func (s *TripService) CreateTrip(req *CreateTripRequest) (*models.Trip, error) {
	now := time.Now()
	trip := &models.Trip{
		ID:                     primitive.NewObjectID(),
		Status:                 models.TripStatusPlanned,
		DispatchStatus:         models.DispatchPending,
		TripPurpose:            req.TripPurpose,
		BookingMadeForEmployee: req.BookingMadeForEmployeeID,
		PickupLocation:         req.PickupLocation,
		DropLocation:           req.DropLocation,
		ScheduledAt:            req.ScheduledAt,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	return s.tripRepo.Create(trip)
}

func (s *TripService) UpdateTrip(id string, req *UpdateTripRequest) (*models.Trip, error) {
	trip, err := s.tripRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	// Completed and cancelled trips are immutable.
	if trip.IsTerminal() {
		return nil, ErrTripAlreadyFinal
	}

	if req.Status != "" {
		trip.Status = req.Status
	}
	if req.PickupLocation != "" {
		trip.PickupLocation = req.PickupLocation
	}
	if req.DropLocation != "" {
		trip.DropLocation = req.DropLocation
	}
	if req.ScheduledAt != nil {
		trip.ScheduledAt = req.ScheduledAt
	}

	return s.tripRepo.Update(id, trip)
}

func (s *TripService) DeleteTrip(id string) error {
	if _, err := s.tripRepo.FindByID(id); err != nil {
		return err
	}
	return s.tripRepo.Delete(id)
}
