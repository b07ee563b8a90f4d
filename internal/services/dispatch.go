package services

import (
	"errors"
	"fleet-console/internal/models"
	"fmt"
	"time"
)

var (
	ErrTripNotDispatchable = errors.New("trip cannot be dispatched in its current state")
	ErrNoPendingOffer      = errors.New("trip has no pending dispatch offer")
)

// RejectionReasonUnavailable is the reason recorded when a chauffeur turns
// down an offer without giving one.
const RejectionReasonUnavailable = "Chauffeur unavailable for the requested time"

// OfferListener is notified after an offer has been persisted. The demo
// responder registers here; in production the chauffeur app answers via
// AcceptOffer/RejectOffer instead.
type OfferListener interface {
	OfferMade(tripID, chauffeurID, vehicleID string)
}

// The workflow touches its stores through narrow views so the dispatch logic
// can be exercised without a live database.
type dispatchTripStore interface {
	FindByID(id string) (*models.Trip, error)
	Update(id string, trip *models.Trip) (*models.Trip, error)
}

type dispatchVehicleStore interface {
	vehicleLinkStore
	FindByID(id string) (*models.Vehicle, error)
}

type dispatchNotifier interface {
	Notify(notificationType, subject, details string, ref NotificationRef) *models.SystemNotification
}

type DispatchService struct {
	tripRepo      dispatchTripStore
	chauffeurRepo chauffeurLinkStore
	vehicleRepo   dispatchVehicleStore
	notifier      dispatchNotifier
	listener      OfferListener
}

func NewDispatchService(tripRepo dispatchTripStore, chauffeurRepo chauffeurLinkStore, vehicleRepo dispatchVehicleStore, notifier dispatchNotifier) *DispatchService {
	return &DispatchService{
		tripRepo:      tripRepo,
		chauffeurRepo: chauffeurRepo,
		vehicleRepo:   vehicleRepo,
		notifier:      notifier,
	}
}

// SetOfferListener allows setting a listener for outgoing dispatch offers
func (s *DispatchService) SetOfferListener(listener OfferListener) {
	s.listener = listener
}

type DispatchRequest struct {
	ChauffeurID              string `json:"chauffeurId" validate:"required"`
	VehicleID                string `json:"vehicleId" validate:"required"`
	TripPurpose              string `json:"tripPurpose" validate:"required,oneof=employee guest pool"`
	BookingMadeForEmployeeID string `json:"bookingMadeForEmployeeId,omitempty"`
}

// Dispatch offers the trip to a chauffeur/vehicle pair. All three entities
// must resolve; every lookup failure is returned to the caller.
func (s *DispatchService) Dispatch(tripID string, req *DispatchRequest) (*models.Trip, error) {
	trip, err := s.tripRepo.FindByID(tripID)
	if err != nil {
		return nil, err
	}

	chauffeur, err := s.chauffeurRepo.FindByID(req.ChauffeurID)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleRepo.FindByID(req.VehicleID)
	if err != nil {
		return nil, err
	}

	if err := applyOffer(trip, chauffeur.ID.Hex(), vehicle.ID.Hex(), req.TripPurpose, req.BookingMadeForEmployeeID, time.Now()); err != nil {
		return nil, err
	}

	updated, err := s.tripRepo.Update(tripID, trip)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(
		models.NotificationTripDispatch,
		fmt.Sprintf("Trip offered to %s", chauffeur.FullName()),
		fmt.Sprintf("Trip %s offered to chauffeur %s with vehicle %s, awaiting acceptance", tripID, chauffeur.FullName(), vehicle.LicensePlate),
		NotificationRef{TripID: tripID, ChauffeurID: req.ChauffeurID, VehicleID: req.VehicleID},
	)

	if s.listener != nil {
		s.listener.OfferMade(tripID, req.ChauffeurID, req.VehicleID)
	}

	return updated, nil
}

// AcceptOffer applies a chauffeur's acceptance. The trip must still carry a
// pending offer; a late response against a re-dispatched or deleted trip
// fails with an explicit error instead of mutating stale state.
func (s *DispatchService) AcceptOffer(tripID string) (*models.Trip, error) {
	trip, err := s.tripRepo.FindByID(tripID)
	if err != nil {
		return nil, err
	}

	if trip.DispatchStatus != models.DispatchAwaitingAcceptance {
		return nil, ErrNoPendingOffer
	}

	chauffeur, err := s.chauffeurRepo.FindByID(trip.OfferedToChauffeurID)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleRepo.FindByID(trip.OfferedVehicleID)
	if err != nil {
		return nil, err
	}

	applyAccept(trip, chauffeur.ID.Hex(), vehicle.ID.Hex())

	// Both sides of the vehicle-chauffeur link move in this one operation.
	if err := relinkChauffeur(s.vehicleRepo, s.chauffeurRepo, vehicle, chauffeur.ID.Hex()); err != nil {
		return nil, err
	}

	if _, err := s.vehicleRepo.Update(vehicle.ID.Hex(), vehicle); err != nil {
		return nil, err
	}

	updated, err := s.tripRepo.Update(tripID, trip)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(
		models.NotificationTripAccepted,
		fmt.Sprintf("%s accepted the trip", chauffeur.FullName()),
		fmt.Sprintf("Trip %s accepted; vehicle %s assigned to %s", tripID, vehicle.LicensePlate, chauffeur.FullName()),
		NotificationRef{TripID: tripID, ChauffeurID: chauffeur.ID.Hex(), VehicleID: vehicle.ID.Hex()},
	)

	return updated, nil
}

// RejectOffer applies a chauffeur's rejection. The trip returns to a
// re-dispatchable state with the reason recorded.
func (s *DispatchService) RejectOffer(tripID, reason string) (*models.Trip, error) {
	trip, err := s.tripRepo.FindByID(tripID)
	if err != nil {
		return nil, err
	}

	if trip.DispatchStatus != models.DispatchAwaitingAcceptance {
		return nil, ErrNoPendingOffer
	}

	chauffeurID := trip.OfferedToChauffeurID
	applyReject(trip, reason)

	updated, err := s.tripRepo.Update(tripID, trip)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(
		models.NotificationTripRejected,
		"Trip offer rejected",
		fmt.Sprintf("Trip %s rejected: %s", tripID, trip.RejectionReason),
		NotificationRef{TripID: tripID, ChauffeurID: chauffeurID},
	)

	return updated, nil
}

// applyOffer moves the trip into awaiting_acceptance. Pending and rejected
// trips are dispatchable (rejected supports operator re-dispatch); a trip
// that already reached a terminal status is not.
func applyOffer(trip *models.Trip, chauffeurID, vehicleID, purpose, bookingFor string, now time.Time) error {
	if trip.IsTerminal() {
		return ErrTripNotDispatchable
	}
	switch trip.DispatchStatus {
	case "", models.DispatchPending, models.DispatchRejected:
	default:
		return ErrTripNotDispatchable
	}

	trip.DispatchStatus = models.DispatchAwaitingAcceptance
	trip.OfferedToChauffeurID = chauffeurID
	trip.OfferedVehicleID = vehicleID
	trip.RejectionReason = ""
	trip.TripPurpose = purpose
	trip.BookingMadeForEmployee = bookingFor
	trip.UpdatedAt = now
	return nil
}

// applyAccept finalizes the offer on the trip: exactly one of accepted or
// rejected follows awaiting_acceptance.
func applyAccept(trip *models.Trip, chauffeurID, vehicleID string) {
	trip.Status = models.TripStatusPlanned
	trip.DispatchStatus = models.DispatchAccepted
	trip.ChauffeurID = chauffeurID
	trip.VehicleID = vehicleID
	trip.OfferedToChauffeurID = ""
	trip.OfferedVehicleID = ""
}

func applyReject(trip *models.Trip, reason string) {
	if reason == "" {
		reason = RejectionReasonUnavailable
	}
	trip.DispatchStatus = models.DispatchRejected
	trip.OfferedToChauffeurID = ""
	trip.OfferedVehicleID = ""
	trip.RejectionReason = reason
}
