package services

import (
	"testing"
	"time"

	"fleet-console/internal/models"
	"fleet-console/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestApplyOffer_FromPending(t *testing.T) {
	now := time.Now()
	trip := &models.Trip{Status: models.TripStatusPlanned, DispatchStatus: models.DispatchPending}

	err := applyOffer(trip, "ch-1", "veh-1", models.TripPurposeEmployee, "emp-7", now)
	require.NoError(t, err)

	assert.Equal(t, models.DispatchAwaitingAcceptance, trip.DispatchStatus)
	assert.Equal(t, "ch-1", trip.OfferedToChauffeurID)
	assert.Equal(t, "veh-1", trip.OfferedVehicleID)
	assert.Equal(t, models.TripPurposeEmployee, trip.TripPurpose)
	assert.Equal(t, "emp-7", trip.BookingMadeForEmployee)
	assert.Equal(t, now, trip.UpdatedAt)
}

func TestApplyOffer_RedispatchAfterRejection(t *testing.T) {
	trip := &models.Trip{
		Status:          models.TripStatusPlanned,
		DispatchStatus:  models.DispatchRejected,
		RejectionReason: "Chauffeur on leave",
	}

	err := applyOffer(trip, "ch-2", "veh-2", models.TripPurposePool, "", time.Now())
	require.NoError(t, err)

	assert.Equal(t, models.DispatchAwaitingAcceptance, trip.DispatchStatus)
	assert.Equal(t, "ch-2", trip.OfferedToChauffeurID)
	assert.Empty(t, trip.RejectionReason, "stale rejection reason must be cleared")
}

func TestApplyOffer_RejectsWrongDispatchState(t *testing.T) {
	for _, status := range []string{models.DispatchAwaitingAcceptance, models.DispatchAccepted} {
		t.Run(status, func(t *testing.T) {
			trip := &models.Trip{Status: models.TripStatusPlanned, DispatchStatus: status}
			err := applyOffer(trip, "ch-1", "veh-1", models.TripPurposeEmployee, "", time.Now())
			assert.ErrorIs(t, err, ErrTripNotDispatchable)
			assert.Equal(t, status, trip.DispatchStatus)
		})
	}
}

func TestApplyOffer_RejectsTerminalTrips(t *testing.T) {
	for _, status := range []string{models.TripStatusCompleted, models.TripStatusCancelled} {
		t.Run(status, func(t *testing.T) {
			trip := &models.Trip{Status: status, DispatchStatus: models.DispatchPending}
			err := applyOffer(trip, "ch-1", "veh-1", models.TripPurposeEmployee, "", time.Now())
			assert.ErrorIs(t, err, ErrTripNotDispatchable)
		})
	}
}

func TestApplyAccept(t *testing.T) {
	trip := &models.Trip{
		Status:               models.TripStatusPlanned,
		DispatchStatus:       models.DispatchAwaitingAcceptance,
		OfferedToChauffeurID: "ch-1",
		OfferedVehicleID:     "veh-1",
	}

	applyAccept(trip, "ch-1", "veh-1")

	assert.Equal(t, models.DispatchAccepted, trip.DispatchStatus)
	assert.Equal(t, models.TripStatusPlanned, trip.Status)
	assert.Equal(t, "ch-1", trip.ChauffeurID)
	assert.Equal(t, "veh-1", trip.VehicleID)
	assert.Empty(t, trip.OfferedToChauffeurID)
	assert.Empty(t, trip.OfferedVehicleID)
}

func TestApplyReject(t *testing.T) {
	trip := &models.Trip{
		DispatchStatus:       models.DispatchAwaitingAcceptance,
		OfferedToChauffeurID: "ch-1",
		OfferedVehicleID:     "veh-1",
	}

	applyReject(trip, "Vehicle in workshop")

	assert.Equal(t, models.DispatchRejected, trip.DispatchStatus)
	assert.Equal(t, "Vehicle in workshop", trip.RejectionReason)
	assert.Empty(t, trip.OfferedToChauffeurID)
	assert.Empty(t, trip.OfferedVehicleID)
}

func TestApplyReject_DefaultReason(t *testing.T) {
	trip := &models.Trip{DispatchStatus: models.DispatchAwaitingAcceptance}

	applyReject(trip, "")

	assert.Equal(t, RejectionReasonUnavailable, trip.RejectionReason)
}

func TestDispatchLifecycle(t *testing.T) {
	// pending -> awaiting_acceptance -> rejected -> awaiting_acceptance -> accepted
	trip := &models.Trip{Status: models.TripStatusPlanned, DispatchStatus: models.DispatchPending}

	require.NoError(t, applyOffer(trip, "ch-1", "veh-1", models.TripPurposeGuest, "", time.Now()))
	applyReject(trip, "")
	assert.Equal(t, models.DispatchRejected, trip.DispatchStatus)

	require.NoError(t, applyOffer(trip, "ch-2", "veh-1", models.TripPurposeGuest, "", time.Now()))
	applyAccept(trip, "ch-2", "veh-1")

	assert.Equal(t, models.DispatchAccepted, trip.DispatchStatus)
	assert.Equal(t, "ch-2", trip.ChauffeurID)

	// A settled trip cannot be offered again
	err := applyOffer(trip, "ch-3", "veh-2", models.TripPurposeGuest, "", time.Now())
	assert.ErrorIs(t, err, ErrTripNotDispatchable)
}

type stubTripStore struct {
	trip *models.Trip
}

func (s *stubTripStore) FindByID(id string) (*models.Trip, error) {
	if s.trip == nil || s.trip.ID.Hex() != id {
		return nil, repository.ErrTripNotFound
	}
	return s.trip, nil
}

func (s *stubTripStore) Update(id string, trip *models.Trip) (*models.Trip, error) {
	s.trip = trip
	return trip, nil
}

type stubChauffeurStore struct {
	chauffeurs map[string]*models.Chauffeur
}

func (s *stubChauffeurStore) FindByID(id string) (*models.Chauffeur, error) {
	if c, ok := s.chauffeurs[id]; ok {
		return c, nil
	}
	return nil, repository.ErrChauffeurNotFound
}

func (s *stubChauffeurStore) Update(id string, chauffeur *models.Chauffeur) (*models.Chauffeur, error) {
	s.chauffeurs[id] = chauffeur
	return chauffeur, nil
}

type stubVehicleStore struct {
	vehicles map[string]*models.Vehicle
}

func (s *stubVehicleStore) FindByID(id string) (*models.Vehicle, error) {
	if v, ok := s.vehicles[id]; ok {
		return v, nil
	}
	return nil, repository.ErrVehicleNotFound
}

func (s *stubVehicleStore) FindByAssignedChauffeur(chauffeurID string) (*models.Vehicle, error) {
	for _, v := range s.vehicles {
		if v.AssignedChauffeurID == chauffeurID {
			return v, nil
		}
	}
	return nil, repository.ErrVehicleNotFound
}

func (s *stubVehicleStore) Update(id string, vehicle *models.Vehicle) (*models.Vehicle, error) {
	s.vehicles[id] = vehicle
	return vehicle, nil
}

type recordedNotification struct {
	notificationType string
	subject          string
	ref              NotificationRef
}

type recordingNotifier struct {
	sent []recordedNotification
}

func (n *recordingNotifier) Notify(notificationType, subject, details string, ref NotificationRef) *models.SystemNotification {
	n.sent = append(n.sent, recordedNotification{notificationType, subject, ref})
	return &models.SystemNotification{Type: notificationType, Subject: subject, Details: details}
}

type recordingListener struct {
	trips      []string
	chauffeurs []string
	vehicles   []string
}

func (l *recordingListener) OfferMade(tripID, chauffeurID, vehicleID string) {
	l.trips = append(l.trips, tripID)
	l.chauffeurs = append(l.chauffeurs, chauffeurID)
	l.vehicles = append(l.vehicles, vehicleID)
}

func newDispatchFixture() (*DispatchService, *stubTripStore, *stubChauffeurStore, *stubVehicleStore, *recordingNotifier) {
	trips := &stubTripStore{trip: &models.Trip{
		ID:             primitive.NewObjectID(),
		Status:         models.TripStatusPlanned,
		DispatchStatus: models.DispatchPending,
	}}
	chauffeur := &models.Chauffeur{
		ID:        primitive.NewObjectID(),
		FirstName: "Ravi",
		LastName:  "Kumar",
	}
	vehicle := &models.Vehicle{
		ID:           primitive.NewObjectID(),
		LicensePlate: "KA01AB1234",
	}
	chauffeurs := &stubChauffeurStore{chauffeurs: map[string]*models.Chauffeur{chauffeur.ID.Hex(): chauffeur}}
	vehicles := &stubVehicleStore{vehicles: map[string]*models.Vehicle{vehicle.ID.Hex(): vehicle}}
	notifier := &recordingNotifier{}

	return NewDispatchService(trips, chauffeurs, vehicles, notifier), trips, chauffeurs, vehicles, notifier
}

func firstKey[V any](m map[string]V) string {
	for k := range m {
		return k
	}
	return ""
}

func TestDispatchService_DispatchNotifiesAndOffers(t *testing.T) {
	service, trips, chauffeurs, vehicles, notifier := newDispatchFixture()
	listener := &recordingListener{}
	service.SetOfferListener(listener)

	tripID := trips.trip.ID.Hex()
	chauffeurID := firstKey(chauffeurs.chauffeurs)
	vehicleID := firstKey(vehicles.vehicles)

	updated, err := service.Dispatch(tripID, &DispatchRequest{
		ChauffeurID: chauffeurID,
		VehicleID:   vehicleID,
		TripPurpose: models.TripPurposeGuest,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DispatchAwaitingAcceptance, updated.DispatchStatus)

	require.Len(t, notifier.sent, 1)
	sent := notifier.sent[0]
	assert.Equal(t, models.NotificationTripDispatch, sent.notificationType)
	assert.Equal(t, tripID, sent.ref.TripID)
	assert.Equal(t, chauffeurID, sent.ref.ChauffeurID)
	assert.Equal(t, vehicleID, sent.ref.VehicleID)
	assert.Contains(t, sent.subject, "Ravi Kumar")

	assert.Equal(t, []string{tripID}, listener.trips)
	assert.Equal(t, []string{chauffeurID}, listener.chauffeurs)
	assert.Equal(t, []string{vehicleID}, listener.vehicles)
}

func TestDispatchService_DispatchUnknownChauffeur(t *testing.T) {
	service, trips, _, vehicles, notifier := newDispatchFixture()
	listener := &recordingListener{}
	service.SetOfferListener(listener)

	_, err := service.Dispatch(trips.trip.ID.Hex(), &DispatchRequest{
		ChauffeurID: primitive.NewObjectID().Hex(),
		VehicleID:   firstKey(vehicles.vehicles),
		TripPurpose: models.TripPurposeGuest,
	})
	assert.ErrorIs(t, err, repository.ErrChauffeurNotFound)
	assert.Empty(t, notifier.sent)
	assert.Empty(t, listener.trips)
	assert.Equal(t, models.DispatchPending, trips.trip.DispatchStatus)
}

func TestDispatchService_AcceptOfferLinksAndNotifies(t *testing.T) {
	service, trips, chauffeurs, vehicles, notifier := newDispatchFixture()

	tripID := trips.trip.ID.Hex()
	chauffeurID := firstKey(chauffeurs.chauffeurs)
	vehicleID := firstKey(vehicles.vehicles)

	_, err := service.Dispatch(tripID, &DispatchRequest{
		ChauffeurID: chauffeurID,
		VehicleID:   vehicleID,
		TripPurpose: models.TripPurposePool,
	})
	require.NoError(t, err)

	accepted, err := service.AcceptOffer(tripID)
	require.NoError(t, err)

	assert.Equal(t, models.DispatchAccepted, accepted.DispatchStatus)
	assert.Equal(t, chauffeurID, accepted.ChauffeurID)
	assert.Equal(t, vehicleID, accepted.VehicleID)

	// Both sides of the link settle in the same call
	assert.Equal(t, chauffeurID, vehicles.vehicles[vehicleID].AssignedChauffeurID)
	assert.Equal(t, vehicleID, chauffeurs.chauffeurs[chauffeurID].AssignedVehicleID)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, models.NotificationTripAccepted, notifier.sent[1].notificationType)
	assert.Equal(t, tripID, notifier.sent[1].ref.TripID)
}

func TestDispatchService_RejectOfferNotifies(t *testing.T) {
	service, trips, chauffeurs, vehicles, notifier := newDispatchFixture()

	tripID := trips.trip.ID.Hex()
	chauffeurID := firstKey(chauffeurs.chauffeurs)

	_, err := service.Dispatch(tripID, &DispatchRequest{
		ChauffeurID: chauffeurID,
		VehicleID:   firstKey(vehicles.vehicles),
		TripPurpose: models.TripPurposeGuest,
	})
	require.NoError(t, err)

	rejected, err := service.RejectOffer(tripID, "")
	require.NoError(t, err)
	assert.Equal(t, models.DispatchRejected, rejected.DispatchStatus)
	assert.Equal(t, RejectionReasonUnavailable, rejected.RejectionReason)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, models.NotificationTripRejected, notifier.sent[1].notificationType)
	assert.Equal(t, chauffeurID, notifier.sent[1].ref.ChauffeurID)

	// No pending offer remains to accept
	_, err = service.AcceptOffer(tripID)
	assert.ErrorIs(t, err, ErrNoPendingOffer)
}
