package services

import (
	"testing"
	"time"

	"fleet-console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyReassignment_FirstAssignment(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	vehicle := &models.Vehicle{LicensePlate: "KA01AB1234", Odometer: 12000}

	err := applyReassignment(vehicle, "emp-1", "Asha Rao", 12000, "", now)
	require.NoError(t, err)

	require.Len(t, vehicle.AssignmentHistory, 1)
	entry := vehicle.AssignmentHistory[0]
	assert.Equal(t, "emp-1", entry.AssignedToID)
	assert.Equal(t, "Asha Rao", entry.AssignedToName)
	assert.Equal(t, models.AssignmentTypeEmployee, entry.Type)
	assert.Equal(t, 12000, entry.StartMileage)
	assert.Nil(t, entry.EndDate)
	assert.Nil(t, entry.EndMileage)
	assert.Equal(t, "emp-1", vehicle.AssignedEmployeeID)
}

func TestApplyReassignment_TransferClosesOpenEntry(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	vehicle := &models.Vehicle{
		AssignedEmployeeID: "emp-1",
		Odometer:           15000,
		AssignmentHistory: []models.AssignmentEntry{
			{AssignedToID: "emp-1", Type: models.AssignmentTypeEmployee, StartDate: start, StartMileage: 12000},
		},
	}

	err := applyReassignment(vehicle, "emp-2", "Vikram Nair", 15500, "Department transfer", now)
	require.NoError(t, err)

	require.Len(t, vehicle.AssignmentHistory, 2)

	closed := vehicle.AssignmentHistory[0]
	require.NotNil(t, closed.EndDate)
	require.NotNil(t, closed.EndMileage)
	assert.Equal(t, now, *closed.EndDate)
	assert.Equal(t, 15500, *closed.EndMileage)

	open := vehicle.AssignmentHistory[1]
	assert.Equal(t, "emp-2", open.AssignedToID)
	assert.Equal(t, 15500, open.StartMileage)
	assert.Equal(t, "Department transfer", open.TransferReason)
	assert.Nil(t, open.EndDate)

	assert.Equal(t, "emp-2", vehicle.AssignedEmployeeID)
}

func TestApplyReassignment_TransferRequiresReason(t *testing.T) {
	now := time.Now()
	vehicle := &models.Vehicle{
		AssignedEmployeeID: "emp-1",
		AssignmentHistory: []models.AssignmentEntry{
			{AssignedToID: "emp-1", Type: models.AssignmentTypeEmployee, StartDate: now.AddDate(0, -2, 0), StartMileage: 1000},
		},
	}

	err := applyReassignment(vehicle, "emp-2", "Vikram Nair", 2000, "", now)
	assert.ErrorIs(t, err, ErrTransferReasonRequired)

	// Nothing changed
	assert.Equal(t, "emp-1", vehicle.AssignedEmployeeID)
	require.Len(t, vehicle.AssignmentHistory, 1)
	assert.Nil(t, vehicle.AssignmentHistory[0].EndDate)
}

func TestApplyReassignment_UnassignNeedsNoReason(t *testing.T) {
	now := time.Now()
	vehicle := &models.Vehicle{
		AssignedEmployeeID: "emp-1",
		AssignmentHistory: []models.AssignmentEntry{
			{AssignedToID: "emp-1", Type: models.AssignmentTypeEmployee, StartDate: now.AddDate(0, -2, 0), StartMileage: 1000},
		},
	}

	err := applyReassignment(vehicle, "", "", 2500, "", now)
	require.NoError(t, err)

	assert.Equal(t, "", vehicle.AssignedEmployeeID)
	require.Len(t, vehicle.AssignmentHistory, 1)
	require.NotNil(t, vehicle.AssignmentHistory[0].EndDate)
	assert.Equal(t, 2500, *vehicle.AssignmentHistory[0].EndMileage)
}

func TestApplyReassignment_SameAssigneeIsNoOp(t *testing.T) {
	now := time.Now()
	vehicle := &models.Vehicle{
		AssignedEmployeeID: "emp-1",
		AssignmentHistory: []models.AssignmentEntry{
			{AssignedToID: "emp-1", Type: models.AssignmentTypeEmployee, StartDate: now.AddDate(0, -2, 0), StartMileage: 1000},
		},
	}

	err := applyReassignment(vehicle, "emp-1", "Asha Rao", 9999, "", now)
	require.NoError(t, err)
	require.Len(t, vehicle.AssignmentHistory, 1)
	assert.Nil(t, vehicle.AssignmentHistory[0].EndDate)
}

func TestApplyReassignment_MissingNameDefaultsToUnknown(t *testing.T) {
	vehicle := &models.Vehicle{}

	err := applyReassignment(vehicle, "emp-9", "", 0, "", time.Now())
	require.NoError(t, err)
	require.Len(t, vehicle.AssignmentHistory, 1)
	assert.Equal(t, "Unknown", vehicle.AssignmentHistory[0].AssignedToName)
}

func TestApplyReassignment_SingleOpenEntryInvariant(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	vehicle := &models.Vehicle{}

	// Churn through a chain of transfers; at every step the ledger holds at
	// most one open entry.
	assignees := []string{"emp-1", "emp-2", "", "emp-3", "emp-4"}
	mileage := 0
	for i, empID := range assignees {
		mileage += 1000
		err := applyReassignment(vehicle, empID, "Employee "+empID, mileage, "rotation", now.AddDate(0, i, 0))
		require.NoError(t, err)

		open := 0
		for _, entry := range vehicle.AssignmentHistory {
			if entry.EndDate == nil {
				open++
			}
		}
		assert.LessOrEqual(t, open, 1)
		if empID == "" {
			assert.Equal(t, 0, open)
		} else {
			assert.Equal(t, 1, open)
		}
	}

	// Four assignments were made, one slot was a vacancy.
	assert.Len(t, vehicle.AssignmentHistory, 4)
}

func TestApplyStatusChange(t *testing.T) {
	now := time.Now()
	vehicle := &models.Vehicle{Status: models.VehicleStatusActive}

	applyStatusChange(vehicle, models.VehicleStatusMaintenance, now)
	require.Len(t, vehicle.StatusHistory, 1)
	assert.Equal(t, models.VehicleStatusMaintenance, vehicle.Status)
	assert.Equal(t, models.VehicleStatusMaintenance, vehicle.StatusHistory[0].Status)

	// Same status again does not grow the history
	applyStatusChange(vehicle, models.VehicleStatusMaintenance, now)
	assert.Len(t, vehicle.StatusHistory, 1)

	// Empty status is ignored
	applyStatusChange(vehicle, "", now)
	assert.Len(t, vehicle.StatusHistory, 1)
	assert.Equal(t, models.VehicleStatusMaintenance, vehicle.Status)
}

func TestLedgerFeedsPolicyEvaluation(t *testing.T) {
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	vehicle := &models.Vehicle{Odometer: 10000}

	require.NoError(t, applyReassignment(vehicle, "emp-1", "Asha Rao", 10000, "", base))

	// emp-1 drives 30,000 km before handing over
	vehicle.Odometer = 40000
	require.NoError(t, applyReassignment(vehicle, "emp-2", "Vikram Nair", 40000, "role change", base.AddDate(1, 0, 0)))

	result := EvaluateEmployeePolicy("emp-1", []*models.Vehicle{vehicle}, base.AddDate(1, 6, 0))
	assert.Equal(t, 30000, result.TotalKmDriven)
	assert.Equal(t, 18, result.MonthsElapsed)
	assert.Equal(t, PolicyStatusWithinLimit, result.Status)
}
