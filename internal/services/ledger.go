package services

import (
	"errors"
	"fleet-console/internal/models"
	"time"
)

var ErrTransferReasonRequired = errors.New("transfer reason is required when reassigning between employees")

// applyReassignment applies the assignment-ledger mutation rule to the
// vehicle in place. When the assignee changes, the open history entry (if
// any) is closed with the current time and mileage, and a new open entry is
// appended for the incoming employee. An unchanged assignee leaves the
// ledger untouched. A transfer between two employees is rejected without a
// non-empty reason.
func applyReassignment(vehicle *models.Vehicle, newEmployeeID, newEmployeeName string, currentMileage int, transferReason string, now time.Time) error {
	if newEmployeeID == vehicle.AssignedEmployeeID {
		return nil
	}

	if vehicle.AssignedEmployeeID != "" && newEmployeeID != "" && transferReason == "" {
		return ErrTransferReasonRequired
	}

	if i := vehicle.OpenAssignment(); i >= 0 {
		endDate := now
		endMileage := currentMileage
		vehicle.AssignmentHistory[i].EndDate = &endDate
		vehicle.AssignmentHistory[i].EndMileage = &endMileage
	}

	if newEmployeeID != "" {
		name := newEmployeeName
		if name == "" {
			name = "Unknown"
		}
		vehicle.AssignmentHistory = append(vehicle.AssignmentHistory, models.AssignmentEntry{
			AssignedToID:   newEmployeeID,
			AssignedToName: name,
			Type:           models.AssignmentTypeEmployee,
			StartDate:      now,
			StartMileage:   currentMileage,
			TransferReason: transferReason,
		})
	}

	vehicle.AssignedEmployeeID = newEmployeeID
	return nil
}

// applyStatusChange appends to the status history when the status actually
// changes. The last history entry always matches the current status.
func applyStatusChange(vehicle *models.Vehicle, newStatus string, now time.Time) {
	if newStatus == "" || newStatus == vehicle.Status {
		return
	}

	vehicle.Status = newStatus
	vehicle.StatusHistory = append(vehicle.StatusHistory, models.StatusChange{
		Status: newStatus,
		Date:   now,
	})
}
