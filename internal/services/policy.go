package services

import (
	"fleet-console/internal/models"
	"time"
)

// Usage-policy thresholds: an assignment comes up for review after 60,000 km
// driven or 3 years of tenure, whichever is hit first.
const (
	PolicyKmLimit     = 60000
	PolicyMonthsLimit = 36
)

// Policy status constants
const (
	PolicyStatusNoPolicy    = "no_policy"
	PolicyStatusWithinLimit = "within_limit"
	PolicyStatusApproaching = "approaching_limit"
	PolicyStatusExceeded    = "exceeded"
)

type PolicyResult struct {
	EmployeeID      string     `json:"employeeId"`
	TotalKmDriven   int        `json:"totalKmDriven"`
	MonthsElapsed   int        `json:"monthsElapsed"`
	KmPercentage    float64    `json:"kmPercentage"`
	TimePercentage  float64    `json:"timePercentage"`
	Status          string     `json:"status"`
	PolicyStartDate *time.Time `json:"policyStartDate,omitempty"`
}

// EvaluateEmployeePolicy computes cumulative kilometers and elapsed tenure
// for an employee across every assignment-history entry in the fleet, and
// classifies against the fixed limits. Pure: callers pass a fresh vehicle
// snapshot on every evaluation, results are never cached.
func EvaluateEmployeePolicy(employeeID string, vehicles []*models.Vehicle, now time.Time) PolicyResult {
	result := PolicyResult{
		EmployeeID: employeeID,
		Status:     PolicyStatusNoPolicy,
	}

	var earliest *time.Time
	for _, vehicle := range vehicles {
		for i := range vehicle.AssignmentHistory {
			entry := &vehicle.AssignmentHistory[i]
			if entry.AssignedToID != employeeID || entry.Type != models.AssignmentTypeEmployee {
				continue
			}

			endMileage := vehicle.Odometer
			if entry.EndMileage != nil {
				endMileage = *entry.EndMileage
			}
			if km := endMileage - entry.StartMileage; km > 0 {
				result.TotalKmDriven += km
			}

			if earliest == nil || entry.StartDate.Before(*earliest) {
				start := entry.StartDate
				earliest = &start
			}
		}
	}

	if earliest == nil {
		return result
	}

	result.PolicyStartDate = earliest
	result.MonthsElapsed = wholeMonthsBetween(*earliest, now)
	result.KmPercentage = float64(result.TotalKmDriven) / float64(PolicyKmLimit) * 100
	result.TimePercentage = float64(result.MonthsElapsed) / float64(PolicyMonthsLimit) * 100

	switch {
	case result.KmPercentage >= 100 || result.TimePercentage >= 100:
		result.Status = PolicyStatusExceeded
	case result.KmPercentage > 85 || result.TimePercentage > 85:
		result.Status = PolicyStatusApproaching
	default:
		result.Status = PolicyStatusWithinLimit
	}

	return result
}

// wholeMonthsBetween counts calendar-month boundaries crossed between the
// two times. The day of month is deliberately ignored; this is the single
// tenure rule used everywhere in the system.
func wholeMonthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if months < 0 {
		return 0
	}
	return months
}
