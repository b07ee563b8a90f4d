package services

import (
	"testing"
	"time"

	"fleet-console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testAdmin(email string) *models.User {
	return &models.User{
		ID:     primitive.NewObjectID(),
		Email:  email,
		Role:   models.RoleAdmin,
		Status: models.UserStatusActive,
	}
}

func testEmployee(email string) *models.User {
	return &models.User{
		ID:     primitive.NewObjectID(),
		Email:  email,
		Role:   models.RoleEmployee,
		Status: models.UserStatusActive,
	}
}

func vehicleWithDoc(plate, docType string, expiry time.Time) *models.Vehicle {
	return &models.Vehicle{
		ID:           primitive.NewObjectID(),
		LicensePlate: plate,
		Documents: []models.VehicleDocument{
			{Type: docType, ExpiryDate: expiry},
		},
	}
}

func TestGenerateMonthlyReminder_DayGating(t *testing.T) {
	admin := testAdmin("fleet-admin@example.com")
	users := []*models.User{admin}

	for day := 1; day <= 28; day++ {
		now := time.Date(2026, 4, day, 10, 0, 0, 0, time.UTC)
		reminder := generateMonthlyReminder(nil, users, nil, now)
		if day <= 7 || day == 20 {
			assert.NotNil(t, reminder, "day %d should produce a reminder", day)
		} else {
			assert.Nil(t, reminder, "day %d should not produce a reminder", day)
		}
	}
}

func TestGenerateMonthlyReminder_Content(t *testing.T) {
	now := time.Date(2026, 4, 3, 10, 0, 0, 0, time.UTC)
	users := []*models.User{testAdmin("a1@example.com"), testAdmin("a2@example.com")}

	vehicles := []*models.Vehicle{
		vehicleWithDoc("KA01AB1234", models.DocumentTypeInsurance, time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)),
		vehicleWithDoc("KA02CD5678", models.DocumentTypePUC, time.Date(2026, 5, 25, 0, 0, 0, 0, time.UTC)),
		// Expires in June, outside next month
		vehicleWithDoc("KA03EF9012", models.DocumentTypeInsurance, time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)),
		// RC never appears in expiry alerts
		vehicleWithDoc("KA04GH3456", models.DocumentTypeRC, time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)),
	}

	reminder := generateMonthlyReminder(vehicles, users, nil, now)
	require.NotNil(t, reminder)

	assert.Equal(t, "Vehicle Document Expiry Reminder for May", reminder.Subject)
	assert.Equal(t, "a1@example.com", reminder.Recipient)
	assert.Equal(t, []string{"a2@example.com"}, reminder.CC)
	assert.Equal(t, models.AlertMonthlyReminder, reminder.AlertType)

	assert.Contains(t, reminder.Body, "KA01AB1234: Insurance expires on 12 May 2026")
	assert.Contains(t, reminder.Body, "KA02CD5678: PUC expires on 25 May 2026")
	assert.NotContains(t, reminder.Body, "KA03EF9012")
	assert.NotContains(t, reminder.Body, "KA04GH3456")
}

func TestGenerateMonthlyReminder_OncePerMonth(t *testing.T) {
	now := time.Date(2026, 4, 3, 10, 0, 0, 0, time.UTC)
	users := []*models.User{testAdmin("a1@example.com")}

	first := generateMonthlyReminder(nil, users, nil, now)
	require.NotNil(t, first)

	// Already sent this month, including on a later eligible day
	assert.Nil(t, generateMonthlyReminder(nil, users, []*models.ComplianceEmail{first}, now))
	later := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	assert.Nil(t, generateMonthlyReminder(nil, users, []*models.ComplianceEmail{first}, later))

	// Next month is a fresh cycle
	nextMonth := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	assert.NotNil(t, generateMonthlyReminder(nil, users, []*models.ComplianceEmail{first}, nextMonth))
}

func TestGenerateMonthlyReminder_NoAdmins(t *testing.T) {
	now := time.Date(2026, 4, 3, 10, 0, 0, 0, time.UTC)
	users := []*models.User{testEmployee("emp@example.com")}

	assert.Nil(t, generateMonthlyReminder(nil, users, nil, now))

	// Inactive admins do not count
	inactive := testAdmin("old-admin@example.com")
	inactive.Status = models.UserStatusInactive
	assert.Nil(t, generateMonthlyReminder(nil, []*models.User{inactive}, nil, now))

	// A fleet manager alone is enough of an audience
	manager := testAdmin("fm@example.com")
	manager.Role = models.RoleFleetManager
	assert.NotNil(t, generateMonthlyReminder(nil, []*models.User{manager}, nil, now))
}

func TestGenerateUrgentEmails_UnassignedVehicleSkipped(t *testing.T) {
	now := time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)
	vehicle := vehicleWithDoc("KA01AB1234", models.DocumentTypeInsurance, now.AddDate(0, 0, 2))
	users := []*models.User{testAdmin("a1@example.com")}

	assert.Empty(t, generateUrgentEmails(vehicle, users, nil, now))
}

func TestGenerateUrgentEmails_ExpiringSoon(t *testing.T) {
	now := time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)
	employee := testEmployee("driver@example.com")
	admin := testAdmin("a1@example.com")
	users := []*models.User{admin, employee}

	vehicle := vehicleWithDoc("KA01AB1234", models.DocumentTypeInsurance, time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC))
	vehicle.AssignedEmployeeID = employee.ID.Hex()

	emails := generateUrgentEmails(vehicle, users, nil, now)
	require.Len(t, emails, 1)

	email := emails[0]
	assert.Equal(t, "URGENT: Insurance Expiry - KA01AB1234", email.Subject)
	assert.Equal(t, "driver@example.com", email.Recipient)
	assert.Equal(t, []string{"a1@example.com"}, email.CC)
	assert.Equal(t, models.AlertUrgentExpiry, email.AlertType)
	assert.Contains(t, email.Body, "is expiring in less than 7 days on 14 Apr 2026")
}

func TestGenerateUrgentEmails_AlreadyExpired(t *testing.T) {
	now := time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)
	employee := testEmployee("driver@example.com")
	users := []*models.User{testAdmin("a1@example.com"), employee}

	vehicle := vehicleWithDoc("KA01AB1234", models.DocumentTypePUC, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	vehicle.AssignedEmployeeID = employee.ID.Hex()

	emails := generateUrgentEmails(vehicle, users, nil, now)
	require.Len(t, emails, 1)
	assert.Contains(t, emails[0].Body, "has EXPIRED on 01 Apr 2026")
}

func TestGenerateUrgentEmails_NoAdmins(t *testing.T) {
	now := time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)
	employee := testEmployee("driver@example.com")

	vehicle := vehicleWithDoc("KA01AB1234", models.DocumentTypeInsurance, now.AddDate(0, 0, 2))
	vehicle.AssignedEmployeeID = employee.ID.Hex()

	// With nobody to escalate to, the whole run stays silent
	assert.Empty(t, generateUrgentEmails(vehicle, []*models.User{employee}, nil, now))
	assert.Empty(t, GenerateRenewalEmails([]*models.Vehicle{vehicle}, []*models.User{employee}, nil, now))

	inactive := testAdmin("gone@example.com")
	inactive.Status = models.UserStatusInactive
	assert.Empty(t, generateUrgentEmails(vehicle, []*models.User{employee, inactive}, nil, now))
}

func TestGenerateUrgentEmails_OutsideWindow(t *testing.T) {
	now := time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)
	employee := testEmployee("driver@example.com")
	users := []*models.User{testAdmin("a1@example.com"), employee}

	// Eight days out, one past the window
	vehicle := vehicleWithDoc("KA01AB1234", models.DocumentTypeInsurance, time.Date(2026, 4, 18, 0, 0, 0, 0, time.UTC))
	vehicle.AssignedEmployeeID = employee.ID.Hex()

	assert.Empty(t, generateUrgentEmails(vehicle, users, nil, now))
}

func TestGenerateUrgentEmails_OncePerDay(t *testing.T) {
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	employee := testEmployee("driver@example.com")
	users := []*models.User{testAdmin("a1@example.com"), employee}

	vehicle := vehicleWithDoc("KA01AB1234", models.DocumentTypeInsurance, now.AddDate(0, 0, 3))
	vehicle.AssignedEmployeeID = employee.ID.Hex()

	first := generateUrgentEmails(vehicle, users, nil, now)
	require.Len(t, first, 1)

	// Re-running later the same day produces nothing
	assert.Empty(t, generateUrgentEmails(vehicle, users, first, now.Add(6*time.Hour)))

	// The next day it fires again
	nextDay := generateUrgentEmails(vehicle, users, first, now.AddDate(0, 0, 1))
	assert.Len(t, nextDay, 1)
}

func TestGenerateUrgentEmails_EmployeeMatchByEmpID(t *testing.T) {
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	employee := testEmployee("driver@example.com")
	employee.EmpID = "EMP-042"
	users := []*models.User{testAdmin("a1@example.com"), employee}

	vehicle := vehicleWithDoc("KA01AB1234", models.DocumentTypeInsurance, now.AddDate(0, 0, 2))
	vehicle.AssignedEmployeeID = "EMP-042"

	emails := generateUrgentEmails(vehicle, users, nil, now)
	require.Len(t, emails, 1)
	assert.Equal(t, "driver@example.com", emails[0].Recipient)
}

func TestGenerateRenewalEmails_CombinedRun(t *testing.T) {
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	employee := testEmployee("driver@example.com")
	admin := testAdmin("a1@example.com")
	users := []*models.User{admin, employee}

	urgent := vehicleWithDoc("KA01AB1234", models.DocumentTypeInsurance, now.AddDate(0, 0, 4))
	urgent.AssignedEmployeeID = employee.ID.Hex()
	nextMonth := vehicleWithDoc("KA02CD5678", models.DocumentTypePUC, time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC))

	emails := GenerateRenewalEmails([]*models.Vehicle{urgent, nextMonth}, users, nil, now)
	require.Len(t, emails, 2)
	assert.Equal(t, models.AlertMonthlyReminder, emails[0].AlertType)
	assert.Equal(t, models.AlertUrgentExpiry, emails[1].AlertType)

	// The whole run is idempotent against its own output
	assert.Empty(t, GenerateRenewalEmails([]*models.Vehicle{urgent, nextMonth}, users, emails, now))
}

func TestGenerateUpdateConfirmation(t *testing.T) {
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	users := []*models.User{testAdmin("a1@example.com")}

	vehicle := vehicleWithDoc("KA01AB1234", models.DocumentTypeInsurance, time.Date(2027, 4, 10, 0, 0, 0, 0, time.UTC))

	confirm := generateUpdateConfirmation(vehicle, models.DocumentTypeInsurance, users, now)
	require.NotNil(t, confirm)
	assert.Equal(t, "Insurance Updated - KA01AB1234", confirm.Subject)
	assert.Equal(t, models.AlertDocumentUpdate, confirm.AlertType)
	assert.Contains(t, confirm.Body, "New expiry date: 10 Apr 2027")

	// No document of that type, nothing to confirm
	assert.Nil(t, generateUpdateConfirmation(vehicle, models.DocumentTypePUC, users, now))
}

type fakeVehicleStore struct {
	vehicles []*models.Vehicle
}

func (f *fakeVehicleStore) FindAll() ([]*models.Vehicle, error) { return f.vehicles, nil }

type fakeUserStore struct {
	users []*models.User
}

func (f *fakeUserStore) FindAll() ([]*models.User, error) { return f.users, nil }

type fakeEmailStore struct {
	emails []*models.ComplianceEmail
}

func (f *fakeEmailStore) Create(email *models.ComplianceEmail) (*models.ComplianceEmail, error) {
	f.emails = append(f.emails, email)
	return email, nil
}

func (f *fakeEmailStore) FindAll() ([]*models.ComplianceEmail, error) { return f.emails, nil }

func (f *fakeEmailStore) FindSince(since time.Time) ([]*models.ComplianceEmail, error) {
	var out []*models.ComplianceEmail
	for _, email := range f.emails {
		if !email.Timestamp.Before(since) {
			out = append(out, email)
		}
	}
	return out, nil
}

func (f *fakeEmailStore) FindByVehicle(vehicleID string) ([]*models.ComplianceEmail, error) {
	var out []*models.ComplianceEmail
	for _, email := range f.emails {
		if email.VehicleID == vehicleID {
			out = append(out, email)
		}
	}
	return out, nil
}

type fakeFeed struct {
	types  []string
	refs   []NotificationRef
	pruned []time.Time
}

func (f *fakeFeed) Notify(notificationType, subject, details string, ref NotificationRef) *models.SystemNotification {
	f.types = append(f.types, notificationType)
	f.refs = append(f.refs, ref)
	return &models.SystemNotification{Type: notificationType, Subject: subject, Details: details}
}

func (f *fakeFeed) Prune(cutoff time.Time) error {
	f.pruned = append(f.pruned, cutoff)
	return nil
}

func TestComplianceService_DeliverMirrorsOnlyUrgentAlerts(t *testing.T) {
	emailStore := &fakeEmailStore{}
	feed := &fakeFeed{}
	service := NewComplianceService(&fakeVehicleStore{}, &fakeUserStore{}, emailStore, feed)

	vehicleID := primitive.NewObjectID().Hex()
	for _, alertType := range []string{models.AlertMonthlyReminder, models.AlertUrgentExpiry, models.AlertDocumentUpdate} {
		service.deliver(&models.ComplianceEmail{
			Subject:   alertType,
			VehicleID: vehicleID,
			AlertType: alertType,
		})
	}

	assert.Len(t, emailStore.emails, 3, "every email is recorded")

	// Only the urgent alert reaches the notification feed
	require.Equal(t, []string{models.NotificationDocumentExpiry}, feed.types)
	assert.Equal(t, vehicleID, feed.refs[0].VehicleID)
}

func TestComplianceService_RunDailyCheckPrunesFeed(t *testing.T) {
	feed := &fakeFeed{}
	service := NewComplianceService(&fakeVehicleStore{}, &fakeUserStore{}, &fakeEmailStore{}, feed)

	require.NoError(t, service.RunDailyCheck())

	require.Len(t, feed.pruned, 1)
	cutoff := feed.pruned[0]
	assert.WithinDuration(t, time.Now().AddDate(0, -3, 0), cutoff, time.Minute)
}
