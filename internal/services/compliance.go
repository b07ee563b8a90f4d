package services

import (
	"fleet-console/internal/models"
	"fmt"
	"log"
	"strings"
	"time"
)

// UrgentExpiryWindow is how far ahead the daily check looks for expiring
// documents on assigned vehicles.
const UrgentExpiryWindow = 7 * 24 * time.Hour

// EmailRelay delivers a generated email over SMTP. Delivery is best effort;
// the stored record is authoritative.
type EmailRelay interface {
	Send(to string, cc []string, subject, body string) error
	Enabled() bool
}

// The service reads its entities through narrow store views so the check
// logic can run against in-memory stores in tests.
type complianceVehicleStore interface {
	FindAll() ([]*models.Vehicle, error)
}

type complianceUserStore interface {
	FindAll() ([]*models.User, error)
}

type complianceEmailStore interface {
	Create(email *models.ComplianceEmail) (*models.ComplianceEmail, error)
	FindAll() ([]*models.ComplianceEmail, error)
	FindSince(since time.Time) ([]*models.ComplianceEmail, error)
	FindByVehicle(vehicleID string) ([]*models.ComplianceEmail, error)
}

type complianceFeed interface {
	Notify(notificationType, subject, details string, ref NotificationRef) *models.SystemNotification
	Prune(cutoff time.Time) error
}

type ComplianceService struct {
	vehicleRepo complianceVehicleStore
	userRepo    complianceUserStore
	emailRepo   complianceEmailStore
	notifier    complianceFeed
	relay       EmailRelay
}

func NewComplianceService(vehicleRepo complianceVehicleStore, userRepo complianceUserStore, emailRepo complianceEmailStore, notifier complianceFeed) *ComplianceService {
	return &ComplianceService{
		vehicleRepo: vehicleRepo,
		userRepo:    userRepo,
		emailRepo:   emailRepo,
		notifier:    notifier,
	}
}

// SetEmailRelay allows setting an SMTP relay for generated emails
func (s *ComplianceService) SetEmailRelay(relay EmailRelay) {
	s.relay = relay
}

// RunDailyCheck generates and records all compliance emails due today. It is
// safe to call more than once per day; generation de-duplicates against the
// already-stored emails.
func (s *ComplianceService) RunDailyCheck() error {
	now := time.Now()

	vehicles, err := s.vehicleRepo.FindAll()
	if err != nil {
		return err
	}

	users, err := s.userRepo.FindAll()
	if err != nil {
		return err
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	existing, err := s.emailRepo.FindSince(monthStart)
	if err != nil {
		return err
	}

	for _, email := range GenerateRenewalEmails(vehicles, users, existing, now) {
		s.deliver(email)
	}

	if err := s.notifier.Prune(now.AddDate(0, -3, 0)); err != nil {
		log.Printf("compliance: notification prune failed: %v", err)
	}

	return nil
}

// GetEmailLog returns every compliance email recorded so far, newest first.
func (s *ComplianceService) GetEmailLog() ([]*models.ComplianceEmail, error) {
	return s.emailRepo.FindAll()
}

// GetEmailLogForVehicle returns the compliance emails recorded for one vehicle.
func (s *ComplianceService) GetEmailLogForVehicle(vehicleID string) ([]*models.ComplianceEmail, error) {
	return s.emailRepo.FindByVehicle(vehicleID)
}

// HandleDocumentUpdate runs after a vehicle's documents changed: it checks the
// vehicle for an urgent expiry right away and records a confirmation email for
// the updated document type.
func (s *ComplianceService) HandleDocumentUpdate(vehicle *models.Vehicle, docType string) {
	now := time.Now()

	users, err := s.userRepo.FindAll()
	if err != nil {
		log.Printf("compliance: document update check skipped: %v", err)
		return
	}

	existing, err := s.emailRepo.FindSince(now.Add(-24 * time.Hour))
	if err != nil {
		log.Printf("compliance: document update check skipped: %v", err)
		return
	}

	for _, email := range generateUrgentEmails(vehicle, users, existing, now) {
		s.deliver(email)
	}

	if confirm := generateUpdateConfirmation(vehicle, docType, users, now); confirm != nil {
		s.deliver(confirm)
	}
}

// deliver persists the email, mirrors urgent alerts onto the notification
// feed and relays over SMTP when a relay is configured. Monthly reminders and
// update confirmations stay email-only; the feed carries per-vehicle expiry
// alerts.
func (s *ComplianceService) deliver(email *models.ComplianceEmail) {
	if _, err := s.emailRepo.Create(email); err != nil {
		log.Printf("compliance: failed to record email %q: %v", email.Subject, err)
		return
	}

	if email.AlertType == models.AlertUrgentExpiry {
		s.notifier.Notify(
			models.NotificationDocumentExpiry,
			email.Subject,
			email.Body,
			NotificationRef{VehicleID: email.VehicleID},
		)
	}

	if s.relay != nil && s.relay.Enabled() {
		if err := s.relay.Send(email.Recipient, email.CC, email.Subject, email.Body); err != nil {
			log.Printf("compliance: smtp relay failed for %q: %v", email.Subject, err)
		}
	}
}

// GenerateRenewalEmails computes every compliance email due at the given
// instant: the monthly consolidated reminder followed by per-vehicle urgent
// alerts. The existing slice must cover at least the current calendar month
// so de-duplication holds.
func GenerateRenewalEmails(vehicles []*models.Vehicle, users []*models.User, existing []*models.ComplianceEmail, now time.Time) []*models.ComplianceEmail {
	var out []*models.ComplianceEmail

	if reminder := generateMonthlyReminder(vehicles, users, existing, now); reminder != nil {
		out = append(out, reminder)
		existing = append(existing, reminder)
	}

	for _, vehicle := range vehicles {
		urgent := generateUrgentEmails(vehicle, users, existing, now)
		out = append(out, urgent...)
		existing = append(existing, urgent...)
	}

	return out
}

// generateMonthlyReminder builds the consolidated reminder listing insurance
// and PUC documents that expire next calendar month. It fires only in the
// first week of the month or on the 20th, once per month.
func generateMonthlyReminder(vehicles []*models.Vehicle, users []*models.User, existing []*models.ComplianceEmail, now time.Time) *models.ComplianceEmail {
	day := now.Day()
	if day > 7 && day != 20 {
		return nil
	}

	nextMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	subject := fmt.Sprintf("Vehicle Document Expiry Reminder for %s", nextMonth.Month().String())

	for _, email := range existing {
		if email.Subject == subject && email.Timestamp.Year() == now.Year() && email.Timestamp.Month() == now.Month() {
			return nil
		}
	}

	admins := adminEmails(users)
	if len(admins) == 0 {
		return nil
	}

	var lines []string
	for _, vehicle := range vehicles {
		for _, docType := range []string{models.DocumentTypeInsurance, models.DocumentTypePUC} {
			doc := vehicle.CurrentDocument(docType)
			if doc == nil {
				continue
			}
			if doc.ExpiryDate.Year() == nextMonth.Year() && doc.ExpiryDate.Month() == nextMonth.Month() {
				lines = append(lines, fmt.Sprintf("- %s: %s expires on %s",
					vehicle.LicensePlate, documentLabel(docType), doc.ExpiryDate.Format("02 Jan 2006")))
			}
		}
	}

	body := fmt.Sprintf("The following vehicle documents expire in %s:\n\n", nextMonth.Month().String())
	if len(lines) == 0 {
		body += "No documents are due for renewal.\n"
	} else {
		body += strings.Join(lines, "\n") + "\n"
	}
	body += "\nPlease schedule renewals ahead of the expiry dates."

	return &models.ComplianceEmail{
		Recipient: admins[0],
		CC:        admins[1:],
		Subject:   subject,
		Body:      body,
		Timestamp: now,
		AlertType: models.AlertMonthlyReminder,
	}
}

// generateUrgentEmails builds per-vehicle urgent alerts for insurance and PUC
// documents already expired or expiring within the urgent window. Only
// vehicles with an assigned employee produce alerts, addressed to that
// employee with admins on CC. With no active admin or fleet-manager users
// there is nobody to escalate to and no alerts are produced at all. One
// alert per vehicle, document type and day.
func generateUrgentEmails(vehicle *models.Vehicle, users []*models.User, existing []*models.ComplianceEmail, now time.Time) []*models.ComplianceEmail {
	if vehicle.AssignedEmployeeID == "" {
		return nil
	}

	admins := adminEmails(users)
	if len(admins) == 0 {
		return nil
	}

	recipient := ""
	for _, user := range users {
		if user.ID.Hex() == vehicle.AssignedEmployeeID || (user.EmpID != "" && user.EmpID == vehicle.AssignedEmployeeID) {
			recipient = user.Email
			break
		}
	}
	if recipient == "" {
		return nil
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := today.Add(UrgentExpiryWindow)

	var out []*models.ComplianceEmail
	for _, docType := range []string{models.DocumentTypeInsurance, models.DocumentTypePUC} {
		doc := vehicle.CurrentDocument(docType)
		if doc == nil {
			continue
		}

		expiry := time.Date(doc.ExpiryDate.Year(), doc.ExpiryDate.Month(), doc.ExpiryDate.Day(), 0, 0, 0, 0, now.Location())
		if expiry.After(cutoff) {
			continue
		}

		subject := fmt.Sprintf("URGENT: %s Expiry - %s", documentLabel(docType), vehicle.LicensePlate)
		if sentToday(existing, vehicle.ID.Hex(), subject, today) {
			continue
		}

		var status string
		if !expiry.After(today) {
			status = fmt.Sprintf("has EXPIRED on %s", doc.ExpiryDate.Format("02 Jan 2006"))
		} else {
			status = fmt.Sprintf("is expiring in less than 7 days on %s", doc.ExpiryDate.Format("02 Jan 2006"))
		}

		body := fmt.Sprintf("The %s for vehicle %s %s.\n\nPlease renew it immediately to keep the vehicle compliant.",
			documentLabel(docType), vehicle.LicensePlate, status)

		out = append(out, &models.ComplianceEmail{
			Recipient: recipient,
			CC:        admins,
			Subject:   subject,
			Body:      body,
			Timestamp: now,
			VehicleID: vehicle.ID.Hex(),
			AlertType: models.AlertUrgentExpiry,
		})
	}

	return out
}

// generateUpdateConfirmation records that a document was renewed, so the
// audit trail shows the renewal alongside the alerts that prompted it.
func generateUpdateConfirmation(vehicle *models.Vehicle, docType string, users []*models.User, now time.Time) *models.ComplianceEmail {
	doc := vehicle.CurrentDocument(docType)
	if doc == nil {
		return nil
	}

	admins := adminEmails(users)
	if len(admins) == 0 {
		return nil
	}

	return &models.ComplianceEmail{
		Recipient: admins[0],
		CC:        admins[1:],
		Subject:   fmt.Sprintf("%s Updated - %s", documentLabel(docType), vehicle.LicensePlate),
		Body: fmt.Sprintf("The %s for vehicle %s was updated. New expiry date: %s.",
			documentLabel(docType), vehicle.LicensePlate, doc.ExpiryDate.Format("02 Jan 2006")),
		Timestamp: now,
		VehicleID: vehicle.ID.Hex(),
		AlertType: models.AlertDocumentUpdate,
	}
}

func sentToday(existing []*models.ComplianceEmail, vehicleID, subject string, today time.Time) bool {
	for _, email := range existing {
		if email.VehicleID != vehicleID || email.Subject != subject {
			continue
		}
		ts := email.Timestamp
		if ts.Year() == today.Year() && ts.Month() == today.Month() && ts.Day() == today.Day() {
			return true
		}
	}
	return false
}

// adminEmails collects the active admins and fleet managers, admins first so
// the primary recipient is always an admin when one exists.
func adminEmails(users []*models.User) []string {
	var admins, managers []string
	for _, user := range users {
		if user.Status != models.UserStatusActive {
			continue
		}
		switch user.Role {
		case models.RoleAdmin:
			admins = append(admins, user.Email)
		case models.RoleFleetManager:
			managers = append(managers, user.Email)
		}
	}
	return append(admins, managers...)
}

func documentLabel(docType string) string {
	switch docType {
	case models.DocumentTypeInsurance:
		return "Insurance"
	case models.DocumentTypePUC:
		return "PUC"
	case models.DocumentTypeRC:
		return "RC"
	case models.DocumentTypeFitness:
		return "Fitness Certificate"
	case models.DocumentTypePermit:
		return "Permit"
	default:
		return docType
	}
}
