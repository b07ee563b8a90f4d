package services

import (
	"errors"
	"fleet-console/internal/models"
	"fleet-console/internal/repository"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidOnboardingTransition = errors.New("invalid onboarding status transition")

// ChauffeurListener is notified when a chauffeur is invited, so the demo
// responder can walk the invitation through the review flow.
type ChauffeurListener interface {
	ChauffeurInvited(chauffeurID string)
}

type ChauffeurService struct {
	chauffeurRepo *repository.ChauffeurRepository
	vehicleRepo   *repository.VehicleRepository
	notifier      *NotificationService
	listener      ChauffeurListener
}

func NewChauffeurService(chauffeurRepo *repository.ChauffeurRepository, vehicleRepo *repository.VehicleRepository, notifier *NotificationService) *ChauffeurService {
	return &ChauffeurService{
		chauffeurRepo: chauffeurRepo,
		vehicleRepo:   vehicleRepo,
		notifier:      notifier,
	}
}

// SetChauffeurListener allows setting a listener for onboarding invitations
func (s *ChauffeurService) SetChauffeurListener(listener ChauffeurListener) {
	s.listener = listener
}

type CreateChauffeurRequest struct {
	FirstName          string `json:"firstName" validate:"required"`
	LastName           string `json:"lastName" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	Phone              string `json:"phone,omitempty"`
	LicenseNumber      string `json:"licenseNumber" validate:"required"`
	ChauffeurType      string `json:"chauffeurType" validate:"required,oneof=m_car pool"`
	ReportingManagerID string `json:"reportingManagerId,omitempty"`
}

type UpdateChauffeurRequest struct {
	FirstName          string `json:"firstName,omitempty"`
	LastName           string `json:"lastName,omitempty"`
	Email              string `json:"email,omitempty" validate:"omitempty,email"`
	Phone              string `json:"phone,omitempty"`
	LicenseNumber      string `json:"licenseNumber,omitempty"`
	ChauffeurType      string `json:"chauffeurType,omitempty" validate:"omitempty,oneof=m_car pool"`
	ReportingManagerID string `json:"reportingManagerId,omitempty"`
}

func (s *ChauffeurService) GetAllChauffeurs() ([]*models.Chauffeur, error) {
	return s.chauffeurRepo.FindAll()
}

func (s *ChauffeurService) GetChauffeurByID(id string) (*models.Chauffeur, error) {
	return s.chauffeurRepo.FindByID(id)
}

func (s *ChauffeurService) GetChauffeursByOnboardingStatus(status string) ([]*models.Chauffeur, error) {
	return s.chauffeurRepo.FindByOnboardingStatus(status)
}

// CreateChauffeur registers a new chauffeur in the invited state. Reporting
// managers only apply to m_car chauffeurs; pool chauffeurs are managed by the
// fleet desk.
func (s *ChauffeurService) CreateChauffeur(req *CreateChauffeurRequest) (*models.Chauffeur, error) {
	existing, _ := s.chauffeurRepo.FindByLicenseNumber(req.LicenseNumber)
	if existing != nil {
		return nil, errors.New("license number already exists")
	}

	if req.ChauffeurType == models.ChauffeurTypePool && req.ReportingManagerID != "" {
		return nil, errors.New("pool chauffeurs cannot have a reporting manager")
	}

	now := time.Now()
	chauffeur := &models.Chauffeur{
		ID:                 primitive.NewObjectID(),
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Phone:              req.Phone,
		LicenseNumber:      req.LicenseNumber,
		ChauffeurType:      req.ChauffeurType,
		OnboardingStatus:   models.OnboardingInvited,
		ReportingManagerID: req.ReportingManagerID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	created, err := s.chauffeurRepo.Create(chauffeur)
	if err != nil {
		return nil, err
	}

	if s.listener != nil {
		s.listener.ChauffeurInvited(created.ID.Hex())
	}

	return created, nil
}

// BeginReview moves an invited chauffeur into awaiting_approval, meaning the
// chauffeur submitted their documents.
func (s *ChauffeurService) BeginReview(id string) (*models.Chauffeur, error) {
	chauffeur, err := s.chauffeurRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if chauffeur.OnboardingStatus != models.OnboardingInvited {
		return nil, ErrInvalidOnboardingTransition
	}

	chauffeur.OnboardingStatus = models.OnboardingAwaitingApproval
	return s.chauffeurRepo.Update(id, chauffeur)
}

func (s *ChauffeurService) ApproveChauffeur(id string) (*models.Chauffeur, error) {
	chauffeur, err := s.chauffeurRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if chauffeur.OnboardingStatus != models.OnboardingAwaitingApproval {
		return nil, ErrInvalidOnboardingTransition
	}

	chauffeur.OnboardingStatus = models.OnboardingApproved
	updated, err := s.chauffeurRepo.Update(id, chauffeur)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(
		models.NotificationChauffeurOnboarding,
		fmt.Sprintf("Chauffeur %s approved", updated.FullName()),
		fmt.Sprintf("Chauffeur %s (%s) completed onboarding and is available for dispatch", updated.FullName(), updated.ChauffeurType),
		NotificationRef{ChauffeurID: updated.ID.Hex()},
	)

	return updated, nil
}

func (s *ChauffeurService) RejectChauffeur(id string) (*models.Chauffeur, error) {
	chauffeur, err := s.chauffeurRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if chauffeur.OnboardingStatus != models.OnboardingAwaitingApproval {
		return nil, ErrInvalidOnboardingTransition
	}

	chauffeur.OnboardingStatus = models.OnboardingRejected
	return s.chauffeurRepo.Update(id, chauffeur)
}

func (s *ChauffeurService) UpdateChauffeur(id string, req *UpdateChauffeurRequest) (*models.Chauffeur, error) {
	chauffeur, err := s.chauffeurRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		chauffeur.FirstName = req.FirstName
	}
	if req.LastName != "" {
		chauffeur.LastName = req.LastName
	}
	if req.Email != "" {
		chauffeur.Email = req.Email
	}
	if req.Phone != "" {
		chauffeur.Phone = req.Phone
	}
	if req.LicenseNumber != "" && req.LicenseNumber != chauffeur.LicenseNumber {
		existing, _ := s.chauffeurRepo.FindByLicenseNumber(req.LicenseNumber)
		if existing != nil && existing.ID.Hex() != id {
			return nil, errors.New("license number already exists")
		}
		chauffeur.LicenseNumber = req.LicenseNumber
	}
	if req.ChauffeurType != "" {
		chauffeur.ChauffeurType = req.ChauffeurType
	}
	if req.ReportingManagerID != "" {
		if chauffeur.ChauffeurType == models.ChauffeurTypePool {
			return nil, errors.New("pool chauffeurs cannot have a reporting manager")
		}
		chauffeur.ReportingManagerID = req.ReportingManagerID
	}

	return s.chauffeurRepo.Update(id, chauffeur)
}

func (s *ChauffeurService) DeleteChauffeur(id string) error {
	chauffeur, err := s.chauffeurRepo.FindByID(id)
	if err != nil {
		return err
	}

	// Unlink the vehicle side before removing the chauffeur.
	if chauffeur.AssignedVehicleID != "" {
		if vehicle, err := s.vehicleRepo.FindByID(chauffeur.AssignedVehicleID); err == nil {
			vehicle.AssignedChauffeurID = ""
			if _, err := s.vehicleRepo.Update(vehicle.ID.Hex(), vehicle); err != nil {
				fmt.Printf("Failed to clear vehicle link for chauffeur %s: %v\n", id, err)
			}
		}
	}

	return s.chauffeurRepo.Delete(id)
}
