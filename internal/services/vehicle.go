package services

import (
	"errors"
	"fleet-console/internal/models"
	"fleet-console/internal/repository"
	"fleet-console/pkg/cache"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VehicleService struct {
	vehicleRepo   *repository.VehicleRepository
	chauffeurRepo *repository.ChauffeurRepository
	userRepo      *repository.UserRepository
	cacheManager  cache.CacheManager
	cacheConfig   cache.CacheConfig
	compliance    *ComplianceService
}

func NewVehicleService(vehicleRepo *repository.VehicleRepository, chauffeurRepo *repository.ChauffeurRepository, userRepo *repository.UserRepository) *VehicleService {
	return &VehicleService{
		vehicleRepo:   vehicleRepo,
		chauffeurRepo: chauffeurRepo,
		userRepo:      userRepo,
		cacheConfig:   cache.DefaultCacheConfig(),
	}
}

// SetCacheManager allows setting the cache manager for caching operations
func (s *VehicleService) SetCacheManager(cacheManager cache.CacheManager) {
	s.cacheManager = cacheManager
}

// SetCacheConfig allows setting custom cache configuration
func (s *VehicleService) SetCacheConfig(config cache.CacheConfig) {
	s.cacheConfig = config
}

// SetComplianceService allows setting the compliance service for document checks
func (s *VehicleService) SetComplianceService(compliance *ComplianceService) {
	s.compliance = compliance
}

type CreateVehicleRequest struct {
	LicensePlate       string                   `json:"licensePlate" validate:"required,min=1,max=20"`
	VIN                string                   `json:"vin,omitempty"`
	Make               string                   `json:"make,omitempty"`
	Model              string                   `json:"model,omitempty"`
	Year               int                      `json:"year,omitempty" validate:"omitempty,min=1950,max=2030"`
	CarType            string                   `json:"carType" validate:"required,oneof=m_car pool test"`
	Odometer           int                      `json:"odometer,omitempty" validate:"omitempty,min=0"`
	AssignedEmployeeID string                   `json:"assignedEmployeeId,omitempty"`
	Documents          []models.VehicleDocument `json:"documents,omitempty" validate:"omitempty,dive"`
}

type UpdateVehicleRequest struct {
	VIN                 string                   `json:"vin,omitempty"`
	Make                string                   `json:"make,omitempty"`
	Model               string                   `json:"model,omitempty"`
	Year                int                      `json:"year,omitempty"`
	Status              string                   `json:"status,omitempty" validate:"omitempty,oneof=active maintenance inactive retired removed"`
	CarType             string                   `json:"carType,omitempty" validate:"omitempty,oneof=m_car pool test"`
	Odometer            int                      `json:"odometer,omitempty" validate:"omitempty,min=0"`
	AssignedChauffeurID *string                  `json:"assignedChauffeurId,omitempty"`
	Documents           []models.VehicleDocument `json:"documents,omitempty" validate:"omitempty,dive"`
}

// ReassignRequest moves the vehicle to a different employee. TransferReason is
// mandatory whenever the vehicle is already assigned to someone else.
type ReassignRequest struct {
	NewEmployeeID  string `json:"newEmployeeId" validate:"required"`
	CurrentMileage int    `json:"currentMileage" validate:"min=0"`
	TransferReason string `json:"transferReason,omitempty"`
}

func (s *VehicleService) GetAllVehicles() ([]*models.Vehicle, error) {
	// Try cache first if cache manager is available
	if s.cacheManager != nil {
		cachedVehicles, err := s.cacheManager.GetVehicleList("all_vehicles")
		if err == nil && cachedVehicles != nil {
			return cachedVehicles, nil
		}
		if err != nil {
			fmt.Printf("Cache error for GetAllVehicles: %v\n", err)
		}
	}

	vehicles, err := s.vehicleRepo.FindAll()
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("vehicle_list")
		if cacheErr := s.cacheManager.SetVehicleList("all_vehicles", vehicles, ttl); cacheErr != nil {
			fmt.Printf("Failed to cache all vehicles: %v\n", cacheErr)
		}
	}

	return vehicles, nil
}

func (s *VehicleService) GetVehicleByID(id string) (*models.Vehicle, error) {
	if s.cacheManager != nil {
		cachedVehicle, err := s.cacheManager.GetVehicle(id)
		if err == nil && cachedVehicle != nil {
			return cachedVehicle, nil
		}
		if err != nil {
			fmt.Printf("Cache error for GetVehicleByID(%s): %v\n", id, err)
		}
	}

	vehicle, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("vehicle")
		if cacheErr := s.cacheManager.SetVehicle(id, vehicle, ttl); cacheErr != nil {
			fmt.Printf("Failed to cache vehicle %s: %v\n", id, cacheErr)
		}
	}

	return vehicle, nil
}

func (s *VehicleService) GetVehiclesByStatus(status string) ([]*models.Vehicle, error) {
	if s.cacheManager != nil {
		cacheKey := fmt.Sprintf("vehicles_by_status_%s", status)
		cachedVehicles, err := s.cacheManager.GetVehicleList(cacheKey)
		if err == nil && cachedVehicles != nil {
			return cachedVehicles, nil
		}
		if err != nil {
			fmt.Printf("Cache error for GetVehiclesByStatus(%s): %v\n", status, err)
		}
	}

	vehicles, err := s.vehicleRepo.FindByStatus(status)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		cacheKey := fmt.Sprintf("vehicles_by_status_%s", status)
		ttl := s.cacheConfig.GetTTLForDataType("vehicle_list")
		if cacheErr := s.cacheManager.SetVehicleList(cacheKey, vehicles, ttl); cacheErr != nil {
			fmt.Printf("Failed to cache vehicles by status %s: %v\n", status, cacheErr)
		}
	}

	return vehicles, nil
}

func (s *VehicleService) GetVehiclesByCarType(carType string) ([]*models.Vehicle, error) {
	return s.vehicleRepo.FindByCarType(carType)
}

func (s *VehicleService) GetVehiclesByEmployee(employeeID string) ([]*models.Vehicle, error) {
	return s.vehicleRepo.FindByAssignedEmployee(employeeID)
}

func (s *VehicleService) CreateVehicle(req *CreateVehicleRequest) (*models.Vehicle, error) {
	existingVehicle, _ := s.vehicleRepo.FindByLicensePlate(req.LicensePlate)
	if existingVehicle != nil {
		return nil, errors.New("license plate already exists")
	}

	now := time.Now()
	vehicle := &models.Vehicle{
		ID:                primitive.NewObjectID(),
		LicensePlate:      req.LicensePlate,
		VIN:               req.VIN,
		Make:              req.Make,
		Model:             req.Model,
		Year:              req.Year,
		Status:            models.VehicleStatusActive,
		CarType:           req.CarType,
		Odometer:          req.Odometer,
		Documents:         req.Documents,
		StatusHistory:     []models.StatusChange{{Status: models.VehicleStatusActive, Date: now}},
		AssignmentHistory: []models.AssignmentEntry{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// A vehicle born assigned gets its ledger opened on creation.
	if req.AssignedEmployeeID != "" {
		if err := applyReassignment(vehicle, req.AssignedEmployeeID, s.employeeName(req.AssignedEmployeeID), req.Odometer, "", now); err != nil {
			return nil, err
		}
	}

	createdVehicle, err := s.vehicleRepo.Create(vehicle)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		s.invalidateCacheOnCreate(createdVehicle)
	}

	return createdVehicle, nil
}

func (s *VehicleService) UpdateVehicle(id string, req *UpdateVehicleRequest) (*models.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	previousStatus := vehicle.Status
	previousExpiries := documentExpiries(vehicle)

	if req.VIN != "" {
		vehicle.VIN = req.VIN
	}
	if req.Make != "" {
		vehicle.Make = req.Make
	}
	if req.Model != "" {
		vehicle.Model = req.Model
	}
	if req.Year > 0 {
		vehicle.Year = req.Year
	}
	if req.CarType != "" {
		vehicle.CarType = req.CarType
	}
	if req.Odometer > vehicle.Odometer {
		vehicle.Odometer = req.Odometer
	}
	if req.Status != "" {
		applyStatusChange(vehicle, req.Status, time.Now())
	}
	if req.Documents != nil {
		vehicle.Documents = req.Documents
	}

	if req.AssignedChauffeurID != nil {
		if err := relinkChauffeur(s.vehicleRepo, s.chauffeurRepo, vehicle, *req.AssignedChauffeurID); err != nil {
			return nil, err
		}
	}

	updatedVehicle, err := s.vehicleRepo.Update(id, vehicle)
	if err != nil {
		return nil, err
	}

	// Document changes feed straight into the compliance notifier.
	if req.Documents != nil && s.compliance != nil {
		for _, docType := range changedDocumentTypes(previousExpiries, updatedVehicle) {
			s.compliance.HandleDocumentUpdate(updatedVehicle, docType)
		}
	}

	if s.cacheManager != nil {
		s.invalidateCacheOnUpdate(updatedVehicle, previousStatus)
	}

	return updatedVehicle, nil
}

// ReassignVehicle closes the vehicle's open ledger entry and opens one for
// the new employee in a single document write.
func (s *VehicleService) ReassignVehicle(id string, req *ReassignRequest) (*models.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	previousStatus := vehicle.Status

	if err := applyReassignment(vehicle, req.NewEmployeeID, s.employeeName(req.NewEmployeeID), req.CurrentMileage, req.TransferReason, time.Now()); err != nil {
		return nil, err
	}

	if req.CurrentMileage > vehicle.Odometer {
		vehicle.Odometer = req.CurrentMileage
	}

	updatedVehicle, err := s.vehicleRepo.Update(id, vehicle)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		s.invalidateCacheOnUpdate(updatedVehicle, previousStatus)
	}

	return updatedVehicle, nil
}

func (s *VehicleService) DeleteVehicle(id string) error {
	vehicle, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		return err
	}

	// Drop the chauffeur's back-link before the vehicle goes away.
	if vehicle.AssignedChauffeurID != "" {
		if chauffeur, err := s.chauffeurRepo.FindByID(vehicle.AssignedChauffeurID); err == nil {
			chauffeur.AssignedVehicleID = ""
			if _, err := s.chauffeurRepo.Update(chauffeur.ID.Hex(), chauffeur); err != nil {
				fmt.Printf("Failed to clear chauffeur link for vehicle %s: %v\n", id, err)
			}
		}
	}

	if err := s.vehicleRepo.Delete(id); err != nil {
		return err
	}

	if s.cacheManager != nil {
		s.invalidateCacheOnDelete(vehicle)
	}

	return nil
}

// EvaluatePolicy runs the usage policy for an employee over the whole fleet.
// Closed ledger entries on other vehicles still count toward the totals.
func (s *VehicleService) EvaluatePolicy(employeeID string) (PolicyResult, error) {
	vehicles, err := s.vehicleRepo.FindAll()
	if err != nil {
		return PolicyResult{}, err
	}
	return EvaluateEmployeePolicy(employeeID, vehicles, time.Now()), nil
}

// EvaluateAllPolicies evaluates the usage policy for every employee that has
// at least one ledger entry anywhere in the fleet.
func (s *VehicleService) EvaluateAllPolicies() ([]PolicyResult, error) {
	vehicles, err := s.vehicleRepo.FindAll()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var employeeIDs []string
	for _, vehicle := range vehicles {
		for i := range vehicle.AssignmentHistory {
			entry := &vehicle.AssignmentHistory[i]
			if entry.Type != models.AssignmentTypeEmployee || entry.AssignedToID == "" || seen[entry.AssignedToID] {
				continue
			}
			seen[entry.AssignedToID] = true
			employeeIDs = append(employeeIDs, entry.AssignedToID)
		}
	}
	sort.Strings(employeeIDs)

	now := time.Now()
	results := make([]PolicyResult, 0, len(employeeIDs))
	for _, employeeID := range employeeIDs {
		results = append(results, EvaluateEmployeePolicy(employeeID, vehicles, now))
	}
	return results, nil
}

func (s *VehicleService) employeeName(employeeID string) string {
	if user, err := s.userRepo.FindByID(employeeID); err == nil {
		return user.FullName()
	}
	return ""
}

// relinkChauffeur moves the vehicle-chauffeur link to the given chauffeur,
// keeping both sides consistent: the old chauffeur and any other vehicle
// pointing at the new chauffeur are unlinked first. An empty ID clears the
// link.
// The dual link is maintained through these narrow store views so the vehicle
// service and the dispatch workflow share one implementation.
type vehicleLinkStore interface {
	FindByAssignedChauffeur(chauffeurID string) (*models.Vehicle, error)
	Update(id string, vehicle *models.Vehicle) (*models.Vehicle, error)
}

type chauffeurLinkStore interface {
	FindByID(id string) (*models.Chauffeur, error)
	Update(id string, chauffeur *models.Chauffeur) (*models.Chauffeur, error)
}

func relinkChauffeur(vehicleRepo vehicleLinkStore, chauffeurRepo chauffeurLinkStore, vehicle *models.Vehicle, newChauffeurID string) error {
	if vehicle.AssignedChauffeurID == newChauffeurID {
		return nil
	}

	if vehicle.AssignedChauffeurID != "" {
		if old, err := chauffeurRepo.FindByID(vehicle.AssignedChauffeurID); err == nil {
			old.AssignedVehicleID = ""
			if _, err := chauffeurRepo.Update(old.ID.Hex(), old); err != nil {
				return err
			}
		}
	}

	if newChauffeurID != "" {
		chauffeur, err := chauffeurRepo.FindByID(newChauffeurID)
		if err != nil {
			return err
		}

		if other, err := vehicleRepo.FindByAssignedChauffeur(newChauffeurID); err == nil && other.ID != vehicle.ID {
			other.AssignedChauffeurID = ""
			if _, err := vehicleRepo.Update(other.ID.Hex(), other); err != nil {
				return err
			}
		}

		chauffeur.AssignedVehicleID = vehicle.ID.Hex()
		if _, err := chauffeurRepo.Update(chauffeur.ID.Hex(), chauffeur); err != nil {
			return err
		}
	}

	vehicle.AssignedChauffeurID = newChauffeurID
	return nil
}

func documentExpiries(vehicle *models.Vehicle) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, docType := range []string{models.DocumentTypeRC, models.DocumentTypeInsurance, models.DocumentTypePUC, models.DocumentTypeFitness, models.DocumentTypePermit} {
		if doc := vehicle.CurrentDocument(docType); doc != nil {
			out[docType] = doc.ExpiryDate
		}
	}
	return out
}

func changedDocumentTypes(previous map[string]time.Time, vehicle *models.Vehicle) []string {
	var out []string
	for docType, expiry := range documentExpiries(vehicle) {
		if prev, ok := previous[docType]; !ok || !prev.Equal(expiry) {
			out = append(out, docType)
		}
	}
	return out
}

// Cache invalidation helper methods

func (s *VehicleService) invalidateCacheOnCreate(vehicle *models.Vehicle) {
	if err := s.cacheManager.Delete("fleet:vehicle_list:all_vehicles"); err != nil {
		fmt.Printf("Failed to invalidate all vehicles cache: %v\n", err)
	}

	statusCacheKey := fmt.Sprintf("fleet:vehicle_list:vehicles_by_status_%s", vehicle.Status)
	if err := s.cacheManager.Delete(statusCacheKey); err != nil {
		fmt.Printf("Failed to invalidate vehicles by status cache: %v\n", err)
	}

	ttl := s.cacheConfig.GetTTLForDataType("vehicle")
	if err := s.cacheManager.SetVehicle(vehicle.ID.Hex(), vehicle, ttl); err != nil {
		fmt.Printf("Failed to cache new vehicle %s: %v\n", vehicle.ID.Hex(), err)
	}
}

func (s *VehicleService) invalidateCacheOnUpdate(vehicle *models.Vehicle, previousStatus string) {
	vehicleID := vehicle.ID.Hex()

	if err := s.cacheManager.InvalidateVehicle(vehicleID); err != nil {
		fmt.Printf("Failed to invalidate vehicle cache for %s: %v\n", vehicleID, err)
	}

	if err := s.cacheManager.Delete("fleet:vehicle_list:all_vehicles"); err != nil {
		fmt.Printf("Failed to invalidate all vehicles cache: %v\n", err)
	}

	statusCacheKey := fmt.Sprintf("fleet:vehicle_list:vehicles_by_status_%s", vehicle.Status)
	if err := s.cacheManager.Delete(statusCacheKey); err != nil {
		fmt.Printf("Failed to invalidate vehicles by status cache: %v\n", err)
	}

	if previousStatus != vehicle.Status {
		prevStatusCacheKey := fmt.Sprintf("fleet:vehicle_list:vehicles_by_status_%s", previousStatus)
		if err := s.cacheManager.Delete(prevStatusCacheKey); err != nil {
			fmt.Printf("Failed to invalidate previous vehicles by status cache: %v\n", err)
		}
	}

	ttl := s.cacheConfig.GetTTLForDataType("vehicle")
	if err := s.cacheManager.SetVehicle(vehicleID, vehicle, ttl); err != nil {
		fmt.Printf("Failed to cache updated vehicle %s: %v\n", vehicleID, err)
	}
}

func (s *VehicleService) invalidateCacheOnDelete(vehicle *models.Vehicle) {
	vehicleID := vehicle.ID.Hex()

	if err := s.cacheManager.InvalidateVehicle(vehicleID); err != nil {
		fmt.Printf("Failed to invalidate vehicle cache for %s: %v\n", vehicleID, err)
	}

	if err := s.cacheManager.Delete("fleet:vehicle_list:all_vehicles"); err != nil {
		fmt.Printf("Failed to invalidate all vehicles cache: %v\n", err)
	}

	statusCacheKey := fmt.Sprintf("fleet:vehicle_list:vehicles_by_status_%s", vehicle.Status)
	if err := s.cacheManager.Delete(statusCacheKey); err != nil {
		fmt.Printf("Failed to invalidate vehicles by status cache: %v\n", err)
	}
}
