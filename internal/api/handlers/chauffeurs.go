package handlers

import (
	"errors"
	"fleet-console/internal/repository"
	"fleet-console/internal/services"
	"fleet-console/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ChauffeurHandler struct {
	chauffeurService *services.ChauffeurService
	validator        *validator.Validate
}

func NewChauffeurHandler(chauffeurService *services.ChauffeurService) *ChauffeurHandler {
	return &ChauffeurHandler{
		chauffeurService: chauffeurService,
		validator:        validator.New(),
	}
}

// GetChauffeurs retrieves all chauffeurs, optionally filtered by onboarding status
func (h *ChauffeurHandler) GetChauffeurs(c *gin.Context) {
	status := c.Query("onboardingStatus")

	var chauffeurs interface{}
	var err error
	if status != "" {
		chauffeurs, err = h.chauffeurService.GetChauffeursByOnboardingStatus(status)
	} else {
		chauffeurs, err = h.chauffeurService.GetAllChauffeurs()
	}

	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve chauffeurs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Chauffeurs retrieved successfully", chauffeurs)
}

// GetChauffeur retrieves a specific chauffeur by ID
func (h *ChauffeurHandler) GetChauffeur(c *gin.Context) {
	chauffeurID := c.Param("id")
	if chauffeurID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Chauffeur ID is required", nil)
		return
	}

	chauffeur, err := h.chauffeurService.GetChauffeurByID(chauffeurID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Chauffeur not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Chauffeur retrieved successfully", chauffeur)
}

// CreateChauffeur invites a new chauffeur
func (h *ChauffeurHandler) CreateChauffeur(c *gin.Context) {
	var req services.CreateChauffeurRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	chauffeur, err := h.chauffeurService.CreateChauffeur(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create chauffeur", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Chauffeur invited successfully", chauffeur)
}

// BeginReview moves an invited chauffeur into review
func (h *ChauffeurHandler) BeginReview(c *gin.Context) {
	chauffeur, err := h.chauffeurService.BeginReview(c.Param("id"))
	if err != nil {
		h.onboardingError(c, err, "Failed to begin review")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Chauffeur moved to review", chauffeur)
}

// ApproveChauffeur approves a chauffeur under review
func (h *ChauffeurHandler) ApproveChauffeur(c *gin.Context) {
	chauffeur, err := h.chauffeurService.ApproveChauffeur(c.Param("id"))
	if err != nil {
		h.onboardingError(c, err, "Failed to approve chauffeur")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Chauffeur approved successfully", chauffeur)
}

// RejectChauffeur rejects a chauffeur under review
func (h *ChauffeurHandler) RejectChauffeur(c *gin.Context) {
	chauffeur, err := h.chauffeurService.RejectChauffeur(c.Param("id"))
	if err != nil {
		h.onboardingError(c, err, "Failed to reject chauffeur")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Chauffeur rejected", chauffeur)
}

// UpdateChauffeur updates an existing chauffeur
func (h *ChauffeurHandler) UpdateChauffeur(c *gin.Context) {
	chauffeurID := c.Param("id")
	if chauffeurID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Chauffeur ID is required", nil)
		return
	}

	var req services.UpdateChauffeurRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	chauffeur, err := h.chauffeurService.UpdateChauffeur(chauffeurID, &req)
	if err != nil {
		if errors.Is(err, repository.ErrChauffeurNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Chauffeur not found", err)
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update chauffeur", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Chauffeur updated successfully", chauffeur)
}

// DeleteChauffeur deletes a chauffeur
func (h *ChauffeurHandler) DeleteChauffeur(c *gin.Context) {
	chauffeurID := c.Param("id")
	if chauffeurID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Chauffeur ID is required", nil)
		return
	}

	if err := h.chauffeurService.DeleteChauffeur(chauffeurID); err != nil {
		if errors.Is(err, repository.ErrChauffeurNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Chauffeur not found", err)
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete chauffeur", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Chauffeur deleted successfully", nil)
}

func (h *ChauffeurHandler) onboardingError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrChauffeurNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Chauffeur not found", err)
	case errors.Is(err, services.ErrInvalidOnboardingTransition):
		utils.ErrorResponse(c, http.StatusConflict, message, err)
	default:
		utils.ErrorResponse(c, http.StatusBadRequest, message, err)
	}
}
