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

type TripHandler struct {
	tripService     *services.TripService
	dispatchService *services.DispatchService
	validator       *validator.Validate
}

func NewTripHandler(tripService *services.TripService, dispatchService *services.DispatchService) *TripHandler {
	return &TripHandler{
		tripService:     tripService,
		dispatchService: dispatchService,
		validator:       validator.New(),
	}
}

// GetTrips retrieves all trips, optionally filtered
func (h *TripHandler) GetTrips(c *gin.Context) {
	var trips interface{}
	var err error

	switch {
	case c.Query("status") != "":
		trips, err = h.tripService.GetTripsByStatus(c.Query("status"))
	case c.Query("dispatchStatus") != "":
		trips, err = h.tripService.GetTripsByDispatchStatus(c.Query("dispatchStatus"))
	case c.Query("chauffeurId") != "":
		trips, err = h.tripService.GetTripsByChauffeur(c.Query("chauffeurId"))
	default:
		trips, err = h.tripService.GetAllTrips()
	}

	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve trips", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trips retrieved successfully", trips)
}

// GetTrip retrieves a specific trip by ID
func (h *TripHandler) GetTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Trip ID is required", nil)
		return
	}

	trip, err := h.tripService.GetTripByID(tripID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Trip not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip retrieved successfully", trip)
}

// CreateTrip books a new trip
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req services.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	trip, err := h.tripService.CreateTrip(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create trip", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Trip created successfully", trip)
}

// UpdateTrip updates an existing trip
func (h *TripHandler) UpdateTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Trip ID is required", nil)
		return
	}

	var req services.UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	trip, err := h.tripService.UpdateTrip(tripID, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTripNotFound):
			utils.ErrorResponse(c, http.StatusNotFound, "Trip not found", err)
		case errors.Is(err, services.ErrTripAlreadyFinal):
			utils.ErrorResponse(c, http.StatusConflict, "Trip has already reached a final status", err)
		default:
			utils.ErrorResponse(c, http.StatusBadRequest, "Failed to update trip", err)
		}
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip updated successfully", trip)
}

// DeleteTrip deletes a trip
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Trip ID is required", nil)
		return
	}

	if err := h.tripService.DeleteTrip(tripID); err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Trip not found", err)
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to delete trip", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip deleted successfully", nil)
}

// DispatchTrip offers a trip to a chauffeur and vehicle
func (h *TripHandler) DispatchTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Trip ID is required", nil)
		return
	}

	var req services.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	trip, err := h.dispatchService.Dispatch(tripID, &req)
	if err != nil {
		h.dispatchError(c, err, "Failed to dispatch trip")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip dispatched successfully", trip)
}

// AcceptTrip records the chauffeur's acceptance of a pending offer
func (h *TripHandler) AcceptTrip(c *gin.Context) {
	trip, err := h.dispatchService.AcceptOffer(c.Param("id"))
	if err != nil {
		h.dispatchError(c, err, "Failed to accept trip")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip accepted successfully", trip)
}

type rejectTripRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RejectTrip records the chauffeur's rejection of a pending offer
func (h *TripHandler) RejectTrip(c *gin.Context) {
	var req rejectTripRequest
	// The body is optional; rejection without a reason uses a default.
	c.ShouldBindJSON(&req)

	trip, err := h.dispatchService.RejectOffer(c.Param("id"), req.Reason)
	if err != nil {
		h.dispatchError(c, err, "Failed to reject trip")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip rejected", trip)
}

func (h *TripHandler) dispatchError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrTripNotFound),
		errors.Is(err, repository.ErrChauffeurNotFound),
		errors.Is(err, repository.ErrVehicleNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, message, err)
	case errors.Is(err, services.ErrTripNotDispatchable),
		errors.Is(err, services.ErrNoPendingOffer):
		utils.ErrorResponse(c, http.StatusConflict, message, err)
	default:
		utils.ErrorResponse(c, http.StatusBadRequest, message, err)
	}
}
