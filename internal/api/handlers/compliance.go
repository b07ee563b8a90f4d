package handlers

import (
	"fleet-console/internal/models"
	"fleet-console/internal/services"
	"fleet-console/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ComplianceHandler struct {
	complianceService *services.ComplianceService
}

func NewComplianceHandler(complianceService *services.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{
		complianceService: complianceService,
	}
}

// GetEmailLog returns the recorded compliance emails, optionally filtered by
// vehicle via the vehicleId query parameter
func (h *ComplianceHandler) GetEmailLog(c *gin.Context) {
	var emails []*models.ComplianceEmail
	var err error

	if vehicleID := c.Query("vehicleId"); vehicleID != "" {
		emails, err = h.complianceService.GetEmailLogForVehicle(vehicleID)
	} else {
		emails, err = h.complianceService.GetEmailLog()
	}

	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve email log", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Email log retrieved successfully", emails)
}
