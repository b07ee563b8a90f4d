package handlers

import (
	"fleet-console/internal/services"
	"fleet-console/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PolicyHandler struct {
	vehicleService *services.VehicleService
}

func NewPolicyHandler(vehicleService *services.VehicleService) *PolicyHandler {
	return &PolicyHandler{vehicleService: vehicleService}
}

// GetEmployeePolicy evaluates the vehicle usage policy for an employee
func (h *PolicyHandler) GetEmployeePolicy(c *gin.Context) {
	employeeID := c.Param("employeeId")
	if employeeID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Employee ID is required", nil)
		return
	}

	result, err := h.vehicleService.EvaluatePolicy(employeeID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to evaluate policy", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Policy evaluated successfully", result)
}

// GetAllPolicies evaluates the usage policy for every employee on the ledger
func (h *PolicyHandler) GetAllPolicies(c *gin.Context) {
	results, err := h.vehicleService.EvaluateAllPolicies()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to evaluate policies", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Policies evaluated successfully", results)
}
