// internal/handlers/planning.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/bizcore/bizcore-backend/internal/i18n"
	"github.com/bizcore/bizcore-backend/internal/services"
	"github.com/bizcore/bizcore-backend/internal/utils"
)

type PlanningHandler struct {
	planningService *services.PlanningService
}

func NewPlanningHandler(planningService *services.PlanningService) *PlanningHandler {
	return &PlanningHandler{
		planningService: planningService,
	}
}

// POST /plans
func (h *PlanningHandler) GeneratePlan(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	plan, err := h.planningService.GeneratePlan(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			writeTokenError(c, err)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPlanGenerated),
		"plan":    plan,
	})
}

// GET /plans
func (h *PlanningHandler) ListPlans(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	plans, total, err := h.planningService.ListPlans(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(plans, total, params))
}

// GET /plans/:id
func (h *PlanningHandler) GetPlan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	plan, err := h.planningService.GetPlan(userID, planID)
	if err != nil {
		if errors.Is(err, services.ErrPlanNotFound) {
			utils.NotFoundResponse(c, "plan")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"plan": plan})
}

// DELETE /plans/:id
func (h *PlanningHandler) DeletePlan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.planningService.DeletePlan(userID, planID); err != nil {
		if errors.Is(err, services.ErrPlanNotFound) {
			utils.NotFoundResponse(c, "plan")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}
