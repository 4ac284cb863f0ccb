// internal/handlers/admin.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bizcore/bizcore-backend/internal/i18n"
	"github.com/bizcore/bizcore-backend/internal/models"
	"github.com/bizcore/bizcore-backend/internal/services"
	"github.com/bizcore/bizcore-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	filter := services.AdminUserFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if userType := c.Query("user_type"); userType != "" {
		ut := models.UserType(userType)
		filter.UserType = &ut
	}
	if status := c.Query("status"); status != "" {
		st := models.UserStatus(status)
		filter.Status = &st
	}

	users, total, err := h.adminService.GetUsers(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, filter.PaginationParams))
}

// PUT /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.UserStatus `json:"status" validate:"required"`
		Reason string            `json:"reason,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if err := h.adminService.UpdateUserStatus(userID, req.Status, adminID, req.Reason); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminUserUpdated),
	})
}

// GET /admin/applications
func (h *AdminHandler) GetApplications(c *gin.Context) {
	filter := services.AdminApplicationFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if entityType := c.Query("entity_type"); entityType != "" {
		filter.EntityType = &entityType
	}
	if status := c.Query("status"); status != "" {
		st := models.ApplicationStatus(status)
		filter.Status = &st
	}
	if ownerID := c.Query("owner_id"); ownerID != "" {
		if id, err := uuid.Parse(ownerID); err == nil {
			filter.OwnerID = &id
		}
	}

	applications, total, err := h.adminService.GetApplications(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(applications, total, filter.PaginationParams))
}

// GET /admin/transactions
func (h *AdminHandler) GetTransactions(c *gin.Context) {
	filter := services.AdminTransactionFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if txType := c.Query("transaction_type"); txType != "" {
		tt := models.TransactionType(txType)
		filter.TransactionType = &tt
	}
	if status := c.Query("status"); status != "" {
		st := models.TransactionStatus(status)
		filter.Status = &st
	}

	transactions, total, err := h.adminService.GetTransactions(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(transactions, total, filter.PaginationParams))
}

// POST /admin/transactions/:id/refund
func (h *AdminHandler) ProcessRefund(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	transactionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "reason is required", err.Error())
		return
	}

	if err := h.adminService.ProcessRefund(transactionID, adminID, req.Reason); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"refunded": true})
}

// POST /admin/tokens/grant
func (h *AdminHandler) GrantTokens(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.TokenGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if err := h.adminService.GrantTokens(adminID, &req); err != nil {
		writeTokenError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyTokenCredited),
	})
}

// POST /admin/broadcast
func (h *AdminHandler) BroadcastEmail(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	recipients, err := h.adminService.BroadcastEmail(adminID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"recipients": recipients})
}

// GET /admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.adminService.GetSettings()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, settings)
}

// PUT /admin/settings
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Category string      `json:"category" validate:"required"`
		Key      string      `json:"key" validate:"required"`
		Value    interface{} `json:"value" validate:"required"`
		DataType string      `json:"data_type" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid setting payload", err.Error())
		return
	}

	if err := h.adminService.UpdateSetting(req.Category, req.Key, req.Value, req.DataType, adminID); err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"updated": true})
}

// GET /admin/analytics
func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, -1, 0)

	if s := c.Query("start_date"); s != "" {
		if parsed, err := time.Parse("2006-01-02", s); err == nil {
			startDate = parsed
		}
	}
	if e := c.Query("end_date"); e != "" {
		if parsed, err := time.Parse("2006-01-02", e); err == nil {
			endDate = parsed
		}
	}

	metrics := c.QueryArray("metrics")
	if len(metrics) == 0 {
		metrics = []string{"user_registrations", "applications_started", "submissions", "plans_generated", "revenue"}
	}

	analytics, err := h.adminService.GetAnalytics(startDate, endDate, metrics)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, analytics)
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	logs, total, err := h.adminService.GetAuditLogs(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}
