// internal/handlers/compliance.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/bizcore/bizcore-backend/internal/i18n"
	"github.com/bizcore/bizcore-backend/internal/services"
	"github.com/bizcore/bizcore-backend/internal/utils"
)

type ComplianceHandler struct {
	complianceService *services.ComplianceService
	storageService    *services.StorageService
}

func NewComplianceHandler(complianceService *services.ComplianceService, storageService *services.StorageService) *ComplianceHandler {
	return &ComplianceHandler{
		complianceService: complianceService,
		storageService:    storageService,
	}
}

// GET /compliance/forms
func (h *ComplianceHandler) ListForms(c *gin.Context) {
	entityType := c.Query("entity_type")

	var forms interface{}
	var err error
	if entityType != "" {
		forms, err = h.complianceService.FormsForEntityType(entityType)
	} else {
		forms, err = h.complianceService.ListForms(c.Query("agency"))
	}
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"forms": forms})
}

// GET /compliance/filings
func (h *ComplianceHandler) GetFilings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	filings, total, err := h.complianceService.GetUserFilings(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(filings, total, params))
}

// POST /compliance/filings/:id/file
func (h *ComplianceHandler) MarkFiled(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	filingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.MarkFiledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	filing, err := h.complianceService.MarkFiled(userID, filingID, &req)
	if err != nil {
		if errors.Is(err, services.ErrFilingNotFound) {
			utils.NotFoundResponse(c, "compliance")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyComplianceFilingSaved),
		"filing":  filing,
	})
}

// POST /compliance/filings/:id/evidence
func (h *ComplianceHandler) UploadEvidence(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	filingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "file is required", err.Error())
		return
	}
	defer file.Close()

	if err := h.storageService.ValidateDocument(file); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	options := h.storageService.GetDefaultUploadOptions("evidence")
	options.KeyPrefix = filingID.String()
	result, err := h.storageService.UploadFile(file, header, options)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	filing, err := h.complianceService.MarkFiled(userID, filingID, &services.MarkFiledRequest{
		EvidenceRef: result.Key,
	})
	if err != nil {
		if errors.Is(err, services.ErrFilingNotFound) {
			utils.NotFoundResponse(c, "compliance")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyComplianceFilingSaved),
		"filing":  filing,
		"upload":  result,
	})
}
