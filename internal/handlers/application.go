// internal/handlers/application.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bizcore/bizcore-backend/internal/i18n"
	"github.com/bizcore/bizcore-backend/internal/services"
	"github.com/bizcore/bizcore-backend/internal/utils"
	"github.com/bizcore/bizcore-backend/internal/workflow"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
	storageService     *services.StorageService
}

func NewApplicationHandler(applicationService *services.ApplicationService, storageService *services.StorageService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
		storageService:     storageService,
	}
}

// GET /applications/entity-types
func (h *ApplicationHandler) GetEntityTypes(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"entity_types": h.applicationService.EntityTypes(),
	})
}

// GET /applications/stages/:stage
func (h *ApplicationHandler) GetStageDefinition(c *gin.Context) {
	def, err := h.applicationService.StageDefinition(c.Param("stage"))
	if err != nil {
		utils.NotFoundResponse(c, "application")
		return
	}
	utils.SuccessResponse(c, gin.H{"stage": def})
}

// POST /applications
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	view, err := h.applicationService.CreateApplication(userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyApplicationCreated),
		"application": view,
	})
}

// GET /applications
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	applications, err := h.applicationService.ListApplications(userID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"applications": applications})
}

// GET /applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	view, err := h.applicationService.GetApplication(userID, appID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"application": view})
}

// PUT /applications/:id/stages/:stage
func (h *ApplicationHandler) SaveStage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.StageDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	view, err := h.applicationService.SaveStage(userID, appID, c.Param("stage"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyApplicationSaved),
		"application": view,
	})
}

// POST /applications/:id/advance
func (h *ApplicationHandler) Advance(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.applicationService.Advance(userID, appID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if !result.Valid {
		// A blocked advance is a normal wizard outcome, not an HTTP error
		utils.StageValidationResponse(c, result.CurrentStage, result.Errors)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":       i18n.T(lang, i18n.KeyApplicationAdvanced),
		"valid":         true,
		"state":         result.State,
		"current_stage": result.CurrentStage,
	})
}

// POST /applications/:id/retreat
func (h *ApplicationHandler) Retreat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.applicationService.Retreat(userID, appID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"state":         result.State,
		"current_stage": result.CurrentStage,
	})
}

// POST /applications/:id/jump/:stage
func (h *ApplicationHandler) JumpTo(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.applicationService.JumpTo(userID, appID, c.Param("stage"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"state":         result.State,
		"current_stage": result.CurrentStage,
	})
}

// POST /applications/:id/attachments/:name
func (h *ApplicationHandler) UploadAttachment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathUUID(c, "id")
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

	options := h.storageService.GetDefaultUploadOptions("documents")
	options.KeyPrefix = appID.String()
	result, err := h.storageService.UploadFile(file, header, options)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	view, err := h.applicationService.AttachDocument(userID, appID, c.Param("name"), result.Key)
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"upload":      result,
		"attachments": view.Attachments,
	})
}

// POST /applications/:id/submit
func (h *ApplicationHandler) Finalize(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	outcome, err := h.applicationService.Finalize(userID, appID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if !outcome.OK {
		// Retryable: declined payment, timeout, incomplete preconditions
		utils.SuccessResponse(c, gin.H{
			"submitted": false,
			"reason":    outcome.Reason,
		})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":        i18n.T(lang, i18n.KeyApplicationSubmitted),
		"submitted":      true,
		"submission_ref": outcome.SubmissionRef,
	})
}

// DELETE /applications/:id
func (h *ApplicationHandler) Abandon(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	appID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.applicationService.Abandon(userID, appID); err != nil {
		h.writeError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"abandoned": true})
}

// GET /track/:ref
func (h *ApplicationHandler) Track(c *gin.Context) {
	info, err := h.applicationService.TrackBySubmissionRef(c.Param("ref"))
	if err != nil {
		utils.NotFoundResponse(c, "application")
		return
	}
	utils.SuccessResponse(c, info)
}

func (h *ApplicationHandler) writeError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrApplicationNotFound):
		utils.NotFoundResponse(c, "application")
	case errors.Is(err, services.ErrApplicationLocked):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyApplicationLocked))
	case errors.Is(err, workflow.ErrCannotSkipAhead),
		errors.Is(err, workflow.ErrCannotRetreat),
		errors.Is(err, workflow.ErrNotStarted),
		errors.Is(err, workflow.ErrUnknownStage):
		utils.BadRequestResponse(c, err.Error(), nil)
	case workflow.IsConsistencyError(err):
		logrus.WithError(err).Error("Application workflow consistency violation")
		utils.InternalErrorResponse(c, "")
	default:
		logrus.WithError(err).Error("Application operation failed")
		utils.InternalErrorResponse(c, "")
	}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
