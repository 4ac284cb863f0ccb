// internal/handlers/token.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/bizcore/bizcore-backend/internal/i18n"
	"github.com/bizcore/bizcore-backend/internal/services"
	"github.com/bizcore/bizcore-backend/internal/utils"
)

type TokenHandler struct {
	tokenService *services.TokenService
}

func NewTokenHandler(tokenService *services.TokenService) *TokenHandler {
	return &TokenHandler{
		tokenService: tokenService,
	}
}

// GET /tokens/balance
func (h *TokenHandler) GetBalance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	balance, err := h.tokenService.GetBalance(userID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, balance)
}

// GET /tokens/ledger
func (h *TokenHandler) GetLedger(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	entries, total, err := h.tokenService.GetLedger(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(entries, total, params))
}

func writeTokenError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)
	if errors.Is(err, services.ErrInsufficientBalance) {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyTokenInsufficient), nil)
		return
	}
	utils.InternalErrorResponse(c, err.Error())
}
