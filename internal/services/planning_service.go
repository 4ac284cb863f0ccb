// internal/services/planning_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"gorm.io/gorm"

	"github.com/bizcore/bizcore-backend/internal/config"
	"github.com/bizcore/bizcore-backend/internal/models"
	"github.com/bizcore/bizcore-backend/internal/utils"
)

var ErrPlanNotFound = errors.New("business plan not found")

// PlanningService generates AI business-planning documents. Each
// generation debits the user's token wallet up front; a failed generation
// refunds the debit.
type PlanningService struct {
	db     *gorm.DB
	cfg    *config.Config
	client *openai.Client
	tokens *TokenService
}

type GeneratePlanRequest struct {
	Title        string `json:"title" validate:"required,max=255"`
	BusinessIdea string `json:"business_idea" validate:"required,min=20"`
	Industry     string `json:"industry,omitempty" validate:"omitempty,max=100"`
	TargetMarket string `json:"target_market,omitempty" validate:"omitempty,max=255"`
}

const planningSystemPrompt = `You are a business consultant specializing in Nigerian small and medium enterprises.
Write a practical business plan for the idea the user describes. Structure it with these sections:
Executive Summary, Market Analysis, Products and Services, Marketing Strategy, Operations Plan,
Regulatory Requirements (covering CAC registration, FIRS tax obligations and any sector permits),
and Financial Projections. Assume amounts in Nigerian naira. Be concrete and concise.`

func NewPlanningService(db *gorm.DB, cfg *config.Config, tokens *TokenService) *PlanningService {
	var client *openai.Client
	if cfg.AI.OpenAIKey != "" {
		client = openai.NewClient(cfg.AI.OpenAIKey)
	}

	return &PlanningService{
		db:     db,
		cfg:    cfg,
		client: client,
		tokens: tokens,
	}
}

func (s *PlanningService) GeneratePlan(ctx context.Context, userID uuid.UUID, req *GeneratePlanRequest) (*models.BusinessPlan, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if s.client == nil {
		return nil, errors.New("AI planning is not configured")
	}

	cost := s.cfg.Tokens.PlanCost

	// Debit first so a user cannot race two generations past their balance
	if err := s.tokens.Debit(userID, cost, "plan_generation", ""); err != nil {
		return nil, err
	}

	content, err := s.complete(ctx, req)
	if err != nil {
		// Generation failed, give the tokens back
		if refundErr := s.tokens.Credit(userID, cost, "plan_generation_refund", "", nil); refundErr != nil {
			return nil, fmt.Errorf("generation failed (%v) and refund failed: %w", err, refundErr)
		}
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	plan := &models.BusinessPlan{
		UserID:       userID,
		Title:        req.Title,
		BusinessIdea: req.BusinessIdea,
		Industry:     req.Industry,
		Content:      content,
		TokensSpent:  cost,
	}
	if err := s.db.Create(plan).Error; err != nil {
		return nil, fmt.Errorf("failed to save business plan: %w", err)
	}

	return plan, nil
}

func (s *PlanningService) GetPlan(userID, planID uuid.UUID) (*models.BusinessPlan, error) {
	var plan models.BusinessPlan
	if err := s.db.Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &plan, nil
}

func (s *PlanningService) ListPlans(userID uuid.UUID, params utils.PaginationParams) ([]models.BusinessPlan, int64, error) {
	query := s.db.Model(&models.BusinessPlan{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count plans: %w", err)
	}

	allowedSortFields := []string{"created_at", "title"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var plans []models.BusinessPlan
	if err := query.Find(&plans).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch plans: %w", err)
	}

	return plans, total, nil
}

func (s *PlanningService) DeletePlan(userID, planID uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", planID, userID).Delete(&models.BusinessPlan{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (s *PlanningService) complete(ctx context.Context, req *GeneratePlanRequest) (string, error) {
	userPrompt := fmt.Sprintf("Business idea: %s", req.BusinessIdea)
	if req.Industry != "" {
		userPrompt += fmt.Sprintf("\nIndustry: %s", req.Industry)
	}
	if req.TargetMarket != "" {
		userPrompt += fmt.Sprintf("\nTarget market: %s", req.TargetMarket)
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.AI.Model,
		MaxTokens:   s.cfg.AI.MaxTokens,
		Temperature: float32(s.cfg.AI.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: planningSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}

	return resp.Choices[0].Message.Content, nil
}
