// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"gorm.io/gorm"

	"github.com/bizcore/bizcore-backend/internal/config"
	"github.com/bizcore/bizcore-backend/internal/models"
	"github.com/bizcore/bizcore-backend/internal/utils"
	"github.com/bizcore/bizcore-backend/internal/workflow"
)

type PaymentService struct {
	db     *gorm.DB
	config *config.Config
	tokens *TokenService
}

type TopupRequest struct {
	Tokens        int64  `json:"tokens" validate:"required,min=1,max=10000"`
	PaymentMethod string `json:"payment_method" validate:"required"`
}

type PaymentIntentResponse struct {
	ClientSecret  string    `json:"client_secret"`
	PaymentID     string    `json:"payment_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
	TransactionID   uuid.UUID `json:"transaction_id" validate:"required"`
}

type RefundRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" validate:"required"`
	Amount        float64   `json:"amount,omitempty"`
	Reason        string    `json:"reason" validate:"required"`
}

func NewPaymentService(db *gorm.DB, config *config.Config, tokens *TokenService) *PaymentService {
	// Initialize Stripe
	stripe.Key = config.Payment.StripeSecretKey

	return &PaymentService{
		db:     db,
		config: config,
		tokens: tokens,
	}
}

// CreateTopupIntent opens a token top-up purchase: a pending transaction
// plus a client-confirmable payment intent.
func (s *PaymentService) CreateTopupIntent(userID uuid.UUID, req *TopupRequest) (*PaymentIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	amount := float64(req.Tokens) * s.config.Tokens.TopupUnitPrice

	transaction := &models.Transaction{
		TransactionType: models.TransactionTypeTokenTopup,
		UserID:          userID,
		Amount:          amount,
		Currency:        "NGN",
		PaymentMethod:   req.PaymentMethod,
		Status:          models.TransactionStatusPending,
		Metadata:        models.JSONB{"tokens": req.Tokens},
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toSubunits(amount)),
		Currency: stripe.String(s.config.Payment.Currency),
	}
	params.AddMetadata("user_id", userID.String())
	params.AddMetadata("transaction_id", transaction.ID.String())
	params.AddMetadata("purpose", "token_topup")

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret:  pi.ClientSecret,
		PaymentID:     pi.ID,
		TransactionID: transaction.ID,
		Amount:        amount,
		Status:        string(pi.Status),
	}, nil
}

// ConfirmTopup settles a top-up purchase after the client confirms the
// intent, crediting the purchased tokens on success.
func (s *PaymentService) ConfirmTopup(req *ConfirmPaymentRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Get payment intent from Stripe
	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return fmt.Errorf("failed to get payment intent: %w", err)
	}

	// Find transaction
	var transaction models.Transaction
	if err := s.db.First(&transaction, req.TransactionID).Error; err != nil {
		return fmt.Errorf("transaction not found: %w", err)
	}
	if transaction.Status == models.TransactionStatusCompleted {
		// Already settled, keep confirmation idempotent
		return nil
	}

	// Update transaction based on payment status
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		now := time.Now()
		transaction.Status = models.TransactionStatusCompleted
		transaction.ProcessedAt = &now
		transaction.PaymentReference = pi.ID

		tokens := tokensFromMetadata(transaction.Metadata)
		if tokens > 0 {
			if err := s.tokens.Credit(transaction.UserID, tokens, "token_topup", pi.ID, nil); err != nil {
				return fmt.Errorf("failed to credit tokens: %w", err)
			}
		}

	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation:
		transaction.Status = models.TransactionStatusPending

	default:
		transaction.Status = models.TransactionStatusFailed
	}

	if err := s.db.Save(&transaction).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	return nil
}

func (s *PaymentService) ProcessRefund(req *RefundRequest, adminID *uuid.UUID) error {
	// Find transaction
	var transaction models.Transaction
	if err := s.db.First(&transaction, req.TransactionID).Error; err != nil {
		return fmt.Errorf("transaction not found: %w", err)
	}

	if transaction.Status != models.TransactionStatusCompleted {
		return errors.New("can only refund completed transactions")
	}

	// Calculate refund amount
	refundAmount := req.Amount
	if refundAmount <= 0 || refundAmount > transaction.Amount {
		refundAmount = transaction.Amount
	}

	// Process refund through Stripe if we have a payment reference
	if transaction.PaymentReference != "" {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(transaction.PaymentReference),
			Amount:        stripe.Int64(toSubunits(refundAmount)),
			Reason:        stripe.String("requested_by_customer"),
		}

		_, err := refund.New(params)
		if err != nil {
			return fmt.Errorf("failed to process refund: %w", err)
		}
	}

	// A refunded top-up claws the tokens back
	if transaction.TransactionType == models.TransactionTypeTokenTopup {
		tokens := tokensFromMetadata(transaction.Metadata)
		if tokens > 0 {
			if err := s.tokens.Debit(transaction.UserID, tokens, "topup_refund", transaction.PaymentReference); err != nil && !errors.Is(err, ErrInsufficientBalance) {
				return fmt.Errorf("failed to reverse token credit: %w", err)
			}
		}
	}

	// Update transaction
	now := time.Now()
	transaction.Status = models.TransactionStatusRefunded
	transaction.RefundedAt = &now
	transaction.RefundReason = req.Reason

	if err := s.db.Save(&transaction).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	return nil
}

func (s *PaymentService) GetPaymentHistory(userID uuid.UUID, params utils.PaginationParams) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Preload("Application")

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	// Apply sorting and pagination
	allowedSortFields := []string{"created_at", "amount", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	// Execute query
	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return transactions, total, nil
}

// FilingInitiator returns a payment collaborator for one submission
// attempt, bound to the payer's saved payment method.
func (s *PaymentService) FilingInitiator(userID, applicationID uuid.UUID, paymentMethod string) workflow.PaymentInitiator {
	return &filingFeeInitiator{
		service:       s,
		userID:        userID,
		applicationID: applicationID,
		paymentMethod: paymentMethod,
	}
}

type filingFeeInitiator struct {
	service       *PaymentService
	userID        uuid.UUID
	applicationID uuid.UUID
	paymentMethod string
}

// Initiate charges the filing fee synchronously with an off-session
// confirm. A context error is surfaced as-is so the caller can
// distinguish a gateway timeout from a decline.
func (f *filingFeeInitiator) Initiate(ctx context.Context, req workflow.PaymentRequest) (workflow.PaymentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toSubunits(req.Amount)),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(f.paymentMethod),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}
	params.Context = ctx
	params.AddMetadata("user_id", f.userID.String())
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return workflow.PaymentResult{}, ctxErr
		}
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return workflow.PaymentResult{Success: false, Reason: stripeErr.Msg}, nil
		}
		return workflow.PaymentResult{}, err
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return workflow.PaymentResult{
			Success: false,
			Reason:  fmt.Sprintf("payment not completed (status %s)", pi.Status),
		}, nil
	}

	// Record the settled fee; the application row keeps the reference too.
	now := time.Now()
	transaction := &models.Transaction{
		TransactionType:  models.TransactionTypeFilingFee,
		UserID:           f.userID,
		ApplicationID:    &f.applicationID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		PaymentMethod:    f.paymentMethod,
		PaymentReference: pi.ID,
		Status:           models.TransactionStatusCompleted,
		ProcessedAt:      &now,
		Metadata:         models.JSONB{"entity_type": req.Metadata["entity_type"]},
	}
	if err := f.service.db.Create(transaction).Error; err != nil {
		return workflow.PaymentResult{}, fmt.Errorf("failed to record filing fee: %w", err)
	}

	return workflow.PaymentResult{Success: true, Reference: pi.ID}, nil
}

func toSubunits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func tokensFromMetadata(metadata models.JSONB) int64 {
	switch v := metadata["tokens"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}
