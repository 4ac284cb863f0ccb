// internal/services/token_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bizcore/bizcore-backend/internal/config"
	"github.com/bizcore/bizcore-backend/internal/database"
	"github.com/bizcore/bizcore-backend/internal/models"
	"github.com/bizcore/bizcore-backend/internal/utils"
)

// ErrInsufficientBalance is returned when a debit would take a wallet
// below zero.
var ErrInsufficientBalance = errors.New("insufficient token balance")

// TokenService owns the AI-tool credit wallets. Every balance change goes
// through the ledger; the wallet row is the running total.
type TokenService struct {
	db  *gorm.DB
	cfg *config.Config
}

type TokenBalanceResponse struct {
	Balance int64 `json:"balance"`
}

func NewTokenService(db *gorm.DB, cfg *config.Config) *TokenService {
	return &TokenService{
		db:  db,
		cfg: cfg,
	}
}

// EnsureWallet creates a wallet for a new user and records the signup
// grant. Safe to call inside the registration transaction.
func (s *TokenService) EnsureWallet(tx *gorm.DB, userID uuid.UUID) (*models.TokenWallet, error) {
	var wallet models.TokenWallet
	err := tx.Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	wallet = models.TokenWallet{UserID: userID}
	if err := tx.Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if s.cfg.Tokens.SignupGrant > 0 {
		if err := s.applyEntry(tx, &wallet, models.TokenEntryCredit, s.cfg.Tokens.SignupGrant, "signup_grant", "", nil); err != nil {
			return nil, err
		}
	}

	return &wallet, nil
}

func (s *TokenService) GetBalance(userID uuid.UUID) (*TokenBalanceResponse, error) {
	var wallet models.TokenWallet
	if err := s.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &TokenBalanceResponse{Balance: 0}, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &TokenBalanceResponse{Balance: wallet.Balance}, nil
}

// Credit adds tokens to a user's wallet with a ledger entry. Used for
// top-up purchases and admin grants.
func (s *TokenService) Credit(userID uuid.UUID, amount int64, reason, reference string, grantedBy *uuid.UUID) error {
	if amount <= 0 {
		return errors.New("credit amount must be positive")
	}

	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		wallet, err := s.lockWallet(tx, userID)
		if err != nil {
			return err
		}
		return s.applyEntry(tx, wallet, models.TokenEntryCredit, amount, reason, reference, grantedBy)
	})
}

// Debit removes tokens from a user's wallet. Fails with
// ErrInsufficientBalance rather than going negative.
func (s *TokenService) Debit(userID uuid.UUID, amount int64, reason, reference string) error {
	if amount <= 0 {
		return errors.New("debit amount must be positive")
	}

	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		wallet, err := s.lockWallet(tx, userID)
		if err != nil {
			return err
		}
		if wallet.Balance < amount {
			return ErrInsufficientBalance
		}
		return s.applyEntry(tx, wallet, models.TokenEntryDebit, amount, reason, reference, nil)
	})
}

func (s *TokenService) GetLedger(userID uuid.UUID, params utils.PaginationParams) ([]models.TokenTransaction, int64, error) {
	query := s.db.Model(&models.TokenTransaction{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var entries []models.TokenTransaction
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch ledger entries: %w", err)
	}

	return entries, total, nil
}

func (s *TokenService) lockWallet(tx *gorm.DB, userID uuid.UUID) (*models.TokenWallet, error) {
	var wallet models.TokenWallet
	err := tx.Set("gorm:query_option", "FOR UPDATE").
		Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Wallet rows are created at registration; an existing user
			// without one gets a fresh empty wallet.
			wallet = models.TokenWallet{UserID: userID}
			if err := tx.Create(&wallet).Error; err != nil {
				return nil, fmt.Errorf("failed to create wallet: %w", err)
			}
			return &wallet, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &wallet, nil
}

func (s *TokenService) applyEntry(tx *gorm.DB, wallet *models.TokenWallet, entryType models.TokenEntryType, amount int64, reason, reference string, grantedBy *uuid.UUID) error {
	switch entryType {
	case models.TokenEntryCredit:
		wallet.Balance += amount
	case models.TokenEntryDebit:
		wallet.Balance -= amount
	}

	if err := tx.Save(wallet).Error; err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	entry := &models.TokenTransaction{
		WalletID:     wallet.ID,
		UserID:       wallet.UserID,
		EntryType:    entryType,
		Amount:       amount,
		BalanceAfter: wallet.Balance,
		Reason:       reason,
		Reference:    reference,
		GrantedBy:    grantedBy,
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	return nil
}
