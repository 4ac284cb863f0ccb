// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeEntrepreneur UserType = "entrepreneur"
	UserTypeAgent        UserType = "agent"
	UserTypeAdmin        UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type ApplicationStatus string

const (
	ApplicationStatusInProgress      ApplicationStatus = "in_progress"
	ApplicationStatusAwaitingPayment ApplicationStatus = "awaiting_payment"
	ApplicationStatusSubmitted       ApplicationStatus = "submitted"
	ApplicationStatusAbandoned       ApplicationStatus = "abandoned"
)

type TransactionType string

const (
	TransactionTypeFilingFee    TransactionType = "filing_fee"
	TransactionTypeTokenTopup   TransactionType = "token_topup"
	TransactionTypeSubscription TransactionType = "subscription"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

type TokenEntryType string

const (
	TokenEntryCredit TokenEntryType = "credit"
	TokenEntryDebit  TokenEntryType = "debit"
)

type FilingStatus string

const (
	FilingStatusDue       FilingStatus = "due"
	FilingStatusInReview  FilingStatus = "in_review"
	FilingStatusCompleted FilingStatus = "completed"
	FilingStatusOverdue   FilingStatus = "overdue"
)
