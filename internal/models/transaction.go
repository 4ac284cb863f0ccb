// internal/models/transaction.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Transaction struct {
	BaseModel
	TransactionType  TransactionType   `json:"transaction_type" gorm:"type:varchar(20);not null;index"`
	UserID           uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	ApplicationID    *uuid.UUID        `json:"application_id" gorm:"type:uuid;index"`
	Amount           float64           `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency         string            `json:"currency" gorm:"size:3;default:'NGN'"`
	PaymentMethod    string            `json:"payment_method" gorm:"size:50"`
	PaymentReference string            `json:"payment_reference" gorm:"size:255"`
	Status           TransactionStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Metadata         JSONB             `json:"metadata" gorm:"type:jsonb"`
	ProcessedAt      *time.Time        `json:"processed_at"`
	RefundedAt       *time.Time        `json:"refunded_at"`
	RefundReason     string            `json:"refund_reason,omitempty" gorm:"type:text"`

	// Relationships
	User        User                 `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Application *BusinessApplication `json:"application,omitempty" gorm:"foreignKey:ApplicationID"`
}
