// internal/models/token.go
package models

import (
	"github.com/google/uuid"
)

// TokenWallet holds a user's AI-tool credit balance.
type TokenWallet struct {
	BaseModel
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	Balance int64     `json:"balance" gorm:"not null;default:0"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TokenTransaction is one ledger entry against a wallet. The ledger is
// append-only; the wallet balance is the running total.
type TokenTransaction struct {
	BaseModel
	WalletID     uuid.UUID      `json:"wallet_id" gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	EntryType    TokenEntryType `json:"entry_type" gorm:"type:varchar(10);not null"`
	Amount       int64          `json:"amount" gorm:"not null"`
	BalanceAfter int64          `json:"balance_after" gorm:"not null"`
	Reason       string         `json:"reason" gorm:"size:100;not null;index"`
	Reference    string         `json:"reference,omitempty" gorm:"size:255"`
	GrantedBy    *uuid.UUID     `json:"granted_by,omitempty" gorm:"type:uuid"`

	// Relationships
	Wallet TokenWallet `json:"wallet,omitempty" gorm:"foreignKey:WalletID"`
}

// BusinessPlan is a generated AI business-planning document, paid for in
// tokens.
type BusinessPlan struct {
	BaseModel
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Title        string    `json:"title" gorm:"size:255;not null"`
	BusinessIdea string    `json:"business_idea" gorm:"type:text;not null"`
	Industry     string    `json:"industry" gorm:"size:100"`
	Content      string    `json:"content" gorm:"type:text"`
	TokensSpent  int64     `json:"tokens_spent" gorm:"not null"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
