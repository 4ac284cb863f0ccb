// internal/models/compliance.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ComplianceForm is one entry in the statutory-filings library (CAC annual
// returns, FIRS registrations, SCUML certification and so on).
type ComplianceForm struct {
	BaseModel
	Code          string         `json:"code" gorm:"size:30;uniqueIndex;not null"`
	Title         string         `json:"title" gorm:"size:255;not null"`
	Agency        string         `json:"agency" gorm:"size:50;not null;index"`
	Description   string         `json:"description" gorm:"type:text"`
	EntityTypes   pq.StringArray `json:"entity_types" gorm:"type:text[]"`
	CadenceMonths int            `json:"cadence_months" gorm:"not null;default:12"`
	TemplateURL   string         `json:"template_url" gorm:"size:500"`
}

// ComplianceFiling tracks one user's progress against one form.
type ComplianceFiling struct {
	BaseModel
	UserID        uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index"`
	FormID        uuid.UUID    `json:"form_id" gorm:"type:uuid;not null;index"`
	ApplicationID *uuid.UUID   `json:"application_id" gorm:"type:uuid;index"`
	Status        FilingStatus `json:"status" gorm:"type:varchar(20);default:'due';index"`
	DueDate       *time.Time   `json:"due_date"`
	FiledAt       *time.Time   `json:"filed_at"`
	EvidenceRef   string       `json:"evidence_ref,omitempty" gorm:"size:500"`
	Notes         string       `json:"notes,omitempty" gorm:"type:text"`

	// Relationships
	User User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Form ComplianceForm `json:"form,omitempty" gorm:"foreignKey:FormID"`
}
