// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessApplication is the persisted snapshot of one CAC registration
// wizard run. Stage data and attachment state are stored as JSONB bags; the
// in-memory workflow engine owns their shape.
type BusinessApplication struct {
	BaseModel
	OwnerID       uuid.UUID         `json:"owner_id" gorm:"type:uuid;not null;index"`
	EntityType    string            `json:"entity_type" gorm:"type:varchar(30);not null;index"`
	Status        ApplicationStatus `json:"status" gorm:"type:varchar(20);default:'in_progress';index"`
	CurrentStage  string            `json:"current_stage" gorm:"size:50"`
	StageData     JSONB             `json:"stage_data" gorm:"type:jsonb"`
	Attachments   JSONB             `json:"attachments" gorm:"type:jsonb"`
	SubmissionRef string            `json:"submission_ref,omitempty" gorm:"size:40;index"`
	PaymentRef    string            `json:"payment_ref,omitempty" gorm:"size:255"`
	FeeAmount     float64           `json:"fee_amount" gorm:"type:decimal(12,2)"`
	SubmittedAt   *time.Time        `json:"submitted_at"`

	// Relationships
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}
