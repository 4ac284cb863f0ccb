// internal/services/compliance_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bizcore/bizcore-backend/internal/config"
	"github.com/bizcore/bizcore-backend/internal/models"
	"github.com/bizcore/bizcore-backend/internal/utils"
)

var ErrFilingNotFound = errors.New("compliance filing not found")

// ComplianceService manages the statutory-filings library and each user's
// filing schedule after their business is registered.
type ComplianceService struct {
	db            *gorm.DB
	cfg           *config.Config
	notifications *NotificationService
}

type MarkFiledRequest struct {
	EvidenceRef string `json:"evidence_ref,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

func NewComplianceService(db *gorm.DB, cfg *config.Config, notifications *NotificationService) *ComplianceService {
	return &ComplianceService{
		db:            db,
		cfg:           cfg,
		notifications: notifications,
	}
}

// ListForms returns the filings library, optionally filtered by agency.
func (s *ComplianceService) ListForms(agency string) ([]models.ComplianceForm, error) {
	query := s.db.Model(&models.ComplianceForm{}).Order("agency, code")
	if agency != "" {
		query = query.Where("agency = ?", agency)
	}

	var forms []models.ComplianceForm
	if err := query.Find(&forms).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch compliance forms: %w", err)
	}
	return forms, nil
}

// FormsForEntityType filters the library down to what one entity type owes.
func (s *ComplianceService) FormsForEntityType(entityType string) ([]models.ComplianceForm, error) {
	forms, err := s.ListForms("")
	if err != nil {
		return nil, err
	}

	out := make([]models.ComplianceForm, 0, len(forms))
	for _, form := range forms {
		if formApplies(form, entityType) {
			out = append(out, form)
		}
	}
	return out, nil
}

// ScheduleForApplication opens the filing schedule for a freshly submitted
// registration. One-off registrations fall due after 30 days; recurring
// filings after their first cadence period.
func (s *ComplianceService) ScheduleForApplication(application *models.BusinessApplication) error {
	forms, err := s.FormsForEntityType(application.EntityType)
	if err != nil {
		return err
	}

	base := time.Now()
	if application.SubmittedAt != nil {
		base = *application.SubmittedAt
	}

	for _, form := range forms {
		var count int64
		s.db.Model(&models.ComplianceFiling{}).
			Where("user_id = ? AND form_id = ? AND application_id = ?", application.OwnerID, form.ID, application.ID).
			Count(&count)
		if count > 0 {
			continue
		}

		due := base.AddDate(0, form.CadenceMonths, 0)
		if form.CadenceMonths == 0 {
			due = base.AddDate(0, 0, 30)
		}

		filing := &models.ComplianceFiling{
			UserID:        application.OwnerID,
			FormID:        form.ID,
			ApplicationID: &application.ID,
			Status:        models.FilingStatusDue,
			DueDate:       &due,
		}
		if err := s.db.Create(filing).Error; err != nil {
			return fmt.Errorf("failed to create filing for %s: %w", form.Code, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"application_id": application.ID,
		"entity_type":    application.EntityType,
		"forms":          len(forms),
	}).Info("Compliance schedule opened")

	return nil
}

func (s *ComplianceService) GetUserFilings(userID uuid.UUID, params utils.PaginationParams) ([]models.ComplianceFiling, int64, error) {
	query := s.db.Model(&models.ComplianceFiling{}).
		Where("user_id = ?", userID).
		Preload("Form")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count filings: %w", err)
	}

	allowedSortFields := []string{"created_at", "due_date", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var filings []models.ComplianceFiling
	if err := query.Find(&filings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch filings: %w", err)
	}

	return filings, total, nil
}

// MarkFiled records completion of a filing, optionally with an evidence
// document reference.
func (s *ComplianceService) MarkFiled(userID, filingID uuid.UUID, req *MarkFiledRequest) (*models.ComplianceFiling, error) {
	var filing models.ComplianceFiling
	if err := s.db.Preload("Form").
		Where("id = ? AND user_id = ?", filingID, userID).First(&filing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFilingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if filing.Status == models.FilingStatusCompleted {
		return &filing, nil
	}

	now := time.Now()
	filing.Status = models.FilingStatusCompleted
	filing.FiledAt = &now
	filing.EvidenceRef = req.EvidenceRef
	filing.Notes = req.Notes

	if err := s.db.Save(&filing).Error; err != nil {
		return nil, fmt.Errorf("failed to update filing: %w", err)
	}

	// Recurring filings roll over to the next period
	if filing.Form.CadenceMonths > 0 {
		nextDue := now.AddDate(0, filing.Form.CadenceMonths, 0)
		next := &models.ComplianceFiling{
			UserID:        filing.UserID,
			FormID:        filing.FormID,
			ApplicationID: filing.ApplicationID,
			Status:        models.FilingStatusDue,
			DueDate:       &nextDue,
		}
		if err := s.db.Create(next).Error; err != nil {
			logrus.WithError(err).WithField("form", filing.Form.Code).
				Error("Failed to roll filing to next period")
		}
	}

	return &filing, nil
}

// SweepOverdue flips past-due filings to overdue and sends reminders.
// Intended to run on a daily ticker.
func (s *ComplianceService) SweepOverdue() error {
	var filings []models.ComplianceFiling
	if err := s.db.Preload("Form").Preload("User").
		Where("status = ? AND due_date < ?", models.FilingStatusDue, time.Now()).
		Find(&filings).Error; err != nil {
		return fmt.Errorf("failed to fetch overdue filings: %w", err)
	}

	for i := range filings {
		filings[i].Status = models.FilingStatusOverdue
		if err := s.db.Save(&filings[i]).Error; err != nil {
			logrus.WithError(err).WithField("filing_id", filings[i].ID).
				Error("Failed to mark filing overdue")
			continue
		}
		if err := s.notifications.SendFilingReminder(&filings[i].User, &filings[i]); err != nil {
			logrus.WithError(err).WithField("filing_id", filings[i].ID).
				Warn("Failed to send filing reminder")
		}
	}

	if len(filings) > 0 {
		logrus.WithField("count", len(filings)).Info("Overdue compliance sweep completed")
	}
	return nil
}

func formApplies(form models.ComplianceForm, entityType string) bool {
	for _, t := range form.EntityTypes {
		if t == entityType {
			return true
		}
	}
	return false
}
