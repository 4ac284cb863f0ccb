// internal/services/application_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bizcore/bizcore-backend/internal/cache"
	"github.com/bizcore/bizcore-backend/internal/config"
	"github.com/bizcore/bizcore-backend/internal/models"
	"github.com/bizcore/bizcore-backend/internal/workflow"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrApplicationLocked   = errors.New("application has been submitted and is read-only")
)

// ApplicationService runs the registration wizard over the in-memory
// workflow engine, with Postgres as the durable store and Redis as the
// draft cache. All access to one application is serialized through a
// per-application lock so the single-session engine never races.
type ApplicationService struct {
	db            *gorm.DB
	cfg           *config.Config
	drafts        *cache.DraftCache
	payments      *PaymentService
	notifications *NotificationService
	compliance    *ComplianceService

	locks   map[uuid.UUID]*appLock
	locksMu sync.Mutex
}

// appLock serializes operations on one application. holders counts the
// goroutines holding or waiting on mu, so the map entry can be dropped as
// soon as the last one releases it.
type appLock struct {
	mu      sync.Mutex
	holders int
}

type CreateApplicationRequest struct {
	EntityType string `json:"entity_type" validate:"required"`
}

type StageDataRequest struct {
	Data map[string]interface{} `json:"data" validate:"required"`
}

type FinalizeRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// ApplicationView is the wizard-facing projection of one application.
type ApplicationView struct {
	ID            uuid.UUID                  `json:"id"`
	EntityType    string                     `json:"entity_type"`
	Status        models.ApplicationStatus   `json:"status"`
	State         string                     `json:"state"`
	CurrentStage  string                     `json:"current_stage,omitempty"`
	Stages        []workflow.StageID         `json:"stages"`
	StageData     map[string]interface{}     `json:"stage_data,omitempty"`
	Attachments   []workflow.AttachmentState `json:"attachments"`
	SubmissionRef string                     `json:"submission_ref,omitempty"`
	FeeAmount     float64                    `json:"fee_amount"`
	SubmittedAt   *time.Time                 `json:"submitted_at,omitempty"`
}

// AdvanceResult carries the sequencer outcome back to the wizard: either
// the validation errors that blocked the move, or the new position.
type AdvanceResult struct {
	Valid        bool     `json:"valid"`
	Errors       []string `json:"errors,omitempty"`
	State        string   `json:"state"`
	CurrentStage string   `json:"current_stage,omitempty"`
}

// draftSnapshot is the cache-serializable form of an application.
type draftSnapshot struct {
	EntityType    string                            `json:"entity_type"`
	Status        string                            `json:"status"`
	CurrentStage  string                            `json:"current_stage"`
	StageData     map[string]map[string]interface{} `json:"stage_data"`
	Attachments   []workflow.AttachmentState        `json:"attachments"`
	SubmissionRef string                            `json:"submission_ref,omitempty"`
}

func NewApplicationService(db *gorm.DB, cfg *config.Config, drafts *cache.DraftCache,
	payments *PaymentService, notifications *NotificationService, compliance *ComplianceService) *ApplicationService {
	return &ApplicationService{
		db:            db,
		cfg:           cfg,
		drafts:        drafts,
		payments:      payments,
		notifications: notifications,
		compliance:    compliance,
		locks:         make(map[uuid.UUID]*appLock),
	}
}

// EntityTypes lists the registrable entity types with their stage
// sequences, document requirements and filing fees.
func (s *ApplicationService) EntityTypes() []map[string]interface{} {
	types := []workflow.EntityType{
		workflow.EntityBusinessName,
		workflow.EntityPrivateLimited,
		workflow.EntityIncorporatedTrustees,
	}

	out := make([]map[string]interface{}, 0, len(types))
	for _, et := range types {
		fee, _ := workflow.FeeFor(et)
		out = append(out, map[string]interface{}{
			"entity_type":  string(et),
			"label":        entityLabel(et),
			"stages":       workflow.StagesFor(et),
			"attachments":  workflow.RequirementsFor(et),
			"filing_fee":   fee,
			"fee_currency": "NGN",
		})
	}
	return out
}

// StageDefinition exposes a stage's field layout so the frontend can
// render the form.
func (s *ApplicationService) StageDefinition(stageID string) (workflow.StageDef, error) {
	def, ok := workflow.Definition(workflow.StageID(stageID))
	if !ok {
		return workflow.StageDef{}, fmt.Errorf("unknown stage %q", stageID)
	}
	return def, nil
}

func (s *ApplicationService) CreateApplication(userID uuid.UUID, req *CreateApplicationRequest) (*ApplicationView, error) {
	entityType := workflow.EntityType(req.EntityType)
	if !entityType.Valid() {
		return nil, fmt.Errorf("unknown entity type %q", req.EntityType)
	}

	fee, err := workflow.FeeFor(entityType)
	if err != nil {
		return nil, err
	}

	record := &models.BusinessApplication{
		OwnerID:    userID,
		EntityType: req.EntityType,
		Status:     models.ApplicationStatusInProgress,
		StageData:  models.JSONB{},
		FeeAmount:  fee,
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	app, err := workflow.NewApplication(record.ID.String(), entityType)
	if err != nil {
		return nil, err
	}

	return s.view(record, app), nil
}

func (s *ApplicationService) GetApplication(userID, appID uuid.UUID) (*ApplicationView, error) {
	s.lock(appID)
	defer s.unlock(appID)

	record, app, err := s.load(userID, appID)
	if err != nil {
		return nil, err
	}
	return s.view(record, app), nil
}

func (s *ApplicationService) ListApplications(userID uuid.UUID) ([]models.BusinessApplication, error) {
	var records []models.BusinessApplication
	if err := s.db.Where("owner_id = ?", userID).
		Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch applications: %w", err)
	}
	return records, nil
}

// SaveStage stores a stage's collected values without validating them.
// Validation happens when the wizard tries to advance.
func (s *ApplicationService) SaveStage(userID, appID uuid.UUID, stageID string, req *StageDataRequest) (*ApplicationView, error) {
	s.lock(appID)
	defer s.unlock(appID)

	record, app, err := s.load(userID, appID)
	if err != nil {
		return nil, err
	}

	if err := app.SetStageData(workflow.StageID(stageID), workflow.StageData(req.Data)); err != nil {
		if errors.Is(err, workflow.ErrAlreadySubmitted) {
			return nil, ErrApplicationLocked
		}
		return nil, err
	}

	if err := s.persist(record, app); err != nil {
		return nil, err
	}
	return s.view(record, app), nil
}

func (s *ApplicationService) Advance(userID, appID uuid.UUID) (*AdvanceResult, error) {
	s.lock(appID)
	defer s.unlock(appID)

	record, app, err := s.load(userID, appID)
	if err != nil {
		return nil, err
	}

	seq := workflow.NewSequencer(app)
	res, err := seq.Advance()
	if err != nil {
		if errors.Is(err, workflow.ErrAlreadySubmitted) {
			return nil, ErrApplicationLocked
		}
		return nil, err
	}

	if err := s.persist(record, app); err != nil {
		return nil, err
	}

	out := &AdvanceResult{Valid: res.Valid, Errors: res.Errors, State: seq.State()}
	if stage, ok := seq.Current(); ok {
		out.CurrentStage = string(stage)
	}
	return out, nil
}

func (s *ApplicationService) Retreat(userID, appID uuid.UUID) (*AdvanceResult, error) {
	s.lock(appID)
	defer s.unlock(appID)

	record, app, err := s.load(userID, appID)
	if err != nil {
		return nil, err
	}

	seq := workflow.NewSequencer(app)
	if err := seq.Retreat(); err != nil {
		if errors.Is(err, workflow.ErrAlreadySubmitted) {
			return nil, ErrApplicationLocked
		}
		return nil, err
	}

	if err := s.persist(record, app); err != nil {
		return nil, err
	}

	out := &AdvanceResult{Valid: true, State: seq.State()}
	if stage, ok := seq.Current(); ok {
		out.CurrentStage = string(stage)
	}
	return out, nil
}

func (s *ApplicationService) JumpTo(userID, appID uuid.UUID, stageID string) (*AdvanceResult, error) {
	s.lock(appID)
	defer s.unlock(appID)

	record, app, err := s.load(userID, appID)
	if err != nil {
		return nil, err
	}

	seq := workflow.NewSequencer(app)
	if err := seq.JumpTo(workflow.StageID(stageID)); err != nil {
		if errors.Is(err, workflow.ErrAlreadySubmitted) {
			return nil, ErrApplicationLocked
		}
		return nil, err
	}

	if err := s.persist(record, app); err != nil {
		return nil, err
	}

	out := &AdvanceResult{Valid: true, State: seq.State()}
	if stage, ok := seq.Current(); ok {
		out.CurrentStage = string(stage)
	}
	return out, nil
}

// AttachDocument records an uploaded file against a named requirement.
// Replace semantics: re-attaching under the same name supersedes.
func (s *ApplicationService) AttachDocument(userID, appID uuid.UUID, name, fileRef string) (*ApplicationView, error) {
	s.lock(appID)
	defer s.unlock(appID)

	record, app, err := s.load(userID, appID)
	if err != nil {
		return nil, err
	}

	if err := app.Attach(name, fileRef); err != nil {
		if errors.Is(err, workflow.ErrAlreadySubmitted) {
			return nil, ErrApplicationLocked
		}
		return nil, err
	}

	if err := s.persist(record, app); err != nil {
		return nil, err
	}
	return s.view(record, app), nil
}

// Finalize runs the submission path: full revalidation, the filing-fee
// charge and the move to the terminal state. Retryable failures come back
// in the outcome; only consistency defects surface as errors.
func (s *ApplicationService) Finalize(userID, appID uuid.UUID, req *FinalizeRequest) (*workflow.FinalizeOutcome, error) {
	s.lock(appID)
	defer s.unlock(appID)

	record, app, err := s.load(userID, appID)
	if err != nil {
		return nil, err
	}

	var payer models.User
	if err := s.db.First(&payer, userID).Error; err != nil {
		return nil, fmt.Errorf("payer not found: %w", err)
	}

	initiator := s.payments.FilingInitiator(userID, appID, req.PaymentMethod)
	coordinator := workflow.NewCoordinator(initiator, NewSubmissionNotifier(s.notifications))

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(s.cfg.Payment.GatewayTimeout)*time.Second)
	defer cancel()

	outcome, err := coordinator.Finalize(ctx, app, payer.Email)
	if err != nil {
		return nil, err
	}

	if outcome.OK && record.SubmittedAt == nil {
		now := time.Now()
		record.SubmittedAt = &now
		record.SubmissionRef = outcome.SubmissionRef
		record.PaymentRef = s.lookupFilingRef(appID)

		// Open the statutory filing schedule for the new business
		go func() {
			if err := s.compliance.ScheduleForApplication(record); err != nil {
				logrus.WithError(err).WithField("application_id", appID).
					Error("Failed to schedule compliance filings")
			}
		}()
	}

	if err := s.persist(record, app); err != nil {
		return nil, err
	}

	if outcome.OK && s.drafts != nil {
		if err := s.drafts.DropDraft(context.Background(), appID.String()); err != nil {
			logrus.WithError(err).Warn("Failed to drop draft cache entry")
		}
	}

	return &outcome, nil
}

// TrackBySubmissionRef is the public lookup behind the tracking page. It
// exposes only non-sensitive fields.
func (s *ApplicationService) TrackBySubmissionRef(ref string) (map[string]interface{}, error) {
	var record models.BusinessApplication
	if err := s.db.Where("submission_ref = ?", ref).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return map[string]interface{}{
		"submission_ref": record.SubmissionRef,
		"entity_type":    record.EntityType,
		"status":         record.Status,
		"submitted_at":   record.SubmittedAt,
	}, nil
}

// Abandon marks an in-progress application as abandoned and drops its
// cached draft. Submitted applications cannot be abandoned.
func (s *ApplicationService) Abandon(userID, appID uuid.UUID) error {
	s.lock(appID)
	defer s.unlock(appID)

	record, _, err := s.load(userID, appID)
	if err != nil {
		return err
	}
	if record.Status == models.ApplicationStatusSubmitted {
		return ErrApplicationLocked
	}

	record.Status = models.ApplicationStatusAbandoned
	if err := s.db.Save(record).Error; err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}

	if s.drafts != nil {
		s.drafts.DropDraft(context.Background(), appID.String())
	}
	return nil
}

// load rebuilds the in-memory engine for one application, cache first.
func (s *ApplicationService) load(userID, appID uuid.UUID) (*models.BusinessApplication, *workflow.Application, error) {
	var record models.BusinessApplication
	if err := s.db.Where("id = ? AND owner_id = ?", appID, userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrApplicationNotFound
		}
		return nil, nil, fmt.Errorf("database error: %w", err)
	}

	if s.drafts != nil {
		var draft draftSnapshot
		err := s.drafts.GetDraft(context.Background(), appID.String(), &draft)
		if err == nil && draft.EntityType == record.EntityType {
			app, rerr := s.rehydrate(appID, draft.EntityType, draft.Status, draft.CurrentStage,
				draft.StageData, draft.Attachments, draft.SubmissionRef)
			if rerr == nil {
				return &record, app, nil
			}
			logrus.WithError(rerr).Warn("Discarding unusable draft cache entry")
		} else if err != nil && !errors.Is(err, cache.ErrDraftNotFound) {
			logrus.WithError(err).Warn("Draft cache read failed, falling back to database")
		}
	}

	stageData := make(map[string]map[string]interface{}, len(record.StageData))
	for stageID, raw := range record.StageData {
		if m, ok := raw.(map[string]interface{}); ok {
			stageData[stageID] = m
		}
	}

	app, err := s.rehydrate(appID, record.EntityType, string(record.Status), record.CurrentStage,
		stageData, attachmentStates(record), record.SubmissionRef)
	if err != nil {
		return nil, nil, err
	}
	return &record, app, nil
}

func (s *ApplicationService) rehydrate(appID uuid.UUID, entityType, status, currentStage string,
	stageData map[string]map[string]interface{}, attachments []workflow.AttachmentState,
	submissionRef string) (*workflow.Application, error) {

	snapshot := make(map[workflow.StageID]workflow.StageData, len(stageData))
	for stageID, data := range stageData {
		snapshot[workflow.StageID(stageID)] = workflow.StageData(data)
	}

	return workflow.Rehydrate(
		appID.String(),
		workflow.EntityType(entityType),
		workflowStatus(status),
		workflow.StageID(currentStage),
		snapshot,
		attachments,
		submissionRef,
	)
}

// persist writes the engine state through to Postgres and the draft cache.
func (s *ApplicationService) persist(record *models.BusinessApplication, app *workflow.Application) error {
	stageData := models.JSONB{}
	for stageID, data := range app.Snapshot() {
		stageData[string(stageID)] = map[string]interface{}(data)
	}

	attachments := models.JSONB{}
	for _, st := range app.Attachments() {
		if st.Fulfilled {
			attachments[st.Name] = st.FileRef
		}
	}

	record.Status = modelStatus(app.Status())
	record.CurrentStage = string(app.CurrentStage())
	record.StageData = stageData
	record.Attachments = attachments
	if app.SubmissionRef() != "" {
		record.SubmissionRef = app.SubmissionRef()
	}

	if err := s.db.Save(record).Error; err != nil {
		return fmt.Errorf("failed to save application: %w", err)
	}

	if s.drafts != nil && record.Status != models.ApplicationStatusSubmitted {
		draft := draftSnapshot{
			EntityType:    record.EntityType,
			Status:        string(record.Status),
			CurrentStage:  record.CurrentStage,
			StageData:     make(map[string]map[string]interface{}),
			Attachments:   app.Attachments(),
			SubmissionRef: record.SubmissionRef,
		}
		for stageID, data := range app.Snapshot() {
			draft.StageData[string(stageID)] = map[string]interface{}(data)
		}
		if err := s.drafts.PutDraft(context.Background(), record.ID.String(), draft); err != nil {
			logrus.WithError(err).Warn("Draft cache write failed")
		}
	}

	return nil
}

func (s *ApplicationService) view(record *models.BusinessApplication, app *workflow.Application) *ApplicationView {
	seq := workflow.NewSequencer(app)

	stageData := make(map[string]interface{})
	for stageID, data := range app.Snapshot() {
		stageData[string(stageID)] = map[string]interface{}(data)
	}

	v := &ApplicationView{
		ID:            record.ID,
		EntityType:    record.EntityType,
		Status:        record.Status,
		State:         seq.State(),
		Stages:        app.Stages(),
		StageData:     stageData,
		Attachments:   app.Attachments(),
		SubmissionRef: record.SubmissionRef,
		FeeAmount:     record.FeeAmount,
		SubmittedAt:   record.SubmittedAt,
	}
	if stage, ok := seq.Current(); ok {
		v.CurrentStage = string(stage)
	}
	return v
}

func (s *ApplicationService) lookupFilingRef(appID uuid.UUID) string {
	var transaction models.Transaction
	err := s.db.Where("application_id = ? AND transaction_type = ? AND status = ?",
		appID, models.TransactionTypeFilingFee, models.TransactionStatusCompleted).
		Order("created_at DESC").First(&transaction).Error
	if err != nil {
		return ""
	}
	return transaction.PaymentReference
}

func (s *ApplicationService) lock(appID uuid.UUID) {
	s.locksMu.Lock()
	l, ok := s.locks[appID]
	if !ok {
		l = &appLock{}
		s.locks[appID] = l
	}
	l.holders++
	s.locksMu.Unlock()
	l.mu.Lock()
}

// unlock releases the per-application mutex and removes the map entry once
// no other goroutine is holding or waiting on it.
func (s *ApplicationService) unlock(appID uuid.UUID) {
	s.locksMu.Lock()
	l := s.locks[appID]
	if l != nil {
		l.holders--
		if l.holders == 0 {
			delete(s.locks, appID)
		}
	}
	s.locksMu.Unlock()
	if l != nil {
		l.mu.Unlock()
	}
}

func attachmentStates(record models.BusinessApplication) []workflow.AttachmentState {
	states := make([]workflow.AttachmentState, 0, len(record.Attachments))
	for name, ref := range record.Attachments {
		fileRef, _ := ref.(string)
		states = append(states, workflow.AttachmentState{
			AttachmentRequirement: workflow.AttachmentRequirement{Name: name},
			Fulfilled:             true,
			FileRef:               fileRef,
		})
	}
	return states
}

func workflowStatus(status string) workflow.Status {
	switch models.ApplicationStatus(status) {
	case models.ApplicationStatusAwaitingPayment:
		return workflow.StatusAwaitingPayment
	case models.ApplicationStatusSubmitted:
		return workflow.StatusSubmitted
	default:
		return workflow.StatusInProgress
	}
}

func modelStatus(status workflow.Status) models.ApplicationStatus {
	switch status {
	case workflow.StatusAwaitingPayment:
		return models.ApplicationStatusAwaitingPayment
	case workflow.StatusSubmitted:
		return models.ApplicationStatusSubmitted
	default:
		return models.ApplicationStatusInProgress
	}
}
