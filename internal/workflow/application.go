// internal/workflow/application.go
package workflow

const (
	// Virtual sequencer states on either side of the stage sequence.
	StateNotStarted = "not_started"
	StateComplete   = "complete"
)

// Application is the aggregate for one in-progress registration. It is
// owned by a single wizard session; access from the HTTP layer is
// serialized by the application service, so no locking happens here.
type Application struct {
	ID         string
	entityType EntityType

	stages  []StageID
	current int // -1 until the first stage is entered

	status        Status
	submissionRef string
	finalOutcome  *FinalizeOutcome
	finalizing    bool

	store       *StageStore
	attachments *AttachmentTracker
}

// NewApplication starts a wizard run for a chosen entity type. The stage
// sequence is fixed at creation; the sequencer enters the first stage on
// the initial Advance.
func NewApplication(id string, entityType EntityType) (*Application, error) {
	if !entityType.Valid() {
		return nil, consistencyErr("NewApplication", "unknown entity type %q", entityType)
	}
	return &Application{
		ID:          id,
		entityType:  entityType,
		stages:      StagesFor(entityType),
		current:     -1,
		status:      StatusInProgress,
		store:       NewStageStore(),
		attachments: NewAttachmentTracker(entityType),
	}, nil
}

func (a *Application) EntityType() EntityType { return a.entityType }
func (a *Application) Status() Status        { return a.status }
func (a *Application) SubmissionRef() string { return a.submissionRef }

// Stages returns the ordered stage sequence for this application.
func (a *Application) Stages() []StageID {
	out := make([]StageID, len(a.stages))
	copy(out, a.stages)
	return out
}

// CurrentIndex returns the stage pointer, or -1 before the first stage.
func (a *Application) CurrentIndex() int { return a.current }

// CurrentStage returns the active stage identifier, or "" before the first
// stage is entered.
func (a *Application) CurrentStage() StageID {
	if a.current < 0 {
		return ""
	}
	return a.stages[a.current]
}

// StageData returns the stored (or default) values for a stage.
func (a *Application) StageData(stageID StageID) StageData {
	return a.store.Get(stageID)
}

// SetStageData merges a stage's collected values into the store. It is
// rejected once the application is submitted; nothing is validated here.
func (a *Application) SetStageData(stageID StageID, data StageData) error {
	if a.status == StatusSubmitted {
		return ErrAlreadySubmitted
	}
	if a.indexOf(stageID) < 0 {
		return ErrUnknownStage
	}
	a.store.Set(stageID, data)
	return nil
}

// Attach records an uploaded document reference against a named
// requirement. Replace semantics: a second attach under the same name
// supersedes the first.
func (a *Application) Attach(name, fileRef string) error {
	if a.status == StatusSubmitted {
		return ErrAlreadySubmitted
	}
	return a.attachments.Attach(name, fileRef)
}

// Attachments exposes the tracker's fulfilment state in declaration order.
func (a *Application) Attachments() []AttachmentState {
	return a.attachments.States()
}

// Snapshot returns every stored stage's data, for persistence.
func (a *Application) Snapshot() map[StageID]StageData {
	return a.store.Snapshot()
}

// Rehydrate rebuilds an in-memory application from a persisted snapshot so
// an abandoned wizard session resumes where it left off. A submitted
// application rehydrates with its recorded outcome intact.
func Rehydrate(id string, entityType EntityType, status Status, currentStage StageID,
	snapshot map[StageID]StageData, attachments []AttachmentState, submissionRef string) (*Application, error) {

	app, err := NewApplication(id, entityType)
	if err != nil {
		return nil, err
	}
	app.store.Restore(snapshot)
	app.attachments.Restore(attachments)
	if status == StatusSubmitted && submissionRef == "" {
		return nil, consistencyErr("Rehydrate", "application %q is submitted but has no submission reference", id)
	}
	app.status = status
	app.submissionRef = submissionRef
	if submissionRef != "" {
		app.finalOutcome = &FinalizeOutcome{OK: true, SubmissionRef: submissionRef}
	}
	if currentStage != "" {
		if idx := app.indexOf(currentStage); idx >= 0 {
			app.current = idx
		} else {
			return nil, consistencyErr("Rehydrate", "stage %q not in %s sequence", currentStage, entityType)
		}
	}
	return app, nil
}

func (a *Application) indexOf(stageID StageID) int {
	for i, id := range a.stages {
		if id == stageID {
			return i
		}
	}
	return -1
}

func (a *Application) lastIndex() int { return len(a.stages) - 1 }
