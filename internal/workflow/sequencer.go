// internal/workflow/sequencer.go
package workflow

// Sequencer is the only component allowed to move the stage pointer. View
// code calls Advance/Retreat/JumpTo and renders whatever comes back; it
// never decides transitions itself.
type Sequencer struct {
	app *Application
}

func NewSequencer(app *Application) *Sequencer {
	return &Sequencer{app: app}
}

// State returns the current sequencer state: not_started, a stage
// identifier, or complete once the coordinator has finalized.
func (s *Sequencer) State() string {
	switch {
	case s.app.status == StatusSubmitted:
		return StateComplete
	case s.app.current < 0:
		return StateNotStarted
	default:
		return string(s.app.stages[s.app.current])
	}
}

// Current returns the active stage identifier, or false before the first
// stage and after completion.
func (s *Sequencer) Current() (StageID, bool) {
	if s.app.current < 0 || s.app.status == StatusSubmitted {
		return "", false
	}
	return s.app.stages[s.app.current], true
}

// Advance validates the current stage against the stored data and, on
// success, moves to the next stage. A validation failure is an expected,
// retryable outcome: the stage pointer does not move and the error list is
// returned for display. From not_started, Advance enters the first stage
// without validation since nothing has been collected yet.
func (s *Sequencer) Advance() (Result, error) {
	app := s.app
	if app.status == StatusSubmitted {
		return Result{}, ErrAlreadySubmitted
	}

	if app.current < 0 {
		app.current = 0
		return Result{Valid: true}, nil
	}

	stageID := app.stages[app.current]
	res, err := Validate(stageID, app.store.Get(stageID), app.entityType)
	if err != nil {
		return Result{}, err
	}
	if !res.Valid {
		return res, nil
	}

	// The last data-collection stage has no successor; a valid Advance
	// there leaves the pointer in place with the application ready for the
	// coordinator's confirmation path.
	if app.current < app.lastIndex() {
		app.current++
	}
	return res, nil
}

// Retreat steps back one stage. It always succeeds above the first stage
// and never clears stored data for either the stage being left or the one
// being re-entered.
func (s *Sequencer) Retreat() error {
	app := s.app
	if app.status == StatusSubmitted {
		return ErrAlreadySubmitted
	}
	if app.current < 0 {
		return ErrNotStarted
	}
	if app.current == 0 {
		return ErrCannotRetreat
	}
	app.current--
	return nil
}

// JumpTo moves directly to an already-reached stage. Jumping ahead of the
// current stage is refused so unvalidated stages cannot be skipped.
func (s *Sequencer) JumpTo(stageID StageID) error {
	app := s.app
	if app.status == StatusSubmitted {
		return ErrAlreadySubmitted
	}
	idx := app.indexOf(stageID)
	if idx < 0 {
		return ErrUnknownStage
	}
	if idx > app.current {
		return ErrCannotSkipAhead
	}
	app.current = idx
	return nil
}
