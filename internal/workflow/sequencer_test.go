// internal/workflow/sequencer_test.go
package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedApp(t *testing.T, entityType EntityType) (*Application, *Sequencer) {
	t.Helper()
	app, err := NewApplication("app-1", entityType)
	require.NoError(t, err)
	seq := NewSequencer(app)
	res, err := seq.Advance() // not_started -> first stage
	require.NoError(t, err)
	require.True(t, res.Valid)
	return app, seq
}

func fillStage(t *testing.T, app *Application, stageID StageID) {
	t.Helper()
	var data StageData
	switch stageID {
	case StageProposedNames:
		data = StageData{"name_option_1": "Ada Ventures", "name_option_2": "Obi Trading"}
	case StageBusinessDetails:
		data = StageData{
			"business_nature": "General merchandise",
			"business_email":  "info@adaventures.ng",
			"business_phone":  "+2348012345678",
		}
	case StageShareCapital:
		data = StageData{"authorized_share_capital": 1000000, "share_unit_price": 1}
	case StageDirectors:
		data = validDirectors(60, 40)
	case StageProprietor:
		data = StageData{
			"full_name":           "Ada Obi",
			"email":               "ada@adaventures.ng",
			"nationality":         "Nigerian",
			"residential_address": "12 Marina Road, Lagos",
		}
	case StageTrustees:
		data = StageData{"trustees": []interface{}{
			map[string]interface{}{"full_name": "Chinedu Eze", "email": "chinedu@example.org"},
			map[string]interface{}{"full_name": "Funmi Ade", "email": "funmi@example.org"},
		}}
	case StageContactAddress:
		data = StageData{"street": "12 Marina Road", "city": "Lagos", "state": "Lagos", "country": "Nigeria"}
	default:
		t.Fatalf("no fixture for stage %s", stageID)
	}
	require.NoError(t, app.SetStageData(stageID, data))
}

func completeAllStages(t *testing.T, app *Application, seq *Sequencer) {
	t.Helper()
	for _, stageID := range app.Stages() {
		fillStage(t, app, stageID)
		res, err := seq.Advance()
		require.NoError(t, err)
		require.True(t, res.Valid, "stage %s: %v", stageID, res.Errors)
	}
}

func TestSequencerStartsAtNotStarted(t *testing.T) {
	app, err := NewApplication("app-1", EntityBusinessName)
	require.NoError(t, err)
	seq := NewSequencer(app)

	assert.Equal(t, StateNotStarted, seq.State())
	assert.Equal(t, -1, app.CurrentIndex())

	res, err := seq.Advance()
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, string(StageProposedNames), seq.State())
}

func TestStageSequenceVariesByEntityType(t *testing.T) {
	assert.Equal(t, []StageID{
		StageProposedNames, StageBusinessDetails, StageShareCapital, StageDirectors, StageContactAddress,
	}, StagesFor(EntityPrivateLimited))

	assert.Equal(t, []StageID{
		StageProposedNames, StageBusinessDetails, StageProprietor, StageContactAddress,
	}, StagesFor(EntityBusinessName))

	assert.NotContains(t, StagesFor(EntityBusinessName), StageShareCapital)
}

func TestAdvanceGatedOnValidation(t *testing.T) {
	app, seq := startedApp(t, EntityBusinessName)

	// Empty stage: advance must report errors and stay put.
	res, err := seq.Advance()
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)
	assert.Equal(t, 0, app.CurrentIndex())

	fillStage(t, app, StageProposedNames)
	res, err = seq.Advance()
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 1, app.CurrentIndex())
}

func TestRetreatKeepsData(t *testing.T) {
	app, seq := startedApp(t, EntityBusinessName)

	fillStage(t, app, StageProposedNames)
	before := app.StageData(StageProposedNames)

	_, err := seq.Advance()
	require.NoError(t, err)
	fillStage(t, app, StageBusinessDetails)

	require.NoError(t, seq.Retreat())
	assert.Equal(t, string(StageProposedNames), seq.State())
	assert.Equal(t, before, app.StageData(StageProposedNames))
	assert.NotEmpty(t, app.StageData(StageBusinessDetails)["business_email"])
}

func TestRetreatAtFirstStage(t *testing.T) {
	_, seq := startedApp(t, EntityBusinessName)
	assert.ErrorIs(t, seq.Retreat(), ErrCannotRetreat)
}

func TestJumpToVisitedStageOnly(t *testing.T) {
	app, seq := startedApp(t, EntityPrivateLimited)

	fillStage(t, app, StageProposedNames)
	_, err := seq.Advance()
	require.NoError(t, err)
	fillStage(t, app, StageBusinessDetails)
	_, err = seq.Advance()
	require.NoError(t, err)

	require.NoError(t, seq.JumpTo(StageProposedNames))
	assert.Equal(t, string(StageProposedNames), seq.State())

	assert.ErrorIs(t, seq.JumpTo(StageDirectors), ErrCannotSkipAhead)
	assert.ErrorIs(t, seq.JumpTo(StageProprietor), ErrUnknownStage)
}

func TestAdvanceAtLastStageStays(t *testing.T) {
	app, seq := startedApp(t, EntityBusinessName)
	completeAllStages(t, app, seq)

	last := len(app.Stages()) - 1
	assert.Equal(t, last, app.CurrentIndex())

	// Another valid advance at the end keeps the pointer on the last stage.
	res, err := seq.Advance()
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, last, app.CurrentIndex())
}

func TestTerminalImmutability(t *testing.T) {
	app, seq := submittedApp(t)

	assert.Equal(t, StateComplete, seq.State())

	dataBefore := app.Snapshot()
	attachmentsBefore := app.Attachments()

	_, err := seq.Advance()
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.ErrorIs(t, seq.Retreat(), ErrAlreadySubmitted)
	assert.ErrorIs(t, seq.JumpTo(StageProposedNames), ErrAlreadySubmitted)
	assert.ErrorIs(t, app.SetStageData(StageProposedNames, StageData{"name_option_1": "x"}), ErrAlreadySubmitted)
	assert.ErrorIs(t, app.Attach("signature", "s3://other"), ErrAlreadySubmitted)

	assert.Equal(t, dataBefore, app.Snapshot())
	assert.Equal(t, attachmentsBefore, app.Attachments())
}

func TestRehydrateResumesMidWizard(t *testing.T) {
	app, seq := startedApp(t, EntityPrivateLimited)
	fillStage(t, app, StageProposedNames)
	_, err := seq.Advance()
	require.NoError(t, err)
	fillStage(t, app, StageBusinessDetails)

	resumed, err := Rehydrate(app.ID, app.EntityType(), app.Status(), app.CurrentStage(),
		app.Snapshot(), app.Attachments(), "")
	require.NoError(t, err)

	assert.Equal(t, app.CurrentIndex(), resumed.CurrentIndex())
	assert.Equal(t, app.StageData(StageBusinessDetails), resumed.StageData(StageBusinessDetails))
}

func TestRehydrateRejectsForeignStage(t *testing.T) {
	_, err := Rehydrate("app-9", EntityBusinessName, StatusInProgress, StageShareCapital, nil, nil, "")
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err))
}

func TestRehydrateRejectsSubmittedWithoutReference(t *testing.T) {
	_, err := Rehydrate("app-10", EntityBusinessName, StatusSubmitted, "", nil, nil, "")
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err))
}
