// internal/workflow/coordinator_test.go
package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayments struct {
	calls    int
	result   PaymentResult
	err      error
	lastReq  PaymentRequest
	blockFor func() // runs inside Initiate, for reentrancy tests
}

func (f *fakePayments) Initiate(_ context.Context, req PaymentRequest) (PaymentResult, error) {
	f.calls++
	f.lastReq = req
	if f.blockFor != nil {
		f.blockFor()
	}
	return f.result, f.err
}

type fakeNotifier struct {
	emails []string
	refs   []string
}

func (f *fakeNotifier) SubmissionConfirmed(email, ref string, _ EntityType) {
	f.emails = append(f.emails, email)
	f.refs = append(f.refs, ref)
}

func readyApp(t *testing.T) (*Application, *Sequencer) {
	t.Helper()
	app, seq := startedApp(t, EntityBusinessName)
	completeAllStages(t, app, seq)
	for _, req := range RequirementsFor(EntityBusinessName) {
		if req.Required {
			require.NoError(t, app.Attach(req.Name, "s3://docs/"+req.Name+".pdf"))
		}
	}
	return app, seq
}

func submittedApp(t *testing.T) (*Application, *Sequencer) {
	t.Helper()
	app, seq := readyApp(t)
	coord := NewCoordinator(&fakePayments{result: PaymentResult{Success: true, Reference: "pay_1"}}, nil)
	outcome, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	require.True(t, outcome.OK)
	return app, seq
}

func TestFeeLookup(t *testing.T) {
	fee, err := FeeFor(EntityPrivateLimited)
	require.NoError(t, err)
	assert.Equal(t, 25000.0, fee)

	_, err = FeeFor(EntityType("partnership"))
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err))
}

func TestFinalizeSuccess(t *testing.T) {
	app, _ := readyApp(t)
	payments := &fakePayments{result: PaymentResult{Success: true, Reference: "pay_1"}}
	notifier := &fakeNotifier{}
	coord := NewCoordinator(payments, notifier)

	outcome, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.NotEmpty(t, outcome.SubmissionRef)
	assert.Equal(t, StatusSubmitted, app.Status())
	assert.Equal(t, outcome.SubmissionRef, app.SubmissionRef())

	// Payment request carries the business-name filing fee in naira.
	assert.Equal(t, 10000.0, payments.lastReq.Amount)
	assert.Equal(t, "NGN", payments.lastReq.Currency)
	assert.Equal(t, "ada@adaventures.ng", payments.lastReq.PayerEmail)

	assert.Equal(t, []string{"ada@adaventures.ng"}, notifier.emails)
	assert.Equal(t, []string{outcome.SubmissionRef}, notifier.refs)
}

func TestFinalizeIdempotent(t *testing.T) {
	app, _ := readyApp(t)
	payments := &fakePayments{result: PaymentResult{Success: true, Reference: "pay_1"}}
	coord := NewCoordinator(payments, nil)

	first, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	require.True(t, first.OK)

	second, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, payments.calls, "no second payment initiation")
}

func TestFinalizeAttachmentsIncomplete(t *testing.T) {
	app, seq := startedApp(t, EntityBusinessName)
	completeAllStages(t, app, seq)

	coord := NewCoordinator(&fakePayments{result: PaymentResult{Success: true}}, nil)
	outcome, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Equal(t, "attachments incomplete", outcome.Reason)
	assert.Equal(t, StatusInProgress, app.Status())
}

func TestFinalizeBeforeLastStage(t *testing.T) {
	app, seq := startedApp(t, EntityBusinessName)
	fillStage(t, app, StageProposedNames)
	_, err := seq.Advance()
	require.NoError(t, err)

	coord := NewCoordinator(&fakePayments{}, nil)
	outcome, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Equal(t, StatusInProgress, app.Status())
}

func TestFinalizeRevalidatesEveryStage(t *testing.T) {
	app, _ := readyApp(t)
	// Corrupt an earlier stage after it was validated.
	require.NoError(t, app.SetStageData(StageProposedNames, StageData{"name_option_1": ""}))

	payments := &fakePayments{result: PaymentResult{Success: true}}
	coord := NewCoordinator(payments, nil)
	outcome, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Reason, "proposed_names")
	assert.Equal(t, 0, payments.calls)
}

func TestFinalizePaymentDeclined(t *testing.T) {
	app, _ := readyApp(t)
	coord := NewCoordinator(&fakePayments{result: PaymentResult{Success: false, Reason: "card declined"}}, nil)

	outcome, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Equal(t, "card declined", outcome.Reason)
	assert.Equal(t, StatusAwaitingPayment, app.Status())

	// Retry after the decline succeeds without any data loss.
	retry := NewCoordinator(&fakePayments{result: PaymentResult{Success: true}}, nil)
	outcome, err = retry.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.Equal(t, StatusSubmitted, app.Status())
}

func TestFinalizePaymentTimeout(t *testing.T) {
	app, _ := readyApp(t)
	coord := NewCoordinator(&fakePayments{err: context.DeadlineExceeded}, nil)

	outcome, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Equal(t, "payment timeout", outcome.Reason)
	assert.Equal(t, StatusAwaitingPayment, app.Status(), "never submitted without confirmed success")
}

func TestFinalizeTransportFailure(t *testing.T) {
	app, _ := readyApp(t)
	coord := NewCoordinator(&fakePayments{err: errors.New("gateway unreachable")}, nil)

	outcome, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Reason, "gateway unreachable")
	assert.Equal(t, StatusAwaitingPayment, app.Status())
}

func TestFinalizeRejectsReentrantCall(t *testing.T) {
	app, _ := readyApp(t)
	payments := &fakePayments{result: PaymentResult{Success: true}}
	coord := NewCoordinator(payments, nil)

	var inner FinalizeOutcome
	payments.blockFor = func() {
		// A second invocation while the first is outstanding must be
		// rejected, never run concurrently.
		inner, _ = coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	}

	outcome, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.False(t, inner.OK)
	assert.Equal(t, "submission already in progress", inner.Reason)
	assert.Equal(t, 1, payments.calls)
}

func TestFinalizeMissingStageDataIsFatal(t *testing.T) {
	app, err := Rehydrate("app-7", EntityBusinessName, StatusInProgress, StageContactAddress, nil, nil, "")
	require.NoError(t, err)

	coord := NewCoordinator(&fakePayments{}, nil)
	_, err = coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err))
}

func TestFinalizeAfterRehydratingSubmitted(t *testing.T) {
	app, err := Rehydrate("app-8", EntityBusinessName, StatusSubmitted, "", nil, nil, "CAC-ABCDEFGHJK")
	require.NoError(t, err)

	payments := &fakePayments{}
	coord := NewCoordinator(payments, nil)
	outcome, err := coord.Finalize(context.Background(), app, "ada@adaventures.ng")
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.Equal(t, "CAC-ABCDEFGHJK", outcome.SubmissionRef)
	assert.Equal(t, 0, payments.calls)
}

func TestSubmissionRefFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ref := newSubmissionRef()
		assert.Regexp(t, `^CAC-[A-Z2-9]{10}$`, ref)
		assert.False(t, seen[ref], "references should not repeat")
		seen[ref] = true
	}
}
