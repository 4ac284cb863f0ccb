// internal/workflow/coordinator.go
package workflow

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Filing fees per entity type, in naira. Mirrored in the admin settings
// seed so back-office staff can see them; the coordinator's table is
// authoritative for what gets charged.
var filingFees = map[EntityType]float64{
	EntityBusinessName:         10000,
	EntityPrivateLimited:       25000,
	EntityIncorporatedTrustees: 20000,
}

// FeeFor returns the CAC filing fee for an entity type.
func FeeFor(entityType EntityType) (float64, error) {
	fee, ok := filingFees[entityType]
	if !ok {
		return 0, consistencyErr("FeeFor", "no fee configured for entity type %q", entityType)
	}
	return fee, nil
}

// PaymentRequest is what the coordinator hands the payment collaborator.
type PaymentRequest struct {
	Amount     float64
	Currency   string
	PayerEmail string
	Metadata   map[string]string
}

// PaymentResult is the collaborator's completion signal. Success false with
// a reason is a decline; an error from Initiate is a transport or timeout
// failure.
type PaymentResult struct {
	Success   bool
	Reference string
	Reason    string
}

// PaymentInitiator is the external payment collaborator. Initiate must
// honor ctx cancellation; the coordinator treats a deadline expiry as a
// declined, retryable outcome.
type PaymentInitiator interface {
	Initiate(ctx context.Context, req PaymentRequest) (PaymentResult, error)
}

// Notifier receives the fire-and-forget submission confirmation. Failures
// never roll back a submission.
type Notifier interface {
	SubmissionConfirmed(email, submissionRef string, entityType EntityType)
}

// FinalizeOutcome is the caller-facing result of Finalize. OK false means a
// retryable condition described by Reason; fatal inconsistencies come back
// as errors instead.
type FinalizeOutcome struct {
	OK            bool   `json:"ok"`
	SubmissionRef string `json:"submission_ref,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Coordinator owns the final confirmation path: it re-checks every
// precondition, merges the stage data into one payload, charges the filing
// fee through the payment collaborator and moves the application to its
// terminal state.
type Coordinator struct {
	payments PaymentInitiator
	notifier Notifier
	newRef   func() string
}

func NewCoordinator(payments PaymentInitiator, notifier Notifier) *Coordinator {
	return &Coordinator{
		payments: payments,
		notifier: notifier,
		newRef:   newSubmissionRef,
	}
}

// Finalize runs the submission path for an application. Calling it again on
// an already-submitted application is a no-op returning the recorded
// outcome, and a call while another Finalize is outstanding is rejected
// rather than run concurrently.
func (c *Coordinator) Finalize(ctx context.Context, app *Application, payerEmail string) (FinalizeOutcome, error) {
	if app.status == StatusSubmitted {
		return *app.finalOutcome, nil
	}
	if app.finalizing {
		return FinalizeOutcome{OK: false, Reason: "submission already in progress"}, nil
	}
	app.finalizing = true
	defer func() { app.finalizing = false }()

	if app.current < app.lastIndex() {
		return FinalizeOutcome{OK: false, Reason: "application has not reached the final stage"}, nil
	}

	// Every stage must hold independently valid data. A stage that was
	// never stored at this point is a defect: the sequencer cannot have
	// reached the last stage without validating each one.
	payload := make(map[StageID]StageData, len(app.stages))
	for _, stageID := range app.stages {
		if !app.store.Has(stageID) {
			return FinalizeOutcome{}, consistencyErr("Finalize", "no stored data for stage %q", stageID)
		}
		data := app.store.Get(stageID)
		res, err := Validate(stageID, data, app.entityType)
		if err != nil {
			return FinalizeOutcome{}, err
		}
		if !res.Valid {
			return FinalizeOutcome{
				OK:     false,
				Reason: fmt.Sprintf("stage %s failed validation: %s", stageID, res.Errors[0]),
			}, nil
		}
		payload[stageID] = data
	}

	if !app.attachments.IsComplete() {
		return FinalizeOutcome{OK: false, Reason: "attachments incomplete"}, nil
	}

	fee, err := FeeFor(app.entityType)
	if err != nil {
		return FinalizeOutcome{}, err
	}

	app.status = StatusAwaitingPayment

	result, err := c.payments.Initiate(ctx, PaymentRequest{
		Amount:     fee,
		Currency:   "NGN",
		PayerEmail: payerEmail,
		Metadata: map[string]string{
			"application_id": app.ID,
			"entity_type":    string(app.entityType),
		},
	})
	if err != nil {
		// Status stays at awaiting_payment so the caller can retry or
		// verify out of band. Never terminal without confirmed success.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return FinalizeOutcome{OK: false, Reason: "payment timeout"}, nil
		}
		return FinalizeOutcome{OK: false, Reason: "payment failed: " + err.Error()}, nil
	}
	if !result.Success {
		reason := result.Reason
		if reason == "" {
			reason = "payment declined"
		}
		return FinalizeOutcome{OK: false, Reason: reason}, nil
	}

	outcome := FinalizeOutcome{OK: true, SubmissionRef: c.newRef()}
	app.submissionRef = outcome.SubmissionRef
	app.finalOutcome = &outcome
	app.status = StatusSubmitted

	if c.notifier != nil {
		c.notifier.SubmissionConfirmed(payerEmail, outcome.SubmissionRef, app.entityType)
	}
	return outcome, nil
}

const refCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newSubmissionRef() string {
	b := make([]byte, 10)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(refCharset))))
		if err != nil {
			n = big.NewInt(int64(i) % int64(len(refCharset)))
		}
		b[i] = refCharset[n.Int64()]
	}
	return "CAC-" + string(b)
}
