// Package orchestrator drives an order session through its stages, one user
// message at a time.
package orchestrator

import (
	"errors"
	"fmt"

	"github.com/capitalize-ai/order-capture/internal/model"
)

var (
	// ErrInvalidStageTransition reports a stage reached without its entry
	// conditions met, or an edge the machine does not have.
	ErrInvalidStageTransition = errors.New("invalid stage transition")

	// ErrSessionClosed is returned for messages sent after fulfillment.
	ErrSessionClosed = errors.New("session closed")
)

// Outcome is the result of running one stage.
type Outcome int

const (
	OutcomeExtracted Outcome = iota
	OutcomeReady
	OutcomeIncomplete
	OutcomeValid
	OutcomeInvalid
	OutcomePriced
	OutcomeUnpriceable
	OutcomePresented
	OutcomeAffirmed
	OutcomeRejected
	OutcomeFulfilled
	OutcomeStalePrice
)

var outcomeNames = [...]string{
	OutcomeExtracted:   "extracted",
	OutcomeReady:       "ready",
	OutcomeIncomplete:  "incomplete",
	OutcomeValid:       "valid",
	OutcomeInvalid:     "invalid",
	OutcomePriced:      "priced",
	OutcomeUnpriceable: "unpriceable",
	OutcomePresented:   "presented",
	OutcomeAffirmed:    "affirmed",
	OutcomeRejected:    "rejected",
	OutcomeFulfilled:   "fulfilled",
	OutcomeStalePrice:  "stale_price",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type edge struct {
	from    model.Stage
	outcome Outcome
}

var transitions = map[edge]model.Stage{
	{model.StageExtraction, OutcomeExtracted}:     model.StageClarification,
	{model.StageClarification, OutcomeReady}:      model.StageValidation,
	{model.StageClarification, OutcomeIncomplete}: model.StageAwaitingUser,
	{model.StageValidation, OutcomeValid}:         model.StagePricing,
	{model.StageValidation, OutcomeInvalid}:       model.StageAwaitingUser,
	{model.StagePricing, OutcomePriced}:           model.StageConfirmation,
	{model.StagePricing, OutcomeUnpriceable}:      model.StageClarification,
	{model.StageConfirmation, OutcomePresented}:   model.StageAwaitingUser,
	{model.StageConfirmation, OutcomeAffirmed}:    model.StageFulfillment,
	{model.StageConfirmation, OutcomeRejected}:    model.StageExtraction,
	{model.StageConfirmation, OutcomeStalePrice}:  model.StagePricing,
	{model.StageFulfillment, OutcomeFulfilled}:    model.StageAwaitingUser,
}

// Next returns the stage that follows from after the given outcome.
func Next(from model.Stage, outcome Outcome) (model.Stage, error) {
	to, ok := transitions[edge{from, outcome}]
	if !ok {
		return "", fmt.Errorf("%w: %s has no %s edge", ErrInvalidStageTransition, from, outcome)
	}
	return to, nil
}

// EntryStage is where a new message enters given the stage the session
// last suspended in.
func EntryStage(rest model.Stage) (model.Stage, error) {
	switch rest {
	case model.StageFulfillment:
		return "", ErrSessionClosed
	case model.StageConfirmation:
		return model.StageConfirmation, nil
	default:
		return model.StageExtraction, nil
	}
}
