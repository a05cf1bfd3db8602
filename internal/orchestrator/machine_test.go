package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/order-capture/internal/model"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from    model.Stage
		outcome Outcome
		want    model.Stage
	}{
		{model.StageExtraction, OutcomeExtracted, model.StageClarification},
		{model.StageClarification, OutcomeReady, model.StageValidation},
		{model.StageClarification, OutcomeIncomplete, model.StageAwaitingUser},
		{model.StageValidation, OutcomeValid, model.StagePricing},
		{model.StageValidation, OutcomeInvalid, model.StageAwaitingUser},
		{model.StagePricing, OutcomePriced, model.StageConfirmation},
		{model.StagePricing, OutcomeUnpriceable, model.StageClarification},
		{model.StageConfirmation, OutcomePresented, model.StageAwaitingUser},
		{model.StageConfirmation, OutcomeAffirmed, model.StageFulfillment},
		{model.StageConfirmation, OutcomeRejected, model.StageExtraction},
		{model.StageConfirmation, OutcomeStalePrice, model.StagePricing},
		{model.StageFulfillment, OutcomeFulfilled, model.StageAwaitingUser},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+tt.outcome.String(), func(t *testing.T) {
			got, err := Next(tt.from, tt.outcome)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextRejectsUnknownEdges(t *testing.T) {
	for _, e := range []struct {
		from    model.Stage
		outcome Outcome
	}{
		{model.StagePricing, OutcomeAffirmed},
		{model.StageExtraction, OutcomeReady},
		{model.StageFulfillment, OutcomeExtracted},
		{model.StageAwaitingUser, OutcomeExtracted},
		{model.StageClarification, Outcome(99)},
	} {
		_, err := Next(e.from, e.outcome)
		assert.ErrorIs(t, err, ErrInvalidStageTransition, "%s/%s", e.from, e.outcome)
	}
}

func TestEntryStage(t *testing.T) {
	for rest, want := range map[model.Stage]model.Stage{
		model.StageExtraction:    model.StageExtraction,
		model.StageClarification: model.StageExtraction,
		model.StageValidation:    model.StageExtraction,
		model.StageConfirmation:  model.StageConfirmation,
	} {
		got, err := EntryStage(rest)
		require.NoError(t, err)
		assert.Equal(t, want, got, rest)
	}

	_, err := EntryStage(model.StageFulfillment)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "unpriceable", OutcomeUnpriceable.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}
