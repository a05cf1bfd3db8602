package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/order-capture/internal/catalog"
	"github.com/capitalize-ai/order-capture/internal/fuzzy"
	"github.com/capitalize-ai/order-capture/internal/model"
	"github.com/capitalize-ai/order-capture/internal/order"
	"github.com/capitalize-ai/order-capture/internal/pricing"
	"github.com/capitalize-ai/order-capture/pkg/logger"
	"github.com/capitalize-ai/order-capture/pkg/metrics"
	"github.com/capitalize-ai/order-capture/pkg/tracing"
)

// maxSteps bounds the stages run in one turn. The longest legal path is
// confirmation, extraction, clarification, validation, pricing, clarification.
const maxSteps = 12

// Extractor turns free text into a best-effort partial order.
type Extractor interface {
	Extract(ctx context.Context, text string) (model.Order, error)
}

// Composer writes a follow-up question for the missing fields.
type Composer interface {
	ComposeClarification(ctx context.Context, o model.Order, missing []string, choices []model.ItemChoice) (string, error)
}

// Config tunes the orchestrator.
type Config struct {
	ExtractionTimeout    time.Duration
	ClarificationTimeout time.Duration
	Limits               order.Limits
}

// DefaultConfig returns the default timeouts and limits.
func DefaultConfig() Config {
	return Config{
		ExtractionTimeout:    10 * time.Second,
		ClarificationTimeout: 10 * time.Second,
		Limits:               order.DefaultLimits(),
	}
}

// Transition is one edge taken during a turn.
type Transition struct {
	From    model.Stage `json:"from"`
	To      model.Stage `json:"to"`
	Outcome string      `json:"outcome"`
}

// Observer is told about each transition as it happens.
type Observer func(Transition)

// Result is the outcome of one turn.
type Result struct {
	State       *model.ConversationState
	Transitions []Transition

	// ExtractionErr is set when extraction failed and an empty partial
	// order was used instead.
	ExtractionErr error
	Fulfilled     bool
}

// Orchestrator runs turns. It holds no session state and is safe for
// concurrent use across sessions.
type Orchestrator struct {
	extractor Extractor
	composer  Composer
	index     *catalog.Index
	resolver  *fuzzy.Resolver
	calc      *pricing.Calculator
	cfg       Config
	log       *logger.Logger
	tracer    trace.Tracer

	now   func() time.Time
	newID func() (uuid.UUID, error)
}

// New creates an orchestrator.
func New(extractor Extractor, composer Composer, index *catalog.Index, resolver *fuzzy.Resolver, calc *pricing.Calculator, cfg Config, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		extractor: extractor,
		composer:  composer,
		index:     index,
		resolver:  resolver,
		calc:      calc,
		cfg:       cfg,
		log:       log,
		tracer:    tracing.Tracer("orchestrator"),
		now:       time.Now,
		newID:     uuid.NewV7,
	}
}

// turn carries per-turn bookkeeping that never outlives RunTurn.
type turn struct {
	text        string
	state       *model.ConversationState
	prev        model.Stage
	extractions int
	unpriced    map[string]bool
	result      *Result
	log         *logger.Logger
}

// RunTurn processes one user message against prev and returns the next
// state. prev is never modified; on error nothing from the turn should be
// committed.
func (o *Orchestrator) RunTurn(ctx context.Context, prev *model.ConversationState, text string, observe Observer) (*Result, error) {
	stage, err := EntryStage(prev.Stage)
	if err != nil {
		return nil, err
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.turn",
		trace.WithAttributes(
			attribute.String("entry_stage", string(stage)),
			attribute.Int("turn", prev.Turns+1),
		))
	defer span.End()

	st := prev.Clone()
	st.Transcript = append(st.Transcript, text)
	st.Turns++
	st.Warnings = nil
	st.AssistantMessage = ""

	t := &turn{
		text:     text,
		state:    st,
		unpriced: map[string]bool{},
		result:   &Result{State: st},
		log:      o.log.With(zap.Int("turn", st.Turns)),
	}

	for steps := 0; ; steps++ {
		if steps >= maxSteps {
			err := fmt.Errorf("%w: turn did not settle after %d stages", ErrInvalidStageTransition, steps)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		outcome, err := o.runStage(ctx, stage, t)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		next, err := Next(stage, outcome)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		tr := Transition{From: stage, To: next, Outcome: outcome.String()}
		t.result.Transitions = append(t.result.Transitions, tr)
		metrics.RecordTransition(string(stage), string(next))
		if observe != nil {
			observe(tr)
		}

		if next == model.StageAwaitingUser {
			st.Stage = stage
			break
		}
		t.prev = stage
		stage = next
	}

	st.UpdatedAt = o.now()
	span.SetAttributes(attribute.String("rest_stage", string(st.Stage)))
	return t.result, nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage model.Stage, t *turn) (Outcome, error) {
	if err := o.checkEntry(stage, t); err != nil {
		t.log.Error("stage entry check failed", zap.String("stage", string(stage)), zap.Error(err))
		return 0, err
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.stage."+string(stage))
	defer span.End()

	var (
		outcome Outcome
		err     error
	)
	switch stage {
	case model.StageExtraction:
		outcome, err = o.extract(ctx, t)
	case model.StageClarification:
		outcome, err = o.clarify(ctx, t)
	case model.StageValidation:
		outcome, err = o.validate(t)
	case model.StagePricing:
		outcome, err = o.price(t)
	case model.StageConfirmation:
		outcome, err = o.confirm(t)
	case model.StageFulfillment:
		outcome, err = o.fulfill(t)
	default:
		err = fmt.Errorf("%w: unknown stage %q", ErrInvalidStageTransition, stage)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.String("outcome", outcome.String()))
	return outcome, nil
}

// checkEntry enforces the conditions a stage may assume on entry.
func (o *Orchestrator) checkEntry(stage model.Stage, t *turn) error {
	st := t.state
	fail := func(reason string) error {
		return fmt.Errorf("%w: %s entered with %s", ErrInvalidStageTransition, stage, reason)
	}

	switch stage {
	case model.StageExtraction:
		if t.extractions > 0 {
			return fail("extraction already run this turn")
		}
	case model.StageValidation, model.StagePricing:
		if !st.Order.ReadyForValidation() {
			return fail("an incomplete order")
		}
		if len(st.PendingChoices) > 0 {
			return fail("unresolved item choices")
		}
	case model.StageConfirmation:
		if st.Pricing == nil {
			return fail("no pricing")
		}
		if t.prev != model.StagePricing && t.prev != "" {
			return fail("entry from " + string(t.prev))
		}
	case model.StageFulfillment:
		if st.Pricing == nil || !st.Order.ReadyForValidation() {
			return fail("an unpriced order")
		}
		if st.Pricing.CatalogUnavailable {
			return fail("prices missing from the catalog")
		}
	}
	return nil
}

func (o *Orchestrator) addWarning(t *turn, w string) {
	for _, have := range t.state.Warnings {
		if have == w {
			return
		}
	}
	t.state.Warnings = append(t.state.Warnings, w)
}

func isCanceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}
