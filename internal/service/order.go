package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/order-capture/internal/model"
	"github.com/capitalize-ai/order-capture/internal/orchestrator"
	"github.com/capitalize-ai/order-capture/pkg/logger"
	"github.com/capitalize-ai/order-capture/pkg/metrics"
)

// ErrEventsUnavailable is returned when no event stream is configured.
var ErrEventsUnavailable = errors.New("event stream not configured")

const publishTimeout = 5 * time.Second

// EventStore persists and replays order events.
type EventStore interface {
	PublishEvent(ctx context.Context, event *model.OrderEvent) (uint64, error)
	GetEvents(ctx context.Context, tenantID, sessionID string, afterSequence uint64, limit int) ([]model.OrderEvent, uint64, bool, error)
}

// TurnRunner runs one conversational turn.
type TurnRunner interface {
	RunTurn(ctx context.Context, prev *model.ConversationState, text string, observe orchestrator.Observer) (*orchestrator.Result, error)
}

// OrderService executes turns against stored sessions.
type OrderService struct {
	sessions *SessionStore
	runner   TurnRunner
	events   EventStore
	logger   *logger.Logger
}

// NewOrderService creates a new order service. events may be nil.
func NewOrderService(sessions *SessionStore, runner TurnRunner, events EventStore, log *logger.Logger) *OrderService {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderService{
		sessions: sessions,
		runner:   runner,
		events:   events,
		logger:   log,
	}
}

// Chat processes one user message for a session, creating the session on
// first use. A second message while a turn is running gets ErrSessionBusy.
func (s *OrderService) Chat(ctx context.Context, tenantID, sessionID, text string, observe orchestrator.Observer) (*model.ChatResponse, error) {
	sess := s.sessions.getOrCreate(tenantID, sessionID)
	if !sess.turn.TryAcquire(1) {
		return nil, ErrSessionBusy
	}
	defer sess.turn.Release(1)

	log := s.logger.WithSession(tenantID, sessionID)
	prev := sess.snapshot()

	res, err := s.runner.RunTurn(ctx, prev, text, observe)
	switch {
	case err == nil:
	case errors.Is(err, orchestrator.ErrSessionClosed):
		return &model.ChatResponse{
			AssistantMessage: orchestrator.ClosedMessage(prev),
			State:            prev.Clone(),
		}, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		log.Error("turn aborted", zap.String("stage", string(prev.Stage)), zap.Error(err))
		metrics.TurnsTotal.WithLabelValues(tenantID, string(prev.Stage), "failed").Inc()
		// Only the transcript survives an aborted turn.
		kept := prev.Clone()
		kept.Transcript = append(kept.Transcript, text)
		kept.UpdatedAt = s.sessions.now()
		sess.commit(kept)
		s.publish(ctx, log, s.newEvent(tenantID, sessionID, model.EventTypeTurnFailed, kept, err.Error()))
		return &model.ChatResponse{
			AssistantMessage: orchestrator.RepromptMessage(),
			State:            kept.Clone(),
		}, nil
	}

	st := res.State
	sess.commit(st)
	metrics.TurnsTotal.WithLabelValues(tenantID, string(st.Stage), "ok").Inc()

	if res.ExtractionErr != nil {
		s.publish(ctx, log, s.newEvent(tenantID, sessionID, model.EventTypeExtractionFailed, st, res.ExtractionErr.Error()))
	}
	s.publish(ctx, log, s.newEvent(tenantID, sessionID, model.EventTypeTurnCompleted, st, ""))
	if res.Fulfilled {
		metrics.RecordFulfilled(tenantID, st.Pricing.GrandTotal)
		s.publish(ctx, log, s.newEvent(tenantID, sessionID, model.EventTypeOrderFulfilled, st, ""))
	}

	log.Debug("turn completed",
		zap.String("stage", string(st.Stage)),
		zap.Int("transitions", len(res.Transitions)),
		zap.Strings("missing", st.MissingFields),
	)

	return &model.ChatResponse{
		AssistantMessage: st.AssistantMessage,
		State:            st.Clone(),
	}, nil
}

// Session returns the committed state of a session.
func (s *OrderService) Session(ctx context.Context, tenantID, sessionID string) (*model.ConversationState, error) {
	return s.sessions.Get(tenantID, sessionID)
}

// Events replays a session's events from the stream.
func (s *OrderService) Events(ctx context.Context, tenantID, sessionID string, afterSequence uint64, limit int) (*model.ListEventsResponse, error) {
	if s.events == nil {
		return nil, ErrEventsUnavailable
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	events, lastSeq, hasMore, err := s.events.GetEvents(ctx, tenantID, sessionID, afterSequence, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	if events == nil {
		events = []model.OrderEvent{}
	}

	return &model.ListEventsResponse{
		Events:       events,
		HasMore:      hasMore,
		LastSequence: lastSeq,
	}, nil
}

func (s *OrderService) newEvent(tenantID, sessionID string, typ model.EventType, st *model.ConversationState, reason string) *model.OrderEvent {
	ev := &model.OrderEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SessionID: sessionID,
		TenantID:  tenantID,
		Type:      typ,
		Stage:     st.Stage,
		Reason:    reason,
		OrderID:   st.OrderID,
		CreatedAt: time.Now(),
	}
	if typ == model.EventTypeOrderFulfilled {
		o := st.Order.Clone()
		ev.Order = &o
		ev.Pricing = st.Pricing
	}
	return ev
}

// publish writes an event without failing the turn; the turn is already
// committed by the time events go out.
func (s *OrderService) publish(ctx context.Context, log *logger.Logger, ev *model.OrderEvent) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := s.events.PublishEvent(ctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues(string(ev.Type), "error").Inc()
		log.Warn("failed to publish event", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Type), "ok").Inc()
}
