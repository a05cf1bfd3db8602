package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/capitalize-ai/order-capture/internal/catalog"
	"github.com/capitalize-ai/order-capture/internal/fuzzy"
	"github.com/capitalize-ai/order-capture/internal/model"
	"github.com/capitalize-ai/order-capture/internal/orchestrator"
	"github.com/capitalize-ai/order-capture/internal/pricing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []model.OrderEvent
	err    error
}

func (f *fakeEvents) PublishEvent(_ context.Context, ev *model.OrderEvent) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	ev.Sequence = uint64(len(f.events) + 1)
	f.events = append(f.events, *ev)
	return ev.Sequence, nil
}

func (f *fakeEvents) GetEvents(_ context.Context, tenantID, sessionID string, after uint64, limit int) ([]model.OrderEvent, uint64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.OrderEvent
	var last uint64
	for _, ev := range f.events {
		if ev.TenantID != tenantID || ev.SessionID != sessionID || ev.Sequence <= after {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, ev)
		last = ev.Sequence
	}
	return out, last, len(out) == limit, nil
}

func (f *fakeEvents) types() []model.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.EventType, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Type
	}
	return out
}

type scriptedExtractor map[string]model.Order

func (s scriptedExtractor) Extract(_ context.Context, text string) (model.Order, error) {
	return s[text].Clone(), nil
}

type echoComposer struct{}

func (echoComposer) ComposeClarification(_ context.Context, _ model.Order, missing []string, _ []model.ItemChoice) (string, error) {
	return "Need: " + strings.Join(missing, ", "), nil
}

func fullOrder() model.Order {
	return model.Order{
		Items:         []model.OrderItem{{Name: "Margherita Pizza", Quantity: 2, SizeOrWeight: "Large"}},
		DeliveryDate:  "tomorrow",
		PaymentMethod: "card",
		Contact:       model.Contact{Name: "Asha", Phone: "+91 98765 43210", Address: "12 MG Road"},
	}
}

func newOrderService(t *testing.T, events EventStore) *OrderService {
	t.Helper()
	idx := catalog.NewIndex([]model.CatalogEntry{
		{Name: "Margherita Pizza", Price: 400},
		{Name: "Farmhouse Pizza", Price: 450},
	})
	resolver := fuzzy.NewResolver(idx)
	orch := orchestrator.New(
		scriptedExtractor{"everything": fullOrder(), "pizza please": {Items: []model.OrderItem{{Name: "Farmhouse Pizza"}}}},
		echoComposer{},
		idx,
		resolver,
		pricing.NewCalculator(idx, resolver, pricing.DefaultRates()),
		orchestrator.DefaultConfig(),
		nil,
	)
	return NewOrderService(NewSessionStore(), orch, events, nil)
}

func TestChatDrivesSessionToFulfillment(t *testing.T) {
	events := &fakeEvents{}
	svc := newOrderService(t, events)
	ctx := context.Background()

	_, err := svc.Session(ctx, "t1", "s1")
	require.ErrorIs(t, err, ErrSessionNotFound)

	resp, err := svc.Chat(ctx, "t1", "s1", "everything", nil)
	require.NoError(t, err)
	assert.Equal(t, model.StageConfirmation, resp.State.Stage)
	assert.Contains(t, resp.AssistantMessage, "Total: 880")

	stored, err := svc.Session(ctx, "t1", "s1")
	require.NoError(t, err)
	assert.Equal(t, resp.State, stored)

	resp, err = svc.Chat(ctx, "t1", "s1", "confirm", nil)
	require.NoError(t, err)
	assert.Equal(t, model.StageFulfillment, resp.State.Stage)
	require.NotEmpty(t, resp.State.OrderID)
	assert.Equal(t, orchestrator.FulfilledMessage(resp.State.OrderID), resp.AssistantMessage)

	assert.Equal(t, []model.EventType{
		model.EventTypeTurnCompleted,
		model.EventTypeTurnCompleted,
		model.EventTypeOrderFulfilled,
	}, events.types())

	fulfilled := events.events[2]
	assert.Equal(t, resp.State.OrderID, fulfilled.OrderID)
	require.NotNil(t, fulfilled.Pricing)
	assert.Equal(t, int64(880), fulfilled.Pricing.GrandTotal)

	resp, err = svc.Chat(ctx, "t1", "s1", "where is it?", nil)
	require.NoError(t, err)
	assert.Contains(t, resp.AssistantMessage, "already been placed")
	assert.Equal(t, 2, resp.State.Turns)
}

func TestChatIsolatesSessions(t *testing.T) {
	svc := newOrderService(t, nil)
	ctx := context.Background()

	_, err := svc.Chat(ctx, "tenant-a", "s1", "everything", nil)
	require.NoError(t, err)
	resp, err := svc.Chat(ctx, "tenant-b", "s1", "pizza please", nil)
	require.NoError(t, err)

	assert.Equal(t, []model.OrderItem{{Name: "Farmhouse Pizza"}}, resp.State.Order.Items)
	assert.Contains(t, resp.State.MissingFields, "items[0].qty")

	a, err := svc.Session(ctx, "tenant-a", "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StageConfirmation, a.Stage)
	assert.Equal(t, fullOrder().Items, a.Order.Items)
}

func TestChatSnapshotIsACopy(t *testing.T) {
	svc := newOrderService(t, nil)
	ctx := context.Background()

	resp, err := svc.Chat(ctx, "t", "s", "everything", nil)
	require.NoError(t, err)
	resp.State.Order.Items[0].Quantity = 99

	stored, err := svc.Session(ctx, "t", "s")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Order.Items[0].Quantity)
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRunner) RunTurn(_ context.Context, prev *model.ConversationState, text string, _ orchestrator.Observer) (*orchestrator.Result, error) {
	b.started <- struct{}{}
	<-b.release
	st := prev.Clone()
	st.Transcript = append(st.Transcript, text)
	st.Stage = model.StageClarification
	return &orchestrator.Result{State: st}, nil
}

func TestChatRejectsSecondTurnInFlight(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}, 2), release: make(chan struct{})}
	svc := NewOrderService(NewSessionStore(), runner, nil, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Chat(ctx, "t", "s", "first", nil)
		done <- err
	}()
	<-runner.started

	_, err := svc.Chat(ctx, "t", "s", "second", nil)
	require.ErrorIs(t, err, ErrSessionBusy)

	other := make(chan error, 1)
	go func() {
		_, err := svc.Chat(ctx, "t", "other", "hello", nil)
		other <- err
	}()
	<-runner.started

	close(runner.release)
	require.NoError(t, <-done)
	require.NoError(t, <-other)

	st, err := svc.Session(ctx, "t", "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, st.Transcript)
}

type failingRunner struct{ err error }

func (f failingRunner) RunTurn(context.Context, *model.ConversationState, string, orchestrator.Observer) (*orchestrator.Result, error) {
	return nil, f.err
}

func TestChatAbortedTurnKeepsOnlyTranscript(t *testing.T) {
	events := &fakeEvents{}
	err := fmt.Errorf("%w: pricing entered with an incomplete order", orchestrator.ErrInvalidStageTransition)
	svc := NewOrderService(NewSessionStore(), failingRunner{err: err}, events, nil)

	resp, chatErr := svc.Chat(context.Background(), "t", "s", "hello", nil)
	require.NoError(t, chatErr)
	assert.Equal(t, orchestrator.RepromptMessage(), resp.AssistantMessage)
	assert.Equal(t, model.StageExtraction, resp.State.Stage)
	assert.Equal(t, []string{"hello"}, resp.State.Transcript)
	assert.Zero(t, resp.State.Turns)
	assert.Empty(t, resp.State.Order.Items)

	st, err := svc.Session(context.Background(), "t", "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, st.Transcript)

	require.Equal(t, []model.EventType{model.EventTypeTurnFailed}, events.types())
	assert.Contains(t, events.events[0].Reason, "invalid stage transition")
}

func TestChatCanceledTurn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewOrderService(NewSessionStore(), failingRunner{err: context.Canceled}, nil, nil)

	_, err := svc.Chat(ctx, "t", "s", "hello", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChatPublishFailureDoesNotFailTurn(t *testing.T) {
	svc := newOrderService(t, &fakeEvents{err: errors.New("stream down")})

	resp, err := svc.Chat(context.Background(), "t", "s", "everything", nil)
	require.NoError(t, err)
	assert.Equal(t, model.StageConfirmation, resp.State.Stage)
}

func TestEvents(t *testing.T) {
	svc := newOrderService(t, nil)
	_, err := svc.Events(context.Background(), "t", "s", 0, 10)
	require.ErrorIs(t, err, ErrEventsUnavailable)

	events := &fakeEvents{}
	svc = newOrderService(t, events)
	ctx := context.Background()
	_, err = svc.Chat(ctx, "t", "s", "everything", nil)
	require.NoError(t, err)
	_, err = svc.Chat(ctx, "t", "s", "yes", nil)
	require.NoError(t, err)

	resp, err := svc.Events(ctx, "t", "s", 1, 0)
	require.NoError(t, err)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, uint64(3), resp.LastSequence)
	assert.False(t, resp.HasMore)

	resp, err = svc.Events(ctx, "t", "nobody", 0, 10)
	require.NoError(t, err)
	assert.NotNil(t, resp.Events)
	assert.Empty(t, resp.Events)
}
