package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/order-capture/internal/model"
)

type fakeClient struct {
	content string
	err     error
	reqs    []*CompletionRequest
}

func (f *fakeClient) Complete(_ context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &CompletionResponse{Content: f.content, TokensIn: 10, TokensOut: 5}, nil
}

func (f *fakeClient) Name() string { return "fake" }

func TestAssistantExtract(t *testing.T) {
	client := &fakeClient{content: `{"items":[{"name":"Margherita Pizza","qty":2,"size_or_weight":"Large"}]}`}
	a := NewAssistant(client, "test-model", nil)

	got, err := a.Extract(context.Background(), "2 large margherita please")
	require.NoError(t, err)
	assert.Equal(t, []model.OrderItem{{Name: "Margherita Pizza", Quantity: 2, SizeOrWeight: "Large"}}, got.Items)

	require.Len(t, client.reqs, 1)
	req := client.reqs[0]
	assert.True(t, req.JSONMode)
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, extractionPrompt, req.System)
	assert.Equal(t, "2 large margherita please", req.Messages[0].Content)
}

func TestAssistantExtractMalformed(t *testing.T) {
	a := NewAssistant(&fakeClient{content: "sorry, no idea"}, "", nil)

	got, err := a.Extract(context.Background(), "hello")
	require.ErrorIs(t, err, ErrMalformedExtraction)
	assert.True(t, got.IsEmpty())
}

func TestAssistantExtractProviderError(t *testing.T) {
	a := NewAssistant(&fakeClient{err: context.DeadlineExceeded}, "", nil)

	_, err := a.Extract(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrMalformedExtraction))
}

func TestAssistantComposeClarification(t *testing.T) {
	client := &fakeClient{content: "  Could you tell me how you'd like to pay?  \n"}
	a := NewAssistant(client, "", nil)

	q, err := a.ComposeClarification(context.Background(),
		model.Order{Items: []model.OrderItem{{Name: "marg", Quantity: 1}}},
		[]string{"payment_method"},
		[]model.ItemChoice{{Index: 0, Query: "marg", Candidates: []string{"Margherita Pizza", "Margarita Mocktail"}}},
	)
	require.NoError(t, err)
	assert.Equal(t, "Could you tell me how you'd like to pay?", q)

	prompt := client.reqs[0].Messages[0].Content
	assert.Contains(t, prompt, "Missing or incomplete: payment_method.")
	assert.Contains(t, prompt, "Margherita Pizza, Margarita Mocktail")
	assert.False(t, client.reqs[0].JSONMode)
}

func TestAssistantComposeClarificationEmpty(t *testing.T) {
	a := NewAssistant(&fakeClient{content: "   "}, "", nil)

	_, err := a.ComposeClarification(context.Background(), model.Order{}, []string{"items"}, nil)
	require.Error(t, err)
}

func TestFromKeys(t *testing.T) {
	_, err := FromKeys(ProviderAnthropic, "", "", "")
	require.ErrorIs(t, err, ErrNoProvider)

	c, err := FromKeys(ProviderOpenAI, "a-key", "o-key", "")
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())

	c, err = FromKeys(ProviderOpenAI, "a-key", "", "")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Name())
}
