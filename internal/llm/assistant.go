package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/order-capture/internal/model"
	"github.com/capitalize-ai/order-capture/pkg/logger"
	"github.com/capitalize-ai/order-capture/pkg/metrics"
)

const extractionPrompt = `Extract order details from the customer's message.
Return strictly this JSON structure and nothing else:
{
  "items": [{"name": "...", "qty": 1, "size_or_weight": "..."}],
  "delivery_date": "...",
  "payment_method": "...",
  "contact": {"name": "...", "phone": "...", "address": "..."}
}
Use null for anything the message does not state. Do not guess.`

const clarificationPrompt = `You are taking a food order. Write one polite, short question asking the
customer for the missing details listed below. Ask only about those details.
Example: "Could you please tell me your delivery date?"`

// Assistant turns text into partial orders and writes follow-up questions
// using an LLM provider.
type Assistant struct {
	client    Client
	model     string
	maxTokens int
	log       *logger.Logger
}

// NewAssistant creates an assistant on top of client. An empty model uses the
// provider default.
func NewAssistant(client Client, model string, log *logger.Logger) *Assistant {
	if log == nil {
		log = logger.Nop()
	}
	return &Assistant{
		client:    client,
		model:     model,
		maxTokens: 512,
		log:       log.With(zap.String("provider", client.Name())),
	}
}

// Extract returns a best-effort partial order for text. Unreadable provider
// output yields an error wrapping ErrMalformedExtraction.
func (a *Assistant) Extract(ctx context.Context, text string) (model.Order, error) {
	resp, err := a.complete(ctx, "extract", &CompletionRequest{
		Model:     a.model,
		System:    extractionPrompt,
		Messages:  []ChatMessage{{Role: "user", Content: text}},
		MaxTokens: a.maxTokens,
		JSONMode:  true,
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("extract: %w", err)
	}

	order, err := ParseOrder(resp.Content)
	if err != nil {
		a.log.Warn("unreadable extraction output",
			zap.Error(err),
			zap.Int("output_len", len(resp.Content)),
		)
		return model.Order{}, err
	}
	return order, nil
}

// ComposeClarification asks the provider for a question covering missing
// fields and any pending item choices.
func (a *Assistant) ComposeClarification(ctx context.Context, order model.Order, missing []string, choices []model.ItemChoice) (string, error) {
	orderJSON, err := json.MarshalIndent(order, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal order: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current order:\n%s\n\n", orderJSON)
	if len(missing) > 0 {
		fmt.Fprintf(&b, "Missing or incomplete: %s.\n", strings.Join(missing, ", "))
	}
	for _, c := range choices {
		fmt.Fprintf(&b, "The customer wrote %q; ask which they meant: %s.\n", c.Query, strings.Join(c.Candidates, ", "))
	}

	resp, err := a.complete(ctx, "clarify", &CompletionRequest{
		Model:       a.model,
		System:      clarificationPrompt,
		Messages:    []ChatMessage{{Role: "user", Content: b.String()}},
		MaxTokens:   200,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("compose clarification: %w", err)
	}

	question := strings.TrimSpace(resp.Content)
	if question == "" {
		return "", errors.New("compose clarification: empty response")
	}
	return question, nil
}

func (a *Assistant) complete(ctx context.Context, op string, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	resp, err := a.client.Complete(ctx, req)
	status := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case err != nil:
		status = "error"
	}

	var in, out int
	if resp != nil {
		in, out = resp.TokensIn, resp.TokensOut
	}
	metrics.RecordLLM(a.client.Name(), op, status, time.Since(start).Seconds(), in, out)

	if err != nil {
		a.log.Warn("llm request failed", zap.String("operation", op), zap.Error(err))
		return nil, err
	}
	return resp, nil
}
