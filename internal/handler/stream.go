package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/order-capture/internal/middleware"
	"github.com/capitalize-ai/order-capture/internal/model"
	"github.com/capitalize-ai/order-capture/internal/orchestrator"
	"github.com/capitalize-ai/order-capture/internal/service"
	"github.com/capitalize-ai/order-capture/pkg/logger"
	"github.com/capitalize-ai/order-capture/pkg/metrics"
)

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	orders *service.OrderService
	logger *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(orders *service.OrderService, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		orders: orders,
		logger: log,
	}
}

// sseWriter defers the SSE headers until the first event so that errors
// raised before the turn starts can still be plain JSON responses.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseWriter) send(event string, data interface{}) error {
	if !s.started {
		s.started = true
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
		s.w.WriteHeader(http.StatusOK)
	}
	return sendSSEEvent(s.w, s.flusher, event, data)
}

// StreamTurn handles POST /api/v1/sessions/{sessionID}/stream
// It runs one turn and streams each stage transition, then the reply.
func (h *StreamHandler) StreamTurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	sessionID := chi.URLParam(r, "sessionID")

	req, ok := readChatRequest(w, r, sessionID)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sse := &sseWriter{w: w, flusher: flusher}
	resp, err := h.orders.Chat(ctx, tenantID, sessionID, req.UserMessage, func(tr orchestrator.Transition) {
		if ctx.Err() != nil {
			return
		}
		if err := sse.send("stage", &model.StageEvent{From: tr.From, To: tr.To, Outcome: tr.Outcome}); err != nil {
			h.logger.Debug("failed to send stage event", zap.Error(err))
		}
	})
	if err != nil {
		status, msg := statusFor(err)
		if !sse.started {
			writeError(w, status, msg)
			return
		}
		sse.send("error", &model.ErrorEvent{Code: "turn_error", Message: msg})
		return
	}

	sse.send("reply", resp)
	sse.send("done", map[string]bool{"success": true})
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
