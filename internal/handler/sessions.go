package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/order-capture/internal/middleware"
	"github.com/capitalize-ai/order-capture/internal/model"
	"github.com/capitalize-ai/order-capture/internal/service"
	"github.com/capitalize-ai/order-capture/pkg/logger"
)

// SessionHandler handles order session endpoints.
type SessionHandler struct {
	orders *service.OrderService
	logger *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(orders *service.OrderService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		orders: orders,
		logger: log,
	}
}

// Send handles POST /api/v1/sessions/{sessionID}/messages
func (h *SessionHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	sessionID := chi.URLParam(r, "sessionID")

	req, ok := readChatRequest(w, r, sessionID)
	if !ok {
		return
	}

	resp, err := h.orders.Chat(ctx, tenantID, sessionID, req.UserMessage, nil)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("chat failed",
				zap.String("session_id", sessionID),
				zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
				zap.Error(err),
			)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/sessions/{sessionID}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.orders.Session(ctx, middleware.GetTenantID(ctx), sessionID)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// Events handles GET /api/v1/sessions/{sessionID}/events
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.orders.Events(ctx, middleware.GetTenantID(ctx), sessionID,
		queryUint(r, "after_sequence"), queryInt(r, "limit", 50))
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("failed to get events", zap.String("session_id", sessionID), zap.Error(err))
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// readChatRequest decodes and validates a chat request, writing the error
// response itself when it fails.
func readChatRequest(w http.ResponseWriter, r *http.Request, sessionID string) (*model.ChatRequest, bool) {
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	var req model.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	if err := middleware.ValidateMessageContent(req.UserMessage); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}
