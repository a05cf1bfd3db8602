package model

// ChatRequest is one inbound user message.
type ChatRequest struct {
	UserMessage string `json:"user_message"`
}

// ChatResponse is the assistant reply plus a snapshot of the session state.
type ChatResponse struct {
	AssistantMessage string             `json:"assistant_message"`
	State            *ConversationState `json:"state"`
}

// ListEventsResponse is the response for replaying session events.
type ListEventsResponse struct {
	Events       []OrderEvent `json:"events"`
	HasMore      bool         `json:"has_more"`
	LastSequence uint64       `json:"last_sequence"`
}

// CatalogItemsResponse lists canonical catalog names.
type CatalogItemsResponse struct {
	Items []string `json:"items"`
}

// CatalogRefreshResponse reports the result of a catalog reload.
type CatalogRefreshResponse struct {
	Message    string `json:"message"`
	TotalItems int    `json:"total_items"`
}

// StageEvent is streamed to clients as the machine moves between stages.
type StageEvent struct {
	From    Stage  `json:"from"`
	To      Stage  `json:"to"`
	Outcome string `json:"outcome,omitempty"`
}

// ErrorEvent represents an error event.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
