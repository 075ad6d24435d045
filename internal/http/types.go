package http

import (
	"time"

	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/view"
)

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse is the response body for POST /api/chat.
type ChatResponse struct {
	Response string           `json:"response"`
	Cards    []assistant.Card `json:"cards"`
	QueryID  string           `json:"queryId,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LecturesResponse is the response body for GET /api/v1/lectures.
type LecturesResponse struct {
	Tab         view.Tab   `json:"tab"`
	Page        int        `json:"page"`
	TotalPages  int        `json:"totalPages"`
	Total       int        `json:"total"`
	RefreshedAt time.Time  `json:"refreshedAt,omitzero"`
	Rows        []view.Row `json:"rows"`
}

// HealthResponse is the response body for GET /health. RefreshedAt is the
// last successful catalog refresh and is omitted before the first one.
type HealthResponse struct {
	Status      string            `json:"status"`
	Services    map[string]string `json:"services"`
	Records     int               `json:"records"`
	RefreshedAt time.Time         `json:"refreshed_at,omitzero"`
}
