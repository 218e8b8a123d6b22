package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/sandbag/internal/api/sse"
	"github.com/mcoot/sandbag/internal/api/ws"
)

// StreamHandler serves game change streams
type StreamHandler struct {
	hubManager *sse.HubManager
	logger     *slog.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(hubManager *sse.HubManager, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "stream")),
	}
}

// join attaches the request to the game's hub, writing an error response
// when the game cannot be watched
func (h *StreamHandler) join(w http.ResponseWriter, r *http.Request) (*sse.Client, bool) {
	client, err := h.hubManager.Join(gameID(r), r.RemoteAddr)
	if err != nil {
		WriteError(w, err)
		return nil, false
	}
	return client, true
}

// Events handles GET /api/v1/games/{id}/events
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	client, ok := h.join(w, r)
	if !ok {
		return
	}
	defer h.hubManager.Leave(client)

	sse.ServeSSE(w, r, client)
}

// WebSocket handles GET /api/v1/games/{id}/ws
func (h *StreamHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	client, ok := h.join(w, r)
	if !ok {
		return
	}
	defer h.hubManager.Leave(client)

	ws.Serve(w, r, client, h.logger)
}
