package sse

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/sandbag/internal/model"
)

const (
	// Time between keepalive comments
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing events
	sendBufferSize = 16
)

// Client is one stream consumer attached to a Hub
type Client struct {
	hub         *Hub
	label       string
	send        chan model.Event
	connectedAt time.Time
}

// NewClient creates a new stream client
func NewClient(hub *Hub, label string, now time.Time) *Client {
	return &Client{
		hub:         hub,
		label:       label,
		send:        make(chan model.Event, sendBufferSize),
		connectedAt: now,
	}
}

// Events returns the client's event channel. It is closed when the client
// is unregistered or the hub shuts down.
func (c *Client) Events() <-chan model.Event {
	return c.send
}

// GameID returns the game the client is watching
func (c *Client) GameID() model.GameID {
	return c.hub.gameID
}

// offer queues an event, discarding the oldest pending one when the buffer
// is full. It reports false if something was discarded.
func (c *Client) offer(event model.Event) bool {
	delivered := true
	for {
		select {
		case c.send <- event:
			return delivered
		default:
		}
		select {
		case <-c.send:
			delivered = false
		default:
		}
	}
}

// ServeSSE streams the client's events as server-sent events until the
// request ends or the hub closes the client
func ServeSSE(w http.ResponseWriter, r *http.Request, client *Client) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	connected := model.Event{
		Type:      model.EventConnected,
		Timestamp: client.connectedAt,
		GameID:    client.GameID(),
	}
	if err := writeEvent(w, connected); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.Events():
			if !ok {
				return
			}
			if err := writeEvent(w, event); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = w.Write(formatSSEMessage(string(event.Type), string(data)))
	return err
}

// formatSSEMessage formats an SSE message with event name and data.
// Each line of data gets its own "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
