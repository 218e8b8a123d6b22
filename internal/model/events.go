package model

import "time"

// EventType identifies the type of change-stream event
type EventType string

const (
	EventConnected   EventType = "connected"
	EventGameUpdated EventType = "game_updated"
	EventStreamError EventType = "stream_error"
)

// Event is what change-stream transports send to clients
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	GameID    GameID    `json:"game_id"`
	Version   int64     `json:"version,omitempty"`
	Game      *Game     `json:"game,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// NewGameUpdatedEvent wraps a snapshot for delivery
func NewGameUpdatedEvent(game *Game, now time.Time) Event {
	return Event{
		Type:      EventGameUpdated,
		Timestamp: now,
		GameID:    game.ID,
		Version:   game.Version,
		Game:      game,
	}
}
