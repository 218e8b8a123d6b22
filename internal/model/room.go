package model

import "time"

// RoomCode is a human-readable identifier for joining rooms
type RoomCode string

// MaxRoomPlayers caps room membership at one table
const MaxRoomPlayers = 4

// Room gathers players before a game is created.
// It carries no game state beyond the promoted game's ID.
type Room struct {
	Code      RoomCode  `json:"code"`
	HostID    PlayerID  `json:"host_id"`
	Players   []Player  `json:"players"`
	GameID    *GameID   `json:"game_id,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetPlayer returns the member with the given player ID, or nil if not found
func (r *Room) GetPlayer(id PlayerID) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// IsFull reports whether the room has no free seats
func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxRoomPlayers
}

// Clone returns a deep copy of the room
func (r *Room) Clone() *Room {
	c := *r
	c.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		c.Players[i] = p.clone()
	}
	if r.GameID != nil {
		id := *r.GameID
		c.GameID = &id
	}
	return &c
}
