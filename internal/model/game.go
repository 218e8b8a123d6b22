package model

import (
	"slices"
	"time"
)

// GameID uniquely identifies a game
type GameID string

// DefaultTargetScore is used when a game is promoted from a room without one
const DefaultTargetScore = 500

// Player count bounds for a game
const (
	MinPlayers = 2
	MaxPlayers = 4
)

// Game is the shared document every client converges on
type Game struct {
	ID       GameID   `json:"id"`
	RoomCode RoomCode `json:"room_code"`

	// Players are fixed at creation; only their team and partner change
	Players []Player `json:"players"`
	Teams   []Team   `json:"teams"`

	// Rounds in play order. The last one is the current round.
	Rounds []Round `json:"rounds"`

	TargetScore  int              `json:"target_score"`
	IsActive     bool             `json:"is_active"`
	WinnerTeamID *TeamID          `json:"winner_team_id,omitempty"`
	PlayerBooks  map[PlayerID]int `json:"player_books"`

	// Version is the optimistic concurrency token, bumped by storage on every write
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentRound returns the latest round, or nil before the game starts
func (g *Game) CurrentRound() *Round {
	if len(g.Rounds) == 0 {
		return nil
	}
	return &g.Rounds[len(g.Rounds)-1]
}

// HasStarted reports whether the first round has been dealt
func (g *Game) HasStarted() bool {
	return len(g.Rounds) > 0
}

// IsFinished reports whether a winner has been decided
func (g *Game) IsFinished() bool {
	return g.WinnerTeamID != nil
}

// GetPlayer returns the player with the given ID, or nil if not found
func (g *Game) GetPlayer(id PlayerID) *Player {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// GetTeam returns the team with the given ID, or nil if not found
func (g *Game) GetTeam(id TeamID) *Team {
	for i := range g.Teams {
		if g.Teams[i].ID == id {
			return &g.Teams[i]
		}
	}
	return nil
}

// TeamMembers returns the IDs of players assigned to the team, in player order
func (g *Game) TeamMembers(team TeamID) []PlayerID {
	var members []PlayerID
	for _, p := range g.Players {
		if p.OnTeam(team) {
			members = append(members, p.ID)
		}
	}
	return members
}

// TeamTotals returns each team's running score keyed by team
func (g *Game) TeamTotals() map[TeamID]int {
	totals := make(map[TeamID]int, len(g.Teams))
	for _, t := range g.Teams {
		totals[t.ID] = t.Score
	}
	return totals
}

// Clone returns a deep copy of the game
func (g *Game) Clone() *Game {
	c := *g
	c.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		c.Players[i] = p.clone()
	}
	c.Teams = slices.Clone(g.Teams)
	c.Rounds = make([]Round, len(g.Rounds))
	for i := range g.Rounds {
		c.Rounds[i] = g.Rounds[i].Clone()
	}
	c.PlayerBooks = cloneMap(g.PlayerBooks)
	if g.WinnerTeamID != nil {
		winner := *g.WinnerTeamID
		c.WinnerTeamID = &winner
	}
	return &c
}
