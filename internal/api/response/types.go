package response

import (
	"time"

	"github.com/mcoot/sandbag/internal/model"
)

// Player represents a player in API responses
type Player struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Team        string  `json:"team"`
	PartnerID   *string `json:"partner_id,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	var partner *string
	if p.PartnerID != nil {
		id := string(*p.PartnerID)
		partner = &id
	}
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		Team:        string(p.Team),
		PartnerID:   partner,
	}
}

func playersFromModel(players []model.Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = PlayerFromModel(p)
	}
	return out
}

// Room represents a room in API responses
type Room struct {
	Code      string    `json:"code"`
	HostID    string    `json:"host_id"`
	Players   []Player  `json:"players"`
	GameID    *string   `json:"game_id"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomFromModel converts model.Room
func RoomFromModel(r *model.Room) Room {
	var gameID *string
	if r.GameID != nil {
		id := string(*r.GameID)
		gameID = &id
	}
	return Room{
		Code:      string(r.Code),
		HostID:    string(r.HostID),
		Players:   playersFromModel(r.Players),
		GameID:    gameID,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
	}
}

// JoinRoomResponse is returned when a player creates or joins a room. It
// carries the player's ID so clients can act as them later.
type JoinRoomResponse struct {
	PlayerID string `json:"player_id"`
	Room     Room   `json:"room"`
}

// Team represents a team's running totals
type Team struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
	Bags  int    `json:"bags"`
}

// Round represents one round in API responses
type Round struct {
	ID         string            `json:"id"`
	Number     int               `json:"number"`
	Phase      string            `json:"phase"`
	TieBreaker bool              `json:"tie_breaker,omitempty"`
	Bids       map[string]int    `json:"bids"`
	TeamBids   map[string]int    `json:"team_bids"`
	Confirmers map[string]string `json:"confirmers"`
	BooksWon   map[string]int    `json:"books_won"`
	RoundScore map[string]int    `json:"round_score,omitempty"`
	RoundBags  map[string]int    `json:"round_bags,omitempty"`
}

// RoundFromModel converts model.Round
func RoundFromModel(r model.Round) Round {
	confirmers := make(map[string]string, len(r.Confirmers))
	for team, player := range r.Confirmers {
		confirmers[string(team)] = string(player)
	}
	return Round{
		ID:         string(r.ID),
		Number:     r.Number,
		Phase:      string(r.Phase),
		TieBreaker: r.TieBreaker,
		Bids:       stringKeys(r.Bids),
		TeamBids:   stringKeys(r.TeamBids),
		Confirmers: confirmers,
		BooksWon:   stringKeys(r.BooksWon),
		RoundScore: stringKeys(r.RoundScore),
		RoundBags:  stringKeys(r.RoundBags),
	}
}

// Game represents a game in API responses
type Game struct {
	ID           string         `json:"id"`
	RoomCode     string         `json:"room_code,omitempty"`
	Players      []Player       `json:"players"`
	Teams        []Team         `json:"teams"`
	Rounds       []Round        `json:"rounds"`
	CurrentRound *int           `json:"current_round"`
	Phase        string         `json:"phase,omitempty"`
	TargetScore  int            `json:"target_score"`
	IsActive     bool           `json:"is_active"`
	WinnerTeamID *string        `json:"winner_team_id"`
	PlayerBooks  map[string]int `json:"player_books"`
	Version      int64          `json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// GameFromModel converts model.Game
func GameFromModel(g *model.Game) Game {
	teams := make([]Team, len(g.Teams))
	for i, t := range g.Teams {
		teams[i] = Team{ID: string(t.ID), Score: t.Score, Bags: t.Bags}
	}

	rounds := make([]Round, len(g.Rounds))
	for i, r := range g.Rounds {
		rounds[i] = RoundFromModel(r)
	}

	var current *int
	var phase string
	if r := g.CurrentRound(); r != nil {
		n := r.Number
		current = &n
		phase = string(r.Phase)
	}

	var winner *string
	if g.WinnerTeamID != nil {
		w := string(*g.WinnerTeamID)
		winner = &w
	}

	return Game{
		ID:           string(g.ID),
		RoomCode:     string(g.RoomCode),
		Players:      playersFromModel(g.Players),
		Teams:        teams,
		Rounds:       rounds,
		CurrentRound: current,
		Phase:        phase,
		TargetScore:  g.TargetScore,
		IsActive:     g.IsActive,
		WinnerTeamID: winner,
		PlayerBooks:  stringKeys(g.PlayerBooks),
		Version:      g.Version,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

// Health is the response of the health endpoint
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func stringKeys[K ~string](m map[K]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
