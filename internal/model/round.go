package model

import (
	"maps"
	"time"
)

// RoundID uniquely identifies a round
type RoundID string

// RoundPhase is the position of a round in its lifecycle.
// Phases only ever advance in declaration order.
type RoundPhase string

const (
	PhaseBidding          RoundPhase = "bidding"
	PhaseTeamConfirmation RoundPhase = "team_confirmation"
	PhasePlaying          RoundPhase = "playing"
	PhaseScoring          RoundPhase = "scoring"
	PhaseScored           RoundPhase = "scored"
)

var phaseOrder = map[RoundPhase]int{
	PhaseBidding:          0,
	PhaseTeamConfirmation: 1,
	PhasePlaying:          2,
	PhaseScoring:          3,
	PhaseScored:           4,
}

// Before reports whether p comes strictly earlier than other
func (p RoundPhase) Before(other RoundPhase) bool {
	return phaseOrder[p] < phaseOrder[other]
}

// Bid and book counts are bounded by the number of tricks in a hand
const (
	MinBid   = 0
	MaxBid   = 13
	MinBooks = 0
	MaxBooks = 13
)

// Round is one hand: bidding, play, and the resulting score
type Round struct {
	ID         RoundID             `json:"id"`
	Number     int                 `json:"number"`
	Phase      RoundPhase          `json:"phase"`
	TieBreaker bool                `json:"tie_breaker,omitempty"`
	Bids       map[PlayerID]int    `json:"bids"`
	TeamBids   map[TeamID]int      `json:"team_bids"`
	Confirmers map[TeamID]PlayerID `json:"confirmers"`
	BooksWon   map[PlayerID]int    `json:"books_won"`
	RoundScore map[TeamID]int      `json:"round_score"`
	RoundBags  map[TeamID]int      `json:"round_bags"`
	CreatedAt  time.Time           `json:"created_at"`
}

// NewRound returns an empty round in the bidding phase
func NewRound(id RoundID, number int, now time.Time) Round {
	return Round{
		ID:         id,
		Number:     number,
		Phase:      PhaseBidding,
		Bids:       make(map[PlayerID]int),
		TeamBids:   make(map[TeamID]int),
		Confirmers: make(map[TeamID]PlayerID),
		BooksWon:   make(map[PlayerID]int),
		RoundScore: make(map[TeamID]int),
		RoundBags:  make(map[TeamID]int),
		CreatedAt:  now,
	}
}

// Clone returns a deep copy of the round
func (r *Round) Clone() Round {
	c := *r
	c.Bids = cloneMap(r.Bids)
	c.TeamBids = cloneMap(r.TeamBids)
	c.Confirmers = cloneMap(r.Confirmers)
	c.BooksWon = cloneMap(r.BooksWon)
	c.RoundScore = cloneMap(r.RoundScore)
	c.RoundBags = cloneMap(r.RoundBags)
	return c
}

// cloneMap copies m, always returning a non-nil map
func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	maps.Copy(c, m)
	return c
}
