package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGame() *Game {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	partner := PlayerID("p3")
	winner := TeamIDRed
	round := NewRound("r1", 1, now)
	round.Phase = PhaseScored
	round.Bids["p1"] = 3
	round.TeamBids[TeamIDRed] = 6
	round.Confirmers[TeamIDRed] = "p1"
	round.BooksWon["p1"] = 4
	round.RoundScore[TeamIDRed] = 60
	round.RoundBags[TeamIDRed] = 0

	return &Game{
		ID:       "g1",
		RoomCode: "ABC123",
		Players: []Player{
			{ID: "p1", DisplayName: "Ann", Team: TeamRed, PartnerID: &partner, JoinedAt: now},
			{ID: "p2", DisplayName: "Bo", Team: TeamBlue, JoinedAt: now},
			{ID: "p3", DisplayName: "Cy", Team: TeamRed, JoinedAt: now},
			{ID: "p4", DisplayName: "Di", Team: TeamNone, JoinedAt: now},
		},
		Teams:        []Team{{ID: TeamIDRed, Score: 60, Bags: 3}, {ID: TeamIDBlue, Score: -40}},
		Rounds:       []Round{round},
		TargetScore:  500,
		IsActive:     true,
		WinnerTeamID: &winner,
		PlayerBooks:  map[PlayerID]int{"p1": 4},
		Version:      7,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestGame_CurrentRound(t *testing.T) {
	g := &Game{}
	assert.Nil(t, g.CurrentRound())
	assert.False(t, g.HasStarted())

	g.Rounds = []Round{NewRound("r1", 1, time.Time{}), NewRound("r2", 2, time.Time{})}
	require.NotNil(t, g.CurrentRound())
	assert.Equal(t, RoundID("r2"), g.CurrentRound().ID)
}

func TestGame_TeamMembersDerivedFromPlayers(t *testing.T) {
	g := sampleGame()

	assert.Equal(t, []PlayerID{"p1", "p3"}, g.TeamMembers(TeamIDRed))
	assert.Equal(t, []PlayerID{"p2"}, g.TeamMembers(TeamIDBlue))

	g.GetPlayer("p4").Team = TeamBlue
	assert.Equal(t, []PlayerID{"p2", "p4"}, g.TeamMembers(TeamIDBlue))
}

func TestGame_TeamTotals(t *testing.T) {
	g := sampleGame()
	assert.Equal(t, map[TeamID]int{TeamIDRed: 60, TeamIDBlue: -40}, g.TeamTotals())
}

func TestGame_CloneIsDeep(t *testing.T) {
	g := sampleGame()
	c := g.Clone()

	c.Players[0].Team = TeamBlue
	*c.Players[0].PartnerID = "p2"
	c.Teams[0].Score = 999
	c.Rounds[0].Bids["p1"] = 13
	c.PlayerBooks["p1"] = 13
	*c.WinnerTeamID = TeamIDBlue

	assert.Equal(t, TeamRed, g.Players[0].Team)
	assert.Equal(t, PlayerID("p3"), *g.Players[0].PartnerID)
	assert.Equal(t, 60, g.Teams[0].Score)
	assert.Equal(t, 3, g.Rounds[0].Bids["p1"])
	assert.Equal(t, 4, g.PlayerBooks["p1"])
	assert.Equal(t, TeamIDRed, *g.WinnerTeamID)
}

func TestGame_JSONRoundTrip(t *testing.T) {
	g := sampleGame()

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var decoded Game
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, g, &decoded)
}

func TestRoundPhase_Before(t *testing.T) {
	assert.True(t, PhaseBidding.Before(PhaseTeamConfirmation))
	assert.True(t, PhasePlaying.Before(PhaseScored))
	assert.False(t, PhaseScored.Before(PhaseScoring))
	assert.False(t, PhasePlaying.Before(PhasePlaying))
}

func TestErrors_MatchExactlyOneKind(t *testing.T) {
	kinds := []error{ErrNotFound, ErrInvalidPhase, ErrUnauthorized, ErrValidation, ErrConflict}
	tests := []struct {
		err  error
		kind error
	}{
		{ErrGameNotFound, ErrNotFound},
		{ErrTeamNotFound, ErrNotFound},
		{ErrWrongPhase, ErrInvalidPhase},
		{ErrTeamBidConfirmed, ErrInvalidPhase},
		{ErrNotConfirmer, ErrUnauthorized},
		{ErrInvalidBid, ErrValidation},
		{ErrRoomFull, ErrValidation},
		{ErrVersionConflict, ErrConflict},
		{ErrRetriesExceeded, ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			for _, kind := range kinds {
				assert.Equal(t, kind == tt.kind, errors.Is(tt.err, kind), "kind %q", kind)
			}
		})
	}
}

func TestTeamAssignment(t *testing.T) {
	id, ok := TeamRed.TeamID()
	assert.True(t, ok)
	assert.Equal(t, TeamIDRed, id)

	_, ok = TeamNone.TeamID()
	assert.False(t, ok)

	assert.False(t, TeamAssignment("green").Valid())
	assert.Equal(t, TeamIDBlue, TeamIDRed.Opponent())
}
