package round

import (
	"github.com/mcoot/sandbag/internal/dependencies/clock"
	"github.com/mcoot/sandbag/internal/dependencies/ids"
	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/services/scoring"
)

// Machine applies round commands to an in-memory game snapshot.
// It never touches storage; callers own persistence and retries.
// A failed command leaves the snapshot unchanged.
type Machine struct {
	scoring  *scoring.Service
	selector ConfirmerSelector
	clock    clock.Clock
	ids      ids.Generator
}

// NewMachine creates a new round Machine
func NewMachine(
	scoringService *scoring.Service,
	selector ConfirmerSelector,
	clock clock.Clock,
	ids ids.Generator,
) *Machine {
	return &Machine{
		scoring:  scoringService,
		selector: selector,
		clock:    clock,
		ids:      ids,
	}
}

// currentRound returns the current round if the game is active and the
// round is in the wanted phase
func currentRound(game *model.Game, phase model.RoundPhase) (*model.Round, error) {
	round := game.CurrentRound()
	if round == nil {
		return nil, model.ErrNoActiveRound
	}
	if !game.IsActive {
		return nil, model.ErrGameNotActive
	}
	if round.Phase != phase {
		return nil, model.ErrWrongPhase
	}
	return round, nil
}

// SubmitBid records a player's bid. The last bid moves the round to team
// confirmation and designates one confirmer per team.
func (m *Machine) SubmitBid(game *model.Game, playerID model.PlayerID, bid int) error {
	round, err := currentRound(game, model.PhaseBidding)
	if err != nil {
		return err
	}
	if game.GetPlayer(playerID) == nil {
		return model.ErrPlayerNotFound
	}
	if bid < model.MinBid || bid > model.MaxBid {
		return model.ErrInvalidBid
	}

	round.Bids[playerID] = bid
	if len(round.Bids) < len(game.Players) {
		return nil
	}

	for _, team := range model.AllTeams {
		members := game.TeamMembers(team)
		if len(members) == 0 {
			continue
		}
		round.Confirmers[team] = m.selector.SelectConfirmer(team, members)
	}
	round.Phase = model.PhaseTeamConfirmation
	return nil
}

// ConfirmTeamBid records a team's combined bid. Only the designated
// confirmer may submit it. Once every team has confirmed, play begins.
func (m *Machine) ConfirmTeamBid(game *model.Game, teamID model.TeamID, bid int, confirmedBy model.PlayerID) error {
	round, err := currentRound(game, model.PhaseTeamConfirmation)
	if err != nil {
		return err
	}
	confirmer, ok := round.Confirmers[teamID]
	if !ok {
		return model.ErrTeamNotFound
	}
	if confirmer != confirmedBy {
		return model.ErrNotConfirmer
	}
	if _, done := round.TeamBids[teamID]; done {
		return model.ErrTeamBidConfirmed
	}
	if bid < model.MinBid || bid > model.MaxBid {
		return model.ErrInvalidBid
	}

	round.TeamBids[teamID] = bid
	for team := range round.Confirmers {
		if _, done := round.TeamBids[team]; !done {
			return nil
		}
	}
	round.Phase = model.PhasePlaying
	return nil
}

// FinishRound ends play and opens book submission
func (m *Machine) FinishRound(game *model.Game) error {
	round, err := currentRound(game, model.PhasePlaying)
	if err != nil {
		return err
	}
	round.Phase = model.PhaseScoring
	return nil
}

// SubmitBooks records how many books a player took. The last submission
// scores the round in place and reports scored as true.
func (m *Machine) SubmitBooks(game *model.Game, playerID model.PlayerID, books int) (scored bool, err error) {
	round, err := currentRound(game, model.PhaseScoring)
	if err != nil {
		return false, err
	}
	if game.GetPlayer(playerID) == nil {
		return false, model.ErrPlayerNotFound
	}
	if books < model.MinBooks || books > model.MaxBooks {
		return false, model.ErrInvalidBooks
	}

	round.BooksWon[playerID] = books
	if len(round.BooksWon) < len(game.Players) {
		return false, nil
	}

	scoredRound, scoredGame := m.scoring.Score(game, round)
	scoredRound.Phase = model.PhaseScored
	scoredGame.Rounds[len(scoredGame.Rounds)-1] = *scoredRound
	*game = *scoredGame
	return true, nil
}

// StartNextRound appends a fresh round once the current one is scored
func (m *Machine) StartNextRound(game *model.Game) error {
	if _, err := currentRound(game, model.PhaseScored); err != nil {
		return err
	}
	m.AppendRound(game, false)
	return nil
}

// AppendRound adds a new bidding round without checking the current phase
func (m *Machine) AppendRound(game *model.Game, tieBreaker bool) *model.Round {
	r := model.NewRound(model.RoundID(m.ids.NewID()), len(game.Rounds)+1, m.clock.Now())
	r.TieBreaker = tieBreaker
	game.Rounds = append(game.Rounds, r)
	return game.CurrentRound()
}
