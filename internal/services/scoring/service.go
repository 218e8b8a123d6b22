package scoring

import (
	"github.com/mcoot/sandbag/internal/model"
)

// TeamResult is the outcome of one round for one team
type TeamResult struct {
	TeamID     model.TeamID
	Bid        int
	Books      int
	Bags       int // bags earned this round
	RoundScore int // bid score before any bag penalty
	Penalized  bool
	Delta      int // total change to the running score, penalty included
	TotalScore int
	TotalBags  int // accumulated bags after the penalty wrap, always 0..9
}

// Service scores completed rounds
type Service struct{}

// New creates a new ScoringService
func New() *Service {
	return &Service{}
}

// ScoreTeam computes the bid score and bags for a team's bid and books taken
func ScoreTeam(bid, books int) (score int, bags int) {
	if books >= bid {
		bags = books - bid
		return 10*bid + bags, bags
	}
	return -10 * bid, 0
}

// ApplyBags adds bags to an accumulated count and reports whether the
// penalty threshold was crossed. The returned count is always 0..9.
func ApplyBags(accumulated, bags int) (total int, penalized bool) {
	total = accumulated + bags
	if total >= model.BagPenaltyThreshold {
		return total % model.BagPenaltyThreshold, true
	}
	return total, false
}

// Score applies the round's results to the game. Neither input is modified;
// the returned round carries the per-team deltas and the returned game the
// new running totals.
func (s *Service) Score(game *model.Game, round *model.Round) (*model.Round, *model.Game) {
	updatedGame := game.Clone()
	updatedRound := round.Clone()

	for _, result := range s.ScoreTeams(game, round) {
		team := updatedGame.GetTeam(result.TeamID)
		if team == nil {
			continue
		}
		team.Score = result.TotalScore
		team.Bags = result.TotalBags
		updatedRound.RoundScore[result.TeamID] = result.Delta
		updatedRound.RoundBags[result.TeamID] = result.Bags
	}

	if updatedGame.PlayerBooks == nil {
		updatedGame.PlayerBooks = make(map[model.PlayerID]int)
	}
	for playerID, books := range round.BooksWon {
		updatedGame.PlayerBooks[playerID] += books
	}

	return &updatedRound, updatedGame
}

// ScoreTeams computes per-team results without applying them
func (s *Service) ScoreTeams(game *model.Game, round *model.Round) []TeamResult {
	results := make([]TeamResult, 0, len(game.Teams))
	for _, team := range game.Teams {
		bid := round.TeamBids[team.ID]
		books := 0
		for _, playerID := range game.TeamMembers(team.ID) {
			books += round.BooksWon[playerID]
		}

		roundScore, bags := ScoreTeam(bid, books)
		total := team.Score + roundScore
		totalBags := team.Bags
		penalized := false
		if bags > 0 {
			totalBags, penalized = ApplyBags(team.Bags, bags)
			if penalized {
				total -= model.BagPenalty
			}
		}

		results = append(results, TeamResult{
			TeamID:     team.ID,
			Bid:        bid,
			Books:      books,
			Bags:       bags,
			RoundScore: roundScore,
			Penalized:  penalized,
			Delta:      total - team.Score,
			TotalScore: total,
			TotalBags:  totalBags,
		})
	}
	return results
}
