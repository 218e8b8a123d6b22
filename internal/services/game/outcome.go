package game

import (
	"log/slog"

	"github.com/mcoot/sandbag/internal/model"
)

type outcome int

const (
	outcomeNone outcome = iota
	outcomeWinner
	outcomeTieBreaker
)

// resolveOutcome runs after a round is scored. After a regular round a
// single team at or past the target wins, and both teams reaching it forces
// a tie-breaker. After a tie-breaker any strict lead wins.
func (c *Controller) resolveOutcome(g *model.Game) outcome {
	scored := g.CurrentRound()
	totals := g.TeamTotals()
	red, blue := totals[model.TeamIDRed], totals[model.TeamIDBlue]

	if scored.TieBreaker {
		switch {
		case red > blue:
			finish(g, model.TeamIDRed)
			return outcomeWinner
		case blue > red:
			finish(g, model.TeamIDBlue)
			return outcomeWinner
		}
		c.machine.AppendRound(g, true)
		return outcomeTieBreaker
	}

	redReached := red >= g.TargetScore
	blueReached := blue >= g.TargetScore
	switch {
	case redReached && blueReached:
		c.machine.AppendRound(g, true)
		return outcomeTieBreaker
	case redReached:
		finish(g, model.TeamIDRed)
		return outcomeWinner
	case blueReached:
		finish(g, model.TeamIDBlue)
		return outcomeWinner
	}
	return outcomeNone
}

// finish records the winner and deactivates the game
func finish(g *model.Game, winner model.TeamID) {
	g.WinnerTeamID = &winner
	g.IsActive = false
}

func (c *Controller) logOutcome(g *model.Game, o outcome) {
	totals := g.TeamTotals()
	attrs := []any{
		slog.String("game_id", string(g.ID)),
		slog.Int("red_score", totals[model.TeamIDRed]),
		slog.Int("blue_score", totals[model.TeamIDBlue]),
	}
	switch o {
	case outcomeWinner:
		c.logger.Info("game won", append(attrs, slog.String("winner", string(*g.WinnerTeamID)))...)
	case outcomeTieBreaker:
		c.logger.Info("tie-breaker round added", append(attrs, slog.Int("round", g.CurrentRound().Number))...)
	}
}
