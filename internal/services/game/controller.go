package game

import (
	"context"
	"log/slog"

	"github.com/mcoot/sandbag/internal/dependencies/clock"
	"github.com/mcoot/sandbag/internal/dependencies/ids"
	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/services/retry"
	"github.com/mcoot/sandbag/internal/services/round"
	"github.com/mcoot/sandbag/internal/storage"
)

// Controller is the command surface for games. Every mutation is a
// read-modify-conditional-write against storage, retried on conflict.
type Controller struct {
	storage storage.Storage
	machine *round.Machine
	clock   clock.Clock
	ids     ids.Generator
	retry   retry.Config
	logger  *slog.Logger
}

// NewController creates a new GameController
func NewController(
	storage storage.Storage,
	machine *round.Machine,
	clock clock.Clock,
	ids ids.Generator,
	retryConfig retry.Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		machine: machine,
		clock:   clock,
		ids:     ids,
		retry:   retryConfig,
		logger:  logger,
	}
}

// mutate loads the game, applies fn to the snapshot and writes it back
// conditioned on the version read. fn runs again on a fresh snapshot after
// every conflict, so it must derive everything from the game it is given.
func (c *Controller) mutate(ctx context.Context, gameID model.GameID, fn func(*model.Game) error) (*model.Game, error) {
	var result *model.Game
	err := retry.Do(ctx, c.retry, c.logger.With(slog.String("game_id", string(gameID))), func() error {
		game, err := c.storage.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if err := fn(game); err != nil {
			return err
		}
		game.UpdatedAt = c.clock.Now()
		if err := c.storage.SaveGame(ctx, game); err != nil {
			return err
		}
		result = game
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateGame stores a new inactive game with no rounds
func (c *Controller) CreateGame(
	ctx context.Context,
	roomCode model.RoomCode,
	players []model.Player,
	teams []model.Team,
	targetScore int,
) (*model.Game, error) {
	if len(players) < model.MinPlayers || len(players) > model.MaxPlayers {
		return nil, model.ErrInvalidPlayerCount
	}
	if targetScore <= 0 {
		return nil, model.ErrInvalidTargetScore
	}
	if err := validateTeams(teams); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	seen := make(map[model.PlayerID]bool, len(players))
	gamePlayers := make([]model.Player, len(players))
	for i, p := range players {
		if p.ID == "" {
			p.ID = model.PlayerID(c.ids.NewID())
		}
		if seen[p.ID] {
			return nil, model.ErrDuplicatePlayer
		}
		seen[p.ID] = true
		if p.Team == "" {
			p.Team = model.TeamNone
		}
		if !p.Team.Valid() {
			return nil, model.ErrInvalidTeam
		}
		if p.JoinedAt.IsZero() {
			p.JoinedAt = now
		}
		gamePlayers[i] = p
	}

	gameTeams := model.NewTeams()
	if len(teams) > 0 {
		gameTeams = append([]model.Team(nil), teams...)
	}

	game := &model.Game{
		ID:          model.GameID(c.ids.NewID()),
		RoomCode:    roomCode,
		Players:     gamePlayers,
		Teams:       gameTeams,
		Rounds:      []model.Round{},
		TargetScore: targetScore,
		IsActive:    false,
		PlayerBooks: make(map[model.PlayerID]int),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.storage.CreateGame(ctx, game); err != nil {
		c.logger.Error("failed to create game",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("game created",
		slog.String("game_id", string(game.ID)),
		slog.String("room_code", string(roomCode)),
		slog.Int("player_count", len(gamePlayers)),
		slog.Int("target_score", targetScore),
	)

	return game, nil
}

// validateTeams accepts no teams, or exactly one red and one blue team
func validateTeams(teams []model.Team) error {
	if len(teams) == 0 {
		return nil
	}
	if len(teams) != len(model.AllTeams) {
		return model.ErrInvalidTeam
	}
	seen := make(map[model.TeamID]bool, len(teams))
	for _, t := range teams {
		if !t.ID.Valid() || seen[t.ID] {
			return model.ErrInvalidTeam
		}
		seen[t.ID] = true
	}
	return nil
}

// FetchGame retrieves a game by ID
func (c *Controller) FetchGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	return c.storage.GetGame(ctx, gameID)
}

// DeleteGame removes a game document
func (c *Controller) DeleteGame(ctx context.Context, gameID model.GameID) error {
	if err := c.storage.DeleteGame(ctx, gameID); err != nil {
		return err
	}
	c.logger.Info("game deleted", slog.String("game_id", string(gameID)))
	return nil
}

// AssignPlayerToTeam sets a player's team before the game starts
func (c *Controller) AssignPlayerToTeam(
	ctx context.Context,
	gameID model.GameID,
	playerID model.PlayerID,
	team model.TeamAssignment,
) (*model.Game, error) {
	if !team.Valid() {
		return nil, model.ErrInvalidTeam
	}

	game, err := c.mutate(ctx, gameID, func(g *model.Game) error {
		if g.HasStarted() {
			return model.ErrGameAlreadyStarted
		}
		player := g.GetPlayer(playerID)
		if player == nil {
			return model.ErrPlayerNotFound
		}
		player.Team = team
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player assigned to team",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.String("team", string(team)),
	)
	return game, nil
}

// StartGame activates a game with balanced teams and deals the first round
func (c *Controller) StartGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	game, err := c.mutate(ctx, gameID, func(g *model.Game) error {
		if g.HasStarted() || g.IsFinished() {
			return model.ErrGameAlreadyStarted
		}
		if len(g.Players) < model.MinPlayers || len(g.Players) > model.MaxPlayers {
			return model.ErrInvalidPlayerCount
		}
		for _, p := range g.Players {
			if p.Team == model.TeamNone {
				return model.ErrPlayerUnassigned
			}
		}
		red := len(g.TeamMembers(model.TeamIDRed))
		blue := len(g.TeamMembers(model.TeamIDBlue))
		if red == 0 || red != blue {
			return model.ErrTeamsUnbalanced
		}

		g.Teams = model.NewTeams()
		g.PlayerBooks = make(map[model.PlayerID]int)
		g.WinnerTeamID = nil
		g.IsActive = true
		c.machine.AppendRound(g, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("game started",
		slog.String("game_id", string(gameID)),
		slog.Int("player_count", len(game.Players)),
	)
	return game, nil
}

// SubmitBid records a player's individual bid for the current round
func (c *Controller) SubmitBid(ctx context.Context, gameID model.GameID, playerID model.PlayerID, bid int) (*model.Game, error) {
	game, err := c.mutate(ctx, gameID, func(g *model.Game) error {
		return c.machine.SubmitBid(g, playerID, bid)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("bid submitted",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.Int("bid", bid),
		slog.String("phase", string(game.CurrentRound().Phase)),
	)
	return game, nil
}

// ConfirmTeamBid records a team's combined bid from its designated confirmer
func (c *Controller) ConfirmTeamBid(
	ctx context.Context,
	gameID model.GameID,
	teamID model.TeamID,
	bid int,
	confirmedBy model.PlayerID,
) (*model.Game, error) {
	game, err := c.mutate(ctx, gameID, func(g *model.Game) error {
		return c.machine.ConfirmTeamBid(g, teamID, bid, confirmedBy)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("team bid confirmed",
		slog.String("game_id", string(gameID)),
		slog.String("team_id", string(teamID)),
		slog.String("confirmed_by", string(confirmedBy)),
		slog.Int("bid", bid),
	)
	return game, nil
}

// FinishRound ends play in the current round. Restricting this to the host
// is the caller's concern.
func (c *Controller) FinishRound(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	game, err := c.mutate(ctx, gameID, func(g *model.Game) error {
		return c.machine.FinishRound(g)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("round finished", slog.String("game_id", string(gameID)))
	return game, nil
}

// SubmitBooks records a player's books. The last submission scores the
// round and checks for a winner in the same write.
func (c *Controller) SubmitBooks(ctx context.Context, gameID model.GameID, playerID model.PlayerID, books int) (*model.Game, error) {
	var scored bool
	var outcome outcome
	game, err := c.mutate(ctx, gameID, func(g *model.Game) error {
		var err error
		scored, err = c.machine.SubmitBooks(g, playerID, books)
		if err != nil {
			return err
		}
		outcome = outcomeNone
		if scored {
			outcome = c.resolveOutcome(g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if scored {
		scoredRound := game.Rounds[len(game.Rounds)-1]
		if outcome == outcomeTieBreaker {
			scoredRound = game.Rounds[len(game.Rounds)-2]
		}
		c.logger.Info("round scored",
			slog.String("game_id", string(gameID)),
			slog.Int("round", scoredRound.Number),
			slog.Int("red_delta", scoredRound.RoundScore[model.TeamIDRed]),
			slog.Int("blue_delta", scoredRound.RoundScore[model.TeamIDBlue]),
		)
		c.logOutcome(game, outcome)
	}
	return game, nil
}

// StartNextRound appends a fresh bidding round after the current one is scored
func (c *Controller) StartNextRound(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	game, err := c.mutate(ctx, gameID, func(g *model.Game) error {
		return c.machine.StartNextRound(g)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("round started",
		slog.String("game_id", string(gameID)),
		slog.Int("round", game.CurrentRound().Number),
	)
	return game, nil
}

// ForfeitGame ends the game immediately in favour of the quitter's opponents
func (c *Controller) ForfeitGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Game, error) {
	game, err := c.mutate(ctx, gameID, func(g *model.Game) error {
		player := g.GetPlayer(playerID)
		if player == nil {
			return model.ErrPlayerNotFound
		}
		team, ok := player.Team.TeamID()
		if !ok {
			return model.ErrTeamNotFound
		}
		if !g.IsActive {
			return model.ErrGameNotActive
		}
		finish(g, team.Opponent())
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("game forfeited",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.String("winner", string(*game.WinnerTeamID)),
	)
	return game, nil
}

// EndGame force-sets the winner and deactivates the game regardless of score
func (c *Controller) EndGame(ctx context.Context, gameID model.GameID, winner model.TeamID) (*model.Game, error) {
	if !winner.Valid() {
		return nil, model.ErrTeamNotFound
	}

	game, err := c.mutate(ctx, gameID, func(g *model.Game) error {
		finish(g, winner)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("game ended",
		slog.String("game_id", string(gameID)),
		slog.String("winner", string(winner)),
	)
	return game, nil
}
