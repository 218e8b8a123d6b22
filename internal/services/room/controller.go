package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/sandbag/internal/dependencies/clock"
	"github.com/mcoot/sandbag/internal/dependencies/ids"
	"github.com/mcoot/sandbag/internal/dependencies/random"
	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/services/game"
	"github.com/mcoot/sandbag/internal/services/retry"
	"github.com/mcoot/sandbag/internal/storage"
)

const (
	// CodeLength is the length of generated room codes
	CodeLength = 6
	// CodeAlphabet is the characters used in room codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxCodeAttempts = 20
)

// Controller manages rooms: membership, partner pairing and promotion to a game
type Controller struct {
	storage        storage.Storage
	gameController *game.Controller
	clock          clock.Clock
	random         random.Random
	ids            ids.Generator
	retry          retry.Config
	logger         *slog.Logger
}

// NewController creates a new RoomController
func NewController(
	storage storage.Storage,
	gameController *game.Controller,
	clock clock.Clock,
	random random.Random,
	ids ids.Generator,
	retryConfig retry.Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:        storage,
		gameController: gameController,
		clock:          clock,
		random:         random,
		ids:            ids,
		retry:          retryConfig,
		logger:         logger,
	}
}

// mutate applies fn to a fresh copy of the room and writes it back
// conditioned on the version read, retrying on conflict
func (c *Controller) mutate(ctx context.Context, code model.RoomCode, fn func(*model.Room) error) (*model.Room, error) {
	var result *model.Room
	err := retry.Do(ctx, c.retry, c.logger.With(slog.String("room_code", string(code))), func() error {
		room, err := c.storage.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		if err := fn(room); err != nil {
			return err
		}
		room.UpdatedAt = c.clock.Now()
		if err := c.storage.SaveRoom(ctx, room); err != nil {
			return err
		}
		result = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// newMember fills in the fields a joining player does not choose
func (c *Controller) newMember(player model.Player) model.Player {
	if player.ID == "" {
		player.ID = model.PlayerID(c.ids.NewID())
	}
	player.Team = model.TeamNone
	player.PartnerID = nil
	player.JoinedAt = c.clock.Now()
	return player
}

// CreateRoom creates a new room with the given player as host
func (c *Controller) CreateRoom(ctx context.Context, host model.Player) (*model.Room, error) {
	now := c.clock.Now()
	host = c.newMember(host)

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := model.RoomCode(c.random.String(CodeLength, CodeAlphabet))
		exists, err := c.storage.RoomExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		room := &model.Room{
			Code:      code,
			HostID:    host.ID,
			Players:   []model.Player{host},
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = c.storage.CreateRoom(ctx, room)
		if errors.Is(err, model.ErrRoomExists) {
			continue
		}
		if err != nil {
			return nil, err
		}

		c.logger.Info("room created",
			slog.String("room_code", string(code)),
			slog.String("host_id", string(host.ID)),
		)
		return room, nil
	}
	return nil, fmt.Errorf("no free room code after %d attempts", maxCodeAttempts)
}

// GetRoom retrieves a room by code
func (c *Controller) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.storage.GetRoom(ctx, code)
}

// JoinRoom adds a player to a room with a free seat
func (c *Controller) JoinRoom(ctx context.Context, code model.RoomCode, player model.Player) (*model.Room, error) {
	member := c.newMember(player)

	room, err := c.mutate(ctx, code, func(r *model.Room) error {
		if r.GameID != nil {
			return model.ErrRoomHasGame
		}
		if r.GetPlayer(member.ID) != nil {
			return model.ErrAlreadyInRoom
		}
		if r.IsFull() {
			return model.ErrRoomFull
		}
		r.Players = append(r.Players, member)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player joined room",
		slog.String("room_code", string(code)),
		slog.String("player_id", string(member.ID)),
		slog.Int("player_count", len(room.Players)),
	)
	return room, nil
}

// LeaveRoom removes a player from a room. The host role passes to the next
// member, and a room left empty is deleted.
func (c *Controller) LeaveRoom(ctx context.Context, code model.RoomCode, playerID model.PlayerID) error {
	room, err := c.mutate(ctx, code, func(r *model.Room) error {
		if r.GetPlayer(playerID) == nil {
			return model.ErrNotInRoom
		}

		remaining := r.Players[:0]
		for _, p := range r.Players {
			if p.ID == playerID {
				continue
			}
			if p.PartnerID != nil && *p.PartnerID == playerID {
				p.PartnerID = nil
			}
			remaining = append(remaining, p)
		}
		r.Players = remaining

		if r.HostID == playerID && len(r.Players) > 0 {
			r.HostID = r.Players[0].ID
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("player left room",
		slog.String("room_code", string(code)),
		slog.String("player_id", string(playerID)),
	)

	if len(room.Players) == 0 {
		// A join that landed after the leave keeps the room alive
		err := c.storage.DeleteRoom(ctx, code, room.Version)
		switch {
		case errors.Is(err, model.ErrVersionConflict):
			c.logger.Debug("empty room changed before delete",
				slog.String("room_code", string(code)),
			)
		case err != nil:
			c.logger.Warn("failed to delete empty room",
				slog.String("room_code", string(code)),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// SetPartner pairs two members with each other, dropping any earlier
// pairing either had. A nil partnerID clears the player's pairing.
func (c *Controller) SetPartner(ctx context.Context, code model.RoomCode, playerID model.PlayerID, partnerID *model.PlayerID) (*model.Room, error) {
	if partnerID != nil && *partnerID == playerID {
		return nil, model.ErrSelfPartner
	}

	room, err := c.mutate(ctx, code, func(r *model.Room) error {
		player := r.GetPlayer(playerID)
		if player == nil {
			return model.ErrNotInRoom
		}
		var partner *model.Player
		if partnerID != nil {
			if partner = r.GetPlayer(*partnerID); partner == nil {
				return model.ErrNotInRoom
			}
		}

		unpair(r, player)
		if partner == nil {
			return nil
		}
		unpair(r, partner)
		playerRef, partnerRef := player.ID, partner.ID
		player.PartnerID = &partnerRef
		partner.PartnerID = &playerRef
		return nil
	})
	if err != nil {
		return nil, err
	}

	attrs := []any{
		slog.String("room_code", string(code)),
		slog.String("player_id", string(playerID)),
	}
	if partnerID != nil {
		attrs = append(attrs, slog.String("partner_id", string(*partnerID)))
	}
	c.logger.Info("partner updated", attrs...)
	return room, nil
}

// unpair clears p's partner link and the reverse link pointing at p
func unpair(r *model.Room, p *model.Player) {
	if p.PartnerID == nil {
		return
	}
	if old := r.GetPlayer(*p.PartnerID); old != nil && old.PartnerID != nil && *old.PartnerID == p.ID {
		old.PartnerID = nil
	}
	p.PartnerID = nil
}

// PromoteToGame creates a game from the room's members. Partner pairs are
// seated together: the first pair on red, the second on blue. Unpaired
// players are left for team assignment on the game.
func (c *Controller) PromoteToGame(ctx context.Context, code model.RoomCode, requestedBy model.PlayerID, targetScore int) (*model.Game, error) {
	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.HostID != requestedBy {
		return nil, model.ErrNotHost
	}
	if room.GameID != nil {
		return nil, model.ErrRoomHasGame
	}
	if targetScore == 0 {
		targetScore = model.DefaultTargetScore
	}

	g, err := c.gameController.CreateGame(ctx, code, SeatPartners(room.Players), nil, targetScore)
	if err != nil {
		return nil, err
	}

	_, err = c.mutate(ctx, code, func(r *model.Room) error {
		if r.HostID != requestedBy {
			return model.ErrNotHost
		}
		if r.GameID != nil {
			return model.ErrRoomHasGame
		}
		r.GameID = &g.ID
		return nil
	})
	if err != nil {
		// Lost a race with another promotion or a host change
		if delErr := c.gameController.DeleteGame(ctx, g.ID); delErr != nil {
			c.logger.Warn("failed to delete orphaned game",
				slog.String("game_id", string(g.ID)),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, err
	}

	c.logger.Info("room promoted to game",
		slog.String("room_code", string(code)),
		slog.String("game_id", string(g.ID)),
	)
	return g, nil
}

// SeatPartners returns copies of players with partner pairs assigned to
// teams in pairing order. Players without a partner in the list get no team.
func SeatPartners(players []model.Player) []model.Player {
	seated := make([]model.Player, len(players))
	copy(seated, players)

	index := make(map[model.PlayerID]int, len(seated))
	for i, p := range seated {
		index[p.ID] = i
		seated[i].Team = model.TeamNone
	}

	next := 0
	for i := range seated {
		p := &seated[i]
		if p.Team != model.TeamNone || p.PartnerID == nil || next >= len(model.AllTeams) {
			continue
		}
		j, ok := index[*p.PartnerID]
		if !ok || seated[j].Team != model.TeamNone {
			continue
		}
		team := model.AllTeams[next].Assignment()
		p.Team = team
		seated[j].Team = team
		next++
	}
	return seated
}
