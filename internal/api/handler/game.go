package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/sandbag/internal/api/middleware"
	"github.com/mcoot/sandbag/internal/api/request"
	"github.com/mcoot/sandbag/internal/api/response"
	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/services/game"
)

// GameHandler handles game-related endpoints
type GameHandler struct {
	gameController *game.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController *game.Controller) *GameHandler {
	return &GameHandler{gameController: gameController}
}

func gameID(r *http.Request) model.GameID {
	return model.GameID(mux.Vars(r)["id"])
}

// command runs a game command and writes the resulting snapshot
func (h *GameHandler) command(w http.ResponseWriter, r *http.Request, status int, run func(ctx context.Context, id model.GameID) (*model.Game, error)) {
	g, err := run(r.Context(), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.WriteGame(w, status, g)
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := decodeBody(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	players := make([]model.Player, len(req.Players))
	for i, p := range req.Players {
		players[i] = model.Player{
			ID:          model.PlayerID(p.ID),
			DisplayName: p.DisplayName,
			Team:        model.TeamAssignment(p.Team),
		}
	}
	target := req.TargetScore
	if target == 0 {
		target = model.DefaultTargetScore
	}

	g, err := h.gameController.CreateGame(r.Context(), model.RoomCode(req.RoomCode), players, nil, target)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteGame(w, http.StatusCreated, g)
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, h.gameController.FetchGame)
}

// Delete handles DELETE /api/v1/games/{id}
func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.gameController.DeleteGame(r.Context(), gameID(r)); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// AssignTeam handles POST /api/v1/games/{id}/teams
func (h *GameHandler) AssignTeam(w http.ResponseWriter, r *http.Request) {
	var req request.AssignTeamRequest
	if err := decodeBody(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	h.command(w, r, http.StatusOK, func(ctx context.Context, id model.GameID) (*model.Game, error) {
		return h.gameController.AssignPlayerToTeam(ctx, id, model.PlayerID(req.PlayerID), model.TeamAssignment(req.Team))
	})
}

// Start handles POST /api/v1/games/{id}/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, h.gameController.StartGame)
}

// Bid handles POST /api/v1/games/{id}/bids
func (h *GameHandler) Bid(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	var req request.BidRequest
	if err := decodeBody(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if req.Bid == nil {
		WriteError(w, NewInvalidRequestError("bid is required"))
		return
	}

	h.command(w, r, http.StatusOK, func(ctx context.Context, id model.GameID) (*model.Game, error) {
		return h.gameController.SubmitBid(ctx, id, playerID, *req.Bid)
	})
}

// ConfirmTeamBid handles POST /api/v1/games/{id}/team-bids
func (h *GameHandler) ConfirmTeamBid(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	var req request.TeamBidRequest
	if err := decodeBody(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if req.Bid == nil {
		WriteError(w, NewInvalidRequestError("bid is required"))
		return
	}

	h.command(w, r, http.StatusOK, func(ctx context.Context, id model.GameID) (*model.Game, error) {
		return h.gameController.ConfirmTeamBid(ctx, id, model.TeamID(req.TeamID), *req.Bid, playerID)
	})
}

// FinishRound handles POST /api/v1/games/{id}/finish-round
func (h *GameHandler) FinishRound(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusOK, h.gameController.FinishRound)
}

// Books handles POST /api/v1/games/{id}/books
func (h *GameHandler) Books(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	var req request.BooksRequest
	if err := decodeBody(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}
	if req.Books == nil {
		WriteError(w, NewInvalidRequestError("books is required"))
		return
	}

	h.command(w, r, http.StatusOK, func(ctx context.Context, id model.GameID) (*model.Game, error) {
		return h.gameController.SubmitBooks(ctx, id, playerID, *req.Books)
	})
}

// NextRound handles POST /api/v1/games/{id}/rounds
func (h *GameHandler) NextRound(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, http.StatusCreated, h.gameController.StartNextRound)
}

// Forfeit handles POST /api/v1/games/{id}/forfeit
func (h *GameHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())

	h.command(w, r, http.StatusOK, func(ctx context.Context, id model.GameID) (*model.Game, error) {
		return h.gameController.ForfeitGame(ctx, id, playerID)
	})
}

// End handles POST /api/v1/games/{id}/end
func (h *GameHandler) End(w http.ResponseWriter, r *http.Request) {
	var req request.EndGameRequest
	if err := decodeBody(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	h.command(w, r, http.StatusOK, func(ctx context.Context, id model.GameID) (*model.Game, error) {
		return h.gameController.EndGame(ctx, id, model.TeamID(req.WinnerTeamID))
	})
}
