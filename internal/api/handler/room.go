package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/sandbag/internal/api/middleware"
	"github.com/mcoot/sandbag/internal/api/request"
	"github.com/mcoot/sandbag/internal/api/response"
	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/services/room"
)

// RoomHandler handles room-related endpoints
type RoomHandler struct {
	roomController *room.Controller
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomController *room.Controller) *RoomHandler {
	return &RoomHandler{roomController: roomController}
}

// joiningPlayer builds the player described by the request. The ID comes
// from the X-Player-ID header and is generated when absent.
func joiningPlayer(r *http.Request) (model.Player, error) {
	var req request.JoinRoomRequest
	if err := decodeBody(r, &req, true); err != nil {
		return model.Player{}, err
	}
	id, _ := middleware.GetPlayerID(r.Context())
	return model.Player{ID: id, DisplayName: req.DisplayName}, nil
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	host, err := joiningPlayer(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	rm, err := h.roomController.CreateRoom(r.Context(), host)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.JoinRoomResponse{
		PlayerID: string(rm.HostID),
		Room:     response.RoomFromModel(rm),
	})
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	rm, err := h.roomController.GetRoom(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteRoom(w, http.StatusOK, rm)
}

// Join handles POST /api/v1/rooms/{code}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])
	player, err := joiningPlayer(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	rm, err := h.roomController.JoinRoom(r.Context(), code, player)
	if err != nil {
		WriteError(w, err)
		return
	}

	// The joiner is always appended last
	joined := rm.Players[len(rm.Players)-1]
	response.JSON(w, http.StatusOK, response.JoinRoomResponse{
		PlayerID: string(joined.ID),
		Room:     response.RoomFromModel(rm),
	})
}

// Leave handles POST /api/v1/rooms/{code}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	if err := h.roomController.LeaveRoom(r.Context(), code, playerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// SetPartner handles POST /api/v1/rooms/{code}/partner
func (h *RoomHandler) SetPartner(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.SetPartnerRequest
	if err := decodeBody(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	var partner *model.PlayerID
	if req.PartnerID != nil {
		id := model.PlayerID(*req.PartnerID)
		partner = &id
	}

	rm, err := h.roomController.SetPartner(r.Context(), code, playerID, partner)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteRoom(w, http.StatusOK, rm)
}

// Promote handles POST /api/v1/rooms/{code}/game
func (h *RoomHandler) Promote(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.MustGetPlayerID(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.PromoteRoomRequest
	if err := decodeBody(r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.roomController.PromoteToGame(r.Context(), code, playerID, req.TargetScore)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteGame(w, http.StatusCreated, g)
}
