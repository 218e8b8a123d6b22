package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/sandbag/internal/api/handler"
	"github.com/mcoot/sandbag/internal/api/middleware"
	"github.com/mcoot/sandbag/internal/api/sse"
	"github.com/mcoot/sandbag/internal/services/game"
	"github.com/mcoot/sandbag/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	RoomController *room.Controller
	GameController *game.Controller
	HubManager     *sse.HubManager
	StorageType    string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.RoomController)
	gameHandler := handler.NewGameHandler(cfg.GameController)
	streamHandler := handler.NewStreamHandler(cfg.HubManager, cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Identity)

	// actor marks routes that act on behalf of the X-Player-ID player
	actor := func(h http.HandlerFunc) http.Handler {
		return middleware.RequirePlayer(h)
	}

	api.HandleFunc("/health", handler.Health(cfg.StorageType)).Methods(http.MethodGet)

	// Room routes
	api.HandleFunc("/rooms", roomHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{code}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}/join", roomHandler.Join).Methods(http.MethodPost)
	api.Handle("/rooms/{code}/leave", actor(roomHandler.Leave)).Methods(http.MethodPost)
	api.Handle("/rooms/{code}/partner", actor(roomHandler.SetPartner)).Methods(http.MethodPost)
	api.Handle("/rooms/{code}/game", actor(roomHandler.Promote)).Methods(http.MethodPost)

	// Game routes
	api.HandleFunc("/games", gameHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", gameHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/games/{id}/teams", gameHandler.AssignTeam).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/start", gameHandler.Start).Methods(http.MethodPost)
	api.Handle("/games/{id}/bids", actor(gameHandler.Bid)).Methods(http.MethodPost)
	api.Handle("/games/{id}/team-bids", actor(gameHandler.ConfirmTeamBid)).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/finish-round", gameHandler.FinishRound).Methods(http.MethodPost)
	api.Handle("/games/{id}/books", actor(gameHandler.Books)).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/rounds", gameHandler.NextRound).Methods(http.MethodPost)
	api.Handle("/games/{id}/forfeit", actor(gameHandler.Forfeit)).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/end", gameHandler.End).Methods(http.MethodPost)

	// Change streams
	api.HandleFunc("/games/{id}/events", streamHandler.Events).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/ws", streamHandler.WebSocket).Methods(http.MethodGet)

	return r
}
