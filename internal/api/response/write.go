package response

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/sandbag/internal/model"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteGame writes a game snapshot
func WriteGame(w http.ResponseWriter, status int, g *model.Game) {
	JSON(w, status, GameFromModel(g))
}

// WriteRoom writes a room snapshot
func WriteRoom(w http.ResponseWriter, status int, r *model.Room) {
	JSON(w, status, RoomFromModel(r))
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
