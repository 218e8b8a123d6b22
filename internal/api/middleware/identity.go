package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/sandbag/internal/api/apierr"
	"github.com/mcoot/sandbag/internal/model"
)

// PlayerHeader names the acting player on a request
const PlayerHeader = "X-Player-ID"

type contextKey string

const playerIDContextKey contextKey = "player_id"

// Identity stores the X-Player-ID header, when present, in the request context
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(PlayerHeader)); id != "" {
			r = r.WithContext(WithPlayerID(r.Context(), model.PlayerID(id)))
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePlayer rejects requests that do not name the acting player
func RequirePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPlayerID(r.Context()); !ok {
			apierr.WriteError(w, apierr.NewPlayerRequiredError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPlayerID returns a context carrying the acting player
func WithPlayerID(ctx context.Context, id model.PlayerID) context.Context {
	return context.WithValue(ctx, playerIDContextKey, id)
}

// GetPlayerID returns the acting player from the request context
func GetPlayerID(ctx context.Context) (model.PlayerID, bool) {
	id, ok := ctx.Value(playerIDContextKey).(model.PlayerID)
	return id, ok && id != ""
}

// MustGetPlayerID returns the acting player or panics
func MustGetPlayerID(ctx context.Context) model.PlayerID {
	id, ok := GetPlayerID(ctx)
	if !ok {
		panic("no player in context - RequirePlayer middleware not applied?")
	}
	return id
}
