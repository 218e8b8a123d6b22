package redis

import (
	"fmt"

	"github.com/mcoot/sandbag/internal/model"
)

// Key prefix for all sandbag data
const keyPrefix = "sandbag"

// roomKey returns the Redis key for a Room
func roomKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, code)
}

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// gameChannel returns the pub/sub channel carrying a game's snapshots
func gameChannel(id model.GameID) string {
	return fmt.Sprintf("%s:game-updates:%s", keyPrefix, id)
}
