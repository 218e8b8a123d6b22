package storage

import (
	"context"

	"github.com/mcoot/sandbag/internal/model"
)

// Storage defines the interface for document persistence.
//
// Writes are conditional: Save* succeeds only when the stored document's
// Version equals the caller's copy, and bumps Version on success. A mismatch
// returns model.ErrVersionConflict and leaves the stored document untouched.
type Storage interface {
	// Game operations
	CreateGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	SaveGame(ctx context.Context, game *model.Game) error
	// DeleteGame removes the game and ends its subscriptions
	DeleteGame(ctx context.Context, id model.GameID) error

	// SubscribeGame streams every snapshot written after the call returns.
	// The subscription ends when ctx is done, Close is called or the game is
	// deleted.
	SubscribeGame(ctx context.Context, id model.GameID) (Subscription, error)

	// Room operations
	CreateRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	SaveRoom(ctx context.Context, room *model.Room) error
	// DeleteRoom removes the room only while its stored Version equals
	// version; otherwise it returns model.ErrVersionConflict. Deleting a
	// missing room is not an error.
	DeleteRoom(ctx context.Context, code model.RoomCode, version int64) error
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)
}

// Update is one item of a game subscription: a snapshot or a delivery error
type Update struct {
	Game *model.Game
	Err  error
}

// Subscription is a live feed of game snapshots
type Subscription interface {
	// Updates is closed once the subscription ends
	Updates() <-chan Update
	// Close ends the subscription. Safe to call more than once.
	Close() error
}

// SubscriptionBuffer is the number of undelivered updates a subscription holds
// before the oldest is discarded
const SubscriptionBuffer = 16

// Offer delivers u on ch without blocking. When ch is full the oldest
// pending update is dropped so the newest snapshot always gets through.
func Offer(ch chan Update, u Update) {
	for {
		select {
		case ch <- u:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
