package game

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/sandbag/internal/model"
)

// ErrSubscriptionClosed is reported when the store ends a feed the caller
// did not cancel
var ErrSubscriptionClosed = errors.New("game subscription closed by storage")

// Subscription is a live view of one game
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops delivery. It is idempotent and does not affect commands
// already in flight.
func (s *Subscription) Cancel() {
	s.cancel()
}

// Done is closed once no further callbacks will run
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Subscribe delivers the current snapshot and then every newer one to
// onChange. Snapshots arrive in strictly increasing version order; stale or
// repeated versions are skipped. Delivery problems go to onError. Callbacks
// run on a single goroutine and must not block for long.
func (c *Controller) Subscribe(
	ctx context.Context,
	gameID model.GameID,
	onChange func(*model.Game),
	onError func(error),
) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)

	// Subscribe before reading so no write between the two is lost
	feed, err := c.storage.SubscribeGame(subCtx, gameID)
	if err != nil {
		cancel()
		return nil, err
	}
	current, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		_ = feed.Close()
		cancel()
		return nil, err
	}

	logger := c.logger.With(slog.String("game_id", string(gameID)))
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer feed.Close()

		last := current.Version
		onChange(current)

		for {
			select {
			case <-subCtx.Done():
				return
			case u, ok := <-feed.Updates():
				if !ok {
					if subCtx.Err() == nil {
						logger.Warn("game feed ended unexpectedly")
						onError(ErrSubscriptionClosed)
					}
					return
				}
				if u.Err != nil {
					logger.Warn("game feed delivered an error", slog.String("error", u.Err.Error()))
					onError(u.Err)
					continue
				}
				if u.Game.Version <= last {
					continue
				}
				last = u.Game.Version
				onChange(u.Game)
			}
		}
	}()

	logger.Debug("subscribed to game")
	return sub, nil
}
