// Package retry runs read-modify-write operations until their conditional
// write lands, backing off between attempts.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mcoot/sandbag/internal/model"
)

// Config bounds the retry loop
type Config struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig returns sensible defaults for interactive play
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     8,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
	}
}

func (c Config) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.InitialInterval
	exp.MaxInterval = c.MaxInterval
	exp.MaxElapsedTime = 0

	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// Retryable reports whether err may succeed on another attempt. Version
// conflicts and infrastructure errors are retryable; domain errors are not.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, model.ErrVersionConflict):
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrInvalidPhase),
		errors.Is(err, model.ErrUnauthorized),
		errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrConflict):
		return false
	}
	return true
}

// Do calls attempt until it succeeds, fails permanently, or the attempt
// budget runs out. Exhausting the budget on version conflicts returns
// model.ErrRetriesExceeded.
func Do(ctx context.Context, cfg Config, logger *slog.Logger, attempt func() error) error {
	n := 0
	err := backoff.Retry(func() error {
		n++
		err := attempt()
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		logger.Debug("retrying after failed attempt",
			slog.Int("attempt", n),
			slog.String("error", err.Error()),
		)
		return err
	}, cfg.backOff(ctx))

	if errors.Is(err, model.ErrVersionConflict) {
		logger.Warn("giving up after repeated write conflicts", slog.Int("attempts", n))
		return model.ErrRetriesExceeded
	}
	return err
}
