package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/sandbag/internal/api/sse"
	"github.com/mcoot/sandbag/internal/dependencies/clock"
	"github.com/mcoot/sandbag/internal/dependencies/ids"
	"github.com/mcoot/sandbag/internal/dependencies/random"
	"github.com/mcoot/sandbag/internal/services/game"
	"github.com/mcoot/sandbag/internal/services/retry"
	"github.com/mcoot/sandbag/internal/services/room"
	"github.com/mcoot/sandbag/internal/services/round"
	"github.com/mcoot/sandbag/internal/services/scoring"
	"github.com/mcoot/sandbag/internal/storage"
	"github.com/mcoot/sandbag/internal/storage/memory"
	redisstorage "github.com/mcoot/sandbag/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    ids.Generator

	// Services
	ScoringService *scoring.Service
	RoundMachine   *round.Machine
	GameController *game.Controller
	RoomController *room.Controller
	HubManager     *sse.HubManager

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Retry bounds the conflict retry loop (optional)
	// If MaxAttempts is zero, defaults to retry.DefaultConfig()
	Retry retry.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	var store storage.Storage
	var closers []io.Closer
	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig, logger.With(slog.String("component", "redis")))
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	retryCfg := cfg.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.DefaultConfig()
	}

	rnd := random.New()
	app := newWithDependencies(store, clock.New(), rnd, ids.New(), round.NewRandomSelector(rnd), retryCfg, logger)
	app.StorageType = storageType
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	idGen ids.Generator,
	selector round.ConfirmerSelector,
	retryCfg retry.Config,
	logger *slog.Logger,
) *App {
	scoringService := scoring.New()
	machine := round.NewMachine(scoringService, selector, clk, idGen)
	gameController := game.NewController(store, machine, clk, idGen, retryCfg, logger.With(slog.String("component", "game")))
	roomController := room.NewController(store, gameController, clk, rnd, idGen, retryCfg, logger.With(slog.String("component", "room")))
	hubManager := sse.NewHubManager(gameController, clk, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		IDs:            idGen,
		ScoringService: scoringService,
		RoundMachine:   machine,
		GameController: gameController,
		RoomController: roomController,
		HubManager:     hubManager,
	}
}

// Close stops change streams and releases storage connections
func (a *App) Close() error {
	a.HubManager.Close()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
