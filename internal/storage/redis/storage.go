package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/storage"
)

// errMissing is returned by compareAndSet when the key does not exist
var errMissing = errors.New("document missing")

// deletedPayload is published on a game's channel when the game is deleted
const deletedPayload = ""

// Storage is a Redis-backed implementation of the storage interface.
// Conditional writes use WATCH/MULTI; every game write is published on the
// game's channel for subscribers on any node.
type Storage struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a new Redis storage instance
func New(cfg Config, logger *slog.Logger) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	doc := *game
	doc.Version = 1
	data, err := json.Marshal(&doc)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, gameKey(game.ID), data, s.cfg.GameTTL).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrGameExists
	}
	game.Version = doc.Version
	s.publish(ctx, game.ID, data)
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	data, err := s.client.Get(ctx, gameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}
	return decodeGame(data)
}

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	doc := *game
	doc.Version = game.Version + 1
	data, err := json.Marshal(&doc)
	if err != nil {
		return err
	}

	err = s.compareAndSet(ctx, gameKey(game.ID), game.Version, data, s.cfg.GameTTL)
	if errors.Is(err, errMissing) {
		return model.ErrGameNotFound
	}
	if err != nil {
		return err
	}
	game.Version = doc.Version
	s.publish(ctx, game.ID, data)
	return nil
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID) error {
	if err := s.client.Del(ctx, gameKey(id)).Err(); err != nil {
		return err
	}
	s.publish(ctx, id, []byte(deletedPayload))
	return nil
}

// publish is best-effort; the write has already landed
func (s *Storage) publish(ctx context.Context, id model.GameID, data []byte) {
	if err := s.client.Publish(ctx, gameChannel(id), data).Err(); err != nil {
		s.logger.Warn("failed to publish game update",
			slog.String("game_id", string(id)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Storage) SubscribeGame(ctx context.Context, id model.GameID) (storage.Subscription, error) {
	pubsub := s.client.Subscribe(ctx, gameChannel(id))

	// Wait for the subscription to be confirmed so no write after this call is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to game %s: %w", id, err)
	}

	sub := &subscription{
		pubsub:  pubsub,
		updates: make(chan storage.Update, storage.SubscriptionBuffer),
		done:    make(chan struct{}),
	}
	go sub.run(ctx)
	return sub, nil
}

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) error {
	doc := *room
	doc.Version = 1
	data, err := json.Marshal(&doc)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, roomKey(room.Code), data, s.cfg.RoomTTL).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrRoomExists
	}
	room.Version = doc.Version
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	doc := *room
	doc.Version = room.Version + 1
	data, err := json.Marshal(&doc)
	if err != nil {
		return err
	}

	err = s.compareAndSet(ctx, roomKey(room.Code), room.Version, data, s.cfg.RoomTTL)
	if errors.Is(err, errMissing) {
		return model.ErrRoomNotFound
	}
	if err != nil {
		return err
	}
	room.Version = doc.Version
	return nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode, version int64) error {
	key := roomKey(code)
	err := s.compareAndApply(ctx, key, version, func(pipe redis.Pipeliner) {
		pipe.Del(ctx, key)
	})
	if errors.Is(err, errMissing) {
		return nil
	}
	return err
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// compareAndSet writes data to key only if the stored document's version is
// still expected. A write racing between WATCH and EXEC aborts the
// transaction and surfaces as model.ErrVersionConflict.
func (s *Storage) compareAndSet(ctx context.Context, key string, expected int64, data []byte, ttl time.Duration) error {
	return s.compareAndApply(ctx, key, expected, func(pipe redis.Pipeliner) {
		pipe.Set(ctx, key, data, ttl)
	})
}

// compareAndApply queues write in a transaction that commits only while the
// stored document at key is still at version expected
func (s *Storage) compareAndApply(ctx context.Context, key string, expected int64, write func(redis.Pipeliner)) error {
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return errMissing
		}
		if err != nil {
			return err
		}

		version, err := storedVersion(current)
		if err != nil {
			return err
		}
		if version != expected {
			return model.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(pipe)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrVersionConflict
	}
	return err
}

func decodeGame(data []byte) (*model.Game, error) {
	var game model.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// storedVersion reads only the version field of an encoded document
func storedVersion(data []byte) (int64, error) {
	var doc struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, err
	}
	return doc.Version, nil
}

type subscription struct {
	pubsub  *redis.PubSub
	updates chan storage.Update
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) run(ctx context.Context) {
	defer close(s.updates)
	defer s.pubsub.Close()

	messages := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok || msg.Payload == deletedPayload {
				return
			}
			game, err := decodeGame([]byte(msg.Payload))
			if err != nil {
				err = fmt.Errorf("decode game update: %w", err)
			}
			storage.Offer(s.updates, storage.Update{Game: game, Err: err})
		}
	}
}

func (s *subscription) Updates() <-chan storage.Update {
	return s.updates
}

func (s *subscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
