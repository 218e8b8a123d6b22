package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Documents are held JSON-encoded so callers never share memory with the store.
type Storage struct {
	mu sync.RWMutex

	games       map[model.GameID][]byte
	rooms       map[model.RoomCode][]byte
	subscribers map[model.GameID]map[*subscription]struct{}
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		games:       make(map[model.GameID][]byte),
		rooms:       make(map[model.RoomCode][]byte),
		subscribers: make(map[model.GameID]map[*subscription]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[game.ID]; ok {
		return model.ErrGameExists
	}
	return s.putGame(game, 1)
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	data, ok := s.games[id]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return decodeGame(data)
}

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.games[game.ID]
	if !ok {
		return model.ErrGameNotFound
	}
	version, err := storedVersion(data)
	if err != nil {
		return err
	}
	if version != game.Version {
		return model.ErrVersionConflict
	}
	return s.putGame(game, version+1)
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
	for sub := range s.subscribers[id] {
		close(sub.updates)
	}
	delete(s.subscribers, id)
	return nil
}

// putGame stores game at the given version and notifies subscribers.
// Callers hold the write lock.
func (s *Storage) putGame(game *model.Game, version int64) error {
	doc := *game
	doc.Version = version
	data, err := json.Marshal(&doc)
	if err != nil {
		return err
	}
	s.games[game.ID] = data
	game.Version = version

	for sub := range s.subscribers[game.ID] {
		snapshot, err := decodeGame(data)
		storage.Offer(sub.updates, storage.Update{Game: snapshot, Err: err})
	}
	return nil
}

func (s *Storage) SubscribeGame(ctx context.Context, id model.GameID) (storage.Subscription, error) {
	sub := &subscription{
		updates: make(chan storage.Update, storage.SubscriptionBuffer),
		done:    make(chan struct{}),
	}
	sub.cancel = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// DeleteGame may already have ended this subscription
		if _, ok := s.subscribers[id][sub]; !ok {
			return
		}
		delete(s.subscribers[id], sub)
		if len(s.subscribers[id]) == 0 {
			delete(s.subscribers, id)
		}
		close(sub.updates)
	}

	s.mu.Lock()
	if s.subscribers[id] == nil {
		s.subscribers[id] = make(map[*subscription]struct{})
	}
	s.subscribers[id][sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// SubscriberCount returns the number of live subscriptions for a game
func (s *Storage) SubscriberCount(id model.GameID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers[id])
}

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Code]; ok {
		return model.ErrRoomExists
	}
	return s.putRoom(room, 1)
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	data, ok := s.rooms[code]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.rooms[room.Code]
	if !ok {
		return model.ErrRoomNotFound
	}
	version, err := storedVersion(data)
	if err != nil {
		return err
	}
	if version != room.Version {
		return model.ErrVersionConflict
	}
	return s.putRoom(room, version+1)
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.rooms[code]
	if !ok {
		return nil
	}
	stored, err := storedVersion(data)
	if err != nil {
		return err
	}
	if stored != version {
		return model.ErrVersionConflict
	}
	delete(s.rooms, code)
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok, nil
}

func (s *Storage) putRoom(room *model.Room, version int64) error {
	doc := *room
	doc.Version = version
	data, err := json.Marshal(&doc)
	if err != nil {
		return err
	}
	s.rooms[room.Code] = data
	room.Version = version
	return nil
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
	updates chan storage.Update
	done    chan struct{}
	once    sync.Once
	cancel  func()
}

func (s *subscription) Updates() <-chan storage.Update {
	return s.updates
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.cancel()
	})
	return nil
}
