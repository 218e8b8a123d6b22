package sse

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/sandbag/internal/dependencies/clock"
	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/services/game"
)

// Source streams snapshots of a single game
type Source interface {
	Subscribe(ctx context.Context, gameID model.GameID, onChange func(*model.Game), onError func(error)) (*game.Subscription, error)
}

// Hub fans one game subscription out to every connected stream client
type Hub struct {
	gameID  model.GameID
	clients map[*Client]bool
	latest  *model.Event
	mu      sync.RWMutex
	clock   clock.Clock
	logger  *slog.Logger

	sub       *game.Subscription
	broadcast chan model.Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a new Hub for a game
func NewHub(gameID model.GameID, clock clock.Clock, logger *slog.Logger) *Hub {
	return &Hub{
		gameID:    gameID,
		clients:   make(map[*Client]bool),
		clock:     clock,
		logger:    logger.With(slog.String("game_id", string(gameID))),
		broadcast: make(chan model.Event, 64),
		done:      make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("stream hub started")
	for {
		select {
		case event := <-h.broadcast:
			h.mu.Lock()
			if event.Type == model.EventGameUpdated {
				h.latest = &event
			}
			dropped := 0
			for client := range h.clients {
				if !client.offer(event) {
					dropped++
				}
			}
			h.mu.Unlock()
			if dropped > 0 {
				h.logger.Warn("stream clients lagging, oldest event dropped", slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Debug("stream hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// Register adds a client to the hub and hands it the latest snapshot.
// It reports false once the hub is closed.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return false
	default:
	}
	h.clients[client] = true
	if h.latest != nil {
		client.offer(*h.latest)
	}
	h.logger.Info("stream client registered",
		slog.String("client", client.label),
		slog.Int("total_clients", len(h.clients)))
	return true
}

// Unregister removes a client and closes its channel
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.logger.Info("stream client unregistered",
		slog.String("client", client.label),
		slog.Duration("connection_duration", h.clock.Now().Sub(client.connectedAt)),
		slog.Int("total_clients", len(h.clients)))
}

// Publish queues an event for every client. It does nothing after Close.
func (h *Hub) Publish(event model.Event) {
	select {
	case h.broadcast <- event:
	case <-h.done:
	}
}

func (h *Hub) publishGame(g *model.Game) {
	h.Publish(model.NewGameUpdatedEvent(g, h.clock.Now()))
}

func (h *Hub) publishError(err error) {
	h.Publish(model.Event{
		Type:      model.EventStreamError,
		Timestamp: h.clock.Now(),
		GameID:    h.gameID,
		Message:   err.Error(),
	})
}

// Close cancels the game subscription and disconnects all clients
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		if h.sub != nil {
			h.sub.Cancel()
		}
		close(h.done)
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubManager keeps one hub per watched game. A hub is created with its first
// client and closed with its last.
type HubManager struct {
	source Source
	clock  clock.Clock
	hubs   map[model.GameID]*Hub
	mu     sync.Mutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(source Source, clock clock.Clock, logger *slog.Logger) *HubManager {
	return &HubManager{
		source: source,
		clock:  clock,
		hubs:   make(map[model.GameID]*Hub),
		logger: logger.With(slog.String("component", "stream")),
	}
}

// Join attaches a new client to the game's hub, subscribing to the game if
// nobody is watching it yet
func (m *HubManager) Join(gameID model.GameID, label string) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[gameID]
	if !ok {
		hub = NewHub(gameID, m.clock, m.logger)
		go hub.Run()
		sub, err := m.source.Subscribe(context.Background(), gameID, hub.publishGame, func(err error) {
			hub.publishError(err)
			if errors.Is(err, game.ErrSubscriptionClosed) {
				go m.drop(hub)
			}
		})
		if err != nil {
			hub.Close()
			return nil, err
		}
		hub.sub = sub
		m.hubs[gameID] = hub
	}

	client := NewClient(hub, label, m.clock.Now())
	if !hub.Register(client) {
		return nil, game.ErrSubscriptionClosed
	}
	return client, nil
}

// Leave detaches a client, closing the hub when it was the last one
func (m *HubManager) Leave(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub := client.hub
	hub.Unregister(client)
	if m.hubs[hub.gameID] == hub && hub.ClientCount() == 0 {
		hub.Close()
		delete(m.hubs, hub.gameID)
	}
}

// drop closes a hub whose feed has ended
func (m *HubManager) drop(hub *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hubs[hub.gameID] == hub {
		delete(m.hubs, hub.gameID)
	}
	hub.Close()
	m.logger.Info("stream hub removed", slog.String("game_id", string(hub.gameID)))
}

// HubCount returns the number of games currently watched
func (m *HubManager) HubCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hubs)
}

// Close shuts every hub down
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
