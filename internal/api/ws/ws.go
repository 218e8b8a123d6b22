package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/sandbag/internal/api/sse"
	"github.com/mcoot/sandbag/internal/model"
)

const (
	// writeTimeout is the timeout for writing a message to the peer
	writeTimeout = 10 * time.Second
	// pongTimeout is how long to wait for the next pong. Must be greater
	// than pingInterval.
	pongTimeout = 60 * time.Second
	// pingInterval is the interval in which pings are sent to the peer
	pingInterval = (pongTimeout * 9) / 10
	// maxMessageSize is the largest message accepted from the peer
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Serve upgrades the request and writes the client's events as JSON text
// messages until either side goes away. The stream is one-way: anything
// the peer sends is read and discarded.
func Serve(w http.ResponseWriter, r *http.Request, client *sse.Client, logger *slog.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	logger = logger.With(slog.String("game_id", string(client.GameID())))

	readerDone := make(chan struct{})
	go readPump(conn, readerDone, logger)
	writePump(conn, client, readerDone, logger)
}

// readPump keeps control frames flowing and notices when the peer closes
func readPump(conn *websocket.Conn, done chan<- struct{}, logger *slog.Logger) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, client *sse.Client, readerDone <-chan struct{}, logger *slog.Logger) {
	pingTicker := time.NewTicker(pingInterval)
	defer func() {
		pingTicker.Stop()
		_ = conn.Close()
	}()

	connected := model.Event{Type: model.EventConnected, Timestamp: time.Now().UTC(), GameID: client.GameID()}
	if err := write(conn, connected); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-client.Events():
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"))
				return
			}
			if err := write(conn, event); err != nil {
				logger.Warn("websocket write failed", slog.String("error", err.Error()))
				return
			}

		case <-pingTicker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-readerDone:
			return
		}
	}
}

func write(conn *websocket.Conn, event model.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(event)
}
