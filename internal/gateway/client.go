package gateway

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is one registered websocket connection. A user may hold many of
// these at once (tabs, devices). Writes go through a buffered channel so
// a slow consumer never blocks a push; when the buffer is full the event
// is dropped, which is acceptable because the ledger remains the source
// of truth.
type Client struct {
	ID     string
	UserID uint64

	conn   *websocket.Conn
	logger *zap.SugaredLogger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(userID uint64, conn *websocket.Conn, bufferSize int, logger *zap.SugaredLogger) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, bufferSize),
		logger: logger,
	}
}

// Send enqueues a message without blocking. A push holding a registry
// snapshot may race the disconnect path, so the closed state is checked
// under the same lock that close takes; events for a closed client are
// dropped.
func (c *Client) Send(message []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
		c.logger.Warnw("send buffer full, dropping event",
			"handle_id", c.ID, "user_id", c.UserID)
	}
}

// close ends the write pump; safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump serializes all writes to the connection and keeps it alive
// with pings. Runs as one goroutine per connection.
func (c *Client) writePump(pingInterval, writeTimeout time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
