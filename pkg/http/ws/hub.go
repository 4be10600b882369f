// Package ws streams server-driven session events (countdown ticks, forced
// submission) to connected clients over WebSocket.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// MessageType constants for the session event stream.
const (
	TypeTick    = "tick"
	TypeExpired = "expired"
	TypePing    = "ping"
	TypePong    = "pong"
)

// Message wraps all WebSocket payloads.
type Message struct {
	Type             string `json:"type"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

// Hub tracks one connection per subject and delivers session events to it.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection // subject -> connection
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		logger:      logger,
	}
}

// RegisterConnection adds a connection for a subject, replacing any prior one.
func (h *Hub) RegisterConnection(subject string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[subject]; exists {
		old.Close()
	}
	h.connections[subject] = conn
	h.logger.Info().Str("subject", subject).Msg("connection registered")
}

// UnregisterConnection removes a subject's connection if it is still the
// given one.
func (h *Hub) UnregisterConnection(subject string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.connections[subject]; exists && current == conn {
		current.Close()
		delete(h.connections, subject)
		h.logger.Info().Str("subject", subject).Msg("connection unregistered")
	}
}

// SendToSubject delivers a message to a subject's connection, if any.
func (h *Hub) SendToSubject(subject string, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[subject]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}
	return conn.Send(msg)
}

// SessionTick implements the session notifier: pushes the remaining seconds.
func (h *Hub) SessionTick(subject string, secondsLeft int) {
	_ = h.SendToSubject(subject, Message{Type: TypeTick, RemainingSeconds: secondsLeft})
}

// SessionExpired tells the client the timer forced submission.
func (h *Hub) SessionExpired(subject string) {
	_ = h.SendToSubject(subject, Message{Type: TypeExpired})
}

// Connection represents a WebSocket connection with a send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 64),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump sends messages from the send queue.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump drains client messages (pings) until the peer disconnects.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}
		if handler != nil {
			if err := handler(msg); err != nil {
				c.logger.Warn().Err(err).Msg("message handler error")
			}
		}
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "Subject connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
