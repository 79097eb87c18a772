package stream

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/quote"
)

// ==============================================================================
// Client - one websocket subscriber
// ==============================================================================

const maxMessageSize = 4096

// ClientConfig holds per-connection timing and buffering
type ClientConfig struct {
	WriteWait      time.Duration // deadline for a single write
	PongWait       time.Duration // read deadline between pongs
	SendBufferSize int
}

// DefaultClientConfig returns default configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		SendBufferSize: 32,
	}
}

// Client is a single websocket subscriber. All writes to the socket
// happen on the write pump goroutine.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	cfg  ClientConfig

	mu     sync.RWMutex
	closed bool
	filter map[string]bool // nil = all symbols
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, cfg ClientConfig) *Client {
	if cfg.SendBufferSize <= 0 {
		cfg = DefaultClientConfig()
	}
	return &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, cfg.SendBufferSize),
		cfg:  cfg,
	}
}

// Enqueue hands a pre-serialized frame to the write pump without
// blocking. Returns false when the buffer is full or the client has
// been disconnected. The read lock keeps the send channel open for
// the duration of the send.
func (c *Client) Enqueue(payload []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend shuts the send channel exactly once. The write lock
// excludes in-flight Enqueue calls, so the close cannot race a send.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// EnqueueMessage serializes and enqueues a frame.
func (c *Client) EnqueueMessage(t MessageType, data interface{}) {
	payload, err := marshalEnvelope(t, data)
	if err != nil {
		log.Error().Err(err).Str("client_id", c.ID).Msg("Stream: marshal frame failed")
		return
	}
	c.Enqueue(payload)
}

func (c *Client) hasFilter() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter != nil
}

func (c *Client) filterSnapshot() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// setFilter installs a symbol filter. An empty list clears it.
func (c *Client) setFilter(symbols []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(symbols) == 0 {
		c.filter = nil
		return
	}
	filter := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		sym = quote.NormalizeSymbol(sym)
		if quote.ValidateSymbol(sym) {
			filter[sym] = true
		}
	}
	c.filter = filter
}

// ReadPump consumes client frames until the connection drops, then
// unregisters. Runs on the connection's handler goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("client_id", c.ID).Msg("Stream: unexpected close")
			}
			return
		}
		// any inbound traffic proves liveness
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.EnqueueMessage(TypeError, map[string]string{"error": "malformed message"})
			continue
		}

		switch msg.Type {
		case TypePing:
			c.EnqueueMessage(TypePong, nil)
		case TypeSubscribe:
			c.setFilter(msg.Symbols)
		default:
			// unknown frames are ignored
		}
	}
}

// WritePump drains the send channel to the socket and keeps the
// connection alive with protocol-level pings.
func (c *Client) WritePump() {
	pingPeriod := (c.cfg.PongWait * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
