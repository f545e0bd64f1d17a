package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"wordrush/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const sendBuffer = 256

var (
	errClosed     = errors.New("connection closed")
	errBufferFull = errors.New("send buffer full")
)

// Client is one WebSocket connection. It satisfies session.Conn.
type Client struct {
	id   string
	send chan []byte

	closeOnce   sync.Once
	closing     chan struct{}
	closeReason string
}

func newClient() *Client {
	return &Client{
		id:      uuid.NewString(),
		send:    make(chan []byte, sendBuffer),
		closing: make(chan struct{}),
	}
}

// ID returns the connection id
func (c *Client) ID() string { return c.id }

// Send queues msg for the write pump. It never blocks. A client whose buffer
// is full is closed rather than skipped, so it rejoins and gets a fresh snapshot.
func (c *Client) Send(msg *model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case <-c.closing:
		return errClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		log.Warn().Str("conn", c.id).Str("type", string(msg.Type)).Msg("send buffer full, closing client")
		c.Close("send buffer full")
		return errBufferFull
	}
}

// Close asks the write pump to flush, send a close frame and hang up
func (c *Client) Close(reason string) {
	c.closeOnce.Do(func() {
		c.closeReason = reason
		close(c.closing)
	})
}

// Hub tracks open connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds a connection
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	log.Debug().Str("conn", c.id).Int("open", n).Msg("client registered")
}

// Unregister removes a connection
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
}

// Len counts open connections
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll hangs up every connection, used on shutdown
func (h *Hub) CloseAll(reason string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.Close(reason)
	}
}
