package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps a websocket connection with serialized writes, since
// session events reach it from several goroutines at once.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Hub tracks the one live client connection per interview.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Client
}

func NewHub() *Hub {
	return &Hub{conns: map[string]*Client{}}
}

func (h *Hub) Add(id string, c *Client) {
	h.mu.Lock()
	h.conns[id] = c
	h.mu.Unlock()
}

func (h *Hub) Get(id string) (*Client, bool) {
	h.mu.RLock()
	c, ok := h.conns[id]
	h.mu.RUnlock()
	return c, ok
}

func (h *Hub) Remove(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}
