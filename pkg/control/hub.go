package control

import "sync"

// Hub is the registry of connected clients. Broadcasts never block:
// a client that is not draining its channel misses the notification,
// matching the fire-and-forget posture of the rest of the gateway.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
}

// Client is one attached foreground client.
type Client struct {
	hub *Hub
	ch  chan Notification
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Attach registers a new client with the given notification buffer.
func (h *Hub) Attach(buffer int) *Client {
	c := &Client{hub: h, ch: make(chan Notification, buffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// Broadcast delivers a notification to every attached client.
func (h *Hub) Broadcast(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.ch <- n:
		default:
			// client not draining; drop
		}
	}
}

// Len returns the number of attached clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Notifications returns the client's receive channel.
func (c *Client) Notifications() <-chan Notification {
	return c.ch
}

// Close detaches the client from the hub.
func (c *Client) Close() {
	c.hub.mu.Lock()
	delete(c.hub.clients, c)
	c.hub.mu.Unlock()
}
