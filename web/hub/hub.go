package hub

import (
	"context"
	"log/slog"
	"sync"
)

const broadcastBacklog = 256

// Hub owns the client set; Run is the only goroutine that mutates it.
type Hub struct {
	name   string
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// OnRegister, when set, returns messages queued to a new client ahead of
	// any broadcast (the current series snapshot, for instance).
	OnRegister func() []Message
}

// New creates a hub; name tags its log lines.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		name:       name,
		logger:     logger.With("hub", name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, broadcastBacklog),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then drops
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.dropLocked(c)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.mu.Lock()
			_, known := h.clients[c]
			h.dropLocked(c)
			n := len(h.clients)
			h.mu.Unlock()
			if known {
				h.logger.Info("ws client disconnected", "client", c.ID, "remaining", n)
			}
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	if h.OnRegister != nil {
		for _, m := range h.OnRegister() {
			select {
			case c.queue <- m:
			default:
			}
		}
	}
	h.logger.Info("ws client connected", "client", c.ID, "total", n)
}

// fanOut never blocks on a client: one whose queue is full is dropped.
func (h *Hub) fanOut(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.queue <- msg:
		default:
			h.dropLocked(c)
			h.logger.Warn("ws dropped slow client", "client", c.ID)
		}
	}
}

func (h *Hub) dropLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.queue)
}

// Broadcast queues msg for every client without blocking the caller.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws broadcast backlog full, dropping message")
	}
}

// BroadcastEnvelope wraps payload with kind and broadcasts it.
func (h *Hub) BroadcastEnvelope(kind string, payload any) error {
	msg, err := EncodeEnvelope(kind, payload)
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
