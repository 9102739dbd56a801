package websocket

import (
	"context"
	"sync"

	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/store"
	"github.com/dom/trivia-night/pkg/logger"
)

// ReadGuard decides which documents a caller may watch.
type ReadGuard interface {
	AuthorizeRead(ctx context.Context, caller domain.Caller, key string) error
}

// Hub tracks connected clients and hands out store subscriptions to them.
// Everything a client sees is a committed document snapshot; the game state
// itself never lives here.
type Hub struct {
	store store.Store
	guard ReadGuard

	ctx    context.Context
	cancel context.CancelFunc

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex
}

func NewHub(st store.Store, guard ReadGuard) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		store:      st,
		guard:      guard,
		ctx:        ctx,
		cancel:     cancel,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done) // Signal that Run() has exited

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			clients := h.clients
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()

			h.cancel()
			for client := range clients {
				client.close()
			}
			logger.Info("websocket hub stopped", "clients", len(clients))
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logger.Debug("websocket client registered",
				"user_id", client.caller.UserID, "role", client.caller.Role, "clients", n)

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			delete(h.clients, client)
			h.mu.Unlock()
			if ok {
				client.close()
			}
		}
	}
}

// Stop gracefully shuts down the hub and closes every client.
// It blocks until the hub has fully shut down.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done // Wait for Run() to finish
}

// Register adds a client. A client registered after Stop is closed at once.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

// Unregister safely unregisters a client, handling the case where the hub may be stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		// Run already closed every client
	}
}

// ClientCount reports the connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
