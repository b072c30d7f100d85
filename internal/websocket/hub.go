package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"glucoreport/internal/infrastructure"
)

// TypeConnection is sent to each client right after it registers.
const TypeConnection = "connection"

// DefaultBroadcastBuffer bounds the messages waiting for the hub loop.
const DefaultBroadcastBuffer = 256

// Message is the envelope of every frame sent to clients.
type Message struct {
	Type      string      `json:"type"`
	RunID     string      `json:"run_id,omitempty"`
	Status    string      `json:"status,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *Metrics

	totalConnections int64
	messagesSent     int64
	messagesDropped  int64

	quit     chan struct{}
	done     chan struct{}
	running  bool
	stopped  bool
	stopOnce sync.Once
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *Metrics) *Hub {
	logger = infrastructure.WithComponent(logger, "websocket.hub")

	return &Hub{
		broadcast:  make(chan []byte, DefaultBroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start starts the hub loop. Calling it twice, or after Stop, is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running || h.stopped {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.mu.Unlock()

			ctx := client.context()
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))
			h.metrics.recordConnect(ctx)

			welcome, err := json.Marshal(Message{
				Type:      TypeConnection,
				Status:    "connected",
				Data:      map[string]string{"client_id": client.id},
				Timestamp: time.Now().Format(time.RFC3339),
			})
			if err == nil {
				select {
				case client.send <- welcome:
				default:
					h.logger.WarnContext(ctx, "Failed to send connection message - client buffer full",
						slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; !ok {
				h.mu.Unlock()
				continue
			}
			delete(h.clients, client)
			close(client.send)
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.logger.InfoContext(ctx, "Client unregistered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))
			h.metrics.recordDisconnect(ctx)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) deliver(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	failed := 0
	for client := range h.clients {
		select {
		case client.send <- message:
			h.messagesSent++
		default:
			failed++
			close(client.send)
			delete(h.clients, client)
			h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.logger.Debug("Broadcast delivered",
		slog.Int("client_count", len(h.clients)),
		slog.Int("message_size", len(message)),
		slog.Int("fail_count", failed))
	h.metrics.recordSent(context.Background(), len(h.clients))
}

// BroadcastUpdate queues a run event for every connected client. It never
// blocks; when the buffer is full the message is dropped.
func (h *Hub) BroadcastUpdate(eventType, runID, status string, metadata interface{}) {
	data, err := json.Marshal(Message{
		Type:      eventType,
		RunID:     runID,
		Status:    status,
		Data:      metadata,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", eventType))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.mu.Lock()
		h.messagesDropped++
		h.mu.Unlock()
		h.metrics.recordDropped(context.Background())
		h.logger.Warn("Broadcast queue full, message dropped",
			slog.String("message_type", eventType),
			slog.String("run_id", runID))
	}
}

// Register adds a client to the hub. It returns immediately once the hub
// has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns current hub counters.
func (h *Hub) Stats() map[string]int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]int64{
		"active_clients":    int64(len(h.clients)),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_dropped":  h.messagesDropped,
	}
}

// Stop stops the hub loop and closes every client. It is idempotent.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		running := h.running
		h.stopped = true
		h.mu.Unlock()

		close(h.quit)
		if running {
			<-h.done
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.running = false
	})
}
