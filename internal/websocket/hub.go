package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"fertpulse/internal/infrastructure"
	"fertpulse/pkg/contracts/domain"
	"fertpulse/pkg/contracts/events"
)

// HubOptions configures a Hub. Every field is optional.
type HubOptions struct {
	// Snapshot reports the current load states for newly connected clients.
	Snapshot func() []domain.LoadState

	// AllowedOrigins are accepted in addition to same-origin requests.
	AllowedOrigins []string

	Metrics *infrastructure.BusinessMetrics
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	snapshot func() []domain.LoadState
	metrics  *infrastructure.BusinessMetrics
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu       sync.RWMutex
	quit     chan struct{}
	running  bool
	stopOnce sync.Once
}

// NewHub creates a new Hub. Start must be called before clients connect.
func NewHub(opts HubOptions, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		snapshot:   opts.Snapshot,
		metrics:    opts.Metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(opts.AllowedOrigins),
	}
	return h
}

// checkOrigin accepts requests without an Origin header, same-origin
// requests and the listed origins.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Start runs the hub loop in the background. It is a no-op once started.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.Run()
}

// Run is the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.closeAll()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))
			h.addConnections(1)
			h.greet(client)

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				h.logger.Info("Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id))
				h.addConnections(-1)
			}

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// greet sends the connect message with the current load states.
func (h *Hub) greet(client *Client) {
	data := events.ConnectData{ClientID: client.id, Status: "connected", Loads: []domain.LoadState{}}
	if h.snapshot != nil {
		data.Loads = h.snapshot()
	}
	msg := events.NewMessage(events.MessageTypeConnect, data)
	msg.TraceID = client.traceID

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error marshaling connect message", slog.String("error", err.Error()))
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("Failed to send connection message - client buffer full",
			slog.String("client_id", client.id))
	}
}

// deliver fans message out. Clients whose buffer is full are dropped.
func (h *Hub) deliver(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent, dropped := 0, 0
	for client := range h.clients {
		select {
		case client.send <- message:
			sent++
		default:
			close(client.send)
			delete(h.clients, client)
			dropped++
			h.logger.Warn("Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.logger.Debug("Broadcast delivered",
		slog.Int("client_count", sent),
		slog.Int("message_size", len(message)))

	if h.metrics != nil {
		ctx := context.Background()
		h.metrics.WSMessagesSent.Add(ctx, int64(sent))
		if dropped > 0 {
			h.metrics.WSConnections.Add(ctx, int64(-dropped))
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		h.addConnections(-1)
	}
}

func (h *Hub) addConnections(n int64) {
	if h.metrics != nil {
		h.metrics.WSConnections.Add(context.Background(), n)
	}
}

// Broadcast sends a message of type t to every client. It drops the
// message once the hub has stopped.
func (h *Hub) Broadcast(t events.MessageType, data interface{}) {
	payload, err := json.Marshal(events.NewMessage(t, data))
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(t)))
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	}
}

// BroadcastLoadState announces a finished dataset or boundary load.
func (h *Hub) BroadcastLoadState(state domain.LoadState) {
	h.logger.Info("Broadcasting load state",
		slog.String("resource", state.Name),
		slog.String("status", string(state.Status)))
	h.Broadcast(events.MessageTypeLoadState, state)
}

// join hands the client to the hub loop. It reports false after Stop.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// leave removes the client unless the hub is already gone.
func (h *Hub) leave(client *Client) {
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

// Stop closes every client connection and ends the hub loop.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		h.logger.WarnContext(r.Context(), "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	client := NewClient(h, conn, infrastructure.GetTraceID(infrastructure.EnsureTraceID(r.Context())), h.logger)
	if !h.join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
