package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rosieluu/simple-notes-app/imagegen"
	"github.com/rosieluu/simple-notes-app/logging"
)

// EventHub fans generation lifecycle events out to connected websocket
// clients. It implements imagegen.EventSink, so the pipeline publishes
// into it directly.
//
// Thread-safe for concurrent connections and publishes.
type EventHub struct {
	clients   map[*websocket.Conn]clientInfo
	clientsMu sync.RWMutex

	broadcast  chan imagegen.GenerationEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	// done is closed when the hub loop exits, releasing any goroutine
	// still trying to register or unregister a connection
	done chan struct{}

	upgrader websocket.Upgrader

	pingInterval   time.Duration
	pongWait       time.Duration
	writeWait      time.Duration
	maxMessageSize int64

	logger *logging.Logger
}

// clientInfo stores per-client connection state.
type clientInfo struct {
	connectedAt time.Time
	remoteAddr  string
	send        chan []byte
}

// HubConfig holds configuration for the EventHub.
type HubConfig struct {
	// PingInterval is how often to send ping messages (default: 30s)
	PingInterval time.Duration

	// PongWait is how long to wait for a pong response (default: 60s)
	PongWait time.Duration

	// WriteWait is the time allowed to write a message (default: 10s)
	WriteWait time.Duration

	// MaxMessageSize bounds messages from the client (default: 512 bytes);
	// clients only listen, so anything larger is a misbehaving peer
	MaxMessageSize int64

	// BroadcastBufferSize is the broadcast channel buffer (default: 256)
	BroadcastBufferSize int
}

// DefaultHubConfig returns the default configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval:        30 * time.Second,
		PongWait:            60 * time.Second,
		WriteWait:           10 * time.Second,
		MaxMessageSize:      512,
		BroadcastBufferSize: 256,
	}
}

// NewEventHub creates an EventHub with default configuration.
// Call Start to begin processing.
func NewEventHub(logger *logging.Logger) *EventHub {
	return NewEventHubWithConfig(DefaultHubConfig(), logger)
}

// NewEventHubWithConfig creates an EventHub with custom configuration.
func NewEventHubWithConfig(config HubConfig, logger *logging.Logger) *EventHub {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &EventHub{
		clients:        make(map[*websocket.Conn]clientInfo),
		broadcast:      make(chan imagegen.GenerationEvent, config.BroadcastBufferSize),
		register:       make(chan *websocket.Conn),
		unregister:     make(chan *websocket.Conn),
		done:           make(chan struct{}),
		pingInterval:   config.PingInterval,
		pongWait:       config.PongWait,
		writeWait:      config.WriteWait,
		maxMessageSize: config.MaxMessageSize,
		logger:         logger.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// same-origin deployment, auth happens in the middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start runs the hub loop until the context is cancelled: registration,
// unregistration, and broadcasting. Pings are written per connection in
// writePump, which owns all writes to its socket.
func (h *EventHub) Start(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case conn := <-h.register:
			h.addClient(conn)

		case conn := <-h.unregister:
			h.removeClient(conn)

		case event := <-h.broadcast:
			h.broadcastToAll(event)
		}
	}
}

// HandleConnection upgrades an HTTP request to a websocket connection and
// manages the client lifecycle. Mounted behind the auth middleware.
func (h *EventHub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn.SetReadLimit(h.maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})

	select {
	case h.register <- conn:
		go h.readPump(conn)
	case <-h.done:
		conn.Close()
	}
}

// Publish queues an event for broadcast to all clients. Non-blocking;
// when the buffer is full the event is dropped with a warning, since
// clients can always refetch the note.
func (h *EventHub) Publish(event imagegen.GenerationEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warnw("Broadcast buffer full, dropping event",
			"note_id", event.NoteID,
			"status", event.Status,
		)
	}
}

// ClientCount returns the current number of connected clients.
func (h *EventHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *EventHub) addClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	info := clientInfo{
		connectedAt: time.Now(),
		remoteAddr:  conn.RemoteAddr().String(),
		send:        make(chan []byte, 256),
	}
	h.clients[conn] = info
	go h.writePump(conn, info.send)

	h.logger.Debugw("Client connected", "remote", info.remoteAddr, "total", len(h.clients))
}

func (h *EventHub) removeClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if info, ok := h.clients[conn]; ok {
		close(info.send)
		delete(h.clients, conn)
		conn.Close()
		h.logger.Debugw("Client disconnected", "remote", info.remoteAddr, "total", len(h.clients))
	}
}

func (h *EventHub) broadcastToAll(event imagegen.GenerationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorw("Failed to marshal event", "error", err)
		return
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for conn, info := range h.clients {
		select {
		case info.send <- data:
		default:
			// send buffer full, drop the slow client
			go h.requestUnregister(conn)
		}
	}
}

// requestUnregister hands a connection to the hub loop for removal. Gives
// up when the hub has already shut down, so callers never block forever.
func (h *EventHub) requestUnregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

func (h *EventHub) closeAllClients() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for conn, info := range h.clients {
		close(info.send)
		conn.Close()
		delete(h.clients, conn)
	}
}

// readPump drains client frames so pong handlers run and close frames
// are observed. Client payloads are otherwise ignored.
func (h *EventHub) readPump(conn *websocket.Conn) {
	defer h.requestUnregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debugw("Unexpected websocket close", "error", err)
			}
			return
		}
	}
}

// writePump is the sole writer on its connection: broadcast frames and
// pings both go through here, since gorilla/websocket allows only one
// concurrent writer.
func (h *EventHub) writePump(conn *websocket.Conn, send <-chan []byte) {
	pingTicker := time.NewTicker(h.pingInterval)
	defer func() {
		pingTicker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
