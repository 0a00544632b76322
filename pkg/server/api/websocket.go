package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cardledger/pricefeed-go/pkg/logging"
	"github.com/cardledger/pricefeed-go/pkg/pricing/refresh"
)

// WebSocketServer streams batch refresh progress to UI clients. It is
// the remote face of the orchestrator's progress observer; dropping a
// message is always preferred over blocking the batch.
type WebSocketServer struct {
	addr     string
	logger   *logging.Logger
	upgrader websocket.Upgrader

	// Client management
	mu      sync.RWMutex
	clients map[*wsClient]bool

	// Outbound event channel
	events chan []byte

	// Server control
	ctx    context.Context
	cancel context.CancelFunc
}

// wsClient represents a connected WebSocket client.
type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	server *WebSocketServer
}

// ProgressMessage is sent to clients as each item is dispatched.
type ProgressMessage struct {
	Type    string `json:"type"` // "refresh_progress"
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Item    string `json:"item"`
}

// SummaryMessage is sent to clients when a batch completes.
type SummaryMessage struct {
	Type      string          `json:"type"` // "refresh_complete"
	Timestamp string          `json:"timestamp"`
	Summary   refresh.Summary `json:"summary"`
}

// NewWebSocketServer creates a new WebSocket server.
func NewWebSocketServer(addr string, logger *logging.Logger) *WebSocketServer {
	ctx, cancel := context.WithCancel(context.Background())

	return &WebSocketServer{
		addr:   addr,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				// Allow all origins (configure CORS as needed)
				return true
			},
		},
		clients: make(map[*wsClient]bool),
		events:  make(chan []byte, 100),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts the WebSocket server and blocks until Stop is called.
func (s *WebSocketServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)

	server := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go s.broadcastLoop()

	s.logger.Info("Starting WebSocket server", "addr", s.addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("WebSocket server error", "error", err)
		}
	}()

	<-s.ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Stop stops the WebSocket server.
func (s *WebSocketServer) Stop() {
	s.cancel()
}

// SendProgress queues a progress event for broadcast. Never blocks the
// orchestrator: a full queue drops the event.
func (s *WebSocketServer) SendProgress(current, total int, itemName string) {
	s.enqueue(ProgressMessage{
		Type:    "refresh_progress",
		Current: current,
		Total:   total,
		Item:    itemName,
	})
}

// SendSummary queues a batch completion event for broadcast.
func (s *WebSocketServer) SendSummary(summary refresh.Summary) {
	s.enqueue(SummaryMessage{
		Type:      "refresh_complete",
		Timestamp: time.Now().Format(time.RFC3339),
		Summary:   summary,
	})
}

func (s *WebSocketServer) enqueue(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Failed to marshal event", "error", err)
		return
	}

	select {
	case s.events <- data:
	default:
		s.logger.Warn("Event channel full, dropping event")
	}
}

// handleWebSocket handles new WebSocket connections.
func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := &wsClient{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	s.registerClient(client)

	go client.writePump()
	go client.readPump()

	s.logger.Info("New WebSocket client connected", "remote", conn.RemoteAddr())
}

// registerClient adds a client to the server.
func (s *WebSocketServer) registerClient(client *wsClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

// unregisterClient removes a client from the server.
func (s *WebSocketServer) unregisterClient(client *wsClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
	}
}

// broadcastLoop fans queued events out to all connected clients.
func (s *WebSocketServer) broadcastLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case data := <-s.events:
			s.mu.RLock()
			for client := range s.clients {
				select {
				case client.send <- data:
				default:
					s.logger.Warn("Client send buffer full, skipping event")
				}
			}
			s.mu.RUnlock()
		}
	}
}

// writePump sends messages to the WebSocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.server.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads (and discards) messages from the connection, keeping
// the ping/pong cycle alive until the client goes away.
func (c *wsClient) readPump() {
	defer func() {
		c.server.unregisterClient(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Error("WebSocket error", "error", err)
			}
			break
		}
	}
}
