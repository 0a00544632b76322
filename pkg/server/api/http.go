// Package api provides HTTP and WebSocket endpoints for the price engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cardledger/pricefeed-go/pkg/logging"
	"github.com/cardledger/pricefeed-go/pkg/metrics"
	"github.com/cardledger/pricefeed-go/pkg/pricing/refresh"
	"github.com/cardledger/pricefeed-go/pkg/store"
)

// Inventory is the slice of the item store the API needs.
type Inventory interface {
	ListItems(ctx context.Context) ([]refresh.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (refresh.Item, error)
}

// Server represents the HTTP API server.
type Server struct {
	addr         string
	inventory    Inventory
	refresher    *refresh.Refresher
	orchestrator *refresh.Orchestrator
	logger       *logging.Logger
	server       *http.Server
	wsServer     *WebSocketServer // Optional WebSocket server for progress streaming

	batchCtx    context.Context
	batchCancel context.CancelFunc

	mu          sync.Mutex
	lastSummary *refresh.Summary
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, inventory Inventory, refresher *refresh.Refresher, orchestrator *refresh.Orchestrator, logger *logging.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:         addr,
		inventory:    inventory,
		refresher:    refresher,
		orchestrator: orchestrator,
		logger:       logger,
		batchCtx:     ctx,
		batchCancel:  cancel,
	}
}

// SetWebSocketServer sets the WebSocket server for progress streaming.
func (s *Server) SetWebSocketServer(ws *WebSocketServer) {
	s.wsServer = ws
}

// routes builds the request mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/items/{id}/price", s.handleItemPrice)
	mux.HandleFunc("POST /v1/refresh", s.handleRefresh)
	mux.HandleFunc("GET /v1/refresh/status", s.handleRefreshStatus)
	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server and cancels any running batch.
func (s *Server) Stop(ctx context.Context) error {
	s.batchCancel()
	if s.server != nil {
		s.logger.Info("Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleHealth handles /health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RecordHTTPRequest("/health", "200", time.Since(start))
	}()

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleItemPrice handles GET /v1/items/{id}/price. Reads through the
// result cache unless force=true is passed.
func (s *Server) handleItemPrice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "200"
	defer func() {
		metrics.RecordHTTPRequest("/v1/items/price", status, time.Since(start))
	}()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		status = "400"
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	item, err := s.inventory.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			status = "404"
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		status = "500"
		s.logger.Error("Failed to load item", "id", id, "error", err)
		http.Error(w, "failed to load item", http.StatusInternalServerError)
		return
	}

	force := r.URL.Query().Get("force") == "true"

	result, err := s.refresher.Refresh(r.Context(), item, force)
	if err != nil {
		// Price computed but not persisted; still worth returning.
		s.logger.Warn("Price computed but not persisted", "item", item.Name, "error", err)
	}
	if result == nil {
		status = "404"
		http.Error(w, "no price available", http.StatusNotFound)
		return
	}

	s.sendJSON(w, result)
}

// refreshResponse is the body for POST /v1/refresh.
type refreshResponse struct {
	Started bool   `json:"started"`
	Items   int    `json:"items,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// handleRefresh handles POST /v1/refresh. The batch runs in the
// background; progress is observable over the WebSocket stream and
// /v1/refresh/status.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "202"
	defer func() {
		metrics.RecordHTTPRequest("/v1/refresh", status, time.Since(start))
	}()

	if s.orchestrator.Running() {
		status = "409"
		w.WriteHeader(http.StatusConflict)
		s.sendJSON(w, refreshResponse{Started: false, Reason: "refresh already running"})
		return
	}

	items, err := s.inventory.ListItems(r.Context())
	if err != nil {
		status = "500"
		s.logger.Error("Failed to list items for refresh", "error", err)
		http.Error(w, "failed to list items", http.StatusInternalServerError)
		return
	}

	force := r.URL.Query().Get("force") == "true"

	go func() {
		summary := s.orchestrator.RefreshAll(s.batchCtx, items, force)
		s.mu.Lock()
		s.lastSummary = &summary
		s.mu.Unlock()
		if s.wsServer != nil {
			s.wsServer.SendSummary(summary)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	s.sendJSON(w, refreshResponse{Started: true, Items: len(items)})
}

// refreshStatus is the body for GET /v1/refresh/status.
type refreshStatus struct {
	Running     bool             `json:"running"`
	LastSummary *refresh.Summary `json:"last_summary,omitempty"`
}

// handleRefreshStatus handles GET /v1/refresh/status.
func (s *Server) handleRefreshStatus(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RecordHTTPRequest("/v1/refresh/status", "200", time.Since(start))
	}()

	s.mu.Lock()
	last := s.lastSummary
	s.mu.Unlock()

	s.sendJSON(w, refreshStatus{
		Running:     s.orchestrator.Running(),
		LastSummary: last,
	})
}

// sendJSON sends a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}
