// Package api provides the HTTP REST API server for crowdfolio.
//
// It exposes endpoints for triggering collection runs, browsing stored
// snapshots and analyses, and WebSocket streaming of run progress.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/singleflight"

	"github.com/crowdfolio/crowdfolio/internal/collector"
	"github.com/crowdfolio/crowdfolio/internal/config"
	"github.com/crowdfolio/crowdfolio/internal/etoro"
	"github.com/crowdfolio/crowdfolio/internal/news"
	"github.com/crowdfolio/crowdfolio/internal/pipeline"
	"github.com/crowdfolio/crowdfolio/internal/report"
	"github.com/crowdfolio/crowdfolio/internal/snapshot"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	pipe   *pipeline.Pipeline
	store  *snapshot.Store
	news   *news.Service
	wsHub  *WSHub

	runs singleflight.Group

	mu      sync.RWMutex
	running bool
	percent float64
	message string
	lastRun *RunSummary
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	store, err := snapshot.NewStore(cfg.Report.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("snapshot store setup failed: %w", err)
	}

	client := etoro.NewClient(etoro.Config{
		BaseURL:     cfg.Etoro.BaseURL,
		MinInterval: cfg.Etoro.MinInterval(),
		Timeout:     cfg.Etoro.Timeout(),
		BatchSize:   cfg.Etoro.BatchSize,
		BatchDelay:  cfg.Etoro.BatchDelay(),
	})

	collCfg := collector.DefaultConfig()
	collCfg.FetchTradeStats = cfg.Collector.FetchTradeStats
	if p := etoro.Period(cfg.Analysis.Period); etoro.ValidPeriod(p) {
		collCfg.Period = p
	}
	collCfg.ConsecutiveFailureLimit = cfg.Collector.FailureLimit
	collCfg.BreakerCooldown = time.Duration(cfg.Collector.BreakerCooldownSec) * time.Second
	collCfg.BrakeErrorRate = cfg.Collector.BrakeErrorRate
	collCfg.BrakePause = time.Duration(cfg.Collector.BrakePauseSec) * time.Second
	collCfg.CheckpointEvery = cfg.Collector.CheckpointEvery
	collCfg.CheckpointPause = time.Duration(cfg.Collector.CheckpointPauseSec) * time.Second
	coll := collector.New(client, collCfg)

	var newsSvc *news.Service
	if cfg.News.Enabled {
		sources := news.DefaultSources
		if len(cfg.News.Feeds) > 0 {
			sources = nil
			for _, u := range cfg.News.Feeds {
				sources = append(sources, news.Source{Name: u, URL: u})
			}
		}
		newsSvc = news.NewService(sources)
	}

	reportCfg := report.DefaultConfig()
	if cfg.Report.Title != "" {
		reportCfg.Title = cfg.Report.Title
	}
	if cfg.Report.Author != "" {
		reportCfg.Author = cfg.Report.Author
	}

	srv := &Server{
		cfg:   cfg,
		pipe:  pipeline.New(client, coll, store, newsSvc, reportCfg),
		store: store,
		news:  newsSvc,
		wsHub: NewWSHub(),
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Collection runs
		r.Post("/collect", s.handleCollect)
		r.Get("/status", s.handleStatus)

		// Snapshots
		r.Get("/snapshots", s.handleListSnapshots)
		r.Get("/snapshots/latest", s.handleLatestSnapshot)
		r.Get("/snapshots/{name}", s.handleGetSnapshot)

		// Band analyses of the latest snapshot
		r.Get("/analyses", s.handleAnalyses)

		// Market news
		r.Get("/news", s.handleNews)

		// WebSocket progress stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CollectRequest is the body for POST /api/v1/collect.
type CollectRequest struct {
	Period       string `json:"period,omitempty"`
	MaxInvestors int    `json:"maxInvestors,omitempty"`
	BandSizes    []int  `json:"bandSizes,omitempty"`
}

// RunSummary describes a finished collection run.
type RunSummary struct {
	Period       string    `json:"period"`
	Investors    int       `json:"investors"`
	ErrorCount   int       `json:"errorCount"`
	SnapshotPath string    `json:"snapshotPath"`
	ReportPath   string    `json:"reportPath,omitempty"`
	FinishedAt   time.Time `json:"finishedAt"`
	DurationSec  float64   `json:"durationSec"`
	Error        string    `json:"error,omitempty"`
}

// StatusResponse is the body for GET /api/v1/status.
type StatusResponse struct {
	Running bool        `json:"running"`
	Percent float64     `json:"percent"`
	Message string      `json:"message,omitempty"`
	LastRun *RunSummary `json:"lastRun,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":      "ok",
			"collecting":  running,
			"clients":     s.wsHub.ClientCount(),
			"server_time": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	period := etoro.Period(req.Period)
	if req.Period == "" {
		period = etoro.Period(s.cfg.Analysis.Period)
	}
	if !etoro.ValidPeriod(period) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid period: %s", req.Period))
		return
	}

	opts := pipeline.Options{
		Period:       period,
		MaxInvestors: s.cfg.Analysis.MaxInvestors,
		BandSizes:    s.cfg.Analysis.BandSizes,
	}
	if req.MaxInvestors > 0 {
		opts.MaxInvestors = req.MaxInvestors
	}
	if len(req.BandSizes) > 0 {
		opts.BandSizes = req.BandSizes
	}

	s.mu.RLock()
	alreadyRunning := s.running
	s.mu.RUnlock()
	if alreadyRunning {
		writeJSON(w, http.StatusAccepted, APIResponse{
			Success: true,
			Data:    map[string]string{"status": "already_running"},
		})
		return
	}

	// Concurrent triggers collapse into one run.
	go s.runs.Do("collect", func() (interface{}, error) {
		s.runCollection(opts)
		return nil, nil
	})

	writeJSON(w, http.StatusAccepted, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status": "started",
			"period": string(period),
		},
	})
}

// runCollection executes one pipeline run in the background, mirroring
// progress to the WebSocket hub and recording the outcome for /status.
func (s *Server) runCollection(opts pipeline.Options) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.percent = 0
	s.message = "starting"
	s.mu.Unlock()

	s.wsHub.Broadcast(WSMessage{
		Type: "collect_started",
		Data: map[string]string{"period": string(opts.Period)},
	})

	start := time.Now()
	result, err := s.pipe.Run(context.Background(), opts, func(percent float64, msg string) {
		s.mu.Lock()
		s.percent = percent
		s.message = msg
		s.mu.Unlock()

		s.wsHub.Broadcast(WSMessage{
			Type: "progress",
			Data: map[string]interface{}{
				"percent": percent,
				"message": msg,
			},
		})
	})

	summary := &RunSummary{
		Period:      string(opts.Period),
		FinishedAt:  time.Now().UTC(),
		DurationSec: time.Since(start).Seconds(),
	}
	if err != nil {
		summary.Error = err.Error()
		log.Printf("collection run failed: %v", err)
	} else {
		summary.Investors = len(result.Snapshot.Investors)
		summary.ErrorCount = result.Snapshot.ErrorCount
		summary.SnapshotPath = result.SnapshotPath
		summary.ReportPath = result.ReportPath
	}

	s.mu.Lock()
	s.running = false
	s.lastRun = summary
	s.mu.Unlock()

	msgType := "collect_finished"
	if err != nil {
		msgType = "collect_failed"
	}
	s.wsHub.Broadcast(WSMessage{Type: msgType, Data: summary})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := StatusResponse{
		Running: s.running,
		Percent: s.percent,
		Message: s.message,
		LastRun: s.lastRun,
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    resp,
	})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    names,
	})
}

func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.LoadLatest()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    snap,
	})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "snapshot name is required")
		return
	}

	snap, err := s.store.Load(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    snap,
	})
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.LoadLatest()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"collectedAt": snap.CollectedAt,
			"period":      snap.Period,
			"analyses":    snap.Analyses,
		},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Data:    []interface{}{},
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	limit := s.cfg.News.Limit
	if limit <= 0 {
		limit = 12
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.news.Headlines(ctx, limit),
	})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}
