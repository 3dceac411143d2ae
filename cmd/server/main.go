package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/canvas/internal/asset"
	"github.com/inamate/canvas/internal/collab"
	"github.com/inamate/canvas/internal/config"
	mw "github.com/inamate/canvas/internal/middleware"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := collab.NewHub(ctx, collab.Options{
		FrameInterval: cfg.FrameInterval,
		IdleTimeout:   cfg.SessionIdleTimeout,
		HistoryLimit:  cfg.HistoryLimit,
		Snap:          cfg.Snap(),
	})

	assetHandler, err := asset.NewHandler(cfg.AssetDir, "/assets/")
	if err != nil {
		slog.Error("asset store", "error", err)
		os.Exit(1)
	}

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		s := hub.Create()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"sessionId": s.ID()})
	}).Methods("POST", "OPTIONS")

	// Image files referenced by drop payloads
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/session/{sessionId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, cfg.AllowedOrigins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server", "sessions", hub.Len())
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, origins []string) {
	sessionID := mux.Vars(r)["sessionId"]

	// Reject bad ids before upgrading so the client sees a plain 400. The
	// session itself starts on Join, once the upgrade succeeded.
	if err := collab.ValidateSessionID(sessionID); err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "Anonymous"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(conn, clientID, displayName)

	ctx := r.Context()
	s, err := hub.Join(ctx, sessionID, client)
	if err != nil {
		slog.Error("join session", "error", err, "session", sessionID)
		conn.Close(websocket.StatusInternalError, "join failed")
		return
	}

	go client.WritePump(ctx)
	client.ReadPump(ctx, s)
}
