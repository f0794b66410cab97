// Package app wires the service components together and owns their
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chatrelay/internal/api"
	"chatrelay/internal/config"
	"chatrelay/internal/heartbeat"
	"chatrelay/internal/history"
	"chatrelay/internal/hub"
	"chatrelay/internal/router"
	"chatrelay/internal/websocket"
)

// Application coordinates all components of the chat service. Construction
// follows dependency order: history and registry first, then the router
// built on them, the hub that serializes into the router, and finally the
// HTTP surface in front of everything.
type Application struct {
	config     *config.Config
	registry   *router.Registry
	archive    *history.History
	msgRouter  *router.Router
	msgHub     *hub.Hub
	supervisor *heartbeat.Supervisor
	apiServer  *api.Server
	httpServer *http.Server
	log        *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	registry := router.NewRegistry()
	archive := history.New(cfg.Chat.MaxHistory)
	broadcaster := router.NewBroadcaster(registry, log)
	msgRouter := router.NewRouter(registry, archive, broadcaster, cfg.RateLimit, cfg.Chat, log)
	msgHub := hub.NewHub(msgRouter, log)
	supervisor := heartbeat.NewSupervisor(registry, cfg.Heartbeat.Interval, log)

	wsHandler := websocket.NewHandler(msgHub, cfg.WebSocket, log)
	apiServer := api.NewServer(registry, archive, log)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.Handle("/health", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		registry:   registry,
		archive:    archive,
		msgRouter:  msgRouter,
		msgHub:     msgHub,
		supervisor: supervisor,
		apiServer:  apiServer,
		httpServer: httpServer,
		log:        log,
	}, nil
}

// Start brings the service up: hub loop and heartbeat sweeps first, then
// the listener. A startup window catches listeners that fail immediately,
// a port already in use for instance.
func (app *Application) Start(ctx context.Context) error {
	app.log.Info("starting chatrelay", zap.String("addr", app.httpServer.Addr))

	if err := app.msgHub.Start(ctx); err != nil {
		return fmt.Errorf("start hub: %w", err)
	}
	app.supervisor.Start()

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		app.supervisor.Stop()
		_ = app.msgHub.Stop()
		return err
	case <-time.After(100 * time.Millisecond):
		app.log.Info("chatrelay started")
		return nil
	case <-ctx.Done():
		app.supervisor.Stop()
		_ = app.msgHub.Stop()
		return ctx.Err()
	}
}

// Stop shuts the service down in reverse order: stop accepting new
// connections, stop the heartbeat, then drain the hub, which closes every
// remaining client with a going-away frame.
func (app *Application) Stop(ctx context.Context) error {
	app.log.Info("shutting down chatrelay")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		app.log.Warn("http server shutdown", zap.Error(err))
	}
	app.supervisor.Stop()
	if err := app.msgHub.Stop(); err != nil {
		app.log.Warn("hub shutdown", zap.Error(err))
	}

	app.log.Info("chatrelay shutdown complete")
	return nil
}

// Addr returns the address the HTTP server binds to.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}
