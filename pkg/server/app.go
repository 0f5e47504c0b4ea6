package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"habridge/internal/handler/ws"
	pkgch "habridge/pkg/clickhouse"
	"habridge/pkg/config"
	xhttp "habridge/pkg/http"
	pkgkafka "habridge/pkg/kafka"
	applogger "habridge/pkg/logger"
	pkgpg "habridge/pkg/postgres"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	hub        *ws.Hub
	httpServer *xhttp.Server
	chClient   *pkgch.Client
	pgClient   *pkgpg.Client
	producer   *pkgkafka.Producer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	hub *ws.Hub,
	handlers []xhttp.Handler,
	chClient *pkgch.Client,
	pgClient *pkgpg.Client,
	producer *pkgkafka.Producer,
) *App {
	httpServer := xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
		xhttp.WithCORS(true),
	)
	return &App{
		cfg:        cfg,
		l:          l,
		hub:        hub,
		httpServer: httpServer,
		chClient:   chClient,
		pgClient:   pgClient,
		producer:   producer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	go a.hub.Run()
	a.l.Info("websocket hub started")

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the HTTP surface first so no new events are produced,
// then disconnects clients and closes infrastructure.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown", applogger.Error(err))
	}

	a.hub.Stop()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.l.Warn("kafka producer close", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close", applogger.Error(err))
		}
	}
	if a.pgClient != nil {
		a.pgClient.Close()
	}

	a.l.Info("shutdown complete")
	return nil
}
