package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"folio-server/src/api"
	"folio-server/src/backend"
	"folio-server/src/config"
	"folio-server/src/db"
	dbsql "folio-server/src/db/sql"
	"folio-server/src/query"
	"folio-server/src/reorder"
	"folio-server/src/ws"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout   = 10 * time.Second
	heartbeatInterval = 30 * time.Second
)

func setupLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	log.Logger = logger
	return logger
}

func main() {
	cfg := config.Load()
	logger := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Snapshots go to Postgres when a database is configured
	var snapshots query.SnapshotStore = query.NewMemorySnapshots()
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("DB connection failed")
		}
		defer pool.Close()
		if err := dbsql.EnsureSnapshotTable(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("snapshot table setup failed")
		}
		snapshots = dbsql.Snapshots{Pool: pool}
		log.Info().Msg("using postgres snapshots")
	}

	remote := backend.New(backend.Options{
		BaseURL: cfg.BackendURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.HTTPTimeout,
		Retries: cfg.HTTPRetries,
		Logger:  logger,
	})

	store, err := query.NewStore(query.Options{
		MaxItems:            cfg.CacheMaxItems,
		Timeout:             cfg.HTTPTimeout,
		RefetchOnInvalidate: true,
		Snapshots:           snapshots,
		Logger:              logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("cache setup failed")
	}
	defer store.Close()

	client := query.NewClient(store, remote, query.StaleTimes{
		Market:       cfg.MarketStale,
		FX:           cfg.FXStale,
		Budget:       cfg.BudgetStale,
		Transactions: cfg.TransactionsStale,
	}, logger)

	hub := ws.NewHub(cfg.AllowedOrigins, logger)
	go hub.Run(ctx)
	go hub.Heartbeat(ctx, heartbeatInterval)
	store.OnInvalidate(func(ev query.Event) {
		hub.Publish(ws.Message{Type: "invalidate", Data: ev})
	})

	machine := reorder.NewMachine(client.PortfolioBoard(), logger)
	machine.OnTransition(func(from, to reorder.State) {
		hub.Publish(ws.Message{Type: "reorder", Data: map[string]string{"from": from.String(), "to": to.String()}})
	})

	cancelRefresh := client.StartRefresher(ctx, cfg.RefreshInterval)
	defer cancelRefresh()

	router := api.NewRouter(api.Deps{
		Config:  cfg,
		Client:  client,
		Reorder: machine,
		Hub:     hub,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("backend", cfg.BackendURL).Bool("auth", cfg.AuthEnabled()).Msg("API server running")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}
