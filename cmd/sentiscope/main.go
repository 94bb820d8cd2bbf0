package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/analysis"
	"github.com/spacesedan/sentiscope/internal/clients"
	"github.com/spacesedan/sentiscope/internal/inference"
	"github.com/spacesedan/sentiscope/internal/ingest"
	"github.com/spacesedan/sentiscope/internal/logging"
	"github.com/spacesedan/sentiscope/internal/monitoring"
	"github.com/spacesedan/sentiscope/internal/sentiment"
	"github.com/spacesedan/sentiscope/internal/server"
	"github.com/spacesedan/sentiscope/internal/session"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		logging.InitLogger("info")
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, err := inference.NewFactory(cfg.Models)
	if err != nil {
		slog.Error("[Main] Failed to select inference backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handles, err := inference.NewLoader(factory).Load(ctx)
	if err != nil {
		slog.Error("[Main] Failed to load models", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer handles.Close()

	store, closeStore, err := newStore(ctx, cfg.Session)
	if err != nil {
		slog.Error("[Main] Failed to initialize session store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	var opts []analysis.Option
	if cfg.Models.LexiconCrossCheck {
		opts = append(opts, analysis.WithLexicon(sentiment.NewLexicon()))
	}
	analyzer := analysis.NewAnalyzer(handles, opts...)

	srv, err := server.NewServer(
		analyzer,
		store,
		ingest.NewReader(cfg.Server.MaxUploadBytes),
		monitoring.NewModelHealth(handles, monitoring.HEALTHCHECK_TIMEOUT),
	)
	if err != nil {
		slog.Error("[Main] Failed to build server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Run(ctx, cfg.Server); err != nil {
		slog.Error("[Main] Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("[Main] Server stopped")
}

func newStore(ctx context.Context, cfg config.SessionConfig) (session.Store, func(), error) {
	if cfg.Store != config.STORE_VALKEY {
		slog.Info("[Main] Using in-memory session store", slog.Duration("ttl", cfg.TTL))
		return session.NewMemoryStore(cfg.TTL), func() {}, nil
	}

	vc, err := clients.NewValkeyClient(ctx, clients.ValkeyOptions{
		Address:    cfg.ValkeyAddress,
		Password:   cfg.ValkeyPassword,
		UseTLS:     cfg.ValkeyTLS,
		SingleNode: cfg.ValkeySingle,
		TTL:        cfg.TTL,
	})
	if err != nil {
		return nil, nil, err
	}
	return vc, vc.Close, nil
}
