package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shanehull/botleads/internal/config"
	"github.com/shanehull/botleads/internal/geo"
	"github.com/shanehull/botleads/internal/search"
	"github.com/shanehull/botleads/internal/server"
	"github.com/shanehull/botleads/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Config load failed", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info("Starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, clients, err := search.FromConfig(logger, cfg, nil)
	if err != nil {
		logger.Error("Searcher setup failed", "err", err)
		os.Exit(1)
	}
	logger.Info("Lead sources ready", "sources", orch.Sources(), "default", orch.Default())

	deps := server.Deps{
		Search:    orch,
		Geography: geo.NewIBGEClient(cfg.IBGEAPIURL),
		Enricher:  clients.Enricher,
	}
	if clients.Maps != nil {
		deps.Neighborhoods = geo.NewNeighborhoodSuggester(logger.With("component", "neighborhoods"), clients.Maps)
	}

	if cfg.LeadsDBPath != "" {
		repo, err := storage.NewDuckDBRepo(cfg.LeadsDBPath, logger.With("component", "archive"))
		if err != nil {
			logger.Error("DB connection failed", "err", err)
			os.Exit(1)
		}
		defer repo.Close()
		if err := repo.Init(ctx); err != nil {
			logger.Error("DB init failed", "err", err)
			os.Exit(1)
		}
		deps.Archive = repo
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.New(logger, deps, server.Options{
			Production:   cfg.IsProduction(),
			CORSOrigins:  cfg.CORSOrigins,
			RateLimitRPS: cfg.RateLimitRPS,
			RateBurst:    cfg.RateBurst,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "err", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
