package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"leaderboard/internal/config"
	"leaderboard/internal/encounter"
	"leaderboard/internal/session"
	"leaderboard/internal/store"
	"leaderboard/internal/telemetry"
	"leaderboard/internal/web"

	"golang.org/x/sync/errgroup"
)

const sweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	slog.SetDefault(config.NewLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer := telemetry.NoopTracer()
	if cfg.OTelEnabled {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				slog.Warn("telemetry shutdown", "error", err)
			}
		}()
		tracer = telemetry.Tracer("web")
	}

	dsn := cfg.SQLitePath
	if cfg.DBDialect == string(store.DialectPostgres) {
		dsn = cfg.PostgresDSN
	}
	repo, err := store.Open(ctx, store.Dialect(cfg.DBDialect), dsn)
	if err != nil {
		return err
	}
	defer repo.Close()

	encCfg, err := encounter.LoadConfig(cfg.EncounterFile)
	if err != nil {
		return err
	}
	slog.Info("encounter loaded", "id", encCfg.ID, "monster_max_hp", encCfg.MonsterMaxHP, "seeded", cfg.EncounterSeed != 0)

	tmpl, err := template.ParseGlob(filepath.Join(cfg.TemplateDir, "*.html"))
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	sessions := session.NewMemoryStore[web.Visitor]()
	srv := &web.Server{
		Engine:      encounter.New(encCfg, encounter.NewRoller(cfg.EncounterSeed)),
		Store:       sessions,
		Repo:        repo,
		Tmpl:        tmpl,
		AdminSecret: cfg.AdminSecret,
		Tracer:      tracer,
		StaticDir:   cfg.StaticDir,
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", "http://localhost"+httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.RunSweeper(gctx, sweepInterval, cfg.SessionTTL, func(n int) {
			slog.Debug("sessions swept", "count", n)
		})
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
