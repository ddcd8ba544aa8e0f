package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/immxrtalbeast/liveclass/internal/api/http"
	"github.com/immxrtalbeast/liveclass/internal/config"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/immxrtalbeast/liveclass/internal/media"
	"github.com/immxrtalbeast/liveclass/internal/realtime"
	"github.com/immxrtalbeast/liveclass/internal/repository"
	"github.com/immxrtalbeast/liveclass/internal/service"
	"github.com/immxrtalbeast/liveclass/lib/logger/sl"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session coordinator API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.MustLoad(configPath)
	log := setupLogger(cfg.Env)

	sessions, err := openRepository(cfg, log)
	if err != nil {
		return err
	}

	issuer, err := media.NewIssuer(cfg.Media.Secret, cfg.Media.Issuer, cfg.Media.TTL)
	if err != nil {
		return fmt.Errorf("media issuer: %w", err)
	}

	hub := realtime.NewHub(cfg.Realtime.QueueSize, log)
	defaults := domain.Settings{
		AllowSelfUnmute:     cfg.Session.SelfUnmuteAllowed(),
		AutoMuteNewStudents: cfg.Session.AutoMute(),
	}
	sessionService := service.NewSessionService(sessions, hub, issuer, defaults, log)

	router := httpapi.SetupRouter(
		cfg.HTTP.AllowedOrigins,
		httpapi.NewSessionController(sessionService, log),
		httpapi.NewPermissionController(sessionService, log),
		httpapi.NewRealtimeController(sessionService, sessionService, hub, cfg.Realtime.WriteTimeout, log),
	)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting application", slog.String("addr", cfg.HTTP.Address), slog.String("env", cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", sl.Err(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openRepository(cfg *config.Config, log *slog.Logger) (repository.SessionRepository, error) {
	if cfg.Repository.Driver == config.DriverMemory {
		log.Warn("using in-memory session store, state is lost on restart")
		return repository.NewInMemorySessionRepository(), nil
	}

	db, err := connectDatabase(cfg.Database, cfg.Env)
	if err != nil {
		log.Error("failed to connect database", sl.Err(err))
		return nil, err
	}
	if err := migrate(db); err != nil {
		log.Error("failed to migrate database", sl.Err(err))
		return nil, err
	}
	return repository.NewPostgresSessionRepository(db), nil
}
