package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/liveclass/internal/client"
	"github.com/immxrtalbeast/liveclass/internal/config"
	"github.com/immxrtalbeast/liveclass/internal/domain"
	"github.com/immxrtalbeast/liveclass/lib/logger/sl"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	watchSession  string
	watchUserID   string
	watchUserName string
	watchRole     string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Attend a session as a reconciling client",
	Long: `Connects to a session's realtime channel and polls its view, keeping a
local copy of the participant's mute, permission and hand state converged with
the server until the session ends.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSession, "session", "", "session id")
	watchCmd.Flags().StringVar(&watchUserID, "user-id", "", "user id to attend as")
	watchCmd.Flags().StringVar(&watchUserName, "user-name", "", "display name")
	watchCmd.Flags().StringVar(&watchRole, "role", "student", "platform role: teacher, student or admin")
	_ = watchCmd.MarkFlagRequired("session")
	_ = watchCmd.MarkFlagRequired("user-id")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.MustLoadClient(configPath)
	log := setupLogger(cfg.Env)

	sessionID, err := uuid.Parse(watchSession)
	if err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}
	who := domain.Identity{UserID: watchUserID, Name: watchUserName, Role: watchRole}

	state := client.NewState(who.UserID, nil, log)
	poller := client.NewPoller(sessionID, client.NewHTTPFetcher(cfg.Poller.BaseURL, who, nil), state, cfg.Poller.Interval, cfg.Poller.MaxNotFound, log)
	listener := client.NewListener(cfg.Poller.BaseURL, sessionID, who, state, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return poller.Run(gctx)
	})
	g.Go(func() error {
		if err := listener.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("realtime channel lost, relying on polling", sl.Err(err))
		}
		return nil
	})

	err = g.Wait()
	snap := state.Snapshot()
	log.Info("stopped watching",
		slog.Bool("active", snap.Active),
		slog.Bool("muted", snap.Muted),
		slog.Bool("has_speaking_permission", snap.HasSpeakingPermission),
		slog.Int("participants", len(snap.Participants)),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
