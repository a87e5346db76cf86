package client

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openforest/stemsync/internal/engine"
	"golang.org/x/sync/errgroup"
)

// Run starts the daemon: an initial sync followed by the recurring
// background task, until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	slog.Info("daemon start")

	scheduler := engine.NewScheduler(a.Engine, a.Config.SyncInterval, func(task string, outcome engine.Outcome) {
		slog.Info("background sync", "task", task, "result", outcome)
	})

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		// run an initial sync before the recurring task takes over; offline
		// here is a deferral, not a startup failure
		if _, err := a.Engine.RunSync(egCtx, engine.TriggerFocus); err != nil &&
			!errors.Is(err, engine.ErrOffline) &&
			!errors.Is(err, engine.ErrSyncAlreadyRunning) &&
			!errors.Is(err, context.Canceled) {
			slog.Error("initial sync failed", "error", err)
		}
		return nil
	})

	eg.Go(func() error {
		return scheduler.Start(egCtx)
	})

	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("received interrupt signal, stopping daemon")
		scheduler.Stop()
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("daemon failure", "error", err)
		return err
	}

	slog.Info("daemon stopped")
	return nil
}
