package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultTaskName is the name the background task registers under.
	DefaultTaskName = "syncData"

	// the host enforces a floor on how often background syncs may fire
	minSyncInterval     = 15 * time.Second
	defaultSyncInterval = 15 * time.Minute
)

// ResultFunc receives the outcome of every scheduled run.
type ResultFunc func(task string, outcome Outcome)

// Scheduler is the periodic background trigger surface. It registers a
// recurring task by name and reports each run's outcome to the host.
type Scheduler struct {
	engine   *Engine
	taskName string
	interval time.Duration
	onResult ResultFunc

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(engine *Engine, interval time.Duration, onResult ResultFunc) *Scheduler {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	if interval < minSyncInterval {
		interval = minSyncInterval
	}
	return &Scheduler{
		engine:   engine,
		taskName: DefaultTaskName,
		interval: interval,
		onResult: onResult,
	}
}

// Start registers the recurring sync task and returns. Runs continue until
// ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cancel != nil {
		return errors.New("scheduler already started")
	}
	ctx, s.cancel = context.WithCancel(ctx)

	slog.Info("background task registered", "task", s.taskName, "interval", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// using a timer and not a ticker to avoid queued ticks when a run
		// takes longer than the interval
		timer := time.NewTimer(s.interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				s.runOnce(ctx)
				timer.Reset(s.interval)
			}
		}
	}()

	return nil
}

// Stop cancels the recurring task and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	slog.Info("background task unregistered", "task", s.taskName)
}

func (s *Scheduler) runOnce(ctx context.Context) {
	report, err := s.engine.RunSync(ctx, TriggerScheduled)

	switch {
	case errors.Is(err, ErrSyncAlreadyRunning):
		slog.Debug("scheduled sync skipped", "task", s.taskName, "reason", "already running")
		return
	case errors.Is(err, ErrOffline):
		slog.Debug("scheduled sync deferred", "task", s.taskName, "reason", "offline")
	case err != nil:
		// background failures are logged, never surfaced
		slog.Error("scheduled sync failed", "task", s.taskName, "error", err)
	}

	if report != nil && s.onResult != nil {
		s.onResult(s.taskName, report.Outcome)
	}
}
