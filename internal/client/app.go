// Package client wires the StemSync components together for the CLI and
// the long-running daemon.
package client

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofrs/flock"
	"github.com/openforest/stemsync/internal/blob"
	"github.com/openforest/stemsync/internal/capture"
	"github.com/openforest/stemsync/internal/config"
	"github.com/openforest/stemsync/internal/engine"
	"github.com/openforest/stemsync/internal/ledger"
	"github.com/openforest/stemsync/internal/netcheck"
	"github.com/openforest/stemsync/internal/store"
	"github.com/openforest/stemsync/internal/utils"
)

var ErrDataDirLocked = errors.New("data dir locked by another process")

// App holds the assembled components. Create with New, then Open before
// use and Close when done.
type App struct {
	Config   *config.Config
	Store    *store.Store
	Uploader *blob.Uploader
	Ledger   *ledger.Client
	Oracle   *netcheck.Checker
	Engine   *engine.Engine

	flock *flock.Flock
}

func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st := store.New(cfg.StorePath())

	uploader, err := blob.NewUploaderWithConfig(&cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("create uploader: %w", err)
	}

	ledgerClient := ledger.New(cfg.Ledger.URL, cfg.Ledger.APIKey)
	oracle := netcheck.New(ledgerClient)
	eng := engine.New(st, uploader, ledgerClient, oracle, st, st)

	return &App{
		Config:   cfg,
		Store:    st,
		Uploader: uploader,
		Ledger:   ledgerClient,
		Oracle:   oracle,
		Engine:   eng,
		flock:    flock.New(cfg.LockPath()),
	}, nil
}

// Open locks the data dir and opens the local store.
func (a *App) Open() error {
	if err := utils.EnsureDir(a.Config.DataDir); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	locked, err := a.flock.TryLock()
	if err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	if !locked {
		return ErrDataDirLocked
	}

	if err := a.Store.Open(); err != nil {
		a.unlock()
		return err
	}

	slog.Info("app open", "data", a.Config.DataDir, "ledger", a.Ledger.BaseURL())
	return nil
}

// Close releases the store and the data dir lock.
func (a *App) Close() error {
	err := a.Store.Close()
	a.unlock()
	return err
}

func (a *App) unlock() {
	if !a.flock.Locked() {
		return
	}
	if err := a.flock.Unlock(); err != nil {
		slog.Warn("unlock data dir", "error", err)
		return
	}
	_ = os.Remove(a.flock.Path())
}

// Capture builds the form-flow service on top of the assembled components.
func (a *App) Capture() *capture.Service {
	return capture.NewService(a.Store, a.Uploader, a.Ledger, a.Oracle)
}
