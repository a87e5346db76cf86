package engine

import (
	"context"
	"errors"
	"time"

	"github.com/openforest/stemsync/internal/record"
)

var (
	// ErrSyncAlreadyRunning means a sync attempt is in flight; the trigger
	// that observed it is a no-op.
	ErrSyncAlreadyRunning = errors.New("sync already running")

	// ErrOffline is a deferral, not a failure: connectivity was unavailable
	// at the start of the attempt and nothing was done.
	ErrOffline = errors.New("network unreachable, sync deferred")
)

// Trigger identifies the surface that invoked a sync attempt. Manual
// triggers surface failures to the user; focus and scheduled triggers only
// log them.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerFocus     Trigger = "focus"
	TriggerScheduled Trigger = "scheduled"
)

// Outcome is what a sync attempt reports back to the host scheduler.
type Outcome string

const (
	OutcomeNewData Outcome = "NewData"
	OutcomeNoData  Outcome = "NoData"
	OutcomeFailed  Outcome = "Failed"
)

// Report summarizes one sync attempt.
type Report struct {
	Trigger  Trigger
	Outcome  Outcome
	Synced   int // records committed to the ledger and removed locally
	Uploaded int // assets uploaded during this attempt
	Took     time.Duration
}

// Queue is the local durable queue of pending records.
type Queue interface {
	ReadAll() ([]*record.PendingRecord, error)
	RemoveFirst(n int) error
	SetRemoteAssetURL(recordID, url string) error
}

// Uploader turns local asset refs into durable remote URLs. The returned
// slice is index-aligned with the input and, on error, still carries the
// URLs of items that individually succeeded.
type Uploader interface {
	UploadMany(ctx context.Context, assetRefs []string) ([]string, error)
}

// Ledger inserts finalized rows into the remote structured store.
type Ledger interface {
	InsertMany(ctx context.Context, rows []*record.StemRow) error
	TotalCount(ctx context.Context) (int, error)
}

// Oracle reports current network reachability. Queried fresh at the start
// of every attempt, never cached across triggers.
type Oracle interface {
	Reachable(ctx context.Context) bool
}

// Identity supplies the device id stamped onto rows whose record predates
// identity setup.
type Identity interface {
	DeviceID() (string, error)
}

// TotalCache holds the last-known remote row count for offline display.
type TotalCache interface {
	SetCachedRemoteTotal(n int) error
}
