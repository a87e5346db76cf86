// Package engine drains the local durable queue against the remote stems
// ledger and object store: at most one attempt at a time, asset uploads
// strictly before ledger inserts, local deletion strictly after the insert
// is acknowledged.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/openforest/stemsync/internal/record"
)

// Engine is the sync orchestrator. All collaborators are injected so the
// state machine can be exercised against fakes.
type Engine struct {
	queue    Queue
	uploader Uploader
	ledger   Ledger
	oracle   Oracle
	identity Identity
	totals   TotalCache

	// single-flight guard; TryLock on entry, held for the whole attempt
	muSync sync.Mutex
}

func New(queue Queue, uploader Uploader, ledger Ledger, oracle Oracle, identity Identity, totals TotalCache) *Engine {
	return &Engine{
		queue:    queue,
		uploader: uploader,
		ledger:   ledger,
		oracle:   oracle,
		identity: identity,
		totals:   totals,
	}
}

// RunSync executes one sync attempt. Every trigger surface funnels through
// here. The attempt runs to completion or failure; errors terminate it,
// release the single-flight guard and are reported to the caller, never
// raised further.
func (e *Engine) RunSync(ctx context.Context, trigger Trigger) (*Report, error) {
	if !e.muSync.TryLock() {
		return nil, ErrSyncAlreadyRunning
	}
	defer e.muSync.Unlock()

	tStart := time.Now()
	report := &Report{Trigger: trigger, Outcome: OutcomeFailed}
	defer func() {
		report.Took = time.Since(tStart)
	}()

	// Checking: fresh reachability snapshot, never cached across attempts
	if !e.oracle.Reachable(ctx) {
		slog.Debug("sync deferred", "trigger", trigger, "reason", "offline")
		return report, ErrOffline
	}

	// snapshot the queue once; records appended mid-attempt are picked up
	// by the next trigger
	records, err := e.queue.ReadAll()
	if err != nil {
		return report, fmt.Errorf("read queue: %w", err)
	}
	if len(records) == 0 {
		report.Outcome = OutcomeNoData
		slog.Debug("nothing to sync", "trigger", trigger)
		return report, nil
	}

	// Uploading
	uploaded, err := e.uploadAssets(ctx, records)
	report.Uploaded = uploaded
	if err != nil {
		return report, fmt.Errorf("asset upload: %w", err)
	}

	// Inserting
	rows := e.buildRows(records)
	if err := e.ledger.InsertMany(ctx, rows); err != nil {
		return report, fmt.Errorf("ledger insert: %w", err)
	}

	// Committing: remove exactly the snapshotted prefix
	if err := e.queue.RemoveFirst(len(records)); err != nil {
		// the ledger has the rows; the next attempt reinserts them and the
		// server deduplicates by record id
		return report, fmt.Errorf("commit queue: %w", err)
	}

	report.Synced = len(records)
	report.Outcome = OutcomeNewData

	e.refreshRemoteTotal(ctx)

	slog.Info("sync complete",
		"trigger", trigger,
		"synced", report.Synced,
		"uploaded", report.Uploaded,
		"took", time.Since(tStart),
	)
	return report, nil
}

// uploadAssets bulk-uploads every snapshotted record that still needs its
// asset uploaded, persisting each successful URL immediately so a failed
// attempt never re-uploads them. Returns the number of uploads persisted.
func (e *Engine) uploadAssets(ctx context.Context, records []*record.PendingRecord) (int, error) {
	var refs []string
	var pending []*record.PendingRecord
	for _, r := range records {
		if r.NeedsUpload() {
			refs = append(refs, r.AssetRef)
			pending = append(pending, r)
		}
	}
	if len(refs) == 0 {
		return 0, nil
	}

	urls, uploadErr := e.uploader.UploadMany(ctx, refs)

	// persist successes regardless of the batch outcome; re-uploading is
	// wasteful and the URL write is safe
	uploaded := 0
	for i, url := range urls {
		if url == "" {
			continue
		}
		if err := e.queue.SetRemoteAssetURL(pending[i].ID, url); err != nil {
			slog.Warn("persist asset url", "record", pending[i].ID, "error", err)
			continue
		}
		pending[i].RemoteAssetURL = url
		uploaded++
	}

	return uploaded, uploadErr
}

func (e *Engine) buildRows(records []*record.PendingRecord) []*record.StemRow {
	deviceID, err := e.identity.DeviceID()
	if err != nil {
		// records sync with a null device id rather than blocking
		slog.Warn("read device id", "error", err)
		deviceID = ""
	}

	rows := make([]*record.StemRow, len(records))
	for i, r := range records {
		rows[i] = r.Row(deviceID)
	}
	return rows
}

// refreshRemoteTotal caches the remote row count for offline display.
// Best effort: the sync already succeeded.
func (e *Engine) refreshRemoteTotal(ctx context.Context) {
	total, err := e.ledger.TotalCount(ctx)
	if err != nil {
		slog.Debug("remote total", "error", err)
		return
	}
	if err := e.totals.SetCachedRemoteTotal(total); err != nil {
		slog.Debug("cache remote total", "error", err)
	}
}
