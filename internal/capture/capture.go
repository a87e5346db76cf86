// Package capture is the form-flow entry point: it turns a completed data
// entry into either an immediate remote insert (when online) or a queued
// pending record. It never touches storage or network directly, only the
// injected collaborators.
package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openforest/stemsync/internal/record"
)

// Queue is the durable destination for offline captures.
type Queue interface {
	Append(r *record.PendingRecord) error
	DeviceID() (string, error)
}

// Uploader handles the direct online path's single-asset upload.
type Uploader interface {
	UploadOne(ctx context.Context, assetRef string) (string, error)
}

// Ledger inserts a single finalized row on the direct online path.
type Ledger interface {
	InsertOne(ctx context.Context, row *record.StemRow) error
}

// Oracle reports reachability at capture time.
type Oracle interface {
	Reachable(ctx context.Context) bool
}

// Input is one completed form entry.
type Input struct {
	AssetRef     string
	Stems        int
	Measurements []float64
	Location     *record.Location
}

// Result reports where the capture ended up.
type Result struct {
	Record *record.PendingRecord
	// Queued is true when the record went to the local queue instead of
	// being inserted remotely.
	Queued bool
}

type Service struct {
	queue    Queue
	uploader Uploader
	ledger   Ledger
	oracle   Oracle
}

func NewService(queue Queue, uploader Uploader, ledger Ledger, oracle Oracle) *Service {
	return &Service{
		queue:    queue,
		uploader: uploader,
		ledger:   ledger,
		oracle:   oracle,
	}
}

// Capture validates the entry and saves it: directly to the remote store
// when connectivity allows, otherwise appended to the local queue. A
// failed direct attempt falls back to the queue; the capture is never
// lost unless the queue write itself fails.
func (s *Service) Capture(ctx context.Context, in *Input) (*Result, error) {
	if in.Stems <= 0 || in.Stems != len(in.Measurements) {
		return nil, record.ErrMeasurementCount
	}

	deviceID, err := s.queue.DeviceID()
	if err != nil {
		// tolerated: the record syncs with a null device id
		slog.Warn("read device id", "error", err)
		deviceID = ""
	}

	rec, err := record.New(in.AssetRef, in.Measurements, in.Location, deviceID)
	if err != nil {
		return nil, err
	}

	if !s.oracle.Reachable(ctx) {
		return s.enqueue(rec)
	}

	if err := s.saveDirect(ctx, rec, deviceID); err != nil {
		slog.Warn("direct save failed, queuing for later sync", "record", rec.ID, "error", err)
		return s.enqueue(rec)
	}

	slog.Info("capture saved", "record", rec.ID, "stems", rec.StemCount())
	return &Result{Record: rec}, nil
}

// saveDirect uploads the asset (if any) and inserts the row. A successful
// upload sticks to the record, so the fallback enqueue skips re-upload.
func (s *Service) saveDirect(ctx context.Context, rec *record.PendingRecord, deviceID string) error {
	if rec.NeedsUpload() {
		url, err := s.uploader.UploadOne(ctx, rec.AssetRef)
		if err != nil {
			return fmt.Errorf("upload asset: %w", err)
		}
		if err := rec.SetRemoteAssetURL(url); err != nil {
			return err
		}
	}

	if err := s.ledger.InsertOne(ctx, rec.Row(deviceID)); err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	return nil
}

func (s *Service) enqueue(rec *record.PendingRecord) (*Result, error) {
	if err := s.queue.Append(rec); err != nil {
		return nil, fmt.Errorf("queue capture: %w", err)
	}
	slog.Info("capture queued", "record", rec.ID, "stems", rec.StemCount())
	return &Result{Record: rec, Queued: true}, nil
}
