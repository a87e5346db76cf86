// Package record defines the offline observation model and the row shape
// expected by the remote stems ledger.
package record

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoMeasurements      = errors.New("record: no stem measurements")
	ErrMeasurementCount    = errors.New("record: stem count does not match measurements")
	ErrZeroTimestamp       = errors.New("record: captured timestamp not set")
	ErrAlreadyUploaded     = errors.New("record: remote asset url already set")
	ErrNoAssetForRemoteURL = errors.New("record: remote asset url without asset ref")
)

// Location is a latitude/longitude pair captured with the observation.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PendingRecord is one offline-captured observation awaiting sync.
//
// A record is immutable after creation except for RemoteAssetURL, which is
// written once by the sync engine after the asset has been durably uploaded.
// A populated RemoteAssetURL means "do not re-upload".
type PendingRecord struct {
	// ID is a client-generated identifier attached at creation time so the
	// ledger can deduplicate retried inserts.
	ID string `json:"id"`

	// AssetRef is the local path of the captured image. Empty when the
	// observation has no photo.
	AssetRef string `json:"uri,omitempty"`

	// RemoteAssetURL is set once the asset has been uploaded.
	RemoteAssetURL string `json:"imageUrl,omitempty"`

	// Measurements holds the per-stem readings, one per stem.
	Measurements []float64 `json:"stems"`

	// Location may be nil when location acquisition failed or was denied.
	Location *Location `json:"location,omitempty"`

	// DeviceID is the per-installation identifier. Empty until identity
	// setup has completed; such records sync with a null device id.
	DeviceID string `json:"deviceId,omitempty"`

	// CapturedAt is assigned at creation time and immutable thereafter.
	CapturedAt time.Time `json:"date"`
}

// New builds a validated PendingRecord with a fresh id and capture timestamp.
func New(assetRef string, measurements []float64, loc *Location, deviceID string) (*PendingRecord, error) {
	r := &PendingRecord{
		ID:           uuid.NewString(),
		AssetRef:     assetRef,
		Measurements: measurements,
		Location:     loc,
		DeviceID:     deviceID,
		CapturedAt:   time.Now().UTC(),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the record invariants.
func (r *PendingRecord) Validate() error {
	if len(r.Measurements) == 0 {
		return ErrNoMeasurements
	}
	if r.CapturedAt.IsZero() {
		return ErrZeroTimestamp
	}
	if r.RemoteAssetURL != "" && r.AssetRef == "" {
		return ErrNoAssetForRemoteURL
	}
	return nil
}

// StemCount is the number of stems, always equal to len(Measurements).
func (r *PendingRecord) StemCount() int {
	return len(r.Measurements)
}

// NeedsUpload reports whether the record still has an asset to upload.
func (r *PendingRecord) NeedsUpload() bool {
	return r.AssetRef != "" && r.RemoteAssetURL == ""
}

// SetRemoteAssetURL records the durable remote URL for the asset. The field
// is write-once.
func (r *PendingRecord) SetRemoteAssetURL(url string) error {
	if r.RemoteAssetURL != "" {
		return ErrAlreadyUploaded
	}
	r.RemoteAssetURL = url
	return nil
}

// StemRow is the row shape of the remote stems table.
type StemRow struct {
	RecordID     string    `json:"record_id"`
	StemsNo      int       `json:"stems_no"`
	StemsMeasure []float64 `json:"stems_measure"`
	Location     *Location `json:"location"`
	ImageURL     *string   `json:"image_url"`
	DeviceID     *string   `json:"device_id"`
	Date         time.Time `json:"date"`
}

// Row converts the record to its remote representation. An empty deviceID
// fallback is applied when the record itself was captured before identity
// setup; if both are empty the row carries a null device id.
func (r *PendingRecord) Row(fallbackDeviceID string) *StemRow {
	row := &StemRow{
		RecordID:     r.ID,
		StemsNo:      r.StemCount(),
		StemsMeasure: r.Measurements,
		Location:     r.Location,
		Date:         r.CapturedAt,
	}
	if r.RemoteAssetURL != "" {
		url := r.RemoteAssetURL
		row.ImageURL = &url
	}
	deviceID := r.DeviceID
	if deviceID == "" {
		deviceID = fallbackDeviceID
	}
	if deviceID != "" {
		row.DeviceID = &deviceID
	}
	return row
}
