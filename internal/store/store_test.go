package store

import (
	"path/filepath"
	"testing"

	"github.com/openforest/stemsync/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "stemsync.db"))
	require.NoError(t, s.Open())
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(t *testing.T, assetRef string) *record.PendingRecord {
	t.Helper()
	r, err := record.New(assetRef, []float64{12.5, 9.1, 14.0}, nil, "device-1")
	require.NoError(t, err)
	return r
}

func TestStoreOpenClose(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "stemsync.db"))
	require.NoError(t, s.Open())
	require.Error(t, s.Open(), "double open")
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Close(), ErrNotOpen)
}

func TestQueueAppendReadAll(t *testing.T) {
	s := testStore(t)

	records, err := s.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)

	r1 := testRecord(t, "a.jpg")
	r2 := testRecord(t, "")
	require.NoError(t, s.Append(r1))
	require.NoError(t, s.Append(r2))

	records, err = s.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	// capture order is preserved
	assert.Equal(t, r1.ID, records[0].ID)
	assert.Equal(t, r2.ID, records[1].ID)
	assert.Equal(t, r1.Measurements, records[0].Measurements)
	assert.Equal(t, "device-1", records[0].DeviceID)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQueueAppendValidates(t *testing.T) {
	s := testStore(t)

	err := s.Append(&record.PendingRecord{ID: "x"})
	require.ErrorIs(t, err, record.ErrNoMeasurements)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueueSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stemsync.db")
	s := New(dbPath)
	require.NoError(t, s.Open())

	r := testRecord(t, "a.jpg")
	require.NoError(t, s.Append(r))
	require.NoError(t, s.Close())

	s = New(dbPath)
	require.NoError(t, s.Open())
	defer s.Close()

	records, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, r.ID, records[0].ID)
	assert.Equal(t, r.CapturedAt.Unix(), records[0].CapturedAt.Unix())
}

func TestQueueRemoveAt(t *testing.T) {
	s := testStore(t)

	r1 := testRecord(t, "")
	r2 := testRecord(t, "")
	r3 := testRecord(t, "")
	for _, r := range []*record.PendingRecord{r1, r2, r3} {
		require.NoError(t, s.Append(r))
	}

	require.NoError(t, s.RemoveAt(1))

	records, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, r1.ID, records[0].ID)
	assert.Equal(t, r3.ID, records[1].ID)

	require.ErrorIs(t, s.RemoveAt(2), ErrIndexOutOfRange)
	require.ErrorIs(t, s.RemoveAt(-1), ErrIndexOutOfRange)
}

func TestQueueRemoveFirst(t *testing.T) {
	s := testStore(t)

	r1 := testRecord(t, "")
	r2 := testRecord(t, "")
	r3 := testRecord(t, "")
	for _, r := range []*record.PendingRecord{r1, r2, r3} {
		require.NoError(t, s.Append(r))
	}

	require.NoError(t, s.RemoveFirst(2))

	records, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, r3.ID, records[0].ID)

	require.ErrorIs(t, s.RemoveFirst(2), ErrIndexOutOfRange)
	require.NoError(t, s.RemoveFirst(0))
	require.NoError(t, s.RemoveFirst(1))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueueClear(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Append(testRecord(t, "")))
	require.NoError(t, s.Clear())

	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	// clearing an empty queue is fine
	require.NoError(t, s.Clear())
}

func TestQueueSetRemoteAssetURL(t *testing.T) {
	s := testStore(t)

	r := testRecord(t, "a.jpg")
	require.NoError(t, s.Append(r))

	require.NoError(t, s.SetRemoteAssetURL(r.ID, "https://bucket.s3.test/a.jpg"))

	records, err := s.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.test/a.jpg", records[0].RemoteAssetURL)
	assert.False(t, records[0].NeedsUpload())

	// write-once
	err = s.SetRemoteAssetURL(r.ID, "https://bucket.s3.test/b.jpg")
	require.ErrorIs(t, err, record.ErrAlreadyUploaded)

	err = s.SetRemoteAssetURL("no-such-id", "https://bucket.s3.test/c.jpg")
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeviceID(t *testing.T) {
	s := testStore(t)

	id, err := s.DeviceID()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, s.SetDeviceID("field-unit-7"))
	id, err = s.DeviceID()
	require.NoError(t, err)
	assert.Equal(t, "field-unit-7", id)

	require.NoError(t, s.ResetDeviceID())
	id, err = s.DeviceID()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestCachedRemoteTotal(t *testing.T) {
	s := testStore(t)

	n, err := s.CachedRemoteTotal()
	require.NoError(t, err)
	assert.Equal(t, -1, n, "never cached")

	require.NoError(t, s.SetCachedRemoteTotal(128))
	n, err = s.CachedRemoteTotal()
	require.NoError(t, err)
	assert.Equal(t, 128, n)

	require.NoError(t, s.SetCachedRemoteTotal(0))
	n, err = s.CachedRemoteTotal()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreNotOpen(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "stemsync.db"))

	_, err := s.ReadAll()
	require.ErrorIs(t, err, ErrNotOpen)
	require.ErrorIs(t, s.Append(testRecord(t, "")), ErrNotOpen)
	_, err = s.DeviceID()
	require.ErrorIs(t, err, ErrNotOpen)
}
