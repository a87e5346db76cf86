package store

import (
	"strconv"

	"github.com/denisbrodbeck/machineid"
)

const machineIDApp = "stemsync"

// DeviceID returns the persisted device identifier, or "" when identity
// setup has not completed.
func (s *Store) DeviceID() (string, error) {
	raw, ok, err := s.getRaw(keyDeviceID)
	if err != nil || !ok {
		return "", err
	}
	return string(raw), nil
}

// SetDeviceID persists the device identifier. It is a configuration change,
// not a queue mutation: already-queued records keep the id they were
// captured with.
func (s *Store) SetDeviceID(id string) error {
	return s.setRaw(keyDeviceID, []byte(id))
}

// ResetDeviceID removes the persisted device identifier.
func (s *Store) ResetDeviceID() error {
	return s.deleteRaw(keyDeviceID)
}

// DefaultDeviceID derives a stable per-installation identifier from the
// machine id. Used when the user has not assigned one explicitly.
func DefaultDeviceID() (string, error) {
	return machineid.ProtectedID(machineIDApp)
}

// CachedRemoteTotal returns the last-known remote row count for offline
// display, or -1 when never cached.
func (s *Store) CachedRemoteTotal() (int, error) {
	raw, ok, err := s.getRaw(keyRemoteTotal)
	if err != nil {
		return 0, err
	}
	if !ok {
		return -1, nil
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, persistErr("decode "+keyRemoteTotal, err)
	}
	return n, nil
}

// SetCachedRemoteTotal stores the last-known remote row count.
func (s *Store) SetCachedRemoteTotal(n int) error {
	return s.setRaw(keyRemoteTotal, []byte(strconv.Itoa(n)))
}
