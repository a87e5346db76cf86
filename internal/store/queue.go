package store

import (
	"github.com/openforest/stemsync/internal/record"
)

// The queue is the JSON-serialized array of pending records stored under a
// single key. Order reflects capture order. Mutations are read-modify-write
// cycles serialized by s.mu; a failed write leaves the stored blob intact.

// Append adds a record to the end of the queue.
func (s *Store) Append(r *record.PendingRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readQueue()
	if err != nil {
		return err
	}
	return s.writeQueue(append(records, r))
}

// ReadAll returns the full current queue in capture order.
func (s *Store) ReadAll() ([]*record.PendingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readQueue()
}

// Count returns the number of pending records.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readQueue()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// RemoveAt deletes the record at index, preserving the relative order of
// the rest.
func (s *Store) RemoveAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readQueue()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(records) {
		return ErrIndexOutOfRange
	}
	records = append(records[:index], records[index+1:]...)
	return s.writeQueue(records)
}

// RemoveFirst deletes the first n records. The sync engine commits a
// successful attempt with the length of its snapshot, so records appended
// while the attempt was in flight survive to the next one.
func (s *Store) RemoveFirst(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readQueue()
	if err != nil {
		return err
	}
	if n < 0 || n > len(records) {
		return ErrIndexOutOfRange
	}
	return s.writeQueue(records[n:])
}

// Clear empties the queue. The write replaces the whole blob, so readers
// never observe a partial clear.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeQueue([]*record.PendingRecord{})
}

// SetRemoteAssetURL persists the uploaded asset URL on the queued record
// with the given id. The field is write-once; setting it again is an error.
func (s *Store) SetRemoteAssetURL(recordID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readQueue()
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.ID == recordID {
			if err := r.SetRemoteAssetURL(url); err != nil {
				return err
			}
			return s.writeQueue(records)
		}
	}
	return ErrRecordNotFound
}

func (s *Store) readQueue() ([]*record.PendingRecord, error) {
	var records []*record.PendingRecord
	if _, err := s.getJSON(keyCapturedData, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) writeQueue(records []*record.PendingRecord) error {
	return s.setJSON(keyCapturedData, records)
}
