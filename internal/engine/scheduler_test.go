package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/openforest/stemsync/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsAndReports(t *testing.T) {
	store := &fakeStore{records: []*record.PendingRecord{pendingRecord(t, "")}}
	eng := newTestEngine(store, &fakeUploader{}, &fakeLedger{}, &fakeOracle{reachable: true})

	var mu sync.Mutex
	var outcomes []Outcome
	s := NewScheduler(eng, minSyncInterval, func(task string, outcome Outcome) {
		assert.Equal(t, DefaultTaskName, task)
		mu.Lock()
		outcomes = append(outcomes, outcome)
		mu.Unlock()
	})
	// shorten the interval under the enforced floor for the test
	s.interval = 10 * time.Millisecond

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(outcomes) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// first run drained the queue, later runs found nothing
	assert.Equal(t, OutcomeNewData, outcomes[0])
	assert.Equal(t, OutcomeNoData, outcomes[1])
}

func TestSchedulerOfflineReportsFailed(t *testing.T) {
	eng := newTestEngine(&fakeStore{}, &fakeUploader{}, &fakeLedger{}, &fakeOracle{reachable: false})

	var mu sync.Mutex
	var outcomes []Outcome
	s := NewScheduler(eng, minSyncInterval, func(task string, outcome Outcome) {
		mu.Lock()
		outcomes = append(outcomes, outcome)
		mu.Unlock()
	})
	s.interval = 10 * time.Millisecond

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(outcomes) >= 1
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, OutcomeFailed, outcomes[0])
}

func TestSchedulerIntervalFloor(t *testing.T) {
	eng := newTestEngine(&fakeStore{}, &fakeUploader{}, &fakeLedger{}, &fakeOracle{reachable: true})

	s := NewScheduler(eng, time.Second, nil)
	assert.Equal(t, minSyncInterval, s.interval)

	s = NewScheduler(eng, 0, nil)
	assert.Equal(t, defaultSyncInterval, s.interval)
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	eng := newTestEngine(&fakeStore{}, &fakeUploader{}, &fakeLedger{}, &fakeOracle{reachable: true})
	s := NewScheduler(eng, minSyncInterval, nil)

	require.NoError(t, s.Start(context.Background()))
	require.Error(t, s.Start(context.Background()))

	s.Stop()
	s.Stop()
}
