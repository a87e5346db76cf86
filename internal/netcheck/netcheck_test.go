package netcheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type proberFunc func(ctx context.Context) error

func (f proberFunc) Health(ctx context.Context) error { return f(ctx) }

func TestReachable(t *testing.T) {
	up := New(proberFunc(func(ctx context.Context) error { return nil }))
	assert.True(t, up.Reachable(context.Background()))

	down := New(proberFunc(func(ctx context.Context) error {
		return errors.New("connection refused")
	}))
	assert.False(t, down.Reachable(context.Background()))
}

func TestReachableFreshPerCall(t *testing.T) {
	calls := 0
	flaky := New(proberFunc(func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("down")
		}
		return nil
	}))

	// no caching: a recovered backend is visible on the next probe
	assert.False(t, flaky.Reachable(context.Background()))
	assert.True(t, flaky.Reachable(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestReachableAppliesProbeTimeout(t *testing.T) {
	c := New(proberFunc(func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		assert.True(t, ok, "probe context carries a deadline")
		assert.False(t, deadline.IsZero())
		return nil
	}))
	assert.True(t, c.Reachable(context.Background()))
}
