// Package netcheck answers "can we reach the backend right now". It is a
// stateless snapshot query; callers must not cache results across sync
// attempts.
package netcheck

import (
	"context"
	"log/slog"
	"time"
)

const probeTimeout = 5 * time.Second

// HealthProber is the probe target, satisfied by the ledger client.
type HealthProber interface {
	Health(ctx context.Context) error
}

// Checker reports current network reachability by probing the ledger's
// health endpoint. No retry or backoff lives here.
type Checker struct {
	prober HealthProber
}

func New(prober HealthProber) *Checker {
	return &Checker{prober: prober}
}

// Reachable returns a fresh reachability snapshot. It blocks for at most
// probeTimeout.
func (c *Checker) Reachable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := c.prober.Health(probeCtx); err != nil {
		slog.Debug("netcheck unreachable", "error", err)
		return false
	}
	return true
}
