// Package service holds what the ledger services share: every operation
// waits out its simulated round trip, then runs, then is counted.
package service

import (
	"context"
	"time"

	"github.com/vamsi-krishn/EHR-system/pkg/latency"
	"github.com/vamsi-krishn/EHR-system/pkg/metrics"
)

type Runner struct {
	latency latency.Simulator
	metrics *metrics.Metrics
}

// NewRunner builds a Runner. A nil simulator means no latency and nil
// metrics means nothing is recorded.
func NewRunner(sim latency.Simulator, m *metrics.Metrics) Runner {
	if sim == nil {
		sim = latency.None()
	}
	return Runner{latency: sim, metrics: m}
}

// Run waits for op's latency outside any store lock, then calls fn. A context
// cancelled during the wait aborts before fn runs, so nothing is applied.
func (r Runner) Run(ctx context.Context, op string, fn func() error) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveLedger(op, start, err) }()

	if err := r.latency.Wait(ctx, op); err != nil {
		return err
	}
	return fn()
}
