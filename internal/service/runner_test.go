package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/vamsi-krishn/EHR-system/pkg/latency"
	"github.com/vamsi-krishn/EHR-system/pkg/metrics"
)

func TestRunner_Run(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	r := NewRunner(latency.None(), m)

	called := false
	err := r.Run(context.Background(), latency.OpGrant, func() error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)

	boom := errors.New("boom")
	assert.ErrorIs(t, r.Run(context.Background(), latency.OpGrant, func() error { return boom }), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues(latency.OpGrant, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues(latency.OpGrant, "error")))
}

func TestRunner_CancelDuringLatencySkipsWork(t *testing.T) {
	sim := latency.NewFixed(map[string]time.Duration{latency.OpGrant: time.Hour}, 1)
	r := NewRunner(sim, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := r.Run(ctx, latency.OpGrant, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
