package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-weather-alerts/internal/alert"
)

type countingRunner struct {
	calls       atomic.Int32
	err         error
	hadDeadline atomic.Bool
}

func (r *countingRunner) Run(ctx context.Context) (alert.Report, error) {
	r.calls.Add(1)
	_, ok := ctx.Deadline()
	r.hadDeadline.Store(ok)
	return alert.Report{RunID: "r1", Notified: 2}, r.err
}

func TestStart_PreflightFailure(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, time.Hour, func() error { return errors.New("FCM_SERVER_KEY not set") }, slog.Default())

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FCM_SERVER_KEY")
	assert.Zero(t, runner.calls.Load())
}

func TestStart_InvalidInterval(t *testing.T) {
	s := New(&countingRunner{}, 0, nil, slog.Default())
	assert.Error(t, s.Start())
}

func TestStart_WaitsForFirstInterval(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, time.Hour, func() error { return nil }, slog.Default())

	require.NoError(t, s.Start())
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, runner.calls.Load())
}

func TestRunOnce(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, time.Minute, nil, slog.Default())

	s.runOnce()
	assert.Equal(t, int32(1), runner.calls.Load())
	assert.True(t, runner.hadDeadline.Load())

	runner.err = errors.New("list profiles: db down")
	s.runOnce()
	assert.Equal(t, int32(2), runner.calls.Load())
}
