package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fedreg/ecfr-tracker/internal/tracker"
)

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type fakeRunner struct {
	runs    atomic.Int64
	release chan struct{}
}

func (r *fakeRunner) RunCycle(ctx context.Context) (tracker.Snapshot, error) {
	r.runs.Add(1)
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
		}
	}
	return tracker.Snapshot{}, nil
}

func TestScheduler_ManualTriggerRunsCycle(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{}
	s := New(runner, systemClock{}, Config{Hour: 2}, zap.NewNop())
	go s.Run(ctx)

	s.Trigger()

	require.Eventually(t, func() bool {
		return runner.runs.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_TriggerWhileRunningIsNoOp(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{release: make(chan struct{})}
	s := New(runner, systemClock{}, Config{Hour: 2}, zap.NewNop())
	go s.Run(ctx)

	s.Trigger()
	require.Eventually(t, func() bool {
		return s.Status().Running
	}, time.Second, 10*time.Millisecond)

	// The first run is still blocked; these must all be dropped.
	s.Trigger()
	s.Trigger()
	close(runner.release)

	require.Eventually(t, func() bool {
		return !s.Status().Running
	}, time.Second, 10*time.Millisecond)
	// Give any wrongly queued trigger a chance to fire.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int64(1), runner.runs.Load())
}

func TestScheduler_StatusReportsNextRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(&fakeRunner{}, systemClock{}, Config{Hour: 2}, zap.NewNop())

	st := s.Status()
	require.False(t, st.Running)
	require.Empty(t, st.Jobs)

	go s.Run(ctx)
	require.Eventually(t, func() bool {
		return len(s.Status().Jobs) == 1
	}, time.Second, 10*time.Millisecond)

	job := s.Status().Jobs[0]
	require.Equal(t, "daily_data_update", job.ID)
	require.NotEmpty(t, job.NextRunTime)
}

func TestScheduler_NextRunAfter(t *testing.T) {
	t.Parallel()

	s := New(&fakeRunner{}, fixedClock{}, Config{Hour: 2, Minute: 30}, zap.NewNop())

	before := time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC)
	require.Equal(t,
		time.Date(2026, 3, 1, 2, 30, 0, 0, time.UTC),
		s.nextRunAfter(before))

	after := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	require.Equal(t,
		time.Date(2026, 3, 2, 2, 30, 0, 0, time.UTC),
		s.nextRunAfter(after))

	exact := time.Date(2026, 3, 1, 2, 30, 0, 0, time.UTC)
	require.Equal(t,
		time.Date(2026, 3, 2, 2, 30, 0, 0, time.UTC),
		s.nextRunAfter(exact))
}
