package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/checkerboard/pkg/service/worker"
)

// mockRefresher is a mock implementation of worker.Refresher for testing
type mockRefresher struct {
	mu      sync.Mutex
	starts  []time.Time
	changed bool
	err     error
	delay   time.Duration

	// block makes Refresh wait for cancellation
	block bool
}

func (m *mockRefresher) Refresh(ctx context.Context) (bool, error) {
	m.mu.Lock()
	m.starts = append(m.starts, time.Now())
	changed, err, delay, block := m.changed, m.err, m.delay, m.block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return false, ctx.Err()
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return changed, err
}

func (m *mockRefresher) set(changed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = changed
	m.err = err
}

func (m *mockRefresher) startTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.starts...)
}

// mockMirror counts reloads
type mockMirror struct {
	mu    sync.Mutex
	calls int
}

func (m *mockMirror) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return nil
}

func (m *mockMirror) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestMappingRefreshWorker_FirstCycleAfterInterval(t *testing.T) {
	refresher := &mockRefresher{}
	mirror := &mockMirror{}

	w := worker.NewMappingRefreshWorker(refresher, mirror, 100*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	time.Sleep(30 * time.Millisecond)
	gt.Array(t, refresher.startTimes()).Length(0)

	time.Sleep(150 * time.Millisecond)
	gt.Bool(t, len(refresher.startTimes()) >= 1).True()
}

func TestMappingRefreshWorker_ReloadsMirrorOnlyWhenChanged(t *testing.T) {
	refresher := &mockRefresher{}
	mirror := &mockMirror{}

	w := worker.NewMappingRefreshWorker(refresher, mirror, 30*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()

	time.Sleep(100 * time.Millisecond)
	gt.Number(t, mirror.count()).Equal(0)

	refresher.set(true, nil)
	time.Sleep(100 * time.Millisecond)
	w.Stop()

	gt.Bool(t, mirror.count() >= 1).True()
}

func TestMappingRefreshWorker_ContinuesAfterErrors(t *testing.T) {
	refresher := &mockRefresher{}
	refresher.set(true, errors.New("retries exhausted"))
	mirror := &mockMirror{}

	w := worker.NewMappingRefreshWorker(refresher, mirror, 20*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()

	time.Sleep(150 * time.Millisecond)
	w.Stop()

	gt.Bool(t, len(refresher.startTimes()) >= 2).True()
	// an aborted cycle keeps the previous snapshot
	gt.Number(t, mirror.count()).Equal(0)
}

func TestMappingRefreshWorker_CyclesAreSpacedByInterval(t *testing.T) {
	interval := 50 * time.Millisecond
	refresher := &mockRefresher{delay: 20 * time.Millisecond}

	w := worker.NewMappingRefreshWorker(refresher, &mockMirror{}, interval)
	gt.NoError(t, w.Start(context.Background())).Required()

	time.Sleep(300 * time.Millisecond)
	w.Stop()

	starts := refresher.startTimes()
	gt.Bool(t, len(starts) >= 2).True()
	for i := 1; i < len(starts); i++ {
		// allow for timer granularity
		gt.Bool(t, starts[i].Sub(starts[i-1]) >= interval-5*time.Millisecond).True()
	}
}

func TestMappingRefreshWorker_SlowCycleRunsBackToBack(t *testing.T) {
	refresher := &mockRefresher{delay: 80 * time.Millisecond}

	w := worker.NewMappingRefreshWorker(refresher, &mockMirror{}, 10*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()

	time.Sleep(300 * time.Millisecond)
	w.Stop()

	starts := refresher.startTimes()
	gt.Bool(t, len(starts) >= 3).True()
}

func TestMappingRefreshWorker_StopWhileSleeping(t *testing.T) {
	w := worker.NewMappingRefreshWorker(&mockRefresher{}, &mockMirror{}, time.Hour)
	gt.NoError(t, w.Start(context.Background())).Required()

	stopStart := time.Now()
	w.Stop()
	gt.Bool(t, time.Since(stopStart) < time.Second).True()

	// Stop is idempotent
	w.Stop()
}

func TestMappingRefreshWorker_StopDuringRefresh(t *testing.T) {
	refresher := &mockRefresher{block: true}
	w := worker.NewMappingRefreshWorker(refresher, &mockMirror{}, 10*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()

	time.Sleep(50 * time.Millisecond)
	gt.Array(t, refresher.startTimes()).Length(1)

	stopStart := time.Now()
	w.Stop()
	gt.Bool(t, time.Since(stopStart) < time.Second).True()
}

func TestMappingRefreshWorker_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := worker.NewMappingRefreshWorker(&mockRefresher{}, &mockMirror{}, time.Hour)
	gt.NoError(t, w.Start(ctx)).Required()

	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after context cancel")
	}
}
