package worker

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/checkerboard/pkg/utils/errutil"
	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
)

// Refresher reconciles the mapping store with Slack
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
}

// Mirror reloads the in-memory mapping from the store
type Mirror interface {
	Refresh(ctx context.Context) error
}

// MappingRefreshWorker periodically reconciles Slack profiles into the store
// and reloads the mirror when something changed.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Cycles never overlap; the next one starts after the previous finished
type MappingRefreshWorker struct {
	refresher Refresher
	mirror    Mirror
	interval  time.Duration

	cancel   context.CancelFunc
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewMappingRefreshWorker creates a worker that starts a cycle at most once per interval
func NewMappingRefreshWorker(refresher Refresher, mirror Mirror, interval time.Duration) *MappingRefreshWorker {
	return &MappingRefreshWorker{
		refresher: refresher,
		mirror:    mirror,
		interval:  interval,
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background refresh loop. The first cycle runs one
// interval after Start, since the mirror is loaded during startup.
func (w *MappingRefreshWorker) Start(ctx context.Context) error {
	logging.Default().Info("Mapping refresh worker starting",
		"interval", w.interval.String())

	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)

	return nil
}

// Stop cancels the loop and waits until it exits. A sleeping worker stops
// at once; a running cycle stops at the next Slack user.
func (w *MappingRefreshWorker) Stop() {
	w.stopOnce.Do(func() {
		logging.Default().Info("Mapping refresh worker stopping")
		if w.cancel == nil {
			close(w.doneCh)
			return
		}
		w.cancel()
		<-w.doneCh
		logging.Default().Info("Mapping refresh worker stopped")
	})
}

// run is the main worker loop (runs in goroutine)
func (w *MappingRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
		case <-ctx.Done():
			logging.Default().Info("Mapping refresh worker context cancelled")
			return
		}

		startTime := time.Now()
		if err := w.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				logging.Default().Info("Mapping refresh interrupted by shutdown")
				return
			}
			// Log error but continue worker; the mirror keeps its last snapshot
			errutil.Log(ctx, err, "Mapping refresh failed (will retry next interval)")
		}

		timer.Reset(max(0, w.interval-time.Since(startTime)))
	}
}

// cycle runs one reconciliation and reloads the mirror if the mapping changed
func (w *MappingRefreshWorker) cycle(ctx context.Context) error {
	changed, err := w.refresher.Refresh(ctx)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return w.mirror.Refresh(ctx)
}
