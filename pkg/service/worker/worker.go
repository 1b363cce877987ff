package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/relmap/pkg/utils/errutil"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
)

// periodic runs task once at start and then every interval until stopped.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - A failed run is logged and retried at the next tick
type periodic struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newPeriodic(name string, interval time.Duration, task func(ctx context.Context) error) *periodic {
	return &periodic{
		name:     name,
		interval: interval,
		task:     task,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background loop without blocking the caller
func (w *periodic) Start(ctx context.Context) {
	logging.From(ctx).Info("worker starting", "worker", w.name, "interval", w.interval.String())
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for the running task to return
func (w *periodic) Stop() {
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("worker stopped", "worker", w.name)
}

func (w *periodic) run(ctx context.Context) {
	defer close(w.doneCh)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *periodic) runOnce(ctx context.Context) {
	if err := w.task(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		errutil.Handle(ctx, err, w.name+" failed (will retry next interval)")
	}
}
