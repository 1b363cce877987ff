package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/relmap/pkg/utils/async"
)

func TestDispatchRunsHandler(t *testing.T) {
	var called atomic.Int32
	reqCtx, cancel := context.WithCancel(context.Background())

	async.Dispatch(reqCtx, func(ctx context.Context) error {
		called.Add(1)
		// the handler context is not tied to the request
		gt.NoError(t, ctx.Err())
		return nil
	})
	cancel()

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	gt.NoError(t, async.Wait(ctx))
	gt.Number(t, called.Load()).Equal(1)
}

func TestDispatchSurvivesErrorAndPanic(t *testing.T) {
	async.Dispatch(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})
	async.Dispatch(context.Background(), func(ctx context.Context) error {
		panic("boom")
	})

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	gt.NoError(t, async.Wait(ctx))
}

func TestWaitTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	async.Dispatch(context.Background(), func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, done := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer done()
	gt.Error(t, async.Wait(ctx))
}
