package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/types"
	"github.com/secmon-lab/relmap/pkg/repository/memory"
	"github.com/secmon-lab/relmap/pkg/service/worker"
	"github.com/secmon-lab/relmap/pkg/usecase"
)

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

type mockSyncer struct {
	mu     sync.Mutex
	calls  int
	teamID model.TeamID
	err    error
}

func (m *mockSyncer) SyncTeam(ctx context.Context, teamID model.TeamID) (*usecase.SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.teamID = teamID
	if m.err != nil {
		return nil, m.err
	}
	return &usecase.SyncResult{Synced: 1, Users: []model.UserID{"U1"}}, nil
}

func (m *mockSyncer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestUserRefreshWorker(t *testing.T) {
	t.Run("syncs at start and on every tick", func(t *testing.T) {
		syncer := &mockSyncer{}
		w := worker.NewUserRefreshWorker(syncer, "T1", 10*time.Millisecond)
		w.Start(context.Background())

		waitFor(t, func() bool { return syncer.count() >= 3 })
		w.Stop()

		syncer.mu.Lock()
		defer syncer.mu.Unlock()
		gt.Value(t, syncer.teamID).Equal(model.TeamID("T1"))
	})

	t.Run("keeps running after a failure", func(t *testing.T) {
		syncer := &mockSyncer{err: errors.New("slack is down")}
		w := worker.NewUserRefreshWorker(syncer, "T1", 10*time.Millisecond)
		w.Start(context.Background())

		waitFor(t, func() bool { return syncer.count() >= 2 })
		w.Stop()
	})

	t.Run("initial run does not wait for the interval", func(t *testing.T) {
		syncer := &mockSyncer{}
		w := worker.NewUserRefreshWorker(syncer, "T1", time.Hour)
		w.Start(context.Background())

		waitFor(t, func() bool { return syncer.count() == 1 })
		w.Stop()
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		syncer := &mockSyncer{}
		ctx, cancel := context.WithCancel(context.Background())
		w := worker.NewUserRefreshWorker(syncer, "T1", time.Hour)
		w.Start(ctx)
		waitFor(t, func() bool { return syncer.count() == 1 })

		cancel()
		w.Stop()
	})
}

func TestInteractionPurgeWorker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	repo := memory.New(memory.WithClock(clock))
	put := func(id string, at time.Time) {
		gt.NoError(t, repo.Interaction().PutInteraction(ctx, &model.Interaction{
			ID:          id,
			OwnerID:     "U1",
			ContactID:   "U2",
			ChannelID:   "D1",
			ChannelType: types.ChannelTypeIM,
			Direction:   types.MessageDirectionSent,
			Timestamp:   at,
		})).Required()
	}
	put("expired", now.Add(-model.InteractionRetention-time.Hour))
	put("kept", now.Add(-24*time.Hour))

	uc := usecase.New(repo, usecase.WithClock(clock))
	w := worker.NewInteractionPurgeWorker(uc.Ingest, time.Hour)
	w.Start(ctx)
	defer w.Stop()

	waitFor(t, func() bool {
		n, err := repo.Interaction().CountInteractions(ctx, interfaces.InteractionFilter{OwnerID: "U1"})
		return err == nil && n == 1
	})

	left, err := repo.Interaction().FindInteractions(ctx, interfaces.InteractionFilter{OwnerID: "U1"})
	gt.NoError(t, err).Required()
	gt.Array(t, left).Length(1).Required()
	gt.Value(t, left[0].ID).Equal("kept")
}
