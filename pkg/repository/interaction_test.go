package repository_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/types"
)

func putInteraction(t *testing.T, repo interfaces.Repository, x *model.Interaction) {
	t.Helper()
	gt.NoError(t, repo.Interaction().PutInteraction(context.Background(), x)).Required()
}

func runInteractionRepositoryTest(t *testing.T, newRepo repoFactory) {
	t.Helper()

	t.Run("Find, Count and Distinct apply the filter", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Second)

		owner := model.UserID(uniqueID("U"))
		fixtures := []struct {
			contact string
			ct      types.ChannelType
			age     time.Duration
		}{
			{"A", types.ChannelTypeIM, 1 * time.Hour},
			{"A", types.ChannelTypeIM, 48 * time.Hour},
			{"B", types.ChannelTypeIM, 24 * time.Hour},
			{"C", types.ChannelTypePublicChannel, 2 * time.Hour},
			{"D", types.ChannelTypeIM, 60 * 24 * time.Hour},
		}
		for i, f := range fixtures {
			putInteraction(t, repo, &model.Interaction{
				ID:          fmt.Sprintf("%s-%d", owner, i),
				OwnerID:     owner,
				ContactID:   model.UserID(f.contact),
				ChannelID:   "D" + f.contact,
				ChannelType: f.ct,
				Direction:   types.MessageDirectionSent,
				Timestamp:   now.Add(-f.age),
			})
		}

		all, err := repo.Interaction().FindInteractions(ctx, interfaces.InteractionFilter{OwnerID: owner})
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(5)
		for i := 1; i < len(all); i++ {
			gt.B(t, all[i-1].Timestamp.Before(all[i].Timestamp)).False()
		}

		recentIM := interfaces.InteractionFilter{
			OwnerID:     owner,
			ChannelType: types.ChannelTypeIM,
			Since:       now.Add(-30 * 24 * time.Hour),
		}
		n, err := repo.Interaction().CountInteractions(ctx, recentIM)
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(3)

		contacts, err := repo.Interaction().DistinctInteractions(ctx, model.InteractionFieldContactID, recentIM)
		gt.NoError(t, err).Required()
		sort.Strings(contacts)
		gt.Value(t, contacts).Equal([]string{"A", "B"})

		withA, err := repo.Interaction().CountInteractions(ctx, interfaces.InteractionFilter{OwnerID: owner, ContactID: "A"})
		gt.NoError(t, err).Required()
		gt.Number(t, withA).Equal(2)
	})

	t.Run("PutInteraction upserts by message id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		owner := model.UserID(uniqueID("U"))
		x := &model.Interaction{
			ID:          uniqueID("msg"),
			OwnerID:     owner,
			ContactID:   "A",
			ChannelType: types.ChannelTypeIM,
			Direction:   types.MessageDirectionSent,
			Text:        "first",
			Timestamp:   time.Now().UTC(),
		}
		putInteraction(t, repo, x)
		x.Text = "edited"
		x.IsEdited = true
		putInteraction(t, repo, x)

		got, err := repo.Interaction().FindInteractions(ctx, interfaces.InteractionFilter{OwnerID: owner})
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(1)
		gt.Value(t, got[0].Text).Equal("edited")
		gt.B(t, got[0].IsEdited).True()
	})

	t.Run("DistinctInteractions rejects unknown fields", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Interaction().DistinctInteractions(context.Background(), model.InteractionField("text"), interfaces.InteractionFilter{})
		gt.Error(t, err)
	})

	t.Run("PurgeInteractions removes only expired records", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()

		owner := model.UserID(uniqueID("U"))
		putInteraction(t, repo, &model.Interaction{ID: uniqueID("old"), OwnerID: owner, ContactID: "A", ChannelType: types.ChannelTypeIM, Direction: types.MessageDirectionSent, Timestamp: now.Add(-model.InteractionRetention - time.Hour)})
		putInteraction(t, repo, &model.Interaction{ID: uniqueID("new"), OwnerID: owner, ContactID: "A", ChannelType: types.ChannelTypeIM, Direction: types.MessageDirectionSent, Timestamp: now})

		purged, err := repo.Interaction().PurgeInteractions(ctx, now.Add(-model.InteractionRetention))
		gt.NoError(t, err).Required()
		gt.Number(t, purged).Equal(1)

		left, err := repo.Interaction().CountInteractions(ctx, interfaces.InteractionFilter{OwnerID: owner})
		gt.NoError(t, err).Required()
		gt.Number(t, left).Equal(1)
	})
}

func TestInteractionRepository(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			runInteractionRepositoryTest(t, factory)
		})
	}
}
