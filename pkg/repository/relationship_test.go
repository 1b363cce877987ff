package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/types"
)

func runRelationshipRepositoryTest(t *testing.T, newRepo repoFactory) {
	t.Helper()

	active := true

	t.Run("CreateRelationship assigns ID and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		owner := model.UserID(uniqueID("U"))
		contact := createUser(t, repo, &model.User{ID: model.UserID(uniqueID("U")), DisplayName: "Contact"})

		rel := model.NewRelationship(owner, "T1", contact.ID, types.RelationshipTypeMentor, types.AddedViaManual)
		rel.Tags = []string{"a"}
		created, err := repo.Relationship().CreateRelationship(ctx, rel)
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID).NotEqual(model.RelationshipID(""))
		gt.B(t, created.AddedAt.IsZero()).False()
		gt.B(t, created.UpdatedAt.IsZero()).False()

		got, err := repo.Relationship().FindRelationship(ctx, owner, contact.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil()
		gt.Value(t, got.ID).Equal(created.ID)
		gt.Value(t, got.Type).Equal(types.RelationshipTypeMentor)
		gt.Value(t, got.Tags).Equal([]string{"a"})
		gt.Value(t, got.Contact).NotNil()
		gt.Value(t, got.Contact.DisplayName).Equal("Contact")
	})

	t.Run("second active relationship for a pair is rejected", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		owner, contact := model.UserID(uniqueID("U")), model.UserID(uniqueID("C"))
		_, err := repo.Relationship().CreateRelationship(ctx, model.NewRelationship(owner, "T1", contact, "", ""))
		gt.NoError(t, err).Required()

		_, err = repo.Relationship().CreateRelationship(ctx, model.NewRelationship(owner, "T1", contact, "", ""))
		gt.Error(t, err).Is(interfaces.ErrDuplicateRelationship)

		rels, err := repo.Relationship().FindRelationships(ctx, interfaces.RelationshipFilter{OwnerID: owner, Active: &active})
		gt.NoError(t, err).Required()
		gt.Array(t, rels).Length(1)
	})

	t.Run("concurrent creates leave one active relationship", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		owner, contact := model.UserID(uniqueID("U")), model.UserID(uniqueID("C"))

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = repo.Relationship().CreateRelationship(ctx, model.NewRelationship(owner, "T1", contact, "", ""))
			}()
		}
		wg.Wait()

		rels, err := repo.Relationship().FindRelationships(ctx, interfaces.RelationshipFilter{OwnerID: owner, Active: &active})
		gt.NoError(t, err).Required()
		gt.Array(t, rels).Length(1)
	})

	t.Run("dangling contact resolves to nil", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		owner := model.UserID(uniqueID("U"))
		_, err := repo.Relationship().CreateRelationship(ctx, model.NewRelationship(owner, "T1", "U-ghost", "", ""))
		gt.NoError(t, err).Required()

		rels, err := repo.Relationship().FindRelationships(ctx, interfaces.RelationshipFilter{OwnerID: owner})
		gt.NoError(t, err).Required()
		gt.Array(t, rels).Length(1)
		gt.Value(t, rels[0].Contact).Nil()
		gt.Value(t, rels[0].ContactID).Equal(model.UserID("U-ghost"))
	})

	t.Run("FindRelationships filters by owner, team and active", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		owner := model.UserID(uniqueID("U"))
		for _, c := range []string{"A", "B", "C"} {
			_, err := repo.Relationship().CreateRelationship(ctx, model.NewRelationship(owner, "T1", model.UserID(c), "", ""))
			gt.NoError(t, err).Required()
		}
		_, err := repo.Relationship().CreateRelationship(ctx, model.NewRelationship(owner, "T2", "D", "", ""))
		gt.NoError(t, err).Required()

		inactive := false
		_, err = repo.Relationship().UpdateRelationship(ctx, owner, "B", model.RelationshipPatch{Active: &inactive})
		gt.NoError(t, err).Required()

		rels, err := repo.Relationship().FindRelationships(ctx, interfaces.RelationshipFilter{OwnerID: owner, TeamID: "T1", Active: &active})
		gt.NoError(t, err).Required()
		gt.Array(t, rels).Length(2)

		all, err := repo.Relationship().FindRelationships(ctx, interfaces.RelationshipFilter{OwnerID: owner})
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(4)
	})

	t.Run("soft delete hides the pair and allows re-adding", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		owner, contact := model.UserID(uniqueID("U")), model.UserID(uniqueID("C"))
		_, err := repo.Relationship().CreateRelationship(ctx, model.NewRelationship(owner, "T1", contact, "", ""))
		gt.NoError(t, err).Required()

		inactive := false
		deleted, err := repo.Relationship().UpdateRelationship(ctx, owner, contact, model.RelationshipPatch{Active: &inactive})
		gt.NoError(t, err).Required()
		gt.B(t, deleted.Active).False()

		got, err := repo.Relationship().FindRelationship(ctx, owner, contact)
		gt.NoError(t, err)
		gt.Value(t, got).Nil()

		_, err = repo.Relationship().CreateRelationship(ctx, model.NewRelationship(owner, "T1", contact, "", ""))
		gt.NoError(t, err)
	})

	t.Run("UpdateRelationship patches fields and refreshes UpdatedAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		owner, contact := model.UserID(uniqueID("U")), model.UserID(uniqueID("C"))
		created, err := repo.Relationship().CreateRelationship(ctx, model.NewRelationship(owner, "T1", contact, "", ""))
		gt.NoError(t, err).Required()

		notes := "updated"
		friend := types.RelationshipTypeFriend
		updated, err := repo.Relationship().UpdateRelationship(ctx, owner, contact, model.RelationshipPatch{
			Type:  &friend,
			Notes: &notes,
			Tags:  []string{"x", "y"},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated).NotNil()
		gt.Value(t, updated.ID).Equal(created.ID)
		gt.Value(t, updated.Type).Equal(types.RelationshipTypeFriend)
		gt.Value(t, updated.Notes).Equal("updated")
		gt.Value(t, updated.Tags).Equal([]string{"x", "y"})
		gt.B(t, updated.UpdatedAt.Before(created.UpdatedAt)).False()
	})

	t.Run("UpdateRelationship returns nil for an unknown pair", func(t *testing.T) {
		repo := newRepo(t)
		notes := "x"
		updated, err := repo.Relationship().UpdateRelationship(context.Background(), "U-none", "C-none", model.RelationshipPatch{Notes: &notes})
		gt.NoError(t, err)
		gt.Value(t, updated).Nil()
	})
}

func TestRelationshipRepository(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			runRelationshipRepositoryTest(t, factory)
		})
	}
}
