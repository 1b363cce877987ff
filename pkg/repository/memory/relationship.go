package memory

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
)

type relationshipRepository struct {
	store *store
	now   func() time.Time
}

var _ interfaces.RelationshipRepository = &relationshipRepository{}

// withContact joins r with its contact. Caller must hold the store lock.
func (x *relationshipRepository) withContact(r *model.Relationship) *model.RelationshipWithContact {
	return &model.RelationshipWithContact{
		Relationship: r.Clone(),
		Contact:      x.store.users[r.ContactID].Clone(),
	}
}

func (x *relationshipRepository) FindRelationships(ctx context.Context, filter interfaces.RelationshipFilter) ([]*model.RelationshipWithContact, error) {
	x.store.mu.RLock()
	defer x.store.mu.RUnlock()

	result := []*model.RelationshipWithContact{}
	for _, r := range x.store.relationships {
		if filter.Match(r) {
			result = append(result, x.withContact(r))
		}
	}
	return result, nil
}

func (x *relationshipRepository) FindRelationship(ctx context.Context, ownerID, contactID model.UserID) (*model.RelationshipWithContact, error) {
	x.store.mu.RLock()
	defer x.store.mu.RUnlock()

	if r := x.findActive(ownerID, contactID); r != nil {
		return x.withContact(r), nil
	}
	return nil, nil
}

// findActive returns the stored active relationship. Caller must hold the store lock.
func (x *relationshipRepository) findActive(ownerID, contactID model.UserID) *model.Relationship {
	for _, r := range x.store.relationships {
		if r.OwnerID == ownerID && r.ContactID == contactID && r.Active {
			return r
		}
	}
	return nil
}

func (x *relationshipRepository) CreateRelationship(ctx context.Context, rel *model.Relationship) (*model.Relationship, error) {
	created := rel.Clone()
	created.ID = model.NewRelationshipID()
	now := x.now()
	created.AddedAt = now
	created.UpdatedAt = now

	x.store.mu.Lock()
	defer x.store.mu.Unlock()

	if created.Active && x.findActive(created.OwnerID, created.ContactID) != nil {
		return nil, goerr.Wrap(interfaces.ErrDuplicateRelationship, "relationship already exists",
			goerr.V("owner_id", created.OwnerID),
			goerr.V("contact_id", created.ContactID))
	}
	x.store.relationships = append(x.store.relationships, created.Clone())

	return created, nil
}

func (x *relationshipRepository) UpdateRelationship(ctx context.Context, ownerID, contactID model.UserID, patch model.RelationshipPatch) (*model.Relationship, error) {
	x.store.mu.Lock()
	defer x.store.mu.Unlock()

	target := x.findActive(ownerID, contactID)
	if target == nil {
		for _, r := range x.store.relationships {
			if r.OwnerID == ownerID && r.ContactID == contactID {
				target = r
				break
			}
		}
	}
	if target == nil {
		return nil, nil
	}

	patch.Apply(target)
	target.UpdatedAt = x.now()
	return target.Clone(), nil
}
