package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// relationshipRepository keeps one relationship_pairs document per active
// (owner, contact) pair. Create and update touch it in the same transaction
// as the relationship, which makes the duplicate check atomic.
type relationshipRepository struct {
	client *firestore.Client
	cols   *collections
	users  *userRepository
	now    func() time.Time
}

var _ interfaces.RelationshipRepository = &relationshipRepository{}

func (r *relationshipRepository) collection() *firestore.CollectionRef {
	return r.cols.get(relationshipsCollection)
}

func (r *relationshipRepository) pairRef(ownerID, contactID model.UserID) *firestore.DocumentRef {
	return r.cols.get(activePairsCollection).Doc(pairKey(ownerID, contactID))
}

func (r *relationshipRepository) withContacts(ctx context.Context, rels []*model.Relationship) ([]*model.RelationshipWithContact, error) {
	ids := make([]model.UserID, 0, len(rels))
	seen := make(map[model.UserID]struct{}, len(rels))
	for _, rel := range rels {
		if _, ok := seen[rel.ContactID]; !ok {
			seen[rel.ContactID] = struct{}{}
			ids = append(ids, rel.ContactID)
		}
	}

	contacts, err := r.users.FindUsersByIDs(ctx, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve contacts")
	}

	result := make([]*model.RelationshipWithContact, len(rels))
	for i, rel := range rels {
		result[i] = &model.RelationshipWithContact{
			Relationship: rel,
			Contact:      contacts[rel.ContactID],
		}
	}
	return result, nil
}

func decodeRelationships(iter *firestore.DocumentIterator) ([]*model.Relationship, error) {
	defer iter.Stop()

	var rels []*model.Relationship
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate relationships")
		}

		var d relationshipDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal relationship", goerr.V("docID", doc.Ref.ID))
		}
		rels = append(rels, fromRelationshipDoc(&d))
	}
	return rels, nil
}

func (r *relationshipRepository) FindRelationships(ctx context.Context, filter interfaces.RelationshipFilter) ([]*model.RelationshipWithContact, error) {
	q := r.collection().Query
	if filter.OwnerID != "" {
		q = q.Where("owner_id", "==", string(filter.OwnerID))
	}
	if filter.TeamID != "" {
		q = q.Where("team_id", "==", string(filter.TeamID))
	}
	if filter.Active != nil {
		q = q.Where("active", "==", *filter.Active)
	}

	rels, err := decodeRelationships(q.Documents(ctx))
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return []*model.RelationshipWithContact{}, nil
	}
	return r.withContacts(ctx, rels)
}

func (r *relationshipRepository) FindRelationship(ctx context.Context, ownerID, contactID model.UserID) (*model.RelationshipWithContact, error) {
	q := r.collection().
		Where("owner_id", "==", string(ownerID)).
		Where("contact_id", "==", string(contactID)).
		Where("active", "==", true).
		Limit(1)

	rels, err := decodeRelationships(q.Documents(ctx))
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return nil, nil
	}

	joined, err := r.withContacts(ctx, rels)
	if err != nil {
		return nil, err
	}
	return joined[0], nil
}

func (r *relationshipRepository) CreateRelationship(ctx context.Context, rel *model.Relationship) (*model.Relationship, error) {
	created := rel.Clone()
	created.ID = model.NewRelationshipID()
	now := r.now()
	created.AddedAt = now
	created.UpdatedAt = now

	pair := r.pairRef(created.OwnerID, created.ContactID)
	ref := r.collection().Doc(string(created.ID))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if created.Active {
			_, err := tx.Get(pair)
			if err == nil {
				return interfaces.ErrDuplicateRelationship
			}
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to check relationship pair")
			}
			if err := tx.Set(pair, &pairDoc{RelationshipID: string(created.ID)}); err != nil {
				return goerr.Wrap(err, "failed to reserve relationship pair")
			}
		}
		return tx.Create(ref, toRelationshipDoc(created))
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrDuplicateRelationship) {
			return nil, goerr.Wrap(err, "relationship already exists",
				goerr.V("owner_id", created.OwnerID),
				goerr.V("contact_id", created.ContactID))
		}
		return nil, goerr.Wrap(err, "failed to create relationship", goerr.V("relationship_id", created.ID))
	}

	return created, nil
}

func (r *relationshipRepository) UpdateRelationship(ctx context.Context, ownerID, contactID model.UserID, patch model.RelationshipPatch) (*model.Relationship, error) {
	pair := r.pairRef(ownerID, contactID)

	var updated *model.Relationship
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		updated = nil

		var target *firestore.DocumentRef
		pairSnap, err := tx.Get(pair)
		switch {
		case err == nil:
			var p pairDoc
			if err := pairSnap.DataTo(&p); err != nil {
				return goerr.Wrap(err, "failed to unmarshal relationship pair")
			}
			target = r.collection().Doc(p.RelationshipID)
		case status.Code(err) == codes.NotFound:
			q := r.collection().
				Where("owner_id", "==", string(ownerID)).
				Where("contact_id", "==", string(contactID)).
				Limit(1)
			docs, err := tx.Documents(q).GetAll()
			if err != nil {
				return goerr.Wrap(err, "failed to query relationship")
			}
			if len(docs) == 0 {
				return nil
			}
			target = docs[0].Ref
		default:
			return goerr.Wrap(err, "failed to get relationship pair")
		}

		doc, err := tx.Get(target)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return goerr.Wrap(err, "failed to get relationship")
		}

		var d relationshipDoc
		if err := doc.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to unmarshal relationship")
		}

		rel := fromRelationshipDoc(&d)
		wasActive := rel.Active
		patch.Apply(rel)
		rel.UpdatedAt = r.now()

		switch {
		case wasActive && !rel.Active:
			if err := tx.Delete(pair); err != nil {
				return goerr.Wrap(err, "failed to release relationship pair")
			}
		case !wasActive && rel.Active:
			if pairSnap != nil && pairSnap.Exists() {
				return interfaces.ErrDuplicateRelationship
			}
			if err := tx.Set(pair, &pairDoc{RelationshipID: string(rel.ID)}); err != nil {
				return goerr.Wrap(err, "failed to reserve relationship pair")
			}
		}

		if err := tx.Set(target, toRelationshipDoc(rel)); err != nil {
			return goerr.Wrap(err, "failed to save relationship")
		}
		updated = rel
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update relationship",
			goerr.V("owner_id", ownerID),
			goerr.V("contact_id", contactID))
	}

	return updated, nil
}
