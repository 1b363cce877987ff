package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"google.golang.org/api/iterator"
)

type interactionRepository struct {
	client *firestore.Client
	cols   *collections
	now    func() time.Time
}

var _ interfaces.InteractionRepository = &interactionRepository{}

func (r *interactionRepository) collection() *firestore.CollectionRef {
	return r.cols.get(interactionsCollection)
}

// query builds the filtered query. Composite indexes for these shapes are
// created by the migrate command.
func (r *interactionRepository) query(filter interfaces.InteractionFilter) firestore.Query {
	q := r.collection().Query
	if filter.OwnerID != "" {
		q = q.Where("owner_id", "==", string(filter.OwnerID))
	}
	if filter.ContactID != "" {
		q = q.Where("contact_id", "==", string(filter.ContactID))
	}
	if filter.ChannelType != "" {
		q = q.Where("channel_type", "==", string(filter.ChannelType))
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp", ">=", filter.Since)
	}
	return q
}

func (r *interactionRepository) FindInteractions(ctx context.Context, filter interfaces.InteractionFilter) ([]*model.Interaction, error) {
	iter := r.query(filter).OrderBy("timestamp", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	result := []*model.Interaction{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate interactions")
		}

		var d interactionDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal interaction", goerr.V("docID", doc.Ref.ID))
		}
		result = append(result, fromInteractionDoc(&d))
	}
	return result, nil
}

func (r *interactionRepository) CountInteractions(ctx context.Context, filter interfaces.InteractionFilter) (int, error) {
	const alias = "total"
	q := r.query(filter)
	res, err := q.NewAggregationQuery().WithCount(alias).Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count interactions")
	}

	v, ok := res[alias].(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected count result", goerr.V("result", res[alias]))
	}
	return int(v.GetIntegerValue()), nil
}

func (r *interactionRepository) DistinctInteractions(ctx context.Context, field model.InteractionField, filter interfaces.InteractionFilter) ([]string, error) {
	path, ok := interactionFieldPaths[field]
	if !ok {
		return nil, goerr.New("unsupported distinct field", goerr.V("field", field))
	}

	iter := r.query(filter).Select(path).Documents(ctx)
	defer iter.Stop()

	seen := make(map[string]struct{})
	values := []string{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate interactions")
		}

		raw, err := doc.DataAt(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read field", goerr.V("field", path), goerr.V("docID", doc.Ref.ID))
		}
		v, _ := raw.(string)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values, nil
}

func (r *interactionRepository) PutInteraction(ctx context.Context, x *model.Interaction) error {
	if x.ID == "" {
		return goerr.New("interaction id is required")
	}

	stored := x.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}

	if _, err := r.collection().Doc(stored.ID).Set(ctx, toInteractionDoc(stored)); err != nil {
		return goerr.Wrap(err, "failed to put interaction", goerr.V("interaction_id", stored.ID))
	}
	return nil
}

func (r *interactionRepository) PurgeInteractions(ctx context.Context, before time.Time) (int, error) {
	iter := r.collection().Where("timestamp", "<", before).Select().Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	defer bw.End()

	var purged int
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return purged, goerr.Wrap(err, "failed to iterate expired interactions")
		}
		if _, err := bw.Delete(doc.Ref); err != nil {
			return purged, goerr.Wrap(err, "failed to add Delete operation to bulk writer")
		}
		purged++
	}
	bw.Flush()

	return purged, nil
}
