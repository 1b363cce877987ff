package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
)

type interactionRepository struct {
	store *store
	now   func() time.Time
}

var _ interfaces.InteractionRepository = &interactionRepository{}

// match returns matching stored interactions. Caller must hold the store lock.
func (r *interactionRepository) match(filter interfaces.InteractionFilter) []*model.Interaction {
	var result []*model.Interaction
	for _, x := range r.store.interactions {
		if filter.Match(x) {
			result = append(result, x)
		}
	}
	return result
}

func (r *interactionRepository) FindInteractions(ctx context.Context, filter interfaces.InteractionFilter) ([]*model.Interaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := r.match(filter)
	result := make([]*model.Interaction, len(matched))
	for i, x := range matched {
		result[i] = x.Clone()
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *interactionRepository) CountInteractions(ctx context.Context, filter interfaces.InteractionFilter) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return len(r.match(filter)), nil
}

func (r *interactionRepository) DistinctInteractions(ctx context.Context, field model.InteractionField, filter interfaces.InteractionFilter) ([]string, error) {
	if !field.IsValid() {
		return nil, goerr.New("unsupported distinct field", goerr.V("field", field))
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[string]struct{})
	values := []string{}
	for _, x := range r.match(filter) {
		v := field.Value(x)
		if _, ok := seen[v]; ok {
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

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.interactions[stored.ID] = stored
	return nil
}

func (r *interactionRepository) PurgeInteractions(ctx context.Context, before time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var purged int
	for id, x := range r.store.interactions {
		if x.Timestamp.Before(before) {
			delete(r.store.interactions, id)
			purged++
		}
	}
	return purged, nil
}
