package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
)

type userRepository struct {
	store *store
	now   func() time.Time
}

var _ interfaces.UserRepository = &userRepository{}

func (r *userRepository) FindUser(ctx context.Context, q interfaces.UserQuery) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, id := range r.store.userOrder {
		if u := r.store.users[id]; q.Match(u) {
			return u.Clone(), nil
		}
	}
	return nil, nil
}

func (r *userRepository) FindUsers(ctx context.Context, filter interfaces.UserFilter) ([]*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := []*model.User{}
	for _, id := range r.store.userOrder {
		if u := r.store.users[id]; filter.Match(u) {
			users = append(users, u.Clone())
		}
	}
	sortUsers(users)

	if filter.Limit > 0 && len(users) > filter.Limit {
		users = users[:filter.Limit]
	}
	return users, nil
}

func (r *userRepository) FindUsersByIDs(ctx context.Context, ids []model.UserID) (map[model.UserID]*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make(map[model.UserID]*model.User, len(ids))
	for _, id := range ids {
		if u, ok := r.store.users[id]; ok {
			result[id] = u.Clone()
		}
	}
	return result, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	created := user.Clone()
	if created.ID == "" {
		created.ID = model.UserID(uuid.NewString())
	}
	now := r.now()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// same ID replaces the record, matching a Firestore Set
	if _, ok := r.store.users[created.ID]; !ok {
		r.store.userOrder = append(r.store.userOrder, created.ID)
	}
	r.store.users[created.ID] = created.Clone()

	return created, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, id model.UserID, patch model.UserPatch) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(u)
	u.UpdatedAt = r.now()

	return u.Clone(), nil
}

// sortUsers orders users by real name, then by ID
func sortUsers(users []*model.User) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := strings.ToLower(users[i].RealName), strings.ToLower(users[j].RealName)
		if a != b {
			return a < b
		}
		return users[i].ID < users[j].ID
	})
}
