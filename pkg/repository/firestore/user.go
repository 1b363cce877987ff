package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type userRepository struct {
	client *firestore.Client
	cols   *collections
	now    func() time.Time
}

var _ interfaces.UserRepository = &userRepository{}

func (r *userRepository) collection() *firestore.CollectionRef {
	return r.cols.get(usersCollection)
}

func (r *userRepository) get(ctx context.Context, id model.UserID) (*model.User, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("user_id", id))
	}

	var d userDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal user", goerr.V("user_id", id))
	}
	return fromUserDoc(&d), nil
}

func (r *userRepository) FindUser(ctx context.Context, q interfaces.UserQuery) (*model.User, error) {
	if q.ID != "" {
		u, err := r.get(ctx, q.ID)
		if err != nil || u != nil {
			return u, err
		}
	}
	if q.Email == "" {
		return nil, nil
	}

	iter := r.collection().Where("email", "==", q.Email).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query user by email")
	}

	var d userDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal user", goerr.V("docID", doc.Ref.ID))
	}
	return fromUserDoc(&d), nil
}

// FindUsers narrows by team on the server and applies the text query in
// process because Firestore has no substring match.
func (r *userRepository) FindUsers(ctx context.Context, filter interfaces.UserFilter) ([]*model.User, error) {
	q := r.collection().Query
	if filter.TeamID != "" {
		q = q.Where("team_id", "==", string(filter.TeamID))
	}
	if filter.ExcludeDeleted {
		q = q.Where("is_deleted", "==", false)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	users := []*model.User{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate users")
		}

		var d userDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal user", goerr.V("docID", doc.Ref.ID))
		}
		if u := fromUserDoc(&d); filter.Match(u) {
			users = append(users, u)
		}
	}

	sort.SliceStable(users, func(i, j int) bool {
		a, b := strings.ToLower(users[i].RealName), strings.ToLower(users[j].RealName)
		if a != b {
			return a < b
		}
		return users[i].ID < users[j].ID
	})

	if filter.Limit > 0 && len(users) > filter.Limit {
		users = users[:filter.Limit]
	}
	return users, nil
}

// FindUsersByIDs splits ids into batches of firestoreGetAllLimit
func (r *userRepository) FindUsersByIDs(ctx context.Context, ids []model.UserID) (map[model.UserID]*model.User, error) {
	result := make(map[model.UserID]*model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	for i := 0; i < len(ids); i += firestoreGetAllLimit {
		end := min(i+firestoreGetAllLimit, len(ids))
		batch := ids[i:end]

		refs := make([]*firestore.DocumentRef, len(batch))
		for j, id := range batch {
			refs[j] = r.collection().Doc(string(id))
		}

		docs, err := r.client.GetAll(ctx, refs)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to batch get users", goerr.V("count", len(batch)))
		}

		for idx, doc := range docs {
			if !doc.Exists() {
				continue
			}

			var d userDoc
			if err := doc.DataTo(&d); err != nil {
				return nil, goerr.Wrap(err, "failed to unmarshal user", goerr.V("user_id", batch[idx]))
			}
			result[batch[idx]] = fromUserDoc(&d)
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

	if _, err := r.collection().Doc(string(created.ID)).Set(ctx, toUserDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create user", goerr.V("user_id", created.ID))
	}
	return created, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, id model.UserID, patch model.UserPatch) (*model.User, error) {
	ref := r.collection().Doc(string(id))

	var updated *model.User
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		updated = nil
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return goerr.Wrap(err, "failed to get user")
		}

		var d userDoc
		if err := doc.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to unmarshal user")
		}

		u := fromUserDoc(&d)
		patch.Apply(u)
		u.UpdatedAt = r.now()

		if err := tx.Set(ref, toUserDoc(u)); err != nil {
			return goerr.Wrap(err, "failed to save user")
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update user", goerr.V("user_id", id))
	}

	return updated, nil
}
