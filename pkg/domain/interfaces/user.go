package interfaces

import (
	"context"

	"github.com/secmon-lab/relmap/pkg/domain/model"
)

// UserQuery matches a user whose ID or Email equals one of the non-empty fields
type UserQuery struct {
	ID    model.UserID
	Email string
}

// UserFilter narrows FindUsers. A zero filter returns every user.
type UserFilter struct {
	TeamID model.TeamID
	// Query is a case-insensitive substring matched against display name,
	// real name, email, title and department.
	Query          string
	ExcludeDeleted bool
	Limit          int
}

type UserRepository interface {
	// FindUser returns the first matching user, or nil if none matches
	FindUser(ctx context.Context, q UserQuery) (*model.User, error)

	FindUsers(ctx context.Context, filter UserFilter) ([]*model.User, error)

	// FindUsersByIDs resolves ids. Missing users are not included in the map.
	FindUsersByIDs(ctx context.Context, ids []model.UserID) (map[model.UserID]*model.User, error)

	// CreateUser stores user. An ID is generated only when user.ID is empty.
	// A user already stored under the same ID is replaced as a whole, so
	// callers that need a merge use UpdateUser instead.
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)

	// UpdateUser merges patch into the user with id. Returns nil if no user matches.
	UpdateUser(ctx context.Context, id model.UserID, patch model.UserPatch) (*model.User, error)
}
