package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/model/auth"
	"github.com/secmon-lab/relmap/pkg/service/slack"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
)

const (
	// MinSearchQueryLength is the shortest accepted user search query
	MinSearchQueryLength = 2
	// SearchLimit caps the number of users returned by a search
	SearchLimit = 20
)

// DirectoryUseCase serves the workspace directory and keeps local users in sync with it
type DirectoryUseCase struct {
	repo      interfaces.Repository
	directory slack.Directory
	now       func() time.Time
}

func NewDirectoryUseCase(repo interfaces.Repository, directory slack.Directory, now func() time.Time) *DirectoryUseCase {
	return &DirectoryUseCase{
		repo:      repo,
		directory: directory,
		now:       now,
	}
}

// SyncResult is the outcome of a workspace sync
type SyncResult struct {
	Synced int
	Users  []model.UserID
	Errors []BulkError
}

// SearchUsers finds non-deleted users of the caller's team
func (uc *DirectoryUseCase) SearchUsers(ctx context.Context, p *auth.Principal, query string) ([]*model.User, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchQueryLength {
		return nil, newValidationError("Search query must be at least 2 characters")
	}

	users, err := uc.repo.User().FindUsers(ctx, interfaces.UserFilter{
		TeamID:         p.TeamID,
		Query:          query,
		ExcludeDeleted: true,
		Limit:          SearchLimit,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search users", goerr.V("query", query))
	}
	return users, nil
}

// Channels lists the channels the caller belongs to
func (uc *DirectoryUseCase) Channels(ctx context.Context, p *auth.Principal) ([]*model.Channel, error) {
	if uc.directory == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "workspace directory is not configured")
	}

	channels, err := uc.directory.ListChannels(ctx, p.UserID)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "failed to list channels",
			goerr.V("user_id", p.UserID),
			goerr.V("error", err.Error()))
	}
	return channels, nil
}

// RecentDMs returns users the caller exchanged direct messages with in the last days
func (uc *DirectoryUseCase) RecentDMs(ctx context.Context, p *auth.Principal, days int) ([]*model.User, error) {
	days, err := validateDays(days)
	if err != nil {
		return nil, err
	}

	ids, err := recentDMContacts(ctx, uc.repo, p.UserID, uc.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}

	found, err := uc.repo.User().FindUsersByIDs(ctx, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve recent DM contacts")
	}

	users := make([]*model.User, 0, len(found))
	for _, id := range ids {
		if u, ok := found[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// upsertUser creates u or merges it into the stored user with the same id
func upsertUser(ctx context.Context, repo interfaces.Repository, u *model.User) (*model.User, error) {
	existing, err := repo.User().FindUser(ctx, interfaces.UserQuery{ID: u.ID})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find user", goerr.V("user_id", u.ID))
	}

	if existing == nil {
		created, err := repo.User().CreateUser(ctx, u)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create user", goerr.V("user_id", u.ID))
		}
		return created, nil
	}

	updated, err := repo.User().UpdateUser(ctx, u.ID, model.PatchFromUser(u))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update user", goerr.V("user_id", u.ID))
	}
	return updated, nil
}

// SyncUser refreshes the caller's profile from the workspace
func (uc *DirectoryUseCase) SyncUser(ctx context.Context, p *auth.Principal) (*model.User, error) {
	if uc.directory == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "workspace directory is not configured")
	}

	u, err := uc.directory.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "failed to get user from workspace",
			goerr.V("user_id", p.UserID),
			goerr.V("error", err.Error()))
	}
	if u == nil {
		return nil, goerr.Wrap(ErrUserNotFound, "user not found in workspace", goerr.V("user_id", p.UserID))
	}
	if u.TeamID == "" {
		u.TeamID = p.TeamID
	}

	return upsertUser(ctx, uc.repo, u)
}

// SyncTeam imports every active human user of the workspace into teamID.
// Failures of single users are collected and do not stop the sync.
func (uc *DirectoryUseCase) SyncTeam(ctx context.Context, teamID model.TeamID) (*SyncResult, error) {
	if uc.directory == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "workspace directory is not configured")
	}

	members, err := uc.directory.ListUsers(ctx)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "failed to list workspace users",
			goerr.V(TeamIDKey, teamID),
			goerr.V("error", err.Error()))
	}

	result := &SyncResult{
		Users:  []model.UserID{},
		Errors: []BulkError{},
	}
	for _, m := range members {
		if m.IsBot || m.IsDeleted {
			continue
		}
		if m.TeamID == "" {
			m.TeamID = teamID
		}

		if _, err := upsertUser(ctx, uc.repo, m); err != nil {
			logging.From(ctx).Warn("failed to sync user", "error", err, "user_id", m.ID)
			result.Errors = append(result.Errors, BulkError{ID: m.ID.String(), Error: err.Error()})
			continue
		}
		result.Synced++
		result.Users = append(result.Users, m.ID)
	}

	logging.From(ctx).Info("synced workspace users",
		"team_id", teamID,
		"synced", result.Synced,
		"errors", len(result.Errors))

	return result, nil
}
