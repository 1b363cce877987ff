package slack

import (
	"context"
	"errors"

	"github.com/secmon-lab/relmap/pkg/domain/model"
)

// ErrChannelNotFound is returned when a channel does not exist or is not
// visible with the configured token.
var ErrChannelNotFound = errors.New("channel not found")

// Directory is the workspace directory that relationships are imported from
type Directory interface {
	// ListChannels returns the channels userID is a member of. Members of
	// the returned channels may be empty.
	ListChannels(ctx context.Context, userID model.UserID) ([]*model.Channel, error)

	// ChannelMembers returns the member ids of a channel
	ChannelMembers(ctx context.Context, channelID string) ([]model.UserID, error)

	// GetUser returns nil if the user does not exist
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)

	// ListUsers returns every workspace user including bots and deactivated users
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// Authenticator completes "Sign in with Slack"
type Authenticator interface {
	// Exchange trades an OAuth v2 code for the profile of the signed-in user
	Exchange(ctx context.Context, code string) (*model.User, error)
}

// DefaultProfileField is the custom profile field that holds department and interests
const DefaultProfileField = "Xf0DMHFDQA"

// ProfileFields names the custom profile fields mapped into model.UserProfile
type ProfileFields struct {
	Department string
	Interests  string
}

func DefaultProfileFields() ProfileFields {
	return ProfileFields{
		Department: DefaultProfileField,
		Interests:  DefaultProfileField,
	}
}
