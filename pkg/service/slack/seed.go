package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
)

// SeedDirectory serves channels from seed data and users from the
// repository. It backs demo mode where no Slack workspace is connected.
type SeedDirectory struct {
	channels []*model.Channel
	repo     interfaces.Repository
}

var _ Directory = &SeedDirectory{}

func NewSeedDirectory(seed *model.Seed, repo interfaces.Repository) *SeedDirectory {
	return &SeedDirectory{
		channels: seed.Clone().Channels,
		repo:     repo,
	}
}

func (d *SeedDirectory) ListChannels(ctx context.Context, userID model.UserID) ([]*model.Channel, error) {
	result := []*model.Channel{}
	for _, ch := range d.channels {
		if ch.HasMember(userID) {
			result = append(result, &model.Channel{
				ID:        ch.ID,
				Name:      ch.Name,
				IsPrivate: ch.IsPrivate,
				Members:   append([]model.UserID(nil), ch.Members...),
			})
		}
	}
	return result, nil
}

func (d *SeedDirectory) ChannelMembers(ctx context.Context, channelID string) ([]model.UserID, error) {
	for _, ch := range d.channels {
		if ch.ID == channelID {
			return append([]model.UserID{}, ch.Members...), nil
		}
	}
	return nil, goerr.Wrap(ErrChannelNotFound, "unknown seed channel", goerr.V("channel_id", channelID))
}

func (d *SeedDirectory) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	user, err := d.repo.User().FindUser(ctx, interfaces.UserQuery{ID: id})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find seed user", goerr.V("user_id", id))
	}
	return user, nil
}

func (d *SeedDirectory) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := d.repo.User().FindUsers(ctx, interfaces.UserFilter{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list seed users")
	}
	return users, nil
}
