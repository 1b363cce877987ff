package slack

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/slack-go/slack"
)

const (
	// DefaultCacheTTL is the default TTL for channel membership cache
	DefaultCacheTTL = 45 * time.Second

	pageLimit = 200
)

// membersEntry holds cached channel members with expiration
type membersEntry struct {
	members   []model.UserID
	expiresAt time.Time
}

// client implements Directory with the Slack Web API
type client struct {
	api      *slack.Client
	fields   ProfileFields
	cacheTTL time.Duration
	apiURL   string
	hc       *http.Client

	mu    sync.RWMutex
	cache map[string]membersEntry
}

var _ Directory = &client{}

// Option is a functional option for client configuration
type Option func(*client)

// WithCacheTTL sets the TTL for channel membership cache
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *client) {
		c.cacheTTL = ttl
	}
}

// WithProfileFields sets the custom profile field ids mapped to department and interests
func WithProfileFields(fields ProfileFields) Option {
	return func(c *client) {
		c.fields = fields
	}
}

// WithAPIURL points the client to another Slack API endpoint. The URL must end with "/".
func WithAPIURL(url string) Option {
	return func(c *client) {
		c.apiURL = url
	}
}

// WithHTTPClient sets the HTTP client used for Slack API calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.hc = hc
	}
}

// New creates a Slack directory with the provided bot token
func New(token string, opts ...Option) (Directory, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	c := &client{
		fields:   DefaultProfileFields(),
		cacheTTL: DefaultCacheTTL,
		cache:    make(map[string]membersEntry),
	}
	for _, opt := range opts {
		opt(c)
	}

	var apiOpts []slack.Option
	if c.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(c.apiURL))
	}
	if c.hc != nil {
		apiOpts = append(apiOpts, slack.OptionHTTPClient(c.hc))
	}
	c.api = slack.New(token, apiOpts...)

	return c, nil
}

// isSlackError reports whether err is a Slack API error with the given code
func isSlackError(err error, code string) bool {
	var resp slack.SlackErrorResponse
	return errors.As(err, &resp) && resp.Err == code
}

// ListChannels retrieves public and private channels userID belongs to
func (c *client) ListChannels(ctx context.Context, userID model.UserID) ([]*model.Channel, error) {
	channels := []*model.Channel{}
	var cursor string

	for {
		convs, nextCursor, err := c.api.GetConversationsForUserContext(ctx, &slack.GetConversationsForUserParameters{
			UserID:          userID.String(),
			Types:           []string{"public_channel", "private_channel"},
			ExcludeArchived: true,
			Limit:           pageLimit,
			Cursor:          cursor,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get conversations for user", goerr.V("user_id", userID))
		}

		for _, conv := range convs {
			channels = append(channels, &model.Channel{
				ID:        conv.ID,
				Name:      conv.Name,
				IsPrivate: conv.IsPrivate,
			})
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	return channels, nil
}

// ChannelMembers retrieves member ids of a channel with caching
func (c *client) ChannelMembers(ctx context.Context, channelID string) ([]model.UserID, error) {
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.cache[channelID]
	c.mu.RUnlock()
	if ok && entry.expiresAt.After(now) {
		return append([]model.UserID(nil), entry.members...), nil
	}

	members := []model.UserID{}
	var cursor string
	for {
		ids, nextCursor, err := c.api.GetUsersInConversationContext(ctx, &slack.GetUsersInConversationParameters{
			ChannelID: channelID,
			Cursor:    cursor,
			Limit:     pageLimit,
		})
		if err != nil {
			if isSlackError(err, "channel_not_found") {
				return nil, goerr.Wrap(ErrChannelNotFound, "failed to get channel members", goerr.V("channel_id", channelID))
			}
			return nil, goerr.Wrap(err, "failed to get channel members", goerr.V("channel_id", channelID))
		}
		for _, id := range ids {
			members = append(members, model.UserID(id))
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	c.mu.Lock()
	c.cache[channelID] = membersEntry{
		members:   members,
		expiresAt: now.Add(c.cacheTTL),
	}
	c.mu.Unlock()

	return append([]model.UserID(nil), members...), nil
}

// GetUser retrieves a user profile. It returns nil if Slack does not know the user.
func (c *client) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	user, err := c.api.GetUserInfoContext(ctx, id.String())
	if err != nil {
		if isSlackError(err, "user_not_found") {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get user info", goerr.V("user_id", id))
	}

	return toUser(user, c.fields), nil
}

// ListUsers retrieves all users in the workspace
func (c *client) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := c.api.GetUsersContext(ctx, slack.GetUsersOptionLimit(pageLimit))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}

	result := make([]*model.User, 0, len(users))
	for i := range users {
		result = append(result, toUser(&users[i], c.fields))
	}
	return result, nil
}
