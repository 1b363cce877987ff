package slack

import (
	"context"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/slack-go/slack"
)

// OAuth exchanges "Sign in with Slack" codes with the OAuth v2 flow
type OAuth struct {
	clientID     string
	clientSecret string
	redirectURI  string
	fields       ProfileFields
	hc           *http.Client
}

var _ Authenticator = &OAuth{}

type OAuthOption func(*OAuth)

// WithOAuthHTTPClient sets the HTTP client used for the code exchange and profile lookup
func WithOAuthHTTPClient(hc *http.Client) OAuthOption {
	return func(o *OAuth) {
		o.hc = hc
	}
}

// WithOAuthProfileFields sets the custom profile field ids used for the signed-in user
func WithOAuthProfileFields(fields ProfileFields) OAuthOption {
	return func(o *OAuth) {
		o.fields = fields
	}
}

func NewOAuth(clientID, clientSecret, redirectURI string, opts ...OAuthOption) (*OAuth, error) {
	if clientID == "" || clientSecret == "" {
		return nil, goerr.New("Slack client ID and client secret are required")
	}

	o := &OAuth{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		fields:       DefaultProfileFields(),
		hc:           http.DefaultClient,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Exchange trades code for a user token and reads the signed-in user's
// profile with it.
func (o *OAuth) Exchange(ctx context.Context, code string) (*model.User, error) {
	resp, err := slack.GetOAuthV2ResponseContext(ctx, o.hc, o.clientID, o.clientSecret, code, o.redirectURI)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to exchange OAuth code")
	}
	if resp.AuthedUser.AccessToken == "" || resp.AuthedUser.ID == "" {
		return nil, goerr.New("OAuth response has no authed user", goerr.V("team_id", resp.Team.ID))
	}

	api := slack.New(resp.AuthedUser.AccessToken, slack.OptionHTTPClient(o.hc))
	info, err := api.GetUserInfoContext(ctx, resp.AuthedUser.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get signed-in user", goerr.V("user_id", resp.AuthedUser.ID))
	}

	user := toUser(info, o.fields)
	if user.TeamID == "" {
		user.TeamID = model.TeamID(resp.Team.ID)
	}
	return user, nil
}
