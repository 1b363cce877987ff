package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	clientID          string
	clientSecret      string
	redirectURI       string
	botToken          string
	signingSecret     string
	teamID            string
	departmentFieldID string
	interestsFieldID  string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-client-id",
			Usage:       "Slack OAuth client ID",
			Category:    "Slack",
			Destination: &x.clientID,
			Sources:     cli.EnvVars("RELMAP_SLACK_CLIENT_ID"),
		},
		&cli.StringFlag{
			Name:        "slack-client-secret",
			Usage:       "Slack OAuth client secret",
			Category:    "Slack",
			Destination: &x.clientSecret,
			Sources:     cli.EnvVars("RELMAP_SLACK_CLIENT_SECRET"),
		},
		&cli.StringFlag{
			Name:        "slack-redirect-uri",
			Usage:       "Redirect URI registered for Sign in with Slack",
			Category:    "Slack",
			Destination: &x.redirectURI,
			Sources:     cli.EnvVars("RELMAP_SLACK_REDIRECT_URI"),
		},
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for directory lookups)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("RELMAP_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (enables the event webhook)",
			Category:    "Slack",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("RELMAP_SLACK_SIGNING_SECRET"),
		},
		&cli.StringFlag{
			Name:        "slack-team-id",
			Usage:       "Slack team ID refreshed periodically by the user refresh worker",
			Category:    "Slack",
			Destination: &x.teamID,
			Sources:     cli.EnvVars("RELMAP_SLACK_TEAM_ID"),
		},
		&cli.StringFlag{
			Name:        "slack-department-field",
			Usage:       "Custom profile field ID holding the department",
			Category:    "Slack",
			Value:       slack.DefaultProfileField,
			Destination: &x.departmentFieldID,
			Sources:     cli.EnvVars("RELMAP_SLACK_DEPARTMENT_FIELD"),
		},
		&cli.StringFlag{
			Name:        "slack-interests-field",
			Usage:       "Custom profile field ID holding comma separated interests",
			Category:    "Slack",
			Value:       slack.DefaultProfileField,
			Destination: &x.interestsFieldID,
			Sources:     cli.EnvVars("RELMAP_SLACK_INTERESTS_FIELD"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("client-id.len", len(x.clientID)),
		slog.Int("client-secret.len", len(x.clientSecret)),
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
		slog.String("redirect-uri", x.redirectURI),
		slog.String("team-id", x.teamID),
	)
}

func (x *Slack) profileFields() slack.ProfileFields {
	fields := slack.DefaultProfileFields()
	if x.departmentFieldID != "" {
		fields.Department = x.departmentFieldID
	}
	if x.interestsFieldID != "" {
		fields.Interests = x.interestsFieldID
	}
	return fields
}

// Directory creates the Slack directory client. It returns nil without
// error when no bot token is configured.
func (x *Slack) Directory() (slack.Directory, error) {
	if x.botToken == "" {
		return nil, nil
	}
	dir, err := slack.New(x.botToken, slack.WithProfileFields(x.profileFields()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack directory")
	}
	return dir, nil
}

// Authenticator creates the Sign in with Slack client. It returns nil
// without error when OAuth is not configured.
func (x *Slack) Authenticator() (slack.Authenticator, error) {
	if !x.IsOAuthConfigured() {
		return nil, nil
	}
	if x.redirectURI == "" {
		return nil, goerr.Wrap(ErrMissingRedirect, "failed to configure slack oauth")
	}
	oauth, err := slack.NewOAuth(x.clientID, x.clientSecret, x.redirectURI,
		slack.WithOAuthProfileFields(x.profileFields()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack oauth")
	}
	return oauth, nil
}

// BotToken returns the Slack bot token
func (x *Slack) BotToken() string {
	return x.botToken
}

// TeamID returns the team refreshed by the user refresh worker
func (x *Slack) TeamID() model.TeamID {
	return model.TeamID(x.teamID)
}

// IsOAuthConfigured checks if Sign in with Slack can be served
func (x *Slack) IsOAuthConfigured() bool {
	return x.clientID != "" && x.clientSecret != ""
}

// IsWebhookConfigured checks if Slack webhook is configured
func (x *Slack) IsWebhookConfigured() bool {
	return x.signingSecret != ""
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}
