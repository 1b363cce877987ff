package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/model/auth"
	"github.com/secmon-lab/relmap/pkg/service/slack"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
)

// DefaultTokenTTL is the lifetime of issued access tokens
const DefaultTokenTTL = 7 * 24 * time.Hour

const (
	claimTeamID = "team_id"
	claimEmail  = "email"
	tokenIssuer = "relmap"
)

// AuthUseCase issues and verifies stateless bearer tokens
type AuthUseCase struct {
	repo          interfaces.Repository
	secret        []byte
	ttl           time.Duration
	authenticator slack.Authenticator
	now           func() time.Time
}

func NewAuthUseCase(repo interfaces.Repository, secret []byte, ttl time.Duration, authenticator slack.Authenticator, now func() time.Time) *AuthUseCase {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthUseCase{
		repo:          repo,
		secret:        secret,
		ttl:           ttl,
		authenticator: authenticator,
		now:           now,
	}
}

// LoginResult is a freshly issued token with the signed-in user
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// Issue signs a token for user
func (uc *AuthUseCase) Issue(user *model.User) (string, time.Time, error) {
	if len(uc.secret) == 0 {
		return "", time.Time{}, goerr.Wrap(ErrNotConfigured, "token secret is not configured")
	}

	now := uc.now()
	exp := now.Add(uc.ttl)
	token, err := jwt.NewBuilder().
		Issuer(tokenIssuer).
		Subject(user.ID.String()).
		IssuedAt(now).
		Expiration(exp).
		Claim(claimTeamID, user.TeamID.String()).
		Claim(claimEmail, user.Email).
		Build()
	if err != nil {
		return "", time.Time{}, goerr.Wrap(err, "failed to build token", goerr.V("user_id", user.ID))
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, uc.secret))
	if err != nil {
		return "", time.Time{}, goerr.Wrap(err, "failed to sign token", goerr.V("user_id", user.ID))
	}
	return string(signed), exp, nil
}

// Verify parses a bearer token and returns its principal
func (uc *AuthUseCase) Verify(ctx context.Context, token string) (*auth.Principal, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}
	if len(uc.secret) == 0 {
		return nil, goerr.Wrap(ErrNotConfigured, "token secret is not configured")
	}

	parsed, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, uc.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithClock(jwt.ClockFunc(uc.now)),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, goerr.Wrap(ErrTokenExpired, "token expired")
		}
		logging.From(ctx).Debug("token verification failed", "error", err)
		return nil, goerr.Wrap(ErrInvalidToken, "failed to verify token")
	}

	if parsed.Subject() == "" {
		return nil, goerr.Wrap(ErrInvalidToken, "token has no subject")
	}

	p := &auth.Principal{UserID: model.UserID(parsed.Subject())}
	if v, ok := parsed.Get(claimTeamID); ok {
		s, _ := v.(string)
		p.TeamID = model.TeamID(s)
	}
	if v, ok := parsed.Get(claimEmail); ok {
		p.Email, _ = v.(string)
	}
	return p, nil
}

func (uc *AuthUseCase) login(user *model.User) (*LoginResult, error) {
	token, exp, err := uc.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Callback completes "Sign in with Slack" and stores the signed-in user
func (uc *AuthUseCase) Callback(ctx context.Context, code string) (*LoginResult, error) {
	if code == "" {
		return nil, newValidationError("Authorization code is required")
	}
	if uc.authenticator == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "Slack OAuth is not configured")
	}

	slackUser, err := uc.authenticator.Exchange(ctx, code)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "failed to exchange OAuth code", goerr.V("error", err.Error()))
	}

	user, err := upsertUser(ctx, uc.repo, slackUser)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("user signed in", "user_id", user.ID, "team_id", user.TeamID)
	return uc.login(user)
}

// Me returns the stored profile of the caller
func (uc *AuthUseCase) Me(ctx context.Context, p *auth.Principal) (*model.User, error) {
	user, err := uc.repo.User().FindUser(ctx, interfaces.UserQuery{ID: p.UserID})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find user", goerr.V("user_id", p.UserID))
	}
	if user == nil {
		return nil, goerr.Wrap(ErrUserNotFound, "user not found", goerr.V("user_id", p.UserID))
	}
	return user, nil
}

// Refresh issues a new token for the caller
func (uc *AuthUseCase) Refresh(ctx context.Context, p *auth.Principal) (*LoginResult, error) {
	user, err := uc.Me(ctx, p)
	if err != nil {
		return nil, err
	}
	return uc.login(user)
}
