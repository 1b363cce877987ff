package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/repository/memory"
	"github.com/secmon-lab/relmap/pkg/usecase"
)

var testSecret = []byte("test-secret-test-secret-test-secret")

func TestAuthIssueVerify(t *testing.T) {
	ctx := context.Background()
	now := testNow
	clock := func() time.Time { return now }
	uc := usecase.NewAuthUseCase(memory.New(), testSecret, time.Hour, nil, clock)

	user := &model.User{ID: "U1", TeamID: "T1", Email: "u1@example.com"}
	token, exp, err := uc.Issue(user)
	gt.NoError(t, err).Required()
	gt.B(t, exp.Equal(now.Add(time.Hour))).True()

	t.Run("valid token", func(t *testing.T) {
		p, err := uc.Verify(ctx, token)
		gt.NoError(t, err).Required()
		gt.Value(t, p.UserID).Equal(model.UserID("U1"))
		gt.Value(t, p.TeamID).Equal(model.TeamID("T1"))
		gt.Value(t, p.Email).Equal("u1@example.com")
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := uc.Verify(ctx, "")
		gt.Error(t, err).Is(usecase.ErrTokenRequired)
	})

	t.Run("tampered token", func(t *testing.T) {
		_, err := uc.Verify(ctx, token+"x")
		gt.Error(t, err).Is(usecase.ErrInvalidToken)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := usecase.NewAuthUseCase(memory.New(), []byte("another-secret-another-secret"), time.Hour, nil, clock)
		forged, _, err := other.Issue(user)
		gt.NoError(t, err).Required()
		_, err = uc.Verify(ctx, forged)
		gt.Error(t, err).Is(usecase.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		later := usecase.NewAuthUseCase(memory.New(), testSecret, time.Hour, nil, func() time.Time {
			return now.Add(2 * time.Hour)
		})
		_, err := later.Verify(ctx, token)
		gt.Error(t, err).Is(usecase.ErrTokenExpired)
		gt.Error(t, err).Is(usecase.ErrUnauthorized)
	})

	t.Run("no secret", func(t *testing.T) {
		bare := usecase.NewAuthUseCase(memory.New(), nil, 0, nil, clock)
		_, _, err := bare.Issue(user)
		gt.Error(t, err).Is(usecase.ErrNotConfigured)
	})
}

func TestAuthCallback(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	authn := &mockAuthenticator{user: &model.User{ID: "U7", TeamID: "T1", DisplayName: "Signed In"}}
	uc := usecase.NewAuthUseCase(repo, testSecret, 0, authn, fixedClock)

	result, err := uc.Callback(ctx, "valid-code")
	gt.NoError(t, err).Required()
	gt.String(t, result.Token).NotEqual("")
	gt.Value(t, result.User.ID).Equal(model.UserID("U7"))
	gt.B(t, result.ExpiresAt.Equal(testNow.Add(usecase.DefaultTokenTTL))).True()

	stored, err := repo.User().FindUser(ctx, interfaces.UserQuery{ID: "U7"})
	gt.NoError(t, err).Required()
	gt.Value(t, stored).NotNil()

	t.Run("me and refresh use the stored user", func(t *testing.T) {
		p, err := uc.Verify(ctx, result.Token)
		gt.NoError(t, err).Required()

		me, err := uc.Me(ctx, p)
		gt.NoError(t, err).Required()
		gt.Value(t, me.DisplayName).Equal("Signed In")

		refreshed, err := uc.Refresh(ctx, p)
		gt.NoError(t, err).Required()
		gt.String(t, refreshed.Token).NotEqual("")
	})

	t.Run("failed exchange", func(t *testing.T) {
		_, err := uc.Callback(ctx, "bad-code")
		gt.Error(t, err).Is(usecase.ErrUpstream)
	})

	t.Run("missing code", func(t *testing.T) {
		_, err := uc.Callback(ctx, "")
		gt.Error(t, err).Is(usecase.ErrValidation)
	})

	t.Run("oauth not configured", func(t *testing.T) {
		bare := usecase.NewAuthUseCase(repo, testSecret, 0, nil, fixedClock)
		_, err := bare.Callback(ctx, "valid-code")
		gt.Error(t, err).Is(usecase.ErrNotConfigured)
	})

	t.Run("me for unknown user", func(t *testing.T) {
		_, err := uc.Me(ctx, principal("U404"))
		gt.Error(t, err).Is(usecase.ErrUserNotFound)
	})
}
