package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
)

// DemoUseCase serves the fixed demo data set
type DemoUseCase struct {
	repo interfaces.Repository
	seed *model.Seed
	auth *AuthUseCase
}

func NewDemoUseCase(repo interfaces.Repository, seed *model.Seed, auth *AuthUseCase) *DemoUseCase {
	return &DemoUseCase{
		repo: repo,
		seed: seed,
		auth: auth,
	}
}

// Reset restores the demo data set
func (uc *DemoUseCase) Reset(ctx context.Context) (*model.ResetResult, error) {
	result, err := uc.repo.Reset(ctx, uc.seed)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to reset demo data")
	}

	logging.From(ctx).Info("demo data reset",
		"users", result.Users,
		"relationships", result.Relationships,
		"interactions", result.Interactions)
	return result, nil
}

func (uc *DemoUseCase) findDemoUser(ctx context.Context) (*model.User, error) {
	user, err := uc.repo.User().FindUser(ctx, interfaces.UserQuery{ID: model.DemoUserID})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find demo user")
	}
	return user, nil
}

// Login signs in as the demo user, restoring the data set first if the
// demo user is missing.
func (uc *DemoUseCase) Login(ctx context.Context) (*LoginResult, error) {
	user, err := uc.findDemoUser(ctx)
	if err != nil {
		return nil, err
	}

	if user == nil {
		if _, err := uc.Reset(ctx); err != nil {
			return nil, err
		}
		if user, err = uc.findDemoUser(ctx); err != nil {
			return nil, err
		}
		if user == nil {
			return nil, goerr.Wrap(ErrUserNotFound, "demo user is missing from seed data", goerr.V("user_id", model.DemoUserID))
		}
	}

	return uc.auth.login(user)
}

// User returns the demo user profile
func (uc *DemoUseCase) User(ctx context.Context) (*model.User, error) {
	user, err := uc.findDemoUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, goerr.Wrap(ErrUserNotFound, "demo user not found", goerr.V("user_id", model.DemoUserID))
	}
	return user, nil
}
