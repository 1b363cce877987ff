package usecase

import (
	"time"

	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/service/slack"
)

type UseCases struct {
	repo          interfaces.Repository
	directory     slack.Directory
	authenticator slack.Authenticator
	seed          *model.Seed
	tokenSecret   []byte
	tokenTTL      time.Duration
	now           func() time.Time

	Relationship *RelationshipUseCase
	Directory    *DirectoryUseCase
	Auth         *AuthUseCase
	Demo         *DemoUseCase
	Ingest       *IngestUseCase
}

type Option func(*UseCases)

// WithDirectory sets the workspace directory used for imports and sync
func WithDirectory(dir slack.Directory) Option {
	return func(uc *UseCases) {
		uc.directory = dir
	}
}

// WithAuthenticator enables the Slack OAuth callback
func WithAuthenticator(a slack.Authenticator) Option {
	return func(uc *UseCases) {
		uc.authenticator = a
	}
}

// WithTokenSecret sets the HMAC key for access tokens
func WithTokenSecret(secret []byte) Option {
	return func(uc *UseCases) {
		uc.tokenSecret = secret
	}
}

// WithTokenTTL sets the lifetime of issued access tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(uc *UseCases) {
		uc.tokenTTL = ttl
	}
}

// WithSeed enables demo mode with the given data set
func WithSeed(seed *model.Seed) Option {
	return func(uc *UseCases) {
		uc.seed = seed
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:     repo,
		tokenTTL: DefaultTokenTTL,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Auth = NewAuthUseCase(repo, uc.tokenSecret, uc.tokenTTL, uc.authenticator, uc.now)
	uc.Relationship = NewRelationshipUseCase(repo, uc.directory, uc.now)
	uc.Directory = NewDirectoryUseCase(repo, uc.directory, uc.now)
	uc.Ingest = NewIngestUseCase(repo, uc.directory, uc.now)
	if uc.seed != nil {
		uc.Demo = NewDemoUseCase(repo, uc.seed, uc.Auth)
	}

	return uc
}

// DemoEnabled reports whether demo routes should be served
func (uc *UseCases) DemoEnabled() bool {
	return uc.Demo != nil
}
