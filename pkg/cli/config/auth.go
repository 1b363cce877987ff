package config

import (
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/usecase"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const ephemeralSecretSize = 32

type Auth struct {
	jwtSecret string `masq:"secret"`
	tokenTTL  time.Duration
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HMAC key for access tokens. A random key is generated when empty, invalidating tokens on restart",
			Category:    "Authentication",
			Destination: &x.jwtSecret,
			Sources:     cli.EnvVars("RELMAP_JWT_SECRET"),
		},
		&cli.DurationFlag{
			Name:        "token-ttl",
			Usage:       "Lifetime of issued access tokens",
			Category:    "Authentication",
			Value:       usecase.DefaultTokenTTL,
			Destination: &x.tokenTTL,
			Sources:     cli.EnvVars("RELMAP_TOKEN_TTL"),
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("jwt-secret.len", len(x.jwtSecret)),
		slog.Duration("token-ttl", x.tokenTTL),
	)
}

// TokenTTL returns the configured token lifetime
func (x *Auth) TokenTTL() time.Duration {
	if x.tokenTTL <= 0 {
		return usecase.DefaultTokenTTL
	}
	return x.tokenTTL
}

// Secret returns the token signing key. Without a configured secret an
// ephemeral one is generated.
func (x *Auth) Secret() ([]byte, error) {
	if x.jwtSecret != "" {
		return []byte(x.jwtSecret), nil
	}

	secret := make([]byte, ephemeralSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, goerr.Wrap(err, "failed to generate ephemeral token secret")
	}
	logging.Default().Warn("--jwt-secret is not set, using an ephemeral key. Tokens will not survive a restart")
	return secret, nil
}
