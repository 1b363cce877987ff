package config

import (
	"log/slog"
	"time"
)

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(clientID, clientSecret, redirectURI, botToken, signingSecret, teamID string) *Slack {
	return &Slack{
		clientID:      clientID,
		clientSecret:  clientSecret,
		redirectURI:   redirectURI,
		botToken:      botToken,
		signingSecret: signingSecret,
		teamID:        teamID,
	}
}

func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{backend: backend, projectID: projectID}
}

func NewAuthForTest(secret string, ttl time.Duration) *Auth {
	return &Auth{jwtSecret: secret, tokenTTL: ttl}
}

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

func (x *Logger) BuildForTest() (*slog.Logger, func(), error) {
	return x.build()
}

func NewSeedForTest(path string) *Seed {
	return &Seed{path: path}
}
