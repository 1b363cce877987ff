package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidBackend  = goerr.New("invalid repository backend")
	ErrMissingProject  = goerr.New("firestore-project-id is required when using firestore backend")
	ErrMissingRedirect = goerr.New("slack-redirect-uri is required with slack-client-id and slack-client-secret")
	ErrInvalidLogLevel = goerr.New("invalid log level")
	ErrInvalidLogFmt   = goerr.New("invalid log format")
)
