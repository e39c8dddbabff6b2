package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrMissingBotToken     = goerr.New("slack bot token is required")
	ErrMissingProfileField = goerr.New("slack profile field is required")
	ErrInvalidConcurrency  = goerr.New("slack concurrency must be at least 1")
	ErrInvalidBackend      = goerr.New("invalid store backend")
	ErrMissingRedisURL     = goerr.New("redis URL is required when using redis backend")
	ErrMissingProjectID    = goerr.New("firestore project ID is required when using firestore backend")
	ErrMissingPassword     = goerr.New("basic auth password is required")
	ErrInvalidLogLevel     = goerr.New("invalid log level")
	ErrInvalidLogFormat    = goerr.New("invalid log format")
)

// Context keys for error values
const (
	BackendKey   = "backend"
	LogLevelKey  = "log_level"
	LogFormatKey = "log_format"
)
