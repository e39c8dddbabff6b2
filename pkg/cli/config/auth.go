package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
)

// BasicAuth holds the credentials protecting the mapping API
type BasicAuth struct {
	username string
	password string
}

func (x *BasicAuth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "basic-auth-username",
			Usage:       "Username for HTTP basic authentication",
			Category:    "Authentication",
			Value:       "checkerboard",
			Destination: &x.username,
			Sources:     cli.EnvVars("CHECKERBOARD_USERNAME"),
		},
		&cli.StringFlag{
			Name:        "basic-auth-password",
			Usage:       "Password for HTTP basic authentication",
			Category:    "Authentication",
			Destination: &x.password,
			Sources:     cli.EnvVars("CHECKERBOARD_PASSWORD"),
		},
	}
}

func (x BasicAuth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", x.username),
		slog.Int("password.len", len(x.password)),
	)
}

// Configure returns the credentials, requiring a password
func (x *BasicAuth) Configure() (username, password string, err error) {
	if x.password == "" {
		return "", "", ErrMissingPassword
	}
	return x.username, x.password, nil
}
