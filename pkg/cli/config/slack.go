package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/checkerboard/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken     string
	profileField string
	concurrency  int
	apiURL       string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (users:read, users.profile:read, team:read)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("CHECKERBOARD_SLACK_TOKEN", "CHECKERBOARD_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-profile-field",
			Usage:       "Label of the Slack custom profile field holding the GitHub username",
			Category:    "Slack",
			Value:       "GitHub Username",
			Destination: &x.profileField,
			Sources:     cli.EnvVars("CHECKERBOARD_PROFILE_FIELD"),
		},
		&cli.IntFlag{
			Name:        "slack-concurrency",
			Usage:       "Number of Slack profile lookups in flight during a refresh",
			Category:    "Slack",
			Value:       1,
			Destination: &x.concurrency,
			Sources:     cli.EnvVars("CHECKERBOARD_SLACK_CONCURRENCY"),
		},
		&cli.StringFlag{
			Name:        "slack-api-url",
			Usage:       "Override the Slack Web API base URL (testing only)",
			Category:    "Slack",
			Destination: &x.apiURL,
			Sources:     cli.EnvVars("CHECKERBOARD_SLACK_API_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("profile-field", x.profileField),
		slog.Int("concurrency", x.concurrency),
	)
}

// Concurrency returns the lookup concurrency for the reconciler
func (x *Slack) Concurrency() int {
	return x.concurrency
}

// Configure validates the settings and creates the Slack directory client
func (x *Slack) Configure() (slack.Directory, error) {
	if x.botToken == "" {
		return nil, goerr.Wrap(ErrMissingBotToken, "set --slack-bot-token or CHECKERBOARD_SLACK_TOKEN")
	}
	if x.profileField == "" {
		return nil, ErrMissingProfileField
	}
	if x.concurrency < 1 {
		return nil, goerr.Wrap(ErrInvalidConcurrency, "invalid --slack-concurrency",
			goerr.V("concurrency", x.concurrency))
	}

	var opts []slack.Option
	if x.apiURL != "" {
		opts = append(opts, slack.WithAPIURL(x.apiURL))
	}

	dir, err := slack.New(x.botToken, x.profileField, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Slack client")
	}
	return dir, nil
}
