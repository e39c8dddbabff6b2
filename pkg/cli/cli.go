package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/secmon-lab/checkerboard/pkg/cli/config"
	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var closer func()

	// Settings may live in .env files; real environment variables win
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	app := &cli.Command{
		Name:    "checkerboard",
		Usage:   "Slack to GitHub user mapping service",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			logging.Default().Info("Starting checkerboard", "version", version, "logger", loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(version),
			cmdRefresh(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
