package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/checkerboard/pkg/cli/config"
	"github.com/secmon-lab/checkerboard/pkg/usecase"
	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
	"github.com/secmon-lab/checkerboard/pkg/utils/safe"
)

func cmdRefresh() *cli.Command {
	var slackCfg config.Slack
	var storeCfg config.Store

	var flags []cli.Flag
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, storeCfg.Flags()...)

	return &cli.Command{
		Name:  "refresh",
		Usage: "Run one refresh cycle and print the resulting mapping as JSON",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			directory, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack")
			}

			store, err := storeCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize store")
			}
			defer safe.Close(ctx, store)

			uc := usecase.New(directory, store, usecase.WithConcurrency(slackCfg.Concurrency()))

			changed, err := uc.Refresher.Refresh(ctx)
			if err != nil {
				return goerr.Wrap(err, "refresh failed")
			}
			if err := uc.Mapper.Refresh(ctx); err != nil {
				return goerr.Wrap(err, "failed to load mapping")
			}
			logging.Default().Info("Refresh finished", "changed", changed)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(uc.Mapper.Map()); err != nil {
				return goerr.Wrap(err, "failed to write mapping")
			}
			return nil
		},
	}
}
