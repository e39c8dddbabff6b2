package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/checkerboard/pkg/cli/config"
	httpctrl "github.com/secmon-lab/checkerboard/pkg/controller/http"
	"github.com/secmon-lab/checkerboard/pkg/service/worker"
	"github.com/secmon-lab/checkerboard/pkg/usecase"
	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
	"github.com/secmon-lab/checkerboard/pkg/utils/safe"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var enableMetrics bool
	var slackCfg config.Slack
	var storeCfg config.Store
	var authCfg config.BasicAuth
	var refreshCfg config.Refresh

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CHECKERBOARD_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Expose Prometheus metrics on /metrics",
			Value:       true,
			Sources:     cli.EnvVars("CHECKERBOARD_METRICS"),
			Destination: &enableMetrics,
		},
	}

	// Add shared config flags
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, storeCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, refreshCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server and periodic refresh",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Serve configuration",
				"slack", slackCfg,
				"store", storeCfg,
				"auth", authCfg)

			directory, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack")
			}
			username, password, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}
			interval, err := refreshCfg.Interval()
			if err != nil {
				return err
			}

			store, err := storeCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize store")
			}
			defer safe.Close(ctx, store)

			uc := usecase.New(directory, store, usecase.WithConcurrency(slackCfg.Concurrency()))

			httpHandler := httpctrl.New(uc.Mapper,
				httpctrl.WithBasicAuth(username, password),
				httpctrl.WithMetrics(enableMetrics),
				httpctrl.WithAppInfo(httpctrl.AppInfo{
					Name:        "checkerboard",
					Version:     version,
					Description: "Slack to GitHub user mapping service",
				}),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			shutdown := func() error {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				logging.Default().Info("Server shutdown completed")
				return nil
			}

			// Mapping routes answer 503 until the mirror is loaded
			if err := uc.Mapper.Start(sigCtx); err != nil {
				_ = shutdown()
				return goerr.Wrap(err, "failed to start mapper")
			}

			refreshWorker := worker.NewMappingRefreshWorker(uc.Refresher, uc.Mapper, interval)
			if err := refreshWorker.Start(sigCtx); err != nil {
				_ = shutdown()
				return goerr.Wrap(err, "failed to start mapping refresh worker")
			}

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				refreshWorker.Stop()
				return err
			case <-sigCtx.Done():
				logging.Default().Info("Received shutdown signal")

				// Stop the refresh worker before the store is closed
				refreshWorker.Stop()
				return shutdown()
			}
		},
	}
}
