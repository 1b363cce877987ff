package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/cli/config"
	httpctrl "github.com/secmon-lab/relmap/pkg/controller/http"
	"github.com/secmon-lab/relmap/pkg/service/slack"
	"github.com/secmon-lab/relmap/pkg/service/worker"
	"github.com/secmon-lab/relmap/pkg/usecase"
	"github.com/secmon-lab/relmap/pkg/utils/async"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func cmdServe(version string) *cli.Command {
	var addr string
	var demo bool
	var repoCfg config.Repository
	var slackCfg config.Slack
	var authCfg config.Auth
	var sentryCfg config.Sentry
	var seedCfg config.Seed

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("RELMAP_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "demo",
			Usage:       "Serve demo routes backed by seed data (in-memory unless a backend is set)",
			Category:    "Demo",
			Sources:     cli.EnvVars("RELMAP_DEMO"),
			Destination: &demo,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, seedCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Serve configuration",
				"addr", addr,
				"demo", demo,
				"repository", repoCfg,
				"slack", slackCfg,
				"auth", authCfg,
				"sentry", sentryCfg,
			)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			if demo && !repoCfg.IsBackendSet() {
				repoCfg.SetBackend(config.BackendMemory)
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			directory, err := slackCfg.Directory()
			if err != nil {
				return err
			}

			var ucOpts []usecase.Option

			if demo {
				seed, err := seedCfg.Load(time.Now())
				if err != nil {
					return err
				}
				ucOpts = append(ucOpts, usecase.WithSeed(seed))

				if directory == nil {
					directory = slack.NewSeedDirectory(seed, repo)
					logger.Info("Using seed data as Slack directory")
				}

				if repoCfg.Backend() == config.BackendMemory {
					result, err := repo.Reset(ctx, seed)
					if err != nil {
						return goerr.Wrap(err, "failed to load seed data")
					}
					logger.Info("Seed data loaded",
						"users", result.Users,
						"relationships", result.Relationships,
						"interactions", result.Interactions)
				}
				logger.Warn("Demo mode enabled, demo login issues tokens without authentication")
			}

			if directory != nil {
				ucOpts = append(ucOpts, usecase.WithDirectory(directory))
			} else {
				logger.Info("Slack Bot Token not configured, directory features are disabled")
			}

			authenticator, err := slackCfg.Authenticator()
			if err != nil {
				return err
			}
			if authenticator != nil {
				ucOpts = append(ucOpts, usecase.WithAuthenticator(authenticator))
				logger.Info("Sign in with Slack enabled")
			}

			secret, err := authCfg.Secret()
			if err != nil {
				return err
			}
			ucOpts = append(ucOpts,
				usecase.WithTokenSecret(secret),
				usecase.WithTokenTTL(authCfg.TokenTTL()),
			)

			uc := usecase.New(repo, ucOpts...)

			purgeWorker := worker.NewInteractionPurgeWorker(uc.Ingest, worker.DefaultPurgeInterval)
			purgeWorker.Start(ctx)
			defer purgeWorker.Stop()

			if teamID := slackCfg.TeamID(); teamID != "" && slackCfg.BotToken() != "" {
				refreshWorker := worker.NewUserRefreshWorker(uc.Directory, teamID, worker.DefaultUserRefreshInterval)
				refreshWorker.Start(ctx)
				defer refreshWorker.Stop()
			}

			var httpOpts []httpctrl.Options
			if slackCfg.IsWebhookConfigured() {
				httpOpts = append(httpOpts, httpctrl.WithSlackSigningSecret(slackCfg.SigningSecret()))
				logger.Info("Slack event webhook enabled")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Events acknowledged before shutdown are still being recorded
				if err := async.Wait(shutdownCtx); err != nil {
					logger.Warn("pending event handlers did not finish", "error", err)
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
