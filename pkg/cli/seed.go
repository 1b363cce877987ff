package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/cli/config"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var repoCfg config.Repository
	var seedCfg config.Seed

	var flags []cli.Flag
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, seedCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Replace all stored data with the seed data set",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Seed configuration", "repository", repoCfg, "seed", seedCfg)

			data, err := seedCfg.Load(time.Now())
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			result, err := repo.Reset(ctx, data)
			if err != nil {
				return goerr.Wrap(err, "failed to write seed data")
			}

			logger.Info("Seed data written",
				"users", result.Users,
				"relationships", result.Relationships,
				"interactions", result.Interactions)
			return nil
		},
	}
}
