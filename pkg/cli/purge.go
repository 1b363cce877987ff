package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/cli/config"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/usecase"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdPurge() *cli.Command {
	var repoCfg config.Repository

	return &cli.Command{
		Name:  "purge",
		Usage: "Delete interactions older than the retention period",
		Flags: repoCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Purge configuration",
				"repository", repoCfg,
				"retention", model.InteractionRetention)

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			uc := usecase.New(repo)
			n, err := uc.Ingest.Purge(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to purge interactions")
			}

			logger.Info("Purged expired interactions", "count", n)
			return nil
		},
	}
}
