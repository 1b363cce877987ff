package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// defaultDatabaseID is the Firestore default database, which fireconf needs named explicitly
const defaultDatabaseID = "(default)"

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var collectionPrefix string
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("RELMAP_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Sources:     cli.EnvVars("RELMAP_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.StringFlag{
				Name:        "firestore-collection-prefix",
				Usage:       "Prefix prepended to every Firestore collection name",
				Sources:     cli.EnvVars("RELMAP_FIRESTORE_COLLECTION_PREFIX"),
				Destination: &collectionPrefix,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"collectionPrefix", collectionPrefix,
				"dryRun", dryRun)

			if databaseID == "" {
				databaseID = defaultDatabaseID
			}

			opts := []fireconf.Option{
				fireconf.WithLogger(logger),
				fireconf.WithDryRun(dryRun),
			}
			client, err := fireconf.New(ctx, projectID, databaseID, getIndexConfig(collectionPrefix), opts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
			} else {
				logger.Info("Applying migrations")
			}
			if err := client.Migrate(ctx); err != nil {
				return goerr.Wrap(err, "failed to apply migrations", goerr.V("dryRun", dryRun))
			}
			if dryRun {
				logger.Info("Dry run completed")
				return nil
			}
			logger.Info("Migrations applied successfully")
			return nil
		},
	}
}

func asc(path string) fireconf.IndexField {
	return fireconf.IndexField{Path: path, Order: fireconf.OrderAscending}
}

func desc(path string) fireconf.IndexField {
	return fireconf.IndexField{Path: path, Order: fireconf.OrderDescending}
}

// getIndexConfig returns the composite indexes required by repository queries
func getIndexConfig(prefix string) *fireconf.Config {
	name := func(collection string) string {
		if prefix == "" {
			return collection
		}
		return prefix + "_" + collection
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: name("relationships"),
				Indexes: []fireconf.Index{
					// FindRelationships: owner_id, team_id, active
					{Fields: []fireconf.IndexField{asc("owner_id"), asc("team_id"), asc("active")}},
					// FindRelationships without team filter
					{Fields: []fireconf.IndexField{asc("owner_id"), asc("active")}},
				},
			},
			{
				Name: name("interactions"),
				Indexes: []fireconf.Index{
					{Fields: []fireconf.IndexField{asc("owner_id"), desc("timestamp")}},
					{Fields: []fireconf.IndexField{asc("owner_id"), asc("channel_type"), desc("timestamp")}},
					{Fields: []fireconf.IndexField{asc("owner_id"), asc("contact_id"), desc("timestamp")}},
					{Fields: []fireconf.IndexField{asc("owner_id"), asc("contact_id"), asc("channel_type"), desc("timestamp")}},
				},
			},
		},
	}
}
