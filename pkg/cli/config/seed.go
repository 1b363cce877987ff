package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/repository/seed"
	"github.com/urfave/cli/v3"
)

type Seed struct {
	path string
}

func (x *Seed) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "seed-file",
			Usage:       "TOML file replacing the built-in demo data set",
			Category:    "Demo",
			Destination: &x.path,
			Sources:     cli.EnvVars("RELMAP_SEED_FILE"),
		},
	}
}

func (x Seed) LogValue() slog.Value {
	if x.path == "" {
		return slog.StringValue("built-in")
	}
	return slog.StringValue(x.path)
}

// Load returns the seed data set with relative times resolved against now
func (x *Seed) Load(now time.Time) (*model.Seed, error) {
	if x.path == "" {
		data, err := seed.Demo(now)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load built-in seed")
		}
		return data, nil
	}

	data, err := seed.LoadFile(x.path, now)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load seed file", goerr.V("path", x.path))
	}
	return data, nil
}
