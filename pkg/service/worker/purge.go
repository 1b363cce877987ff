package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
)

// DefaultPurgeInterval is how often expired interactions are removed
const DefaultPurgeInterval = 24 * time.Hour

// Purger deletes interactions past the retention window
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// InteractionPurgeWorker enforces interaction retention in the background
type InteractionPurgeWorker struct {
	*periodic
}

func NewInteractionPurgeWorker(purger Purger, interval time.Duration) *InteractionPurgeWorker {
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}

	return &InteractionPurgeWorker{
		periodic: newPeriodic("interaction purge", interval, func(ctx context.Context) error {
			start := time.Now()
			deleted, err := purger.Purge(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to purge interactions")
			}
			logging.From(ctx).Info("interaction purge completed",
				"deleted", deleted,
				"duration", time.Since(start).String())
			return nil
		}),
	}
}
