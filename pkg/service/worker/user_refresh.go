package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/usecase"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
)

// DefaultUserRefreshInterval is how often workspace users are re-synced
const DefaultUserRefreshInterval = 6 * time.Hour

// TeamSyncer imports the users of a workspace
type TeamSyncer interface {
	SyncTeam(ctx context.Context, teamID model.TeamID) (*usecase.SyncResult, error)
}

// UserRefreshWorker keeps stored user profiles in sync with the workspace
type UserRefreshWorker struct {
	*periodic
}

func NewUserRefreshWorker(syncer TeamSyncer, teamID model.TeamID, interval time.Duration) *UserRefreshWorker {
	if interval <= 0 {
		interval = DefaultUserRefreshInterval
	}

	return &UserRefreshWorker{
		periodic: newPeriodic("user refresh", interval, func(ctx context.Context) error {
			start := time.Now()
			result, err := syncer.SyncTeam(ctx, teamID)
			if err != nil {
				return goerr.Wrap(err, "failed to sync workspace users", goerr.V("team_id", teamID))
			}
			logging.From(ctx).Info("user refresh completed",
				"team_id", teamID,
				"synced", result.Synced,
				"errors", len(result.Errors),
				"duration", time.Since(start).String())
			return nil
		}),
	}
}
