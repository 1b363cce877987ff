package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/types"
)

// InteractionFilter narrows interaction queries. Zero fields are ignored.
type InteractionFilter struct {
	OwnerID     model.UserID
	ContactID   model.UserID
	ChannelType types.ChannelType
	Since       time.Time
}

type InteractionRepository interface {
	// FindInteractions returns matching interactions, newest first
	FindInteractions(ctx context.Context, filter InteractionFilter) ([]*model.Interaction, error)

	CountInteractions(ctx context.Context, filter InteractionFilter) (int, error)

	// DistinctInteractions returns the distinct values of field among
	// matching interactions. Order is unspecified.
	DistinctInteractions(ctx context.Context, field model.InteractionField, filter InteractionFilter) ([]string, error)

	// PutInteraction upserts by interaction ID
	PutInteraction(ctx context.Context, x *model.Interaction) error

	// PurgeInteractions deletes interactions older than before and returns the count
	PurgeInteractions(ctx context.Context, before time.Time) (int, error)
}
