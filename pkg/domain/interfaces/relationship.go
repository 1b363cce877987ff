package interfaces

import (
	"context"

	"github.com/secmon-lab/relmap/pkg/domain/model"
)

// RelationshipFilter narrows FindRelationships. Active nil matches both states.
type RelationshipFilter struct {
	OwnerID model.UserID
	TeamID  model.TeamID
	Active  *bool
}

type RelationshipRepository interface {
	// FindRelationships returns matching relationships joined with their contact
	FindRelationships(ctx context.Context, filter RelationshipFilter) ([]*model.RelationshipWithContact, error)

	// FindRelationship returns the active relationship between owner and
	// contact, or nil if there is none.
	FindRelationship(ctx context.Context, ownerID, contactID model.UserID) (*model.RelationshipWithContact, error)

	// CreateRelationship assigns an ID and timestamps and stores rel. It fails
	// with ErrDuplicateRelationship if an active pair already exists.
	CreateRelationship(ctx context.Context, rel *model.Relationship) (*model.Relationship, error)

	// UpdateRelationship patches the relationship for owner and contact,
	// preferring the active record. Returns nil if none matches.
	UpdateRelationship(ctx context.Context, ownerID, contactID model.UserID, patch model.RelationshipPatch) (*model.Relationship, error)
}
