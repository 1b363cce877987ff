package interfaces

import (
	"context"
	"errors"

	"github.com/secmon-lab/relmap/pkg/domain/model"
)

// ErrDuplicateRelationship is returned by CreateRelationship when an active
// relationship already exists for the same owner and contact.
var ErrDuplicateRelationship = errors.New("active relationship already exists")

// Repository defines the interface for data persistence. Lookups that find
// nothing return a nil value or an empty slice, never an error.
type Repository interface {
	User() UserRepository
	Relationship() RelationshipRepository
	Interaction() InteractionRepository

	// Reset replaces every collection with a copy of seed
	Reset(ctx context.Context, seed *model.Seed) (*model.ResetResult, error)

	Close() error
}
