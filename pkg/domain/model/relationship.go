package model

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/types"
)

const (
	MaxCustomTypeLength = 50
	MaxNotesLength      = 500
)

// RelationshipID is the store-generated id of a relationship
type RelationshipID string

// NewRelationshipID generates a new random RelationshipID
func NewRelationshipID() RelationshipID {
	return RelationshipID(uuid.NewString())
}

func (x RelationshipID) String() string { return string(x) }

// SharedChannel is a channel both sides of a relationship belong to
type SharedChannel struct {
	ChannelID   string
	ChannelName string
	IsPrivate   bool
}

// Relationship is a directed edge from Owner to Contact inside one team.
// At most one active relationship exists per (OwnerID, ContactID).
type Relationship struct {
	ID               RelationshipID
	OwnerID          UserID
	TeamID           TeamID
	ContactID        UserID
	Type             types.RelationshipType
	CustomType       string
	AddedVia         types.AddedVia
	SourceChannel    string
	LastInteraction  *time.Time
	InteractionCount int
	SharedChannels   []SharedChannel
	SharedInterests  []string
	Notes            string
	Tags             []string
	Active           bool
	AddedAt          time.Time
	UpdatedAt        time.Time
}

// NewRelationship builds an active relationship with all defaults applied.
// An empty relType becomes colleague and an empty addedVia becomes manual.
func NewRelationship(ownerID UserID, teamID TeamID, contactID UserID, relType types.RelationshipType, addedVia types.AddedVia) *Relationship {
	if relType == "" {
		relType = types.RelationshipTypeColleague
	}
	if addedVia == "" {
		addedVia = types.AddedViaManual
	}
	return &Relationship{
		OwnerID:         ownerID,
		TeamID:          teamID,
		ContactID:       contactID,
		Type:            relType,
		AddedVia:        addedVia,
		SharedChannels:  []SharedChannel{},
		SharedInterests: []string{},
		Tags:            []string{},
		Active:          true,
	}
}

// Validate checks enum membership and field length limits
func (r *Relationship) Validate() error {
	if r.OwnerID == "" {
		return goerr.New("owner id is required")
	}
	if r.ContactID == "" {
		return goerr.New("contact id is required")
	}
	if !r.Type.IsValid() {
		return goerr.New("invalid relationship type", goerr.V("type", r.Type))
	}
	if !r.AddedVia.IsValid() {
		return goerr.New("invalid added_via", goerr.V("added_via", r.AddedVia))
	}
	if utf8.RuneCountInString(r.CustomType) > MaxCustomTypeLength {
		return goerr.New("custom relationship type is too long", goerr.V("max", MaxCustomTypeLength))
	}
	if utf8.RuneCountInString(r.Notes) > MaxNotesLength {
		return goerr.New("notes are too long", goerr.V("max", MaxNotesLength))
	}
	return nil
}

// Clone returns a deep copy of the relationship
func (r *Relationship) Clone() *Relationship {
	if r == nil {
		return nil
	}
	c := *r
	if r.LastInteraction != nil {
		t := *r.LastInteraction
		c.LastInteraction = &t
	}
	c.SharedChannels = slices.Clone(r.SharedChannels)
	c.SharedInterests = slices.Clone(r.SharedInterests)
	c.Tags = slices.Clone(r.Tags)
	return &c
}

// RelationshipWithContact is a relationship joined with its contact. Contact
// is nil when the contact id does not resolve to a user.
type RelationshipWithContact struct {
	*Relationship
	Contact *User
}

// RelationshipPatch is a partial update of a Relationship. Nil fields are
// left unchanged.
type RelationshipPatch struct {
	Type             *types.RelationshipType
	CustomType       *string
	Notes            *string
	Tags             []string
	Active           *bool
	LastInteraction  *time.Time
	InteractionCount *int
}

// Apply merges the patch into r
func (p RelationshipPatch) Apply(r *Relationship) {
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.CustomType != nil {
		r.CustomType = *p.CustomType
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.Tags != nil {
		r.Tags = slices.Clone(p.Tags)
	}
	if p.Active != nil {
		r.Active = *p.Active
	}
	if p.LastInteraction != nil {
		t := *p.LastInteraction
		r.LastInteraction = &t
	}
	if p.InteractionCount != nil {
		r.InteractionCount = *p.InteractionCount
	}
}

// SharedInterests returns the case-insensitive intersection of two interest
// lists. The result is lower-cased, de-duplicated and keeps the order of a.
func SharedInterests(a, b []string) []string {
	other := make(map[string]struct{}, len(b))
	for _, s := range b {
		other[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	result := []string{}
	seen := make(map[string]struct{})
	for _, s := range a {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		if _, ok := other[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, key)
	}
	return result
}
