package model

import (
	"fmt"
	"time"

	"github.com/secmon-lab/relmap/pkg/domain/types"
)

const (
	// InteractionRetention is how long an interaction is kept after its timestamp
	InteractionRetention = 730 * 24 * time.Hour

	MaxInteractionTextLength = 1000
)

// Interaction is one observed message between an owner and a contact. ID is
// the message id and is unique across the store.
type Interaction struct {
	ID            string
	OwnerID       UserID
	TeamID        TeamID
	ContactID     UserID
	ChannelID     string
	ChannelType   types.ChannelType
	Direction     types.MessageDirection
	Text          string
	Timestamp     time.Time
	ReactionCount int
	ThreadCount   int
	IsEdited      bool
	IsDeleted     bool
	CreatedAt     time.Time
}

func (x *Interaction) HasReactions() bool { return x.ReactionCount > 0 }
func (x *Interaction) HasThread() bool    { return x.ThreadCount > 0 }

// Clone returns a copy of the interaction
func (x *Interaction) Clone() *Interaction {
	if x == nil {
		return nil
	}
	c := *x
	return &c
}

// InteractionMessageID builds the id of one side of a Slack message. A
// message in a group DM yields one interaction per (owner, contact) pair.
func InteractionMessageID(channelID, ts string, owner, contact UserID) string {
	return fmt.Sprintf("%s:%s:%s:%s", channelID, ts, owner, contact)
}

// TruncateText cuts s to MaxInteractionTextLength runes
func TruncateText(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxInteractionTextLength {
		return s
	}
	return string(runes[:MaxInteractionTextLength])
}

// InteractionField names a field usable with distinct queries
type InteractionField string

const (
	InteractionFieldContactID   InteractionField = "contact_id"
	InteractionFieldChannelID   InteractionField = "channel_id"
	InteractionFieldChannelType InteractionField = "channel_type"
	InteractionFieldDirection   InteractionField = "direction"
)

// IsValid checks if the field can be used with distinct queries
func (f InteractionField) IsValid() bool {
	switch f {
	case InteractionFieldContactID,
		InteractionFieldChannelID,
		InteractionFieldChannelType,
		InteractionFieldDirection:
		return true
	default:
		return false
	}
}

// Value extracts the field value from x
func (f InteractionField) Value(x *Interaction) string {
	switch f {
	case InteractionFieldContactID:
		return string(x.ContactID)
	case InteractionFieldChannelID:
		return x.ChannelID
	case InteractionFieldChannelType:
		return string(x.ChannelType)
	case InteractionFieldDirection:
		return string(x.Direction)
	default:
		return ""
	}
}
