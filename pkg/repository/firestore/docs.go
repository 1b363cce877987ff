package firestore

import (
	"fmt"
	"slices"
	"time"

	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/types"
)

type userProfileDoc struct {
	Title       string   `firestore:"title"`
	Department  string   `firestore:"department"`
	Interests   []string `firestore:"interests"`
	Status      string   `firestore:"status"`
	StatusText  string   `firestore:"status_text"`
	StatusEmoji string   `firestore:"status_emoji"`
	Phone       string   `firestore:"phone"`
	Skype       string   `firestore:"skype"`
}

type userDoc struct {
	ID          string         `firestore:"id"`
	TeamID      string         `firestore:"team_id"`
	Email       string         `firestore:"email"`
	DisplayName string         `firestore:"display_name"`
	RealName    string         `firestore:"real_name"`
	Profile     userProfileDoc `firestore:"profile"`
	Avatar      string         `firestore:"avatar"`
	IsAdmin     bool           `firestore:"is_admin"`
	IsOwner     bool           `firestore:"is_owner"`
	IsBot       bool           `firestore:"is_bot"`
	IsDeleted   bool           `firestore:"is_deleted"`
	Timezone    string         `firestore:"timezone"`
	Locale      string         `firestore:"locale"`
	CreatedAt   time.Time      `firestore:"created_at"`
	UpdatedAt   time.Time      `firestore:"updated_at"`
}

func toUserDoc(u *model.User) *userDoc {
	return &userDoc{
		ID:          string(u.ID),
		TeamID:      string(u.TeamID),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		RealName:    u.RealName,
		Profile: userProfileDoc{
			Title:       u.Profile.Title,
			Department:  u.Profile.Department,
			Interests:   slices.Clone(u.Profile.Interests),
			Status:      u.Profile.Status,
			StatusText:  u.Profile.StatusText,
			StatusEmoji: u.Profile.StatusEmoji,
			Phone:       u.Profile.Phone,
			Skype:       u.Profile.Skype,
		},
		Avatar:    u.Avatar,
		IsAdmin:   u.IsAdmin,
		IsOwner:   u.IsOwner,
		IsBot:     u.IsBot,
		IsDeleted: u.IsDeleted,
		Timezone:  u.Timezone,
		Locale:    u.Locale,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func fromUserDoc(doc *userDoc) *model.User {
	return &model.User{
		ID:          model.UserID(doc.ID),
		TeamID:      model.TeamID(doc.TeamID),
		Email:       doc.Email,
		DisplayName: doc.DisplayName,
		RealName:    doc.RealName,
		Profile: model.UserProfile{
			Title:       doc.Profile.Title,
			Department:  doc.Profile.Department,
			Interests:   doc.Profile.Interests,
			Status:      doc.Profile.Status,
			StatusText:  doc.Profile.StatusText,
			StatusEmoji: doc.Profile.StatusEmoji,
			Phone:       doc.Profile.Phone,
			Skype:       doc.Profile.Skype,
		},
		Avatar:    doc.Avatar,
		IsAdmin:   doc.IsAdmin,
		IsOwner:   doc.IsOwner,
		IsBot:     doc.IsBot,
		IsDeleted: doc.IsDeleted,
		Timezone:  doc.Timezone,
		Locale:    doc.Locale,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

type sharedChannelDoc struct {
	ChannelID   string `firestore:"channel_id"`
	ChannelName string `firestore:"channel_name"`
	IsPrivate   bool   `firestore:"is_private"`
}

type relationshipDoc struct {
	ID               string             `firestore:"id"`
	OwnerID          string             `firestore:"owner_id"`
	TeamID           string             `firestore:"team_id"`
	ContactID        string             `firestore:"contact_id"`
	Type             string             `firestore:"type"`
	CustomType       string             `firestore:"custom_type"`
	AddedVia         string             `firestore:"added_via"`
	SourceChannel    string             `firestore:"source_channel"`
	LastInteraction  *time.Time         `firestore:"last_interaction"`
	InteractionCount int                `firestore:"interaction_count"`
	SharedChannels   []sharedChannelDoc `firestore:"shared_channels"`
	SharedInterests  []string           `firestore:"shared_interests"`
	Notes            string             `firestore:"notes"`
	Tags             []string           `firestore:"tags"`
	Active           bool               `firestore:"active"`
	AddedAt          time.Time          `firestore:"added_at"`
	UpdatedAt        time.Time          `firestore:"updated_at"`
}

func toRelationshipDoc(r *model.Relationship) *relationshipDoc {
	channels := make([]sharedChannelDoc, len(r.SharedChannels))
	for i, ch := range r.SharedChannels {
		channels[i] = sharedChannelDoc{
			ChannelID:   ch.ChannelID,
			ChannelName: ch.ChannelName,
			IsPrivate:   ch.IsPrivate,
		}
	}

	return &relationshipDoc{
		ID:               string(r.ID),
		OwnerID:          string(r.OwnerID),
		TeamID:           string(r.TeamID),
		ContactID:        string(r.ContactID),
		Type:             string(r.Type),
		CustomType:       r.CustomType,
		AddedVia:         string(r.AddedVia),
		SourceChannel:    r.SourceChannel,
		LastInteraction:  r.LastInteraction,
		InteractionCount: r.InteractionCount,
		SharedChannels:   channels,
		SharedInterests:  slices.Clone(r.SharedInterests),
		Notes:            r.Notes,
		Tags:             slices.Clone(r.Tags),
		Active:           r.Active,
		AddedAt:          r.AddedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func fromRelationshipDoc(doc *relationshipDoc) *model.Relationship {
	channels := make([]model.SharedChannel, len(doc.SharedChannels))
	for i, ch := range doc.SharedChannels {
		channels[i] = model.SharedChannel{
			ChannelID:   ch.ChannelID,
			ChannelName: ch.ChannelName,
			IsPrivate:   ch.IsPrivate,
		}
	}

	r := &model.Relationship{
		ID:               model.RelationshipID(doc.ID),
		OwnerID:          model.UserID(doc.OwnerID),
		TeamID:           model.TeamID(doc.TeamID),
		ContactID:        model.UserID(doc.ContactID),
		Type:             types.RelationshipType(doc.Type),
		CustomType:       doc.CustomType,
		AddedVia:         types.AddedVia(doc.AddedVia),
		SourceChannel:    doc.SourceChannel,
		LastInteraction:  doc.LastInteraction,
		InteractionCount: doc.InteractionCount,
		SharedChannels:   channels,
		SharedInterests:  doc.SharedInterests,
		Notes:            doc.Notes,
		Tags:             doc.Tags,
		Active:           doc.Active,
		AddedAt:          doc.AddedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
	if r.SharedInterests == nil {
		r.SharedInterests = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r
}

// pairDoc marks the active relationship of an (owner, contact) pair
type pairDoc struct {
	RelationshipID string `firestore:"relationship_id"`
}

func pairKey(ownerID, contactID model.UserID) string {
	return fmt.Sprintf("%s_%s", ownerID, contactID)
}

type interactionDoc struct {
	ID            string    `firestore:"id"`
	OwnerID       string    `firestore:"owner_id"`
	TeamID        string    `firestore:"team_id"`
	ContactID     string    `firestore:"contact_id"`
	ChannelID     string    `firestore:"channel_id"`
	ChannelType   string    `firestore:"channel_type"`
	Direction     string    `firestore:"direction"`
	Text          string    `firestore:"text"`
	Timestamp     time.Time `firestore:"timestamp"`
	ReactionCount int       `firestore:"reaction_count"`
	ThreadCount   int       `firestore:"thread_count"`
	IsEdited      bool      `firestore:"is_edited"`
	IsDeleted     bool      `firestore:"is_deleted"`
	CreatedAt     time.Time `firestore:"created_at"`
	// ExpireAt backs an optional Firestore TTL policy
	ExpireAt time.Time `firestore:"expire_at"`
}

func toInteractionDoc(x *model.Interaction) *interactionDoc {
	return &interactionDoc{
		ID:            x.ID,
		OwnerID:       string(x.OwnerID),
		TeamID:        string(x.TeamID),
		ContactID:     string(x.ContactID),
		ChannelID:     x.ChannelID,
		ChannelType:   string(x.ChannelType),
		Direction:     string(x.Direction),
		Text:          x.Text,
		Timestamp:     x.Timestamp,
		ReactionCount: x.ReactionCount,
		ThreadCount:   x.ThreadCount,
		IsEdited:      x.IsEdited,
		IsDeleted:     x.IsDeleted,
		CreatedAt:     x.CreatedAt,
		ExpireAt:      x.Timestamp.Add(model.InteractionRetention),
	}
}

func fromInteractionDoc(doc *interactionDoc) *model.Interaction {
	return &model.Interaction{
		ID:            doc.ID,
		OwnerID:       model.UserID(doc.OwnerID),
		TeamID:        model.TeamID(doc.TeamID),
		ContactID:     model.UserID(doc.ContactID),
		ChannelID:     doc.ChannelID,
		ChannelType:   types.ChannelType(doc.ChannelType),
		Direction:     types.MessageDirection(doc.Direction),
		Text:          doc.Text,
		Timestamp:     doc.Timestamp,
		ReactionCount: doc.ReactionCount,
		ThreadCount:   doc.ThreadCount,
		IsEdited:      doc.IsEdited,
		IsDeleted:     doc.IsDeleted,
		CreatedAt:     doc.CreatedAt,
	}
}

// interactionFieldPaths maps distinct fields to document paths
var interactionFieldPaths = map[model.InteractionField]string{
	model.InteractionFieldContactID:   "contact_id",
	model.InteractionFieldChannelID:   "channel_id",
	model.InteractionFieldChannelType: "channel_type",
	model.InteractionFieldDirection:   "direction",
}
