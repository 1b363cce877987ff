// Package seed loads the demo data set that demo mode and the seed command
// reset a repository to.
package seed

import (
	_ "embed"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/types"
)

//go:embed demo.toml
var demoTOML []byte

const day = 24 * time.Hour

type profileEntry struct {
	Title       string   `toml:"title"`
	Department  string   `toml:"department"`
	Interests   []string `toml:"interests"`
	Status      string   `toml:"status"`
	StatusText  string   `toml:"status_text"`
	StatusEmoji string   `toml:"status_emoji"`
	Phone       string   `toml:"phone"`
	Skype       string   `toml:"skype"`
}

type userEntry struct {
	ID          string       `toml:"id"`
	TeamID      string       `toml:"team_id"`
	Email       string       `toml:"email"`
	DisplayName string       `toml:"display_name"`
	RealName    string       `toml:"real_name"`
	Avatar      string       `toml:"avatar"`
	IsAdmin     bool         `toml:"is_admin"`
	IsOwner     bool         `toml:"is_owner"`
	IsBot       bool         `toml:"is_bot"`
	IsDeleted   bool         `toml:"is_deleted"`
	Timezone    string       `toml:"timezone"`
	Locale      string       `toml:"locale"`
	Profile     profileEntry `toml:"profile"`
}

type relationshipEntry struct {
	OwnerID                string   `toml:"owner_id"`
	TeamID                 string   `toml:"team_id"`
	ContactID              string   `toml:"contact_id"`
	Type                   string   `toml:"type"`
	CustomType             string   `toml:"custom_type"`
	AddedVia               string   `toml:"added_via"`
	SourceChannel          string   `toml:"source_channel"`
	SharedChannels         []string `toml:"shared_channels"`
	SharedInterests        []string `toml:"shared_interests"`
	Notes                  string   `toml:"notes"`
	Tags                   []string `toml:"tags"`
	LastInteractionDaysAgo *int     `toml:"last_interaction_days_ago"`
	InteractionCount       int      `toml:"interaction_count"`
}

type interactionEntry struct {
	ID            string `toml:"id"`
	OwnerID       string `toml:"owner_id"`
	TeamID        string `toml:"team_id"`
	ContactID     string `toml:"contact_id"`
	ChannelID     string `toml:"channel_id"`
	ChannelType   string `toml:"channel_type"`
	Direction     string `toml:"direction"`
	Text          string `toml:"text"`
	DaysAgo       int    `toml:"days_ago"`
	ReactionCount int    `toml:"reaction_count"`
	ThreadCount   int    `toml:"thread_count"`
}

type channelEntry struct {
	ID        string   `toml:"id"`
	Name      string   `toml:"name"`
	IsPrivate bool     `toml:"is_private"`
	Members   []string `toml:"members"`
}

type file struct {
	Users         []userEntry         `toml:"users"`
	Relationships []relationshipEntry `toml:"relationships"`
	Interactions  []interactionEntry  `toml:"interactions"`
	Channels      []channelEntry      `toml:"channels"`
}

// Demo returns the built-in demo data with timestamps relative to now
func Demo(now time.Time) (*model.Seed, error) {
	return Parse(demoTOML, now)
}

// LoadFile reads a seed file in the same format as the built-in demo data
func LoadFile(path string, now time.Time) (*model.Seed, error) {
	// #nosec G304 - path is provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed file", goerr.V("path", path))
	}

	s, err := Parse(data, now)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load seed file", goerr.V("path", path))
	}
	return s, nil
}

// Parse decodes and validates a TOML seed document
func Parse(data []byte, now time.Time) (*model.Seed, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, goerr.Wrap(err, "failed to parse seed TOML")
	}

	now = now.UTC()
	s := &model.Seed{
		Users:         make([]*model.User, 0, len(f.Users)),
		Relationships: make([]*model.Relationship, 0, len(f.Relationships)),
		Interactions:  make([]*model.Interaction, 0, len(f.Interactions)),
		Channels:      make([]*model.Channel, 0, len(f.Channels)),
	}

	userIDs := make(map[string]struct{}, len(f.Users))
	for _, e := range f.Users {
		if e.ID == "" {
			return nil, goerr.New("seed user id is required", goerr.V("email", e.Email))
		}
		if _, dup := userIDs[e.ID]; dup {
			return nil, goerr.New("duplicate seed user id", goerr.V("id", e.ID))
		}
		userIDs[e.ID] = struct{}{}
		s.Users = append(s.Users, e.toModel(now))
	}

	channels := make(map[string]*model.Channel, len(f.Channels))
	for _, e := range f.Channels {
		ch := &model.Channel{ID: e.ID, Name: e.Name, IsPrivate: e.IsPrivate}
		for _, m := range e.Members {
			ch.Members = append(ch.Members, model.UserID(m))
		}
		channels[e.ID] = ch
		s.Channels = append(s.Channels, ch)
	}

	for i, e := range f.Relationships {
		r, err := e.toModel(now, channels)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid seed relationship", goerr.V("index", i))
		}
		s.Relationships = append(s.Relationships, r)
	}

	messageIDs := make(map[string]struct{}, len(f.Interactions))
	for i, e := range f.Interactions {
		x, err := e.toModel(now)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid seed interaction", goerr.V("index", i))
		}
		if _, dup := messageIDs[x.ID]; dup {
			return nil, goerr.New("duplicate seed interaction id", goerr.V("id", x.ID))
		}
		messageIDs[x.ID] = struct{}{}
		s.Interactions = append(s.Interactions, x)
	}

	return s, nil
}

func (e *userEntry) toModel(now time.Time) *model.User {
	return &model.User{
		ID:          model.UserID(e.ID),
		TeamID:      model.TeamID(e.TeamID),
		Email:       e.Email,
		DisplayName: e.DisplayName,
		RealName:    e.RealName,
		Profile: model.UserProfile{
			Title:       e.Profile.Title,
			Department:  e.Profile.Department,
			Interests:   e.Profile.Interests,
			Status:      e.Profile.Status,
			StatusText:  e.Profile.StatusText,
			StatusEmoji: e.Profile.StatusEmoji,
			Phone:       e.Profile.Phone,
			Skype:       e.Profile.Skype,
		},
		Avatar:    e.Avatar,
		IsAdmin:   e.IsAdmin,
		IsOwner:   e.IsOwner,
		IsBot:     e.IsBot,
		IsDeleted: e.IsDeleted,
		Timezone:  e.Timezone,
		Locale:    e.Locale,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// relationshipID derives a stable id so repeated resets produce the same records
func relationshipID(ownerID, contactID string) model.RelationshipID {
	return model.RelationshipID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(ownerID+":"+contactID)).String())
}

func (e *relationshipEntry) toModel(now time.Time, channels map[string]*model.Channel) (*model.Relationship, error) {
	relType, err := types.ParseRelationshipType(e.Type)
	if err != nil {
		return nil, err
	}
	addedVia, err := types.ParseAddedVia(e.AddedVia)
	if err != nil {
		return nil, err
	}

	r := model.NewRelationship(model.UserID(e.OwnerID), model.TeamID(e.TeamID), model.UserID(e.ContactID), relType, addedVia)
	r.ID = relationshipID(e.OwnerID, e.ContactID)
	r.CustomType = e.CustomType
	r.SourceChannel = e.SourceChannel
	r.Notes = e.Notes
	r.InteractionCount = e.InteractionCount
	r.AddedAt = now
	r.UpdatedAt = now
	if e.Tags != nil {
		r.Tags = e.Tags
	}
	if e.SharedInterests != nil {
		r.SharedInterests = e.SharedInterests
	}
	if e.LastInteractionDaysAgo != nil {
		t := now.Add(-time.Duration(*e.LastInteractionDaysAgo) * day)
		r.LastInteraction = &t
	}

	for _, id := range e.SharedChannels {
		ch, ok := channels[id]
		if !ok {
			return nil, goerr.New("unknown shared channel", goerr.V("channel_id", id))
		}
		r.SharedChannels = append(r.SharedChannels, model.SharedChannel{
			ChannelID:   ch.ID,
			ChannelName: ch.Name,
			IsPrivate:   ch.IsPrivate,
		})
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (e *interactionEntry) toModel(now time.Time) (*model.Interaction, error) {
	if e.ID == "" {
		return nil, goerr.New("interaction id is required")
	}
	channelType, err := types.ParseChannelType(e.ChannelType)
	if err != nil {
		return nil, err
	}
	direction := types.MessageDirection(e.Direction)
	if !direction.IsValid() {
		return nil, goerr.New("invalid message direction", goerr.V("direction", e.Direction))
	}

	return &model.Interaction{
		ID:            e.ID,
		OwnerID:       model.UserID(e.OwnerID),
		TeamID:        model.TeamID(e.TeamID),
		ContactID:     model.UserID(e.ContactID),
		ChannelID:     e.ChannelID,
		ChannelType:   channelType,
		Direction:     direction,
		Text:          model.TruncateText(e.Text),
		Timestamp:     now.Add(-time.Duration(e.DaysAgo) * day),
		ReactionCount: e.ReactionCount,
		ThreadCount:   e.ThreadCount,
		CreatedAt:     now,
	}, nil
}
