package http

import (
	"time"

	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/usecase"
)

type profileResponse struct {
	Title       string   `json:"title"`
	Department  string   `json:"department"`
	Interests   []string `json:"interests"`
	Status      string   `json:"status"`
	StatusText  string   `json:"statusText"`
	StatusEmoji string   `json:"statusEmoji"`
	Phone       string   `json:"phone"`
	Skype       string   `json:"skype"`
}

type userResponse struct {
	SlackUserID string          `json:"slackUserId"`
	SlackTeamID string          `json:"slackTeamId,omitempty"`
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName"`
	RealName    string          `json:"realName"`
	Profile     profileResponse `json:"profile"`
	Avatar      string          `json:"avatar"`
	IsAdmin     bool            `json:"isAdmin"`
	IsOwner     bool            `json:"isOwner"`
}

func toUserResponse(u *model.User) *userResponse {
	if u == nil {
		return nil
	}
	interests := u.Profile.Interests
	if interests == nil {
		interests = []string{}
	}
	return &userResponse{
		SlackUserID: u.ID.String(),
		SlackTeamID: u.TeamID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		RealName:    u.RealName,
		Profile: profileResponse{
			Title:       u.Profile.Title,
			Department:  u.Profile.Department,
			Interests:   interests,
			Status:      u.Profile.Status,
			StatusText:  u.Profile.StatusText,
			StatusEmoji: u.Profile.StatusEmoji,
			Phone:       u.Profile.Phone,
			Skype:       u.Profile.Skype,
		},
		Avatar:  u.Avatar,
		IsAdmin: u.IsAdmin,
		IsOwner: u.IsOwner,
	}
}

func toUserResponses(users []*model.User) []*userResponse {
	resp := make([]*userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	return resp
}

type sharedChannelResponse struct {
	ChannelID   string `json:"channelId"`
	ChannelName string `json:"channelName"`
	IsPrivate   bool   `json:"isPrivate"`
}

func toSharedChannels(channels []model.SharedChannel) []sharedChannelResponse {
	resp := make([]sharedChannelResponse, 0, len(channels))
	for _, ch := range channels {
		resp = append(resp, sharedChannelResponse(ch))
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type relationshipResponse struct {
	ID                     string                  `json:"id"`
	OwnerID                string                  `json:"userId"`
	TeamID                 string                  `json:"teamId"`
	ContactID              string                  `json:"contactId"`
	RelationshipType       string                  `json:"relationshipType"`
	CustomRelationshipType string                  `json:"customRelationshipType,omitempty"`
	AddedVia               string                  `json:"addedVia"`
	SourceChannel          string                  `json:"sourceChannel,omitempty"`
	LastInteraction        *time.Time              `json:"lastInteraction"`
	InteractionCount       int                     `json:"interactionCount"`
	SharedChannels         []sharedChannelResponse `json:"sharedChannels"`
	SharedInterests        []string                `json:"sharedInterests"`
	Notes                  string                  `json:"notes"`
	Tags                   []string                `json:"tags"`
	IsActive               bool                    `json:"isActive"`
	AddedAt                time.Time               `json:"addedAt"`
	UpdatedAt              time.Time               `json:"updatedAt"`
}

func toRelationshipResponse(r *model.Relationship) *relationshipResponse {
	if r == nil {
		return nil
	}
	return &relationshipResponse{
		ID:                     r.ID.String(),
		OwnerID:                r.OwnerID.String(),
		TeamID:                 r.TeamID.String(),
		ContactID:              r.ContactID.String(),
		RelationshipType:       r.Type.String(),
		CustomRelationshipType: r.CustomType,
		AddedVia:               string(r.AddedVia),
		SourceChannel:          r.SourceChannel,
		LastInteraction:        r.LastInteraction,
		InteractionCount:       r.InteractionCount,
		SharedChannels:         toSharedChannels(r.SharedChannels),
		SharedInterests:        nonNil(r.SharedInterests),
		Notes:                  r.Notes,
		Tags:                   nonNil(r.Tags),
		IsActive:               r.Active,
		AddedAt:                r.AddedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

// mapEntryResponse is a relationship with its contact. A dangling contact
// is rendered as null.
type mapEntryResponse struct {
	*relationshipResponse
	Contact *userResponse `json:"contact"`
}

func toMapEntry(r *model.RelationshipWithContact) *mapEntryResponse {
	return &mapEntryResponse{
		relationshipResponse: toRelationshipResponse(r.Relationship),
		Contact:              toUserResponse(r.Contact),
	}
}

type bulkErrorResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func toBulkErrors(errs []usecase.BulkError) []bulkErrorResponse {
	resp := make([]bulkErrorResponse, 0, len(errs))
	for _, e := range errs {
		resp = append(resp, bulkErrorResponse(e))
	}
	return resp
}

type bulkResponse struct {
	Added         int                     `json:"added"`
	Skipped       int                     `json:"skipped"`
	Relationships []*relationshipResponse `json:"relationships"`
	Errors        []bulkErrorResponse     `json:"errors"`
}

func toBulkResponse(r *usecase.BulkResult) *bulkResponse {
	rels := make([]*relationshipResponse, 0, len(r.Relationships))
	for _, rel := range r.Relationships {
		rels = append(rels, toRelationshipResponse(rel))
	}
	return &bulkResponse{
		Added:         r.Added,
		Skipped:       r.Skipped,
		Relationships: rels,
		Errors:        toBulkErrors(r.Errors),
	}
}

type contactRelationshipResponse struct {
	RelationshipType       string    `json:"relationshipType"`
	CustomRelationshipType string    `json:"customRelationshipType,omitempty"`
	Notes                  string    `json:"notes"`
	Tags                   []string  `json:"tags"`
	AddedVia               string    `json:"addedVia"`
	AddedAt                time.Time `json:"addedAt"`
}

type contactResponse struct {
	Contact          *userResponse                `json:"contact"`
	Relationship     *contactRelationshipResponse `json:"relationship"`
	LastInteraction  *time.Time                   `json:"lastInteraction"`
	InteractionCount int                          `json:"interactionCount"`
	SharedChannels   []sharedChannelResponse      `json:"sharedChannels"`
	SharedInterests  []string                     `json:"sharedInterests"`
}

func toContactResponse(p *usecase.ContactProfile) *contactResponse {
	resp := &contactResponse{
		Contact:          toUserResponse(p.Contact),
		LastInteraction:  p.LastInteraction,
		InteractionCount: p.InteractionCount,
		SharedChannels:   toSharedChannels(p.SharedChannels),
		SharedInterests:  nonNil(p.SharedInterests),
	}
	if r := p.Relationship; r != nil {
		resp.Relationship = &contactRelationshipResponse{
			RelationshipType:       r.Type.String(),
			CustomRelationshipType: r.CustomType,
			Notes:                  r.Notes,
			Tags:                   nonNil(r.Tags),
			AddedVia:               string(r.AddedVia),
			AddedAt:                r.AddedAt,
		}
	}
	return resp
}

type channelResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsPrivate   bool   `json:"isPrivate"`
	MemberCount int    `json:"memberCount"`
}

func toChannelResponses(channels []*model.Channel) []channelResponse {
	resp := make([]channelResponse, 0, len(channels))
	for _, ch := range channels {
		resp = append(resp, channelResponse{
			ID:          ch.ID,
			Name:        ch.Name,
			IsPrivate:   ch.IsPrivate,
			MemberCount: len(ch.Members),
		})
	}
	return resp
}

type syncUserResponse struct {
	Message string        `json:"message"`
	User    *userResponse `json:"user"`
}

type syncTeamResponse struct {
	Synced int                 `json:"synced"`
	Users  []string            `json:"users"`
	Errors []bulkErrorResponse `json:"errors"`
}

func toSyncTeamResponse(r *usecase.SyncResult) *syncTeamResponse {
	users := make([]string, 0, len(r.Users))
	for _, id := range r.Users {
		users = append(users, id.String())
	}
	return &syncTeamResponse{
		Synced: r.Synced,
		Users:  users,
		Errors: toBulkErrors(r.Errors),
	}
}

type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *userResponse `json:"user,omitempty"`
}

func toLoginResponse(r *usecase.LoginResult) *loginResponse {
	return &loginResponse{
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
		User:      toUserResponse(r.User),
	}
}

type resetResponse struct {
	Message       string `json:"message"`
	Users         int    `json:"users"`
	Relationships int    `json:"relationships"`
	Interactions  int    `json:"interactions"`
}
