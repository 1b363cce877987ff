package model

import (
	"slices"
	"time"
)

// UserID is the Slack user id. It is unique within a workspace.
type UserID string

// TeamID is the Slack workspace (team) id
type TeamID string

func (x UserID) String() string { return string(x) }
func (x TeamID) String() string { return string(x) }

// UserProfile holds the Slack profile fields the directory keeps
type UserProfile struct {
	Title       string
	Department  string
	Interests   []string
	Status      string
	StatusText  string
	StatusEmoji string
	Phone       string
	Skype       string
}

// User is a member of a Slack workspace. Users are never hard deleted;
// IsDeleted mirrors the Slack deactivation flag.
type User struct {
	ID          UserID
	TeamID      TeamID
	Email       string
	DisplayName string
	RealName    string
	Profile     UserProfile
	Avatar      string
	IsAdmin     bool
	IsOwner     bool
	IsBot       bool
	IsDeleted   bool
	Timezone    string
	Locale      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Name returns the display name, falling back to the real name
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.RealName
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Profile.Interests = slices.Clone(u.Profile.Interests)
	return &c
}

// UserPatch is a partial update of a User. Nil fields are left unchanged.
type UserPatch struct {
	TeamID      *TeamID
	Email       *string
	DisplayName *string
	RealName    *string
	Profile     *UserProfile
	Avatar      *string
	IsAdmin     *bool
	IsOwner     *bool
	IsBot       *bool
	IsDeleted   *bool
	Timezone    *string
	Locale      *string
}

// PatchFromUser builds a patch that overwrites every synced field with u's values
func PatchFromUser(u *User) UserPatch {
	profile := u.Profile
	profile.Interests = slices.Clone(u.Profile.Interests)
	return UserPatch{
		TeamID:      &u.TeamID,
		Email:       &u.Email,
		DisplayName: &u.DisplayName,
		RealName:    &u.RealName,
		Profile:     &profile,
		Avatar:      &u.Avatar,
		IsAdmin:     &u.IsAdmin,
		IsOwner:     &u.IsOwner,
		IsBot:       &u.IsBot,
		IsDeleted:   &u.IsDeleted,
		Timezone:    &u.Timezone,
		Locale:      &u.Locale,
	}
}

// Apply merges the patch into u
func (p UserPatch) Apply(u *User) {
	if p.TeamID != nil {
		u.TeamID = *p.TeamID
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.RealName != nil {
		u.RealName = *p.RealName
	}
	if p.Profile != nil {
		u.Profile = *p.Profile
		u.Profile.Interests = slices.Clone(p.Profile.Interests)
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	if p.IsOwner != nil {
		u.IsOwner = *p.IsOwner
	}
	if p.IsBot != nil {
		u.IsBot = *p.IsBot
	}
	if p.IsDeleted != nil {
		u.IsDeleted = *p.IsDeleted
	}
	if p.Timezone != nil {
		u.Timezone = *p.Timezone
	}
	if p.Locale != nil {
		u.Locale = *p.Locale
	}
}
