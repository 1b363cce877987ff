package types

import "github.com/m-mizutani/goerr/v2"

// RelationshipType classifies how the owner knows the contact
type RelationshipType string

const (
	RelationshipTypeTeamMember   RelationshipType = "team_member"
	RelationshipTypeDirectReport RelationshipType = "direct_report"
	RelationshipTypeManager      RelationshipType = "manager"
	RelationshipTypeColleague    RelationshipType = "colleague"
	RelationshipTypeMentor       RelationshipType = "mentor"
	RelationshipTypeMentee       RelationshipType = "mentee"
	RelationshipTypeFriend       RelationshipType = "friend"
	RelationshipTypeCustom       RelationshipType = "custom"
)

// AllRelationshipTypes returns all valid relationship types
func AllRelationshipTypes() []RelationshipType {
	return []RelationshipType{
		RelationshipTypeTeamMember,
		RelationshipTypeDirectReport,
		RelationshipTypeManager,
		RelationshipTypeColleague,
		RelationshipTypeMentor,
		RelationshipTypeMentee,
		RelationshipTypeFriend,
		RelationshipTypeCustom,
	}
}

// IsValid checks if the relationship type is valid
func (t RelationshipType) IsValid() bool {
	switch t {
	case RelationshipTypeTeamMember,
		RelationshipTypeDirectReport,
		RelationshipTypeManager,
		RelationshipTypeColleague,
		RelationshipTypeMentor,
		RelationshipTypeMentee,
		RelationshipTypeFriend,
		RelationshipTypeCustom:
		return true
	default:
		return false
	}
}

func (t RelationshipType) String() string {
	return string(t)
}

// ParseRelationshipType parses a string into a RelationshipType
func ParseRelationshipType(s string) (RelationshipType, error) {
	t := RelationshipType(s)
	if !t.IsValid() {
		return "", goerr.New("invalid relationship type", goerr.V("type", s))
	}
	return t, nil
}

// AddedVia records which import path created a relationship
type AddedVia string

const (
	AddedViaManual         AddedVia = "manual"
	AddedViaTeamImport     AddedVia = "team_import"
	AddedViaDirectReports  AddedVia = "direct_reports"
	AddedViaRecentDMs      AddedVia = "recent_dms"
	AddedViaChannelMembers AddedVia = "channel_members"
)

// IsValid checks if the origin is valid
func (v AddedVia) IsValid() bool {
	switch v {
	case AddedViaManual,
		AddedViaTeamImport,
		AddedViaDirectReports,
		AddedViaRecentDMs,
		AddedViaChannelMembers:
		return true
	default:
		return false
	}
}

func (v AddedVia) String() string {
	return string(v)
}

// ParseAddedVia parses a string into an AddedVia
func ParseAddedVia(s string) (AddedVia, error) {
	v := AddedVia(s)
	if !v.IsValid() {
		return "", goerr.New("invalid added_via value", goerr.V("added_via", s))
	}
	return v, nil
}
