package interfaces

import (
	"strings"

	"github.com/secmon-lab/relmap/pkg/domain/model"
)

// Match reports whether u satisfies the query
func (q UserQuery) Match(u *model.User) bool {
	if q.ID != "" && u.ID == q.ID {
		return true
	}
	if q.Email != "" && u.Email == q.Email {
		return true
	}
	return false
}

// Match reports whether u satisfies the filter. Limit is not considered.
func (f UserFilter) Match(u *model.User) bool {
	if f.TeamID != "" && u.TeamID != f.TeamID {
		return false
	}
	if f.ExcludeDeleted && u.IsDeleted {
		return false
	}
	if f.Query == "" {
		return true
	}

	q := strings.ToLower(f.Query)
	for _, field := range []string{u.DisplayName, u.RealName, u.Email, u.Profile.Title, u.Profile.Department} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Match reports whether r satisfies the filter
func (f RelationshipFilter) Match(r *model.Relationship) bool {
	if f.OwnerID != "" && r.OwnerID != f.OwnerID {
		return false
	}
	if f.TeamID != "" && r.TeamID != f.TeamID {
		return false
	}
	if f.Active != nil && r.Active != *f.Active {
		return false
	}
	return true
}

// Match reports whether x satisfies the filter
func (f InteractionFilter) Match(x *model.Interaction) bool {
	if f.OwnerID != "" && x.OwnerID != f.OwnerID {
		return false
	}
	if f.ContactID != "" && x.ContactID != f.ContactID {
		return false
	}
	if f.ChannelType != "" && x.ChannelType != f.ChannelType {
		return false
	}
	if !f.Since.IsZero() && x.Timestamp.Before(f.Since) {
		return false
	}
	return true
}
