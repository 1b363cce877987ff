package slack

import (
	"strings"

	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/slack-go/slack"
)

// toUser maps a Slack user into the local profile. CreatedAt and UpdatedAt
// are left to the repository.
func toUser(u *slack.User, fields ProfileFields) *model.User {
	p := u.Profile

	displayName := p.DisplayName
	if displayName == "" {
		displayName = u.Name
	}
	realName := p.RealName
	if realName == "" {
		realName = u.RealName
	}
	if realName == "" {
		realName = u.Name
	}

	custom := p.Fields.ToMap()
	var department string
	if f, ok := custom[fields.Department]; ok {
		department = f.Value
	}
	interests := []string{}
	if f, ok := custom[fields.Interests]; ok {
		interests = splitInterests(f.Value)
	}

	return &model.User{
		ID:          model.UserID(u.ID),
		TeamID:      model.TeamID(u.TeamID),
		Email:       p.Email,
		DisplayName: displayName,
		RealName:    realName,
		Profile: model.UserProfile{
			Title:       p.Title,
			Department:  department,
			Interests:   interests,
			Status:      p.StatusText,
			StatusText:  p.StatusText,
			StatusEmoji: p.StatusEmoji,
			Phone:       p.Phone,
			Skype:       p.Skype,
		},
		Avatar:    p.Image192,
		IsAdmin:   u.IsAdmin,
		IsOwner:   u.IsOwner,
		IsBot:     u.IsBot,
		IsDeleted: u.Deleted,
		Timezone:  u.TZ,
		Locale:    u.Locale,
	}
}

func splitInterests(v string) []string {
	result := []string{}
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s)
		}
	}
	return result
}
