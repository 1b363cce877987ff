package model

import "slices"

// Channel is a workspace channel with its member list
type Channel struct {
	ID        string
	Name      string
	IsPrivate bool
	Members   []UserID
}

// HasMember reports whether id is a member of the channel
func (c *Channel) HasMember(id UserID) bool {
	return slices.Contains(c.Members, id)
}

// SharedChannels returns the channels present in both a and b, in the order of a
func SharedChannels(a, b []*Channel) []SharedChannel {
	ids := make(map[string]struct{}, len(b))
	for _, ch := range b {
		ids[ch.ID] = struct{}{}
	}

	result := []SharedChannel{}
	for _, ch := range a {
		if _, ok := ids[ch.ID]; !ok {
			continue
		}
		result = append(result, SharedChannel{
			ChannelID:   ch.ID,
			ChannelName: ch.Name,
			IsPrivate:   ch.IsPrivate,
		})
	}
	return result
}
