package model

import "slices"

// DemoUserID is the owner of the demo data set
const DemoUserID UserID = "U1234567890"

// Seed is a complete data set that a store can be reset to
type Seed struct {
	Users         []*User
	Relationships []*Relationship
	Interactions  []*Interaction
	Channels      []*Channel
}

// Clone returns a deep copy of the seed
func (s *Seed) Clone() *Seed {
	c := &Seed{
		Users:         make([]*User, len(s.Users)),
		Relationships: make([]*Relationship, len(s.Relationships)),
		Interactions:  make([]*Interaction, len(s.Interactions)),
		Channels:      make([]*Channel, len(s.Channels)),
	}
	for i, u := range s.Users {
		c.Users[i] = u.Clone()
	}
	for i, r := range s.Relationships {
		c.Relationships[i] = r.Clone()
	}
	for i, x := range s.Interactions {
		c.Interactions[i] = x.Clone()
	}
	for i, ch := range s.Channels {
		chCopy := *ch
		chCopy.Members = slices.Clone(ch.Members)
		c.Channels[i] = &chCopy
	}
	return c
}

// ResetResult reports how many records a reset wrote
type ResetResult struct {
	Users         int
	Relationships int
	Interactions  int
}
