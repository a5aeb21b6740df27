package model

import "time"

// GroupMember is one participant record as stored by the group directory.
type GroupMember struct {
	ID         string            `json:"id" bson:"id"`
	Properties map[string]string `json:"properties,omitempty" bson:"properties,omitempty"`
}

// Group is a full point-in-time snapshot of a directory group: its members,
// shared properties and the change number bumped on every mutation.
type Group struct {
	ID               string            `json:"id" bson:"id"`
	OwnerID          string            `json:"ownerId" bson:"ownerId"`
	MaxMembers       int               `json:"maxMembers" bson:"maxMembers"`
	SearchAttributes map[string]string `json:"searchAttributes,omitempty" bson:"searchAttributes,omitempty"`
	Properties       map[string]string `json:"properties,omitempty" bson:"properties,omitempty"`
	Members          []GroupMember     `json:"members" bson:"members"`
	Banned           []string          `json:"banned,omitempty" bson:"banned,omitempty"`
	ChangeNumber     uint64            `json:"changeNumber" bson:"changeNumber"`
	CreatedAt        time.Time         `json:"createdAt" bson:"createdAt"`
}

// GroupSummary is the search-result shape returned by a directory lookup.
type GroupSummary struct {
	ID               string            `json:"id" bson:"id"`
	OwnerID          string            `json:"ownerId" bson:"ownerId"`
	SearchAttributes map[string]string `json:"searchAttributes,omitempty" bson:"searchAttributes,omitempty"`
	MemberCount      int               `json:"memberCount" bson:"memberCount"`
	MaxMembers       int               `json:"maxMembers" bson:"maxMembers"`
}

// Member returns the member with the given id, or nil.
func (g *Group) Member(id string) *GroupMember {
	for i := range g.Members {
		if g.Members[i].ID == id {
			return &g.Members[i]
		}
	}
	return nil
}

// HasMember reports whether id is currently a member of the group.
func (g *Group) HasMember(id string) bool {
	return g.Member(id) != nil
}

// IsBanned reports whether id was removed with rejoin prevention.
func (g *Group) IsBanned(id string) bool {
	for _, b := range g.Banned {
		if b == id {
			return true
		}
	}
	return false
}

// Summary converts the group to its search-result shape.
func (g *Group) Summary() GroupSummary {
	return GroupSummary{
		ID:               g.ID,
		OwnerID:          g.OwnerID,
		SearchAttributes: g.SearchAttributes,
		MemberCount:      len(g.Members),
		MaxMembers:       g.MaxMembers,
	}
}
