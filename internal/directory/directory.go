// Package directory defines the boundary to the remote group-directory
// service: the operations the party coordinator consumes and the push channel
// that signals remote changes. Implementations live in subpackages; tests use
// in-memory fakes.
package directory

import (
	"context"

	"github.com/blastroyale/partysync/internal/model"
)

// CreateGroupRequest creates a group with the caller as sole member and owner.
type CreateGroupRequest struct {
	OwnerID          string            `json:"ownerId"`
	MaxMembers       int               `json:"maxMembers"`
	SearchAttributes map[string]string `json:"searchAttributes,omitempty"`
	Properties       map[string]string `json:"properties,omitempty"`
	Members          []model.GroupMember `json:"members"`
}

// JoinGroupRequest adds a member to an existing group.
type JoinGroupRequest struct {
	GroupID          string            `json:"groupId"`
	MemberID         string            `json:"memberId"`
	MemberProperties map[string]string `json:"memberProperties,omitempty"`
}

// UpdateGroupRequest mutates group state. All fields besides GroupID are
// optional; a single request can transfer ownership, write or delete shared
// properties and write one member's properties.
type UpdateGroupRequest struct {
	GroupID               string            `json:"groupId"`
	NewOwnerID            string            `json:"newOwnerId,omitempty"`
	PropertiesToSet       map[string]string `json:"propertiesToSet,omitempty"`
	PropertiesToDelete    []string          `json:"propertiesToDelete,omitempty"`
	MemberID              string            `json:"memberId,omitempty"`
	MemberPropertiesToSet map[string]string `json:"memberPropertiesToSet,omitempty"`
}

// Client is the group-directory API consumed by the party coordinator.
type Client interface {
	// CreateGroup creates a group and returns its directory-assigned id.
	CreateGroup(ctx context.Context, req CreateGroupRequest) (string, error)

	// FindGroups returns summaries of groups whose search attributes equal
	// every entry of the filter.
	FindGroups(ctx context.Context, filter map[string]string) ([]model.GroupSummary, error)

	// JoinGroup adds the member to the group and returns the group id.
	JoinGroup(ctx context.Context, req JoinGroupRequest) (string, error)

	// GetGroup fetches a full snapshot. The caller must be a member.
	GetGroup(ctx context.Context, groupID, memberID string) (*model.Group, error)

	// UpdateGroup applies the requested mutations atomically.
	UpdateGroup(ctx context.Context, req UpdateGroupRequest) error

	// RemoveMember removes a member, optionally preventing them from
	// rejoining the group.
	RemoveMember(ctx context.Context, groupID, memberID string, preventRejoin bool) error

	// LeaveGroup removes the calling member. Leaving as the last member
	// disbands the group.
	LeaveGroup(ctx context.Context, groupID, memberID string) error
}

// Subscription is one active push registration for a group.
type Subscription interface {
	// Close stops delivering change pings for the group.
	Close()
}

// PushChannel delivers opaque "something changed" pings for subscribed
// groups. A ping never says what changed; subscribers re-fetch the snapshot.
type PushChannel interface {
	// Subscribe registers onChange to be called whenever the group changes.
	Subscribe(ctx context.Context, groupID string, onChange func()) (Subscription, error)

	// OnReconnect registers fn to be called after the underlying transport
	// drops and reconnects. Subscribers resync and resubscribe from it.
	OnReconnect(fn func())
}
