package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blastroyale/partysync/internal/cache"
	"github.com/blastroyale/partysync/internal/directory"
	"github.com/blastroyale/partysync/internal/model"
	"github.com/blastroyale/partysync/internal/repository"
)

// Notifier fans a change ping out to every client subscribed to a group. The
// ping carries no payload; clients re-fetch the snapshot.
type Notifier interface {
	GroupChanged(groupID string)
}

// DirectoryService implements the group-directory semantics: membership,
// shared properties, ownership migration, rejoin prevention and the change
// number bumped on every mutation.
type DirectoryService struct {
	repo     repository.GroupRepo
	cache    cache.GroupCache
	notifier Notifier
}

// NewDirectoryService creates a new directory service.
func NewDirectoryService(repo repository.GroupRepo, groupCache cache.GroupCache) *DirectoryService {
	return &DirectoryService{
		repo:  repo,
		cache: groupCache,
	}
}

// SetNotifier injects the push fan-out (the WebSocket hub implements Notifier).
func (s *DirectoryService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateGroup creates a group and returns its id.
func (s *DirectoryService) CreateGroup(ctx context.Context, req directory.CreateGroupRequest) (string, error) {
	if req.OwnerID == "" {
		return "", fmt.Errorf("owner id is required")
	}
	if req.MaxMembers <= 0 {
		return "", fmt.Errorf("max members must be positive")
	}
	if len(req.Members) == 0 {
		req.Members = []model.GroupMember{{ID: req.OwnerID}}
	}
	owned := false
	for _, m := range req.Members {
		if m.ID == req.OwnerID {
			owned = true
			break
		}
	}
	if !owned {
		return "", fmt.Errorf("owner must be a member")
	}

	group := &model.Group{
		ID:               primitive.NewObjectID().Hex(),
		OwnerID:          req.OwnerID,
		MaxMembers:       req.MaxMembers,
		SearchAttributes: req.SearchAttributes,
		Properties:       req.Properties,
		Members:          req.Members,
		ChangeNumber:     1,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, group); err != nil {
		return "", fmt.Errorf("create group: %w", err)
	}
	if err := s.cache.Set(ctx, group); err != nil {
		log.Printf("cache group %s: %v", group.ID, err)
	}
	return group.ID, nil
}

// FindGroups returns summaries of groups matching every filter entry.
func (s *DirectoryService) FindGroups(ctx context.Context, filter map[string]string) ([]model.GroupSummary, error) {
	if len(filter) == 0 {
		return nil, fmt.Errorf("at least one search attribute is required")
	}
	groups, err := s.repo.FindByAttributes(ctx, filter)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.GroupSummary, 0, len(groups))
	for _, g := range groups {
		summaries = append(summaries, g.Summary())
	}
	return summaries, nil
}

// JoinGroup adds a member to a group.
func (s *DirectoryService) JoinGroup(ctx context.Context, req directory.JoinGroupRequest) (string, error) {
	if req.MemberID == "" {
		return "", fmt.Errorf("member id is required")
	}
	group, err := s.load(ctx, req.GroupID)
	if err != nil {
		return "", err
	}
	if group == nil {
		return "", directory.NewError(directory.CodeGroupNotFound, "group %s not found", req.GroupID)
	}
	if group.IsBanned(req.MemberID) {
		return "", directory.NewError(directory.CodeBanned, "member %s was removed and cannot rejoin", req.MemberID)
	}
	if group.HasMember(req.MemberID) {
		return "", directory.NewError(directory.CodeAlreadyJoined, "member %s is already in the group", req.MemberID)
	}
	if len(group.Members) >= group.MaxMembers {
		return "", directory.NewError(directory.CodeGroupFull, "group %s is full", req.GroupID)
	}

	group.Members = append(group.Members, model.GroupMember{
		ID:         req.MemberID,
		Properties: req.MemberProperties,
	})
	if err := s.commit(ctx, group); err != nil {
		return "", err
	}
	return group.ID, nil
}

// GetGroup returns a full snapshot. Only members may read a group.
func (s *DirectoryService) GetGroup(ctx context.Context, groupID, memberID string) (*model.Group, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, directory.NewError(directory.CodeGroupNotFound, "group %s not found", groupID)
	}
	if !group.HasMember(memberID) {
		return nil, directory.NewError(directory.CodeNotSubscribed, "member %s is not in group %s", memberID, groupID)
	}
	return group, nil
}

// UpdateGroup applies ownership, shared-property and member-property mutations
// in one change-number bump.
func (s *DirectoryService) UpdateGroup(ctx context.Context, req directory.UpdateGroupRequest) error {
	group, err := s.load(ctx, req.GroupID)
	if err != nil {
		return err
	}
	if group == nil {
		return directory.NewError(directory.CodeGroupNotFound, "group %s not found", req.GroupID)
	}

	if req.NewOwnerID != "" {
		if !group.HasMember(req.NewOwnerID) {
			return directory.NewError(directory.CodeMemberNotFound, "member %s is not in group %s", req.NewOwnerID, req.GroupID)
		}
		group.OwnerID = req.NewOwnerID
	}

	if len(req.PropertiesToSet) > 0 && group.Properties == nil {
		group.Properties = make(map[string]string, len(req.PropertiesToSet))
	}
	for k, v := range req.PropertiesToSet {
		group.Properties[k] = v
	}
	for _, k := range req.PropertiesToDelete {
		delete(group.Properties, k)
	}

	if req.MemberID != "" {
		member := group.Member(req.MemberID)
		if member == nil {
			return directory.NewError(directory.CodeMemberNotInGroup, "member %s is not in group %s", req.MemberID, req.GroupID)
		}
		if member.Properties == nil {
			member.Properties = make(map[string]string, len(req.MemberPropertiesToSet))
		}
		for k, v := range req.MemberPropertiesToSet {
			member.Properties[k] = v
		}
	}

	return s.commit(ctx, group)
}

// RemoveMember removes a member, optionally adding them to the ban list so
// the same join code no longer works for them.
func (s *DirectoryService) RemoveMember(ctx context.Context, groupID, memberID string, preventRejoin bool) error {
	return s.remove(ctx, groupID, memberID, preventRejoin)
}

// LeaveGroup removes the calling member. The last member leaving disbands the
// group; an owner leaving migrates ownership to the longest-standing member.
func (s *DirectoryService) LeaveGroup(ctx context.Context, groupID, memberID string) error {
	return s.remove(ctx, groupID, memberID, false)
}

func (s *DirectoryService) remove(ctx context.Context, groupID, memberID string, preventRejoin bool) error {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return directory.NewError(directory.CodeGroupNotFound, "group %s not found", groupID)
	}

	idx := -1
	for i := range group.Members {
		if group.Members[i].ID == memberID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return directory.NewError(directory.CodeMemberNotInGroup, "member %s is not in group %s", memberID, groupID)
	}

	group.Members = append(group.Members[:idx], group.Members[idx+1:]...)
	if preventRejoin {
		group.Banned = append(group.Banned, memberID)
	}

	if len(group.Members) == 0 {
		return s.disband(ctx, group)
	}
	if group.OwnerID == memberID {
		// Members are stored in join order, so the head is the
		// longest-standing member.
		group.OwnerID = group.Members[0].ID
	}
	return s.commit(ctx, group)
}

func (s *DirectoryService) disband(ctx context.Context, group *model.Group) error {
	if err := s.repo.Delete(ctx, group.ID); err != nil {
		return fmt.Errorf("delete group %s: %w", group.ID, err)
	}
	if err := s.cache.Delete(ctx, group.ID); err != nil {
		log.Printf("evict group %s: %v", group.ID, err)
	}
	if s.notifier != nil {
		s.notifier.GroupChanged(group.ID)
	}
	return nil
}

// load reads through the cache; a miss falls back to MongoDB and repopulates.
func (s *DirectoryService) load(ctx context.Context, groupID string) (*model.Group, error) {
	group, err := s.cache.Get(ctx, groupID)
	if err != nil {
		log.Printf("cache read group %s: %v", groupID, err)
	}
	if group != nil {
		return group, nil
	}

	group, err = s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group != nil {
		if err := s.cache.Set(ctx, group); err != nil {
			log.Printf("cache group %s: %v", groupID, err)
		}
	}
	return group, nil
}

// commit bumps the change number, persists the group and pings subscribers.
func (s *DirectoryService) commit(ctx context.Context, group *model.Group) error {
	group.ChangeNumber++
	if err := s.repo.Update(ctx, group); err != nil {
		return fmt.Errorf("update group %s: %w", group.ID, err)
	}
	if err := s.cache.Set(ctx, group); err != nil {
		log.Printf("cache group %s: %v", group.ID, err)
	}
	if s.notifier != nil {
		s.notifier.GroupChanged(group.ID)
	}
	return nil
}
