package party

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/blastroyale/partysync/internal/directory"
	"github.com/blastroyale/partysync/internal/model"
)

// CreateParty creates a remote group with the local player as sole member and
// owner, generates the join code, subscribes to push and publishes the local
// state. Local state is untouched on failure.
func (c *Coordinator) CreateParty(ctx context.Context) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	c.setOperationInProgress(true)
	defer c.setOperationInProgress(false)

	c.mu.Lock()
	if c.hasParty.Value() {
		c.mu.Unlock()
		return newError(AlreadyInParty)
	}
	hooks := make([]CreateHook, 0, len(c.createHooks))
	for _, h := range c.createHooks {
		hooks = append(hooks, h.fn)
	}
	c.mu.Unlock()

	code, err := GenerateCode()
	if err != nil {
		return &Error{Kind: Unknown, cause: err}
	}

	searchAttrs := map[string]string{
		AttrCode:   code,
		AttrServer: c.cfg.ServerRegion,
		AttrCommit: c.commitTag(),
	}
	// Ready counter starts at 1 so the zero-value key never matches.
	props := map[string]string{PropReadyVersion: "1"}
	for _, hook := range hooks {
		hook(searchAttrs, props)
	}

	groupID, err := c.client.CreateGroup(ctx, directory.CreateGroupRequest{
		OwnerID:          c.cfg.LocalMemberID,
		MaxMembers:       c.cfg.MaxMembers,
		SearchAttributes: searchAttrs,
		Properties:       props,
		Members:          []model.GroupMember{c.localGroupMember()},
	})
	if err != nil {
		return translateError(err)
	}

	c.mu.Lock()
	c.groupID = groupID
	c.mu.Unlock()

	if err := c.fetchAndReconcile(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	gone := c.groupID == ""
	c.mu.Unlock()
	if gone {
		// Removed again between create and fetch.
		return nil
	}

	if err := c.subscribe(ctx, groupID); err != nil {
		// Without push the party would silently go stale. Back out so the
		// player can retry.
		if lerr := c.client.LeaveGroup(ctx, groupID, c.cfg.LocalMemberID); lerr != nil {
			log.Printf("party: leave after failed subscribe: %v", lerr)
		}
		c.mu.Lock()
		c.resetStateLocked()
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.partyCode.Set(code)
	c.hasParty.Set(true)
	if !c.partyReady.Value() {
		c.partyReady.Set(true)
	}
	c.mu.Unlock()
	return nil
}

// JoinParty joins the party identified by a shared code. The code is
// validated locally first; a malformed code fails without a directory call.
func (c *Coordinator) JoinParty(ctx context.Context, code string) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	c.setOperationInProgress(true)
	defer c.setOperationInProgress(false)

	c.mu.Lock()
	if c.hasParty.Value() {
		c.mu.Unlock()
		return newError(AlreadyInParty)
	}
	c.mu.Unlock()

	normalized := NormalizeCode(code)
	if !ValidCode(normalized) {
		return newError(PartyNotFound)
	}

	summaries, err := c.client.FindGroups(ctx, map[string]string{AttrCode: normalized})
	if err != nil {
		return translateError(err)
	}
	if len(summaries) == 0 {
		return newError(PartyNotFound)
	}
	// Codes are not guaranteed unique; first match wins on collision.
	summary := summaries[0]

	if server, ok := summary.SearchAttributes[AttrServer]; ok && server != c.cfg.ServerRegion {
		return newError(PartyUsingOtherServer)
	}
	if c.cfg.CommitVersionLock {
		if commit, ok := summary.SearchAttributes[AttrCommit]; ok && commit != c.commitTag() {
			return newError(DifferentGameVersion)
		}
	}

	local := c.localGroupMember()
	groupID, err := c.client.JoinGroup(ctx, directory.JoinGroupRequest{
		GroupID:          summary.ID,
		MemberID:         local.ID,
		MemberProperties: local.Properties,
	})
	if err != nil {
		// A client retrying a join after a transient disconnect may still
		// be a member remotely; treat that as success.
		var derr *directory.Error
		if !errors.As(err, &derr) || derr.Code != directory.CodeAlreadyJoined {
			return translateError(err)
		}
		groupID = summary.ID
	}

	c.mu.Lock()
	c.groupID = groupID
	c.mu.Unlock()

	if err := c.fetchAndReconcile(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	gone := c.groupID == ""
	c.mu.Unlock()
	if gone {
		return newError(PartyNotFound)
	}

	if err := c.subscribe(ctx, groupID); err != nil {
		if lerr := c.client.LeaveGroup(ctx, groupID, c.cfg.LocalMemberID); lerr != nil {
			log.Printf("party: leave after failed subscribe: %v", lerr)
		}
		c.mu.Lock()
		c.resetStateLocked()
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.hasParty.Set(true)
	c.partyCode.Set(normalized)
	c.mu.Unlock()
	return nil
}

// SetLobbyProperty writes a shared lobby property. Leader only. When
// bumpReadyVersion is set the ready counter is incremented in the same remote
// write, invalidating every member's ready signal without per-member writes.
func (c *Coordinator) SetLobbyProperty(ctx context.Context, key, value string, bumpReadyVersion bool) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	c.setOperationInProgress(true)
	defer c.setOperationInProgress(false)

	c.mu.Lock()
	if !c.hasParty.Value() {
		c.mu.Unlock()
		return newError(NoParty)
	}
	lm := c.localMemberLocked()
	if lm == nil || !lm.Leader {
		c.mu.Unlock()
		return newError(NoPermission)
	}
	props := map[string]string{key: value}
	if bumpReadyVersion {
		counter, _ := c.lobbyProperties.Get(PropReadyVersion)
		n, _ := strconv.Atoi(counter)
		props[PropReadyVersion] = strconv.Itoa(n + 1)
	}
	groupID := c.groupID
	c.mu.Unlock()

	if err := c.client.UpdateGroup(ctx, directory.UpdateGroupRequest{
		GroupID:         groupID,
		PropertiesToSet: props,
	}); err != nil {
		return translateError(err)
	}
	return nil
}

// DeleteLobbyProperty removes a shared lobby property. Leader only.
func (c *Coordinator) DeleteLobbyProperty(ctx context.Context, key string) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	c.setOperationInProgress(true)
	defer c.setOperationInProgress(false)

	c.mu.Lock()
	if !c.hasParty.Value() {
		c.mu.Unlock()
		return newError(NoParty)
	}
	lm := c.localMemberLocked()
	if lm == nil || !lm.Leader {
		c.mu.Unlock()
		return newError(NoPermission)
	}
	groupID := c.groupID
	c.mu.Unlock()

	if err := c.client.UpdateGroup(ctx, directory.UpdateGroupRequest{
		GroupID:            groupID,
		PropertiesToDelete: []string{key},
	}); err != nil {
		return translateError(err)
	}
	return nil
}

// SetMemberProperty updates one property of the local member's remote record.
// On success the local copy is merged immediately so self-edits feel instant;
// other members' edits arrive through reconciliation.
func (c *Coordinator) SetMemberProperty(ctx context.Context, key, value string) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	c.setOperationInProgress(true)
	defer c.setOperationInProgress(false)

	c.mu.Lock()
	if !c.hasParty.Value() {
		c.mu.Unlock()
		return newError(NoParty)
	}
	if c.localMemberLocked() == nil {
		c.mu.Unlock()
		return newError(NoPermission)
	}
	groupID := c.groupID
	c.mu.Unlock()

	props := map[string]string{key: value}
	if err := c.client.UpdateGroup(ctx, directory.UpdateGroupRequest{
		GroupID:               groupID,
		MemberID:              c.cfg.LocalMemberID,
		MemberPropertiesToSet: props,
	}); err != nil {
		return translateError(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.members.IndexFunc(func(m *Member) bool { return m.Local }); i >= 0 {
		if c.members.At(i).mergeProperties(props) {
			c.members.InvokeUpdate(i)
		}
	}
	return nil
}

// Kick removes a member from the party, preventing rejoin. Leader only.
func (c *Coordinator) Kick(ctx context.Context, memberID string) error {
	return c.kick(ctx, memberID, true)
}

func (c *Coordinator) kick(ctx context.Context, memberID string, preventRejoin bool) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	c.setOperationInProgress(true)
	defer c.setOperationInProgress(false)

	c.mu.Lock()
	if !c.hasParty.Value() {
		c.mu.Unlock()
		return newError(NoParty)
	}
	lm := c.localMemberLocked()
	if lm == nil || !lm.Leader {
		c.mu.Unlock()
		return newError(NoPermission)
	}
	groupID := c.groupID
	c.mu.Unlock()

	if err := c.client.RemoveMember(ctx, groupID, memberID, preventRejoin); err != nil {
		return translateError(err)
	}
	return nil
}

// Promote transfers party ownership to another member. Leader only.
func (c *Coordinator) Promote(ctx context.Context, memberID string) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	c.setOperationInProgress(true)
	defer c.setOperationInProgress(false)

	c.mu.Lock()
	if !c.hasParty.Value() {
		c.mu.Unlock()
		return newError(NoParty)
	}
	lm := c.localMemberLocked()
	if lm == nil || !lm.Leader {
		c.mu.Unlock()
		return newError(NoPermission)
	}
	groupID := c.groupID
	c.mu.Unlock()

	if err := c.client.UpdateGroup(ctx, directory.UpdateGroupRequest{
		GroupID:    groupID,
		NewOwnerID: memberID,
	}); err != nil {
		return translateError(err)
	}
	return nil
}

// LeaveParty leaves the current party. Faults meaning the party or our
// membership is already gone count as success: the caller's intent was
// achieved either way.
func (c *Coordinator) LeaveParty(ctx context.Context) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	c.setOperationInProgress(true)
	defer c.setOperationInProgress(false)

	c.mu.Lock()
	if !c.hasParty.Value() {
		c.mu.Unlock()
		return newError(NoParty)
	}
	groupID := c.groupID
	sub := c.subscription
	c.subscription = nil
	c.mu.Unlock()

	// Unsubscribe before the remote leave so our own departure is not
	// processed as a kick notification.
	if sub != nil {
		sub.Close()
	}

	if err := c.client.LeaveGroup(ctx, groupID, c.cfg.LocalMemberID); err != nil {
		perr := translateError(err)
		if !isPartyGone(perr.Kind) {
			return perr
		}
	}

	c.mu.Lock()
	c.resetStateLocked()
	c.mu.Unlock()
	return nil
}
