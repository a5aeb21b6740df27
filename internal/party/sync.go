package party

import (
	"context"
	"log"

	"github.com/blastroyale/partysync/internal/model"
	"github.com/blastroyale/partysync/internal/observable"
)

// fetchAndReconcile pulls the full party snapshot and diffs it into local
// state. Faults meaning the party or our membership no longer exists are not
// errors here: they drive the implicit-kick path. This runs both inside
// mutating operations and from push pings; only the former hold the gate.
func (c *Coordinator) fetchAndReconcile(ctx context.Context) error {
	c.mu.Lock()
	groupID := c.groupID
	c.mu.Unlock()
	if groupID == "" {
		return nil
	}

	group, err := c.client.GetGroup(ctx, groupID, c.cfg.LocalMemberID)
	if err != nil {
		perr := translateError(err)
		if isPartyGone(perr.Kind) {
			c.localPlayerKicked()
			return nil
		}
		return perr
	}

	c.mu.Lock()
	if c.groupID != groupID {
		// Left or switched parties while the fetch was in flight.
		c.mu.Unlock()
		return nil
	}
	kicked := c.reconcileLocked(group)
	c.mu.Unlock()

	if kicked {
		c.localPlayerKicked()
	}
	return nil
}

// reconcileLocked diffs a fetched snapshot against local state: stale members
// and properties are removed, new ones added, changed ones updated. Unchanged
// entries fire no notification. Returns true when the local member is absent
// from the snapshot, which the caller reports as an implicit kick.
func (c *Coordinator) reconcileLocked(group *model.Group) bool {
	for i := c.members.Len() - 1; i >= 0; i-- {
		m := c.members.At(i)
		if group.HasMember(m.ID) {
			continue
		}
		if m.Local {
			return true
		}
		c.members.RemoveAt(i)
	}

	for _, gm := range group.Members {
		leader := gm.ID == group.OwnerID
		idx := c.members.IndexFunc(func(m *Member) bool { return m.ID == gm.ID })
		if idx < 0 {
			c.members.Add(&Member{
				ID:         gm.ID,
				Leader:     leader,
				Local:      gm.ID == c.cfg.LocalMemberID,
				Properties: copyProps(gm.Properties),
			})
			continue
		}
		m := c.members.At(idx)
		changed := m.replaceProperties(gm.Properties)
		if m.Leader != leader {
			m.Leader = leader
			changed = true
		}
		if changed {
			c.members.InvokeUpdate(idx)
		}
	}

	for key, value := range c.lobbyProperties.Snapshot() {
		next, ok := group.Properties[key]
		switch {
		case !ok:
			c.lobbyProperties.Delete(key)
		case next != value:
			c.lobbyProperties.Set(key, next)
		}
	}
	for key, value := range group.Properties {
		if _, ok := c.lobbyProperties.Get(key); !ok {
			c.lobbyProperties.Set(key, value)
		}
	}

	if group.ChangeNumber < c.changeNumber {
		// Snapshots can arrive out of order; re-applying an older one is
		// harmless, the next ping re-syncs.
		log.Printf("party: applied snapshot with older change number (%d < %d)", group.ChangeNumber, c.changeNumber)
	}
	c.changeNumber = group.ChangeNumber

	c.recomputeReadyLocked()
	return false
}

// subscribe registers for change pings on the group. Every ping triggers a
// full snapshot re-fetch; pings carry no payload.
func (c *Coordinator) subscribe(ctx context.Context, groupID string) error {
	if c.push == nil {
		return nil
	}
	sub, err := c.push.Subscribe(ctx, groupID, func() {
		if err := c.fetchAndReconcile(context.Background()); err != nil {
			log.Printf("party: push resync failed: %v", err)
		}
	})
	if err != nil {
		return translateError(err)
	}

	c.mu.Lock()
	if c.groupID != groupID {
		c.mu.Unlock()
		sub.Close()
		return nil
	}
	if c.subscription != nil {
		c.subscription.Close()
	}
	c.subscription = sub
	c.mu.Unlock()
	return nil
}

// onPushReconnect resyncs after the push transport reconnects: changes may
// have been missed while disconnected, including our own removal.
func (c *Coordinator) onPushReconnect() {
	c.mu.Lock()
	has := c.hasParty.Value()
	groupID := c.groupID
	sub := c.subscription
	c.subscription = nil
	c.mu.Unlock()
	if !has {
		return
	}
	if sub != nil {
		sub.Close()
	}

	if err := c.fetchAndReconcile(context.Background()); err != nil {
		log.Printf("party: resync after reconnect failed: %v", err)
	}

	c.mu.Lock()
	still := c.hasParty.Value() && c.groupID == groupID
	c.mu.Unlock()
	if still {
		if err := c.subscribe(context.Background(), groupID); err != nil {
			log.Printf("party: resubscribe after reconnect failed: %v", err)
		}
	}
}

// onReadyVersionChanged runs whenever the leader's ready counter changes in
// local state. Any buffered ready intent is stale at that point; the local
// status is recomputed from the stored token. Invoked with c.mu held.
func (c *Coordinator) onReadyVersionChanged(_ string, _, _ string, _ observable.ChangeKind) {
	if !c.hasParty.Value() {
		return
	}
	c.cancelPendingReady()
	lm := c.localMemberLocked()
	c.localReadyStatus.Set(lm != nil && lm.ReadyVersion() == c.readyKeyLocked())
}

func copyProps(props map[string]string) map[string]string {
	out := make(map[string]string, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
