// Package party implements the client-side party coordination engine: it
// drives every mutating party operation through a single-flight gate against
// the remote group directory, reconciles pushed and pulled snapshots into
// observable state, and reconstructs the collective ready signal from a
// versioned ready key.
package party

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/blastroyale/partysync/internal/directory"
	"github.com/blastroyale/partysync/internal/model"
	"github.com/blastroyale/partysync/internal/observable"
)

// DefaultMaxMembers bounds party size when Config.MaxMembers is zero.
const DefaultMaxMembers = 8

// DefaultReadyDebounce is the buffered-ready delay when Config.ReadyDebounce
// is zero.
const DefaultReadyDebounce = 2 * time.Second

// Config carries the local client's identity and environment.
type Config struct {
	// LocalMemberID is the stable identifier of this client's player,
	// supplied by the identity service.
	LocalMemberID string

	// ServerRegion is stored as a search attribute on created parties and
	// checked on join; parties on another region cannot be joined.
	ServerRegion string

	// Commit tags created parties with a build version. Empty means a
	// development build.
	Commit string

	// CommitVersionLock rejects joining parties created by a different
	// build when set.
	CommitVersionLock bool

	// MemberProperties seeds the local member's remote record (display
	// name, cosmetics, skill rating).
	MemberProperties map[string]string

	// MaxMembers bounds created parties. Defaults to DefaultMaxMembers.
	MaxMembers int

	// ReadyDebounce is the BufferedReady delay. Defaults to
	// DefaultReadyDebounce.
	ReadyDebounce time.Duration
}

// CreateHook lets other services inject extra search attributes or lobby
// properties into the remote create call.
type CreateHook func(searchAttributes, properties map[string]string)

// Coordinator owns all party state for one client. External code reads
// through the observable accessors and mutates only through operations.
//
// Observers run synchronously while the coordinator's state lock is held;
// they must not invoke coordinator operations.
type Coordinator struct {
	client directory.Client
	push   directory.PushChannel
	cfg    Config

	// gate serializes mutating operations: at most one in-flight mutating
	// party operation per client, in initiation order.
	gate chan struct{}

	// mu guards local party state and container mutation. It is never held
	// across a directory round-trip, which is what lets push-triggered
	// reconciliation interleave with a mutation's awaited network call.
	mu           sync.Mutex
	groupID      string
	changeNumber uint64
	subscription directory.Subscription

	hasParty            *observable.Field[bool]
	partyReady          *observable.Field[bool]
	operationInProgress *observable.Field[bool]
	partyCode           *observable.Field[string]
	members             *observable.List[*Member]
	lobbyProperties     *observable.Dict[string, string]
	localReadyStatus    *observable.Field[bool]

	kicked      *observable.Signal
	createHooks []hookSub
	nextHookID  int

	timerMu    sync.Mutex
	readyTimer *time.Timer
}

type hookSub struct {
	id int
	fn CreateHook
}

// NewCoordinator builds a coordinator over the given directory client and
// push channel. push may be nil in tests that drive reconciliation manually.
func NewCoordinator(client directory.Client, push directory.PushChannel, cfg Config) *Coordinator {
	if cfg.MaxMembers <= 0 {
		cfg.MaxMembers = DefaultMaxMembers
	}
	if cfg.ReadyDebounce <= 0 {
		cfg.ReadyDebounce = DefaultReadyDebounce
	}

	c := &Coordinator{
		client:              client,
		push:                push,
		cfg:                 cfg,
		gate:                make(chan struct{}, 1),
		hasParty:            observable.NewField(false),
		partyReady:          observable.NewField(false),
		operationInProgress: observable.NewField(false),
		partyCode:           observable.NewField(""),
		members:             observable.NewList[*Member](),
		lobbyProperties:     observable.NewDict[string, string](),
		localReadyStatus:    observable.NewField(false),
		kicked:              observable.NewSignal(),
	}

	// A leader bump of the ready counter invalidates the local buffered
	// intent along with everyone's stored ready tokens.
	c.lobbyProperties.ObserveKey(PropReadyVersion, c.onReadyVersionChanged)

	if push != nil {
		push.OnReconnect(c.onPushReconnect)
	}
	return c
}

// HasParty reports whether this client is currently in a party.
func (c *Coordinator) HasParty() *observable.Field[bool] { return c.hasParty }

// PartyReady is true iff every non-leader member's ready token matches the
// current ready key, or the party has a single member.
func (c *Coordinator) PartyReady() *observable.Field[bool] { return c.partyReady }

// OperationInProgress is true while a mutating operation is in flight.
func (c *Coordinator) OperationInProgress() *observable.Field[bool] { return c.operationInProgress }

// PartyCode is the shareable join code of the current party, empty otherwise.
func (c *Coordinator) PartyCode() *observable.Field[string] { return c.partyCode }

// Members is the live member list, ordered as the directory orders them.
func (c *Coordinator) Members() *observable.List[*Member] { return c.members }

// LobbyProperties is the leader-writable shared property map.
func (c *Coordinator) LobbyProperties() *observable.Dict[string, string] { return c.lobbyProperties }

// LocalReadyStatus is the local player's buffered ready intent; it can lead
// the remotely visible ready token by up to the debounce window.
func (c *Coordinator) LocalReadyStatus() *observable.Field[bool] { return c.localReadyStatus }

// OnLocalPlayerKicked registers fn to run when the coordinator infers that
// the local player was removed from the party.
func (c *Coordinator) OnLocalPlayerKicked(fn func()) *observable.Handle {
	return c.kicked.Observe(fn)
}

// OnGroupCreate registers a hook invoked during CreateParty, before the
// remote create call, so other services can inject search attributes or
// lobby properties.
func (c *Coordinator) OnGroupCreate(fn CreateHook) *observable.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextHookID++
	id := c.nextHookID
	c.createHooks = append(c.createHooks, hookSub{id: id, fn: fn})
	return observable.NewHandle(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i := range c.createHooks {
			if c.createHooks[i].id == id {
				c.createHooks = append(c.createHooks[:i], c.createHooks[i+1:]...)
				return
			}
		}
	})
}

// GetLocalMember returns the local player's member record, or nil when not
// in a party.
func (c *Coordinator) GetLocalMember() *Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localMemberLocked()
}

// GetCurrentGroupSize returns the party size, or 1 when not in a party.
func (c *Coordinator) GetCurrentGroupSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasParty.Value() {
		return 1
	}
	return c.members.Len()
}

// IsReady reports whether a member counts as ready. For the local member,
// localBuffered selects the buffered intent instead of the stored token.
func (c *Coordinator) IsReady(m *Member, localBuffered bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isReadyLocked(m, localBuffered)
}

// ForceRefresh re-fetches and reconciles the party snapshot if in a party.
func (c *Coordinator) ForceRefresh(ctx context.Context) error {
	c.mu.Lock()
	has := c.hasParty.Value()
	c.mu.Unlock()
	if !has {
		return nil
	}
	return c.fetchAndReconcile(ctx)
}

// acquire takes the single-flight gate, waiting behind any in-flight
// mutating operation.
func (c *Coordinator) acquire(ctx context.Context) (func(), error) {
	select {
	case c.gate <- struct{}{}:
		return func() { <-c.gate }, nil
	case <-ctx.Done():
		return nil, &Error{Kind: ConnectionError, cause: ctx.Err()}
	}
}

func (c *Coordinator) setOperationInProgress(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.operationInProgress.Set(v)
}

func (c *Coordinator) localMemberLocked() *Member {
	if i := c.members.IndexFunc(func(m *Member) bool { return m.Local }); i >= 0 {
		return c.members.At(i)
	}
	return nil
}

func (c *Coordinator) leaderLocked() *Member {
	if i := c.members.IndexFunc(func(m *Member) bool { return m.Leader }); i >= 0 {
		return c.members.At(i)
	}
	return nil
}

// readyKeyLocked composes the current ready key: leaderID=counter. A member
// is ready iff their stored token equals it.
func (c *Coordinator) readyKeyLocked() string {
	counter, ok := c.lobbyProperties.Get(PropReadyVersion)
	if !ok {
		counter = "0"
	}
	leaderID := ""
	if l := c.leaderLocked(); l != nil {
		leaderID = l.ID
	}
	return leaderID + "=" + counter
}

func (c *Coordinator) isReadyLocked(m *Member, localBuffered bool) bool {
	if m == nil || !c.hasParty.Value() {
		return false
	}
	if m.Local && localBuffered {
		return c.localReadyStatus.Value()
	}
	return m.ReadyVersion() == c.readyKeyLocked()
}

func (c *Coordinator) recomputeReadyLocked() {
	ready := c.members.Len() == 1
	if !ready {
		ready = true
		for _, m := range c.members.Items() {
			if !m.Leader && !c.isReadyLocked(m, false) {
				ready = false
				break
			}
		}
	}
	if c.partyReady.Value() != ready {
		c.partyReady.Set(ready)
	}
}

// localGroupMember builds the local member's initial remote record.
func (c *Coordinator) localGroupMember() model.GroupMember {
	props := make(map[string]string, len(c.cfg.MemberProperties))
	for k, v := range c.cfg.MemberProperties {
		props[k] = v
	}
	return model.GroupMember{ID: c.cfg.LocalMemberID, Properties: props}
}

func (c *Coordinator) commitTag() string {
	if c.cfg.Commit == "" {
		return "dev"
	}
	return c.cfg.Commit
}

// resetStateLocked tears all party state down. HasParty false implies empty
// members and properties.
func (c *Coordinator) resetStateLocked() {
	c.groupID = ""
	c.changeNumber = 0
	c.cancelPendingReady()
	c.hasParty.Set(false)
	c.partyReady.Set(false)
	c.partyCode.Set("")
	c.localReadyStatus.Set(false)
	c.members.Clear()
	c.lobbyProperties.Clear()
}

// localPlayerKicked resets state and fires the kicked event. Guarded so that
// several pieces of evidence for the same kick fire the event once.
func (c *Coordinator) localPlayerKicked() {
	c.mu.Lock()
	if c.groupID == "" {
		c.mu.Unlock()
		return
	}
	sub := c.subscription
	c.subscription = nil
	c.resetStateLocked()
	c.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	log.Printf("party: local player kicked")
	c.kicked.Notify()
}
