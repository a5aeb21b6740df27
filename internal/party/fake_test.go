package party

import (
	"context"
	"fmt"
	"sync"

	"github.com/blastroyale/partysync/internal/directory"
	"github.com/blastroyale/partysync/internal/model"
)

// fakeClient is an in-memory directory used by coordinator tests. It records
// the order of remote calls and can block or fail individual methods.
type fakeClient struct {
	mu      sync.Mutex
	groups  map[string]*model.Group
	nextID  int
	calls   []string
	failOn  map[string]error
	blockOn map[string]chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		groups:  make(map[string]*model.Group),
		failOn:  make(map[string]error),
		blockOn: make(map[string]chan struct{}),
	}
}

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeClient) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) callCount(call string) int {
	n := 0
	for _, c := range f.callLog() {
		if c == call {
			n++
		}
	}
	return n
}

// enter records the call, honors an injected block and returns an injected
// failure, if any.
func (f *fakeClient) enter(method, call string) error {
	f.record(call)
	f.mu.Lock()
	block := f.blockOn[method]
	fail := f.failOn[method]
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return fail
}

func (f *fakeClient) CreateGroup(_ context.Context, req directory.CreateGroupRequest) (string, error) {
	if err := f.enter("CreateGroup", "CreateGroup"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("group-%d", f.nextID)
	members := make([]model.GroupMember, len(req.Members))
	copy(members, req.Members)
	f.groups[id] = &model.Group{
		ID:               id,
		OwnerID:          req.OwnerID,
		MaxMembers:       req.MaxMembers,
		SearchAttributes: cloneMap(req.SearchAttributes),
		Properties:       cloneMap(req.Properties),
		Members:          members,
		ChangeNumber:     1,
	}
	return id, nil
}

func (f *fakeClient) FindGroups(_ context.Context, filter map[string]string) ([]model.GroupSummary, error) {
	if err := f.enter("FindGroups", "FindGroups"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.GroupSummary
	for _, g := range f.groups {
		match := true
		for k, v := range filter {
			if g.SearchAttributes[k] != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, g.Summary())
		}
	}
	return out, nil
}

func (f *fakeClient) JoinGroup(_ context.Context, req directory.JoinGroupRequest) (string, error) {
	if err := f.enter("JoinGroup", "JoinGroup"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[req.GroupID]
	if !ok {
		return "", directory.NewError(directory.CodeGroupNotFound, "no group %s", req.GroupID)
	}
	if g.IsBanned(req.MemberID) {
		return "", directory.NewError(directory.CodeBanned, "member %s banned", req.MemberID)
	}
	if g.HasMember(req.MemberID) {
		return "", directory.NewError(directory.CodeAlreadyJoined, "member %s already joined", req.MemberID)
	}
	if len(g.Members) >= g.MaxMembers {
		return "", directory.NewError(directory.CodeGroupFull, "group %s full", req.GroupID)
	}
	g.Members = append(g.Members, model.GroupMember{ID: req.MemberID, Properties: cloneMap(req.MemberProperties)})
	g.ChangeNumber++
	return g.ID, nil
}

func (f *fakeClient) GetGroup(_ context.Context, groupID, memberID string) (*model.Group, error) {
	if err := f.enter("GetGroup", "GetGroup"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return nil, directory.NewError(directory.CodeGroupNotFound, "no group %s", groupID)
	}
	if !g.HasMember(memberID) {
		return nil, directory.NewError(directory.CodeNotSubscribed, "member %s not in group", memberID)
	}
	return snapshotGroup(g), nil
}

func (f *fakeClient) UpdateGroup(_ context.Context, req directory.UpdateGroupRequest) error {
	call := "UpdateGroup"
	if req.MemberPropertiesToSet != nil {
		call = "UpdateGroup:member"
	} else if req.NewOwnerID != "" {
		call = "UpdateGroup:owner"
	} else {
		call = "UpdateGroup:props"
	}
	if err := f.enter("UpdateGroup", call); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[req.GroupID]
	if !ok {
		return directory.NewError(directory.CodeGroupNotFound, "no group %s", req.GroupID)
	}
	if req.NewOwnerID != "" {
		if !g.HasMember(req.NewOwnerID) {
			return directory.NewError(directory.CodeMemberNotFound, "member %s not in group", req.NewOwnerID)
		}
		g.OwnerID = req.NewOwnerID
	}
	for k, v := range req.PropertiesToSet {
		if g.Properties == nil {
			g.Properties = map[string]string{}
		}
		g.Properties[k] = v
	}
	for _, k := range req.PropertiesToDelete {
		delete(g.Properties, k)
	}
	if req.MemberID != "" {
		m := g.Member(req.MemberID)
		if m == nil {
			return directory.NewError(directory.CodeMemberNotInGroup, "member %s not in group", req.MemberID)
		}
		if m.Properties == nil {
			m.Properties = map[string]string{}
		}
		for k, v := range req.MemberPropertiesToSet {
			m.Properties[k] = v
		}
	}
	g.ChangeNumber++
	return nil
}

func (f *fakeClient) RemoveMember(_ context.Context, groupID, memberID string, preventRejoin bool) error {
	if err := f.enter("RemoveMember", "RemoveMember"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return directory.NewError(directory.CodeGroupNotFound, "no group %s", groupID)
	}
	return f.removeLocked(g, memberID, preventRejoin)
}

func (f *fakeClient) LeaveGroup(_ context.Context, groupID, memberID string) error {
	if err := f.enter("LeaveGroup", "LeaveGroup"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return directory.NewError(directory.CodeGroupNotFound, "no group %s", groupID)
	}
	return f.removeLocked(g, memberID, false)
}

func (f *fakeClient) removeLocked(g *model.Group, memberID string, preventRejoin bool) error {
	idx := -1
	for i := range g.Members {
		if g.Members[i].ID == memberID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return directory.NewError(directory.CodeMemberNotInGroup, "member %s not in group", memberID)
	}
	g.Members = append(g.Members[:idx], g.Members[idx+1:]...)
	if preventRejoin {
		g.Banned = append(g.Banned, memberID)
	}
	if len(g.Members) == 0 {
		delete(f.groups, g.ID)
		return nil
	}
	if g.OwnerID == memberID {
		g.OwnerID = g.Members[0].ID
	}
	g.ChangeNumber++
	return nil
}

func (f *fakeClient) groupIDByCode(code string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, g := range f.groups {
		if g.SearchAttributes["code"] == code {
			return id
		}
	}
	return ""
}

// mutate edits a group in place, simulating a remote change by another
// client.
func (f *fakeClient) mutate(groupID string, fn func(g *model.Group)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.groups[groupID]; ok {
		fn(g)
		g.ChangeNumber++
	}
}

func snapshotGroup(g *model.Group) *model.Group {
	out := *g
	out.SearchAttributes = cloneMap(g.SearchAttributes)
	out.Properties = cloneMap(g.Properties)
	out.Members = make([]model.GroupMember, len(g.Members))
	for i, m := range g.Members {
		out.Members[i] = model.GroupMember{ID: m.ID, Properties: cloneMap(m.Properties)}
	}
	out.Banned = append([]string(nil), g.Banned...)
	return &out
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// fakePush delivers pings synchronously from the test goroutine.
type fakePush struct {
	mu        sync.Mutex
	subs      map[string][]*fakeSub
	reconnect []func()
	nextID    int
}

type fakeSub struct {
	push     *fakePush
	groupID  string
	id       int
	onChange func()
}

func newFakePush() *fakePush {
	return &fakePush{subs: make(map[string][]*fakeSub)}
}

func (p *fakePush) Subscribe(_ context.Context, groupID string, onChange func()) (directory.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	s := &fakeSub{push: p, groupID: groupID, id: p.nextID, onChange: onChange}
	p.subs[groupID] = append(p.subs[groupID], s)
	return s, nil
}

func (p *fakePush) OnReconnect(fn func()) {
	p.mu.Lock()
	p.reconnect = append(p.reconnect, fn)
	p.mu.Unlock()
}

// Ping fires every subscriber for the group, like a remote change ping.
func (p *fakePush) Ping(groupID string) {
	p.mu.Lock()
	subs := append([]*fakeSub(nil), p.subs[groupID]...)
	p.mu.Unlock()
	for _, s := range subs {
		s.onChange()
	}
}

// fireReconnect simulates the push transport dropping and re-establishing its
// connection.
func (p *fakePush) fireReconnect() {
	p.mu.Lock()
	fns := append(([]func())(nil), p.reconnect...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (p *fakePush) subscriberCount(groupID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs[groupID])
}

func (s *fakeSub) Close() {
	s.push.mu.Lock()
	defer s.push.mu.Unlock()
	subs := s.push.subs[s.groupID]
	for i := range subs {
		if subs[i].id == s.id {
			s.push.subs[s.groupID] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
