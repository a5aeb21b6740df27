package httpdir

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blastroyale/partysync/internal/directory"
)

func TestPushDeliversChangePings(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.URL)
	ctx := context.Background()
	id := createGroup(t, c, "alice", 8)

	push := NewPush(ts.URL, "alice")
	pings := make(chan struct{}, 8)
	sub, err := push.Subscribe(ctx, id, func() { pings <- struct{}{} })
	require.NoError(t, err)
	defer sub.Close()

	err = c.UpdateGroup(ctx, directory.UpdateGroupRequest{
		GroupID:         id,
		PropertiesToSet: map[string]string{"map": "desert"},
	})
	require.NoError(t, err)

	select {
	case <-pings:
	case <-time.After(2 * time.Second):
		t.Fatal("no change ping delivered")
	}
}

func TestPushRejectsNonMembers(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.URL)
	id := createGroup(t, c, "alice", 8)

	push := NewPush(ts.URL, "stranger")
	_, err := push.Subscribe(context.Background(), id, func() {})
	require.Error(t, err)
	derr := asDirectoryError(t, err)
	assert.Equal(t, directory.CodeConnection, derr.Code)
}

func TestPushCloseStopsDelivery(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.URL)
	ctx := context.Background()
	id := createGroup(t, c, "alice", 8)

	push := NewPush(ts.URL, "alice")
	pings := make(chan struct{}, 8)
	sub, err := push.Subscribe(ctx, id, func() { pings <- struct{}{} })
	require.NoError(t, err)
	sub.Close()

	err = c.UpdateGroup(ctx, directory.UpdateGroupRequest{
		GroupID:         id,
		PropertiesToSet: map[string]string{"map": "desert"},
	})
	require.NoError(t, err)

	select {
	case <-pings:
		t.Fatal("ping delivered after Close")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPushMultipleSubscribers(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.URL)
	ctx := context.Background()
	id := createGroup(t, c, "alice", 8)
	_, err := c.JoinGroup(ctx, directory.JoinGroupRequest{GroupID: id, MemberID: "bob"})
	require.NoError(t, err)

	alicePings := make(chan struct{}, 8)
	bobPings := make(chan struct{}, 8)

	alicePush := NewPush(ts.URL, "alice")
	aliceSub, err := alicePush.Subscribe(ctx, id, func() { alicePings <- struct{}{} })
	require.NoError(t, err)
	defer aliceSub.Close()

	bobPush := NewPush(ts.URL, "bob")
	bobSub, err := bobPush.Subscribe(ctx, id, func() { bobPings <- struct{}{} })
	require.NoError(t, err)
	defer bobSub.Close()

	err = c.UpdateGroup(ctx, directory.UpdateGroupRequest{
		GroupID:         id,
		PropertiesToSet: map[string]string{"map": "desert"},
	})
	require.NoError(t, err)

	for name, ch := range map[string]chan struct{}{"alice": alicePings, "bob": bobPings} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("no ping for %s", name)
		}
	}
}
