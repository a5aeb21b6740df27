package party

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blastroyale/partysync/internal/directory"
)

func TestTranslateError(t *testing.T) {
	cases := []struct {
		code directory.Code
		want Kind
	}{
		{directory.CodeGroupNotFound, PartyNotFound},
		{directory.CodeMemberNotInGroup, UserIsNotMember},
		{directory.CodeNotSubscribed, TryingToGetDetailsOfNonMemberParty},
		{directory.CodeAlreadyJoined, AlreadyInParty},
		{directory.CodeGroupFull, PartyFull},
		{directory.CodeBanned, BannedFromParty},
		{directory.CodeNotAuthorized, NoPermission},
		{directory.CodeMemberNotFound, MemberNotFound},
		{directory.CodeConnection, ConnectionError},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			derr := directory.NewError(tc.code, "boom")
			perr := translateError(derr)
			assert.Equal(t, tc.want, perr.Kind)
			assert.ErrorIs(t, perr, derr, "the backend fault stays wrapped")
		})
	}
}

func TestTranslateErrorNonDirectoryFault(t *testing.T) {
	perr := translateError(fmt.Errorf("dial tcp: refused"))
	assert.Equal(t, Unknown, perr.Kind)
}

func TestTranslateErrorWrappedDirectoryFault(t *testing.T) {
	derr := directory.NewError(directory.CodeGroupFull, "full")
	perr := translateError(fmt.Errorf("join: %w", derr))
	assert.Equal(t, PartyFull, perr.Kind)
}

func TestErrorKindHelpers(t *testing.T) {
	err := newError(PartyFull)
	assert.Equal(t, PartyFull, ErrorKind(err))
	assert.True(t, IsKind(err, PartyFull))
	assert.False(t, IsKind(err, NoParty))

	wrapped := fmt.Errorf("op: %w", err)
	assert.Equal(t, PartyFull, ErrorKind(wrapped))

	assert.Equal(t, Unknown, ErrorKind(errors.New("plain")))
	assert.False(t, IsKind(nil, PartyFull))
}

func TestIsPartyGone(t *testing.T) {
	gone := []Kind{UserIsNotMember, TryingToGetDetailsOfNonMemberParty, PartyNotFound, MemberNotFound}
	for _, k := range gone {
		assert.True(t, isPartyGone(k), "%v", k)
	}
	alive := []Kind{Unknown, BannedFromParty, NoPermission, NoParty, PartyFull,
		AlreadyInParty, DifferentGameVersion, PartyUsingOtherServer, ConnectionError}
	for _, k := range alive {
		assert.False(t, isPartyGone(k), "%v", k)
	}
}
