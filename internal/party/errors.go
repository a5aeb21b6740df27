package party

import (
	"errors"
	"fmt"

	"github.com/blastroyale/partysync/internal/directory"
)

// Kind is the closed set of party error kinds surfaced to callers.
type Kind int

const (
	Unknown Kind = iota
	BannedFromParty
	NoPermission
	NoParty
	PartyFull
	AlreadyInParty
	PartyNotFound
	DifferentGameVersion
	PartyUsingOtherServer
	MemberNotFound
	ConnectionError
	TryingToGetDetailsOfNonMemberParty
	UserIsNotMember
)

func (k Kind) String() string {
	switch k {
	case BannedFromParty:
		return "banned from party"
	case NoPermission:
		return "no permission"
	case NoParty:
		return "no party"
	case PartyFull:
		return "party full"
	case AlreadyInParty:
		return "already in party"
	case PartyNotFound:
		return "party not found"
	case DifferentGameVersion:
		return "different game version"
	case PartyUsingOtherServer:
		return "party using other server"
	case MemberNotFound:
		return "member not found"
	case ConnectionError:
		return "connection error"
	case TryingToGetDetailsOfNonMemberParty:
		return "trying to get details of non-member party"
	case UserIsNotMember:
		return "user is not member"
	}
	return "unknown"
}

// Error is a typed party fault. Kind is the only part callers should branch
// on; the wrapped cause carries backend detail for logs.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("party: %s", e.Kind)
	}
	return fmt.Sprintf("party: %s: %v", e.Kind, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(k Kind) *Error {
	return &Error{Kind: k}
}

// ErrorKind extracts the Kind from err, or Unknown if err is not a party
// error.
func ErrorKind(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return Unknown
}

// IsKind reports whether err is a party error of the given kind.
func IsKind(err error, k Kind) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == k
}

// translateError maps a backend fault into the party taxonomy. Anything that
// is not a directory fault, or carries an unmapped code, becomes Unknown.
func translateError(err error) *Error {
	var derr *directory.Error
	if !errors.As(err, &derr) {
		return &Error{Kind: Unknown, cause: err}
	}

	kind := Unknown
	switch derr.Code {
	case directory.CodeGroupNotFound:
		kind = PartyNotFound
	case directory.CodeMemberNotInGroup:
		kind = UserIsNotMember
	case directory.CodeNotSubscribed:
		kind = TryingToGetDetailsOfNonMemberParty
	case directory.CodeAlreadyJoined:
		kind = AlreadyInParty
	case directory.CodeGroupFull:
		kind = PartyFull
	case directory.CodeBanned:
		kind = BannedFromParty
	case directory.CodeNotAuthorized:
		kind = NoPermission
	case directory.CodeMemberNotFound:
		kind = MemberNotFound
	case directory.CodeConnection:
		kind = ConnectionError
	}
	return &Error{Kind: kind, cause: err}
}

// isPartyGone reports whether the kind means the party or our membership no
// longer exists remotely. Deliberately an exhaustive list rather than a
// catch-all: a new kind must be classified here before background
// reconciliation treats it as recoverable.
func isPartyGone(k Kind) bool {
	switch k {
	case UserIsNotMember, TryingToGetDetailsOfNonMemberParty, PartyNotFound, MemberNotFound:
		return true
	case Unknown, BannedFromParty, NoPermission, NoParty, PartyFull, AlreadyInParty,
		DifferentGameVersion, PartyUsingOtherServer, ConnectionError:
		return false
	}
	return false
}
