package directory

import "fmt"

// Code is a backend fault code. The set mirrors what the directory service
// reports; the party package translates these into its own error taxonomy.
type Code string

const (
	CodeGroupNotFound    Code = "group_not_found"
	CodeMemberNotInGroup Code = "member_not_in_group"
	CodeNotSubscribed    Code = "not_subscribed_to_group"
	CodeAlreadyJoined    Code = "already_joined"
	CodeGroupFull        Code = "group_full"
	CodeBanned           Code = "banned"
	CodeNotAuthorized    Code = "not_authorized"
	CodeMemberNotFound   Code = "member_not_found"
	CodeConnection       Code = "connection"
)

// Error is a typed directory fault.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("directory: %s", e.Code)
	}
	return fmt.Sprintf("directory: %s: %s", e.Code, e.Message)
}

// NewError builds a directory fault with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
