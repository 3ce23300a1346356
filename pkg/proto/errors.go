package proto

import (
	"errors"
)

// Kind classifies an error for callers of the workflow.
type Kind string

// Error kinds.
const (
	// KindUnauthenticated means no caller identity could be resolved.
	KindUnauthenticated Kind = "unauthenticated"
	// KindNotAuthorized means the caller may not act on the resource.
	KindNotAuthorized Kind = "not_authorized"
	// KindNotFound means a referenced team, user or interaction is missing.
	KindNotFound Kind = "not_found"
	// KindInvariantViolation means the change would break a membership rule.
	KindInvariantViolation Kind = "invariant_violation"
	// KindInvalidArgument means the request payload is malformed.
	KindInvalidArgument Kind = "invalid_argument"
	// KindStoreFailure means a directory store read or write failed.
	KindStoreFailure Kind = "store_failure"
)

// Error is an error carrying a Kind and a message meant for end users.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

// Error implements error.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.err
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	// ErrUnauthenticated is returned when the caller has no identity.
	ErrUnauthenticated = newError(KindUnauthenticated, "Not authenticated")
	// ErrNotAuthorized is returned when the caller is not the team creator or
	// not the intended responder.
	ErrNotAuthorized = newError(KindNotAuthorized, "Not authorized")

	// ErrTeamNotFound is returned when a team does not exist.
	ErrTeamNotFound = newError(KindNotFound, "Team not found")
	// ErrUserNotFound is returned when a user profile does not exist.
	ErrUserNotFound = newError(KindNotFound, "User not found")
	// ErrInteractionNotFound is returned when an interaction does not exist.
	ErrInteractionNotFound = newError(KindNotFound, "Interaction not found")
	// ErrMemberNotFound is returned when a roster entry does not exist.
	ErrMemberNotFound = newError(KindNotFound, "Member not found")

	// ErrAlreadyHasTeam is returned when a user is already affiliated.
	ErrAlreadyHasTeam = newError(KindInvariantViolation, "You already have a team")
	// ErrCandidateHasTeam is returned when inviting a user who is already
	// affiliated.
	ErrCandidateHasTeam = newError(KindInvariantViolation, "User already has a team")
	// ErrAlreadyApplied is returned on a second pending application.
	ErrAlreadyApplied = newError(KindInvariantViolation, "You have already applied to this team")
	// ErrAlreadyInvited is returned on a second pending invitation.
	ErrAlreadyInvited = newError(KindInvariantViolation, "User already has a pending invitation")
	// ErrTeamFull is returned when the roster reached the team capacity.
	ErrTeamFull = newError(KindInvariantViolation, "Team is already full")
	// ErrCreatorCannotLeave is returned when a team creator tries to leave.
	ErrCreatorCannotLeave = newError(KindInvariantViolation, "Team creator cannot leave the team")
	// ErrNotAMember is returned when a user leaves a team they are not in.
	ErrNotAMember = newError(KindInvariantViolation, "You are not a member of this team")
	// ErrInteractionAnswered is returned when responding to an interaction
	// that is no longer pending.
	ErrInteractionAnswered = newError(KindInvariantViolation, "Interaction has already been answered")
	// ErrCapacityBelowRoster is returned when max_members would drop below
	// the current roster size.
	ErrCapacityBelowRoster = newError(KindInvariantViolation, "Team cannot be smaller than its current roster")
	// ErrRegisteredMember is returned when removing a registered member
	// through the manual member path.
	ErrRegisteredMember = newError(KindInvariantViolation, "Registered members must leave the team themselves")
	// ErrSelfInvite is returned when a creator invites themselves.
	ErrSelfInvite = newError(KindInvariantViolation, "You cannot invite yourself")

	// ErrConcurrentUpdate is returned when a team kept changing under a
	// write until the retry budget ran out.
	ErrConcurrentUpdate = newError(KindStoreFailure, "Team was modified concurrently, please try again")
)

// InvalidArgument returns an invalid argument error with msg.
func InvalidArgument(msg string) error {
	return newError(KindInvalidArgument, msg)
}

// StoreFailure wraps a directory store error. It returns nil if err is nil
// and leaves already classified errors untouched.
func StoreFailure(err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return err
	}
	return &Error{Kind: KindStoreFailure, Message: err.Error(), err: err}
}

// KindOf returns the kind of err. Unclassified errors are store failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindStoreFailure
}

// Retryable reports whether err may succeed if the operation is retried.
// Guard denials never are.
func Retryable(err error) bool {
	return err != nil && KindOf(err) == KindStoreFailure
}
