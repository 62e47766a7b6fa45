package bot

import (
	"errors"
	"fmt"
)

// Sentinel state errors. These indicate caller/router misuse, never a
// broken session: every path that returns one leaves the session as it was.
var (
	// ErrAlreadyInProgress is returned by Start when the user already has
	// an active flow.
	ErrAlreadyInProgress = errors.New("bot: profile flow already in progress")

	// ErrNoActiveFlow is returned by Submit/Confirm/Cancel when the user
	// has no flow to act on.
	ErrNoActiveFlow = errors.New("bot: no active profile flow")

	// ErrForbidden is returned when a non-operator runs an operator command.
	ErrForbidden = errors.New("bot: forbidden")

	// ErrNothingToAnnounce is returned when announce finds no upcoming shift.
	ErrNothingToAnnounce = errors.New("bot: no upcoming shift to announce")
)

// ValidationError reports a rejected field input. Reason is user-facing
// text, relayed verbatim in the re-prompt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bot: invalid %s: %s", e.Field, e.Reason)
}

// CollaboratorError wraps a failure from an external collaborator (store,
// publisher, transport). It is surfaced to the user as a transient failure
// and never mutates session state.
type CollaboratorError struct {
	Op  string // e.g. "save profile", "publish announcement"
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("bot: %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
