package services

import (
	"errors"
	"fmt"

	"github.com/tolkbridge/dispatch/internal/db/models"
)

// Sentinel errors of the booking engine. Every command surfaces one of
// these, an *InvalidTransitionError, or a wrapped store error; callers
// never see a bare unclassified failure.
var (
	// ErrAlreadyTaken is returned to the loser of an accept race. The
	// caller must not retry the same acceptance.
	ErrAlreadyTaken = errors.New("job already taken by another translator")
	// ErrConcurrentModification is returned when an optimistic-lock
	// commit lost to a concurrent writer; the caller retries the whole
	// command with fresh state.
	ErrConcurrentModification = errors.New("job modified concurrently, retry with fresh state")
	// ErrMissingFlagComment rejects flagging a booking without an admin
	// comment in the same call. No partial write occurs.
	ErrMissingFlagComment = errors.New("flagging a booking requires an admin comment")
	// ErrNotAssignedTranslator rejects session commands from a
	// translator that does not hold the booking.
	ErrNotAssignedTranslator = errors.New("translator does not hold this booking")
)

// InvalidTransitionError reports a command that is not legal in the
// booking's current state, naming both sides.
type InvalidTransitionError struct {
	From  models.JobStatus
	Event string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s a booking in status %q", e.Event, e.From)
}
