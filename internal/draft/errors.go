package draft

import "errors"

var (
	// ErrInvalidTransition means the requested status change is not
	// allowed from the draft's current status.
	ErrInvalidTransition = errors.New("invalid draft status transition")

	// ErrOrderLocked means the draft order cannot change once picks have
	// been made.
	ErrOrderLocked = errors.New("draft order is locked after the first pick")

	// ErrNoOrder means the draft has no order set.
	ErrNoOrder = errors.New("draft order not set")

	// ErrWrongTeam means the picking team does not own the slot on the
	// clock.
	ErrWrongTeam = errors.New("team is not on the clock")

	// ErrNotInProgress means picks are only accepted while the draft is
	// in progress.
	ErrNotInProgress = errors.New("draft is not in progress")
)
