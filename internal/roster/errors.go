package roster

import "errors"

var (
	// ErrAlreadyRostered means the player already has an active roster
	// entry this season.
	ErrAlreadyRostered = errors.New("player already on a roster this season")

	// ErrNotOnRoster means the player has no active entry with the team.
	ErrNotOnRoster = errors.New("player not on this team's roster")

	// ErrRosterFull means the team is at the configured roster cap.
	ErrRosterFull = errors.New("roster is full")

	// ErrNotVerified means the player has not completed identity
	// verification.
	ErrNotVerified = errors.New("player identity not verified")

	// ErrSigningsDisabled means free-agent signings are switched off in
	// the league config.
	ErrSigningsDisabled = errors.New("signings are currently disabled")
)
