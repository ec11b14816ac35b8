package trade

import "errors"

var (
	// ErrTradesDisabled means trading is switched off in the league config.
	ErrTradesDisabled = errors.New("trades are currently disabled")

	// ErrNotPending means the trade has already reached a terminal status.
	ErrNotPending = errors.New("trade is not pending")

	// ErrNotParticipant means the team is not a party to the trade.
	ErrNotParticipant = errors.New("team is not part of this trade")

	// ErrEmptyTrade means the proposal moves no players.
	ErrEmptyTrade = errors.New("trade has no players")

	// ErrInvalidLeg means a leg references a team outside the trade, moves
	// a player within one team, or repeats a player.
	ErrInvalidLeg = errors.New("invalid trade leg")

	// ErrSameTeam means a team cannot trade with itself.
	ErrSameTeam = errors.New("cannot trade with the same team")
)
