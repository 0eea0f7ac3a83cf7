package service

import "errors"

// Error taxonomy for the wallet core. Every financial operation either
// succeeds or fails with one of these (wrapped with context); anything
// else is an infrastructure failure and rolls back the whole unit of
// work.
var (
	// ErrInsufficientFunds is returned when a debit would take a
	// balance negative. No money moves.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound is returned when a referenced account id does
	// not exist. Indicates a caller or session bug.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountBlocked is returned when a blocked account attempts a
	// player-initiated operation.
	ErrAccountBlocked = errors.New("account blocked")

	// ErrInvalidEscrowState is returned when settlement or release
	// finds the contest's holds in an unexpected count or status. This
	// is the guard against duplicate or out-of-order settlement.
	ErrInvalidEscrowState = errors.New("invalid escrow state")

	// ErrDailyMintCapReached is returned when an oasis mint would
	// exceed the day's budget. The associated settlement still stands.
	ErrDailyMintCapReached = errors.New("daily mint cap reached")

	// ErrAlreadySettled is returned for backing-bet operations on a bet
	// that left the pending state.
	ErrAlreadySettled = errors.New("bet already settled")

	// ErrBetNotFound is returned when a bet id and supporter id pair
	// does not match a known bet.
	ErrBetNotFound = errors.New("bet not found")

	// ErrForfeitNotApplicable is returned by the disconnect resolver
	// when the contest has no staked two-party escrow to settle.
	ErrForfeitNotApplicable = errors.New("forfeit not applicable")
)

// IsRejection reports whether err belongs to the taxonomy of caller
// rejections, as opposed to infrastructure failures. Rejections are
// safe to store for idempotent replay.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrInsufficientFunds,
		ErrAccountNotFound,
		ErrAccountBlocked,
		ErrInvalidEscrowState,
		ErrDailyMintCapReached,
		ErrAlreadySettled,
		ErrBetNotFound,
		ErrForfeitNotApplicable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
