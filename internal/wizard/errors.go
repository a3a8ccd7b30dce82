package wizard

import "errors"

var (
	// ErrBusy indicates a save is already in flight. Concurrent advances
	// are rejected, never queued.
	ErrBusy = errors.New("save in flight")

	// ErrNotAnswered indicates the current step has no yes/no answer yet.
	ErrNotAnswered = errors.New("answer yes or no first")

	// ErrAmountInvalid indicates the draft amount does not parse as a
	// non-negative number.
	ErrAmountInvalid = errors.New("enter a valid amount")

	// ErrAmountRange indicates the amount is outside the category's
	// declared bounds.
	ErrAmountRange = errors.New("amount out of range")
)
