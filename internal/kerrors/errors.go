// Package kerrors defines the error taxonomy shared across the order
// source, kitchen coordinator and overflow policy. These are the errors
// that terminate a simulation run rather than being recoverable at the
// call site: the coordinator surfaces them on its error channel and stops
// emitting events.
package kerrors

import "errors"

var (
	// ErrInvalidProcedure indicates the kitchen coordinator reached a state
	// its own bookkeeping says should be impossible, such as failing to add
	// an order to a shelf it had just confirmed had room. It signals a bug
	// in the coordinator or overflow policy, not bad input.
	ErrInvalidProcedure = errors.New("kitchen: invalid procedure")

	// ErrParse indicates the order source could not parse its input.
	ErrParse = errors.New("order source: parse error")

	// ErrCloneFailure indicates a shelf or order snapshot could not be
	// produced for an outgoing event.
	ErrCloneFailure = errors.New("kitchen: clone failure")
)
