package core

import "errors"

// Error taxonomy. Every error surfaced by the pipeline wraps one of
// these sentinels so callers can classify with errors.Is.
var (
	// ErrConfig marks invalid run parameters, detected before any
	// simulation work begins.
	ErrConfig = errors.New("configuration error")

	// ErrLogic marks a violation of the callback contract by the
	// driving process (scheduler called past exhaustion, hit without an
	// open primary). Fatal: the physical model is no longer valid.
	ErrLogic = errors.New("logic error")

	// ErrIO marks an output file that could not be created or written.
	// Already-flushed files are unaffected.
	ErrIO = errors.New("io error")

	// ErrPulsesExhausted is the scheduler's terminal signal: every
	// neutron in the pulse structure has been scheduled.
	ErrPulsesExhausted = errors.New("pulses exhausted")
)
