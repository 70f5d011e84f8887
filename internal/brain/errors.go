package brain

import "errors"

// Error kinds reported by the engine. Call sites wrap them with context;
// callers match with errors.Is.
var (
	// ErrConfig reports an invalid BuilderConfig.
	ErrConfig = errors.New("invalid brain config")

	// ErrNotFound reports a UID that does not resolve to a neuron of the
	// expected role.
	ErrNotFound = errors.New("not found")

	// ErrRange reports a requested sample size or value outside the allowed range.
	ErrRange = errors.New("out of range")

	// ErrParse reports a malformed or inconsistent serialized brain.
	ErrParse = errors.New("malformed brain snapshot")

	// ErrSimulation reports a numeric invariant violated while stepping.
	ErrSimulation = errors.New("simulation failed")
)
