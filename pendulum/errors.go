package pendulum

import "errors"

var (
	// ErrInvalidParameter is returned when the time step or the pendulum
	// parameters make the dynamics undefined, e.g. a singular mass matrix.
	ErrInvalidParameter = errors.New("pendulum: invalid parameter")

	// ErrMalformedInput is returned when a control or state vector has the wrong dimension.
	ErrMalformedInput = errors.New("pendulum: malformed input")
)
