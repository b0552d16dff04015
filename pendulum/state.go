package pendulum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// StateDim is the length of the pendulum state vector
	StateDim = 4
	// ControlDim is the length of the pendulum control vector
	ControlDim = 1
)

// State is the state of the cart pendulum: (x, theta, xdot, thetadot).
// x is the cart position on the horizontal axis and theta is the angle
// of the pendulum with respect to the vertical axis. The angle is not
// wrapped: it accumulates full turns.
type State [StateDim]float64

// NewState creates new State from its components
func NewState(x, theta, xDot, thetaDot float64) State {
	return State{x, theta, xDot, thetaDot}
}

// StateFromVec creates new State from the vector v.
// It returns ErrMalformedInput if v is nil or its length is not StateDim.
func StateFromVec(v mat.Vector) (State, error) {
	if v == nil {
		return State{}, fmt.Errorf("%w: nil state vector", ErrMalformedInput)
	}

	if v.Len() != StateDim {
		return State{}, fmt.Errorf("%w: state vector size is %d, should be %d", ErrMalformedInput, v.Len(), StateDim)
	}

	var s State
	for i := range s {
		s[i] = v.AtVec(i)
	}

	return s, nil
}

// X returns cart position
func (s State) X() float64 { return s[0] }

// Theta returns pendulum angle
func (s State) Theta() float64 { return s[1] }

// XDot returns cart velocity
func (s State) XDot() float64 { return s[2] }

// ThetaDot returns pendulum angular velocity
func (s State) ThetaDot() float64 { return s[3] }

// Vec returns the state as a new vector
func (s State) Vec() *mat.VecDense {
	return mat.NewVecDense(StateDim, []float64{s[0], s[1], s[2], s[3]})
}

// IsFinite returns true if no state component is NaN or Inf
func (s State) IsFinite() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

// String implements the Stringer interface.
func (s State) String() string {
	return fmt.Sprintf("State{x=%g theta=%g xdot=%g thetadot=%g}", s[0], s[1], s[2], s[3])
}
