// Package control provides controllers computing the cart force from the pendulum state.
package control

import (
	"math"

	"github.com/milosgajdos/go-cartpole/pendulum"
	"gonum.org/v1/gonum/mat"
)

// Zero is a controller which never applies any force
type Zero struct{}

// Control returns zero force
func (Zero) Control(x pendulum.State) (mat.Vector, error) {
	return mat.NewVecDense(pendulum.ControlDim, nil), nil
}

// StateFeedback is a linear state feedback controller
//
//	F = -K * (x - Target)
type StateFeedback struct {
	// K is feedback gain
	K [pendulum.StateDim]float64
	// Target is the state the controller drives the pendulum to
	Target pendulum.State
	// Limit saturates the force to [-Limit, Limit]; zero means no saturation
	Limit float64
}

// NewStateFeedback creates new StateFeedback with gain k driving the pendulum to the rest state
func NewStateFeedback(k [pendulum.StateDim]float64) *StateFeedback {
	return &StateFeedback{K: k}
}

// Control returns force computed from the state x
func (s *StateFeedback) Control(x pendulum.State) (mat.Vector, error) {
	f := 0.0
	for i := range x {
		f -= s.K[i] * (x[i] - s.Target[i])
	}

	if s.Limit > 0 {
		f = math.Max(-s.Limit, math.Min(s.Limit, f))
	}

	return mat.NewVecDense(pendulum.ControlDim, []float64{f}), nil
}
