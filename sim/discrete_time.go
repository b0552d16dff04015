package sim

import (
	"gonum.org/v1/gonum/mat"
)

// Discrete is a linear, discrete-time model of a plant
type Discrete struct {
	System
}

// NewDiscrete creates a linear discrete-time model based on the control theory equations.
//
//	x[n+1] = A*x[n] + B*u[n]
//	y[n] = C*x[n] + D*u[n]
func NewDiscrete(A, B, C, D mat.Matrix) (*Discrete, error) {
	sys, err := newSystem(A, B, C, D)
	if err != nil {
		return nil, err
	}
	return &Discrete{System: sys}, nil
}

// Propagate returns the next internal state x of the discrete-time system given an input vector u.
func (dt *Discrete) Propagate(x, u mat.Vector) (mat.Vector, error) {
	return dt.propagate(x, u)
}
