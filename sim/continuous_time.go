package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Continuous is a linear, continuous-time model of a plant
type Continuous struct {
	System
}

// NewContinuous creates a linear continuous-time model based on the control theory equations
//
//	dx/dt = A*x + B*u
//	y = C*x + D*u
//
// It returns error if A is nil or if the dimensions of the matrices don't match.
func NewContinuous(A, B, C, D mat.Matrix) (*Continuous, error) {
	sys, err := newSystem(A, B, C, D)
	if err != nil {
		return nil, err
	}
	return &Continuous{System: sys}, nil
}

// Propagate returns the next internal state x of the continuous-time
// system given an input vector u. It integrates the first order derivatives
// with Euler's method over timestep dt.
func (ct *Continuous) Propagate(x, u mat.Vector, dt float64) (mat.Vector, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("invalid time step: %g", dt)
	}

	dx, err := ct.propagate(x, u)
	if err != nil {
		return nil, err
	}

	dx.ScaleVec(dt, dx)
	dx.AddVec(x, dx)

	return dx, nil
}

// ToDiscrete creates a discrete-time model from a continuous time model
// using Ts as the sampling time and zero order hold on the input.
//
// Both matrices are read off the exponential of the augmented matrix
//
//	exp(| A B | * Ts) = | Ad Bd |
//	    | 0 0 |         | 0  I  |
//
// which is valid even when A is singular.
func (ct *Continuous) ToDiscrete(Ts float64) (*Discrete, error) {
	if !(Ts > 0) {
		return nil, fmt.Errorf("invalid sampling time: %g", Ts)
	}

	nx, nu, _ := ct.SystemDims()
	n := nx + nu

	aug := mat.NewDense(n, n, nil)
	aug.Slice(0, nx, 0, nx).(*mat.Dense).Scale(Ts, ct.A)
	if ct.B != nil {
		aug.Slice(0, nx, nx, n).(*mat.Dense).Scale(Ts, ct.B)
	}

	exp := new(mat.Dense)
	exp.Exp(aug)

	var B mat.Matrix
	if ct.B != nil {
		B = exp.Slice(0, nx, nx, n)
	}

	var C, D mat.Matrix
	if ct.C != nil {
		C = ct.C
	}
	if ct.D != nil {
		D = ct.D
	}

	sys, err := newSystem(exp.Slice(0, nx, 0, nx), B, C, D)
	if err != nil {
		return nil, err
	}

	return &Discrete{System: sys}, nil
}
