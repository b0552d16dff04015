// Package pendulum implements the inverted pendulum on a cart.
//
// The equations of motion of the cart pendulum are
//
//	(M + m)*xddot - m*l*thddot*cos(th) + m*l*thdot^2*sin(th) = F
//	m*l*(-g*sin(th) - xddot*cos(th) + l*thddot) = 0
//
// or written with generalized coordinates q = (x, th)
//
//	M(q)*qddot + N(q, qdot)*qdot + G(q) = F
//
// where M is the mass matrix, N couples the velocities and G is the
// gravity term. A viscosity coefficient lambda is added on the diagonal
// of N to make the system intrinsically stable.
package pendulum

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Gravity is gravitational acceleration in m/s^2
const Gravity = 9.81

const (
	// DefaultCartMass is default mass of the cart
	DefaultCartMass = 1.0
	// DefaultPendulumMass is default mass of the pendulum
	DefaultPendulumMass = 1.0
	// DefaultPendulumLength is default length of the pendulum
	DefaultPendulumLength = 1.0
	// DefaultViscosity is default viscosity coefficient
	DefaultViscosity = 0.1
)

// Params are physical parameters of the cart pendulum
type Params struct {
	// CartMass is mass of the cart (M)
	CartMass float64
	// PendulumMass is mass of the pendulum (m)
	PendulumMass float64
	// PendulumLength is length of the pendulum (l)
	PendulumLength float64
	// Viscosity is viscosity coefficient (lambda)
	Viscosity float64
	// Scheme is time integration scheme
	Scheme Scheme
}

// DefaultParams returns default pendulum parameters
func DefaultParams() Params {
	return Params{
		CartMass:       DefaultCartMass,
		PendulumMass:   DefaultPendulumMass,
		PendulumLength: DefaultPendulumLength,
		Viscosity:      DefaultViscosity,
		Scheme:         SemiImplicitEuler,
	}
}

// InvertedPendulum is an inverted pendulum on a cart.
// InvertedPendulum is safe to use from multiple goroutines: calls to Advance are serialized.
type InvertedPendulum struct {
	mu sync.RWMutex
	// p are pendulum parameters
	p Params
	// state is the most recently computed state
	state State
}

// New creates new InvertedPendulum with default parameters and zero state
func New() *InvertedPendulum {
	return NewWithParams(DefaultParams())
}

// NewWithParams creates new InvertedPendulum with parameters p and zero state.
// Parameters are not validated: degenerate parameters make Advance fail.
func NewWithParams(p Params) *InvertedPendulum {
	return &InvertedPendulum{p: p}
}

// SetCartMass sets mass of the cart
func (ip *InvertedPendulum) SetCartMass(mass float64) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.p.CartMass = mass
}

// CartMass returns mass of the cart
func (ip *InvertedPendulum) CartMass() float64 {
	ip.mu.RLock()
	defer ip.mu.RUnlock()
	return ip.p.CartMass
}

// SetPendulumMass sets mass of the pendulum
func (ip *InvertedPendulum) SetPendulumMass(mass float64) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.p.PendulumMass = mass
}

// PendulumMass returns mass of the pendulum
func (ip *InvertedPendulum) PendulumMass() float64 {
	ip.mu.RLock()
	defer ip.mu.RUnlock()
	return ip.p.PendulumMass
}

// SetPendulumLength sets length of the pendulum
func (ip *InvertedPendulum) SetPendulumLength(length float64) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.p.PendulumLength = length
}

// PendulumLength returns length of the pendulum
func (ip *InvertedPendulum) PendulumLength() float64 {
	ip.mu.RLock()
	defer ip.mu.RUnlock()
	return ip.p.PendulumLength
}

// Viscosity returns viscosity coefficient
func (ip *InvertedPendulum) Viscosity() float64 {
	ip.mu.RLock()
	defer ip.mu.RUnlock()
	return ip.p.Viscosity
}

// Params returns a copy of pendulum parameters
func (ip *InvertedPendulum) Params() Params {
	ip.mu.RLock()
	defer ip.mu.RUnlock()
	return ip.p
}

// State returns the most recently computed state
func (ip *InvertedPendulum) State() State {
	ip.mu.RLock()
	defer ip.mu.RUnlock()
	return ip.state
}

// SetState overrides pendulum state
func (ip *InvertedPendulum) SetState(s State) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.state = s
}

// SetStateVec overrides pendulum state with the vector v.
// It returns ErrMalformedInput and leaves the state unchanged if v length is not StateDim.
func (ip *InvertedPendulum) SetStateVec(v mat.Vector) error {
	s, err := StateFromVec(v)
	if err != nil {
		return err
	}
	ip.SetState(s)

	return nil
}

// Accel returns generalized accelerations (xddot, thddot) of the pendulum
// in state s driven by force f. It does not modify the pendulum state.
func (ip *InvertedPendulum) Accel(s State, f float64) (float64, float64, error) {
	return accel(ip.Params(), s, f)
}

// Advance propagates the pendulum state by dt given the control input u and returns the new state.
// u must be a vector of length ControlDim holding the force applied to the cart.
// It returns error if either of the following conditions is met:
//   - dt is not a positive finite number (ErrInvalidParameter)
//   - u is nil, its length is not ControlDim or its value is not finite (ErrMalformedInput)
//   - pendulum parameters make the mass matrix singular (ErrInvalidParameter)
//
// The stored state is only updated when Advance succeeds.
func (ip *InvertedPendulum) Advance(u mat.Vector, dt float64) (State, error) {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return State{}, fmt.Errorf("%w: time step must be positive, got %g", ErrInvalidParameter, dt)
	}

	if u == nil {
		return State{}, fmt.Errorf("%w: nil control vector", ErrMalformedInput)
	}

	if u.Len() != ControlDim {
		return State{}, fmt.Errorf("%w: control vector size is %d, should be %d", ErrMalformedInput, u.Len(), ControlDim)
	}

	f := u.AtVec(0)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return State{}, fmt.Errorf("%w: control force is not finite: %g", ErrMalformedInput, f)
	}

	ip.mu.Lock()
	defer ip.mu.Unlock()

	xdd, thdd, err := accel(ip.p, ip.state, f)
	if err != nil {
		return State{}, err
	}

	next := step(ip.p.Scheme, ip.state, xdd, thdd, dt)
	if !next.IsFinite() {
		return State{}, fmt.Errorf("%w: non-finite state %v", ErrInvalidParameter, next)
	}
	ip.state = next

	return next, nil
}

// String implements the Stringer interface.
func (ip *InvertedPendulum) String() string {
	p := ip.Params()
	return fmt.Sprintf("InvertedPendulum{\nCartMass=%g\nPendulumMass=%g\nPendulumLength=%g\nViscosity=%g\nScheme=%s\nState=%v\n}",
		p.CartMass, p.PendulumMass, p.PendulumLength, p.Viscosity, p.Scheme, ip.State())
}
