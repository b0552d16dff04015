package cartpole

import (
	"github.com/milosgajdos/go-cartpole/pendulum"
	"gonum.org/v1/gonum/mat"
)

// Plant is a dynamical system advanced in discrete ticks by a control input
type Plant interface {
	// Advance propagates the plant state by dt given the control input u
	Advance(u mat.Vector, dt float64) (pendulum.State, error)
	// State returns the most recently computed plant state
	State() pendulum.State
}

// Controller computes the control input for a given plant state
type Controller interface {
	// Control returns control input for the state x
	Control(x pendulum.State) (mat.Vector, error)
}

// LinearSystem is a linear state space model of a plant
type LinearSystem interface {
	// SystemDims returns state, input and output dimensions
	SystemDims() (nx, nu, ny int)
	// SystemMatrix returns state propagation matrix
	SystemMatrix() mat.Matrix
	// ControlMatrix returns state propagation control matrix
	ControlMatrix() mat.Matrix
}

// Noise is a disturbance added to the plant control input
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset() error
}
