package sim

import (
	"fmt"

	cartpole "github.com/milosgajdos/go-cartpole"
	"github.com/milosgajdos/go-cartpole/pendulum"
	"gonum.org/v1/gonum/mat"
)

// Trajectory is a recorded run of a plant
type Trajectory struct {
	// Times are the tick times
	Times []float64
	// States stores one plant state per row
	States *mat.Dense
	// Forces are the forces applied at each tick (including disturbance)
	Forces []float64
}

// Len returns number of recorded states
func (t *Trajectory) Len() int {
	return len(t.Times)
}

// State returns i-th recorded state
func (t *Trajectory) State(i int) pendulum.State {
	var s pendulum.State
	copy(s[:], t.States.RawRowView(i))
	return s
}

// Final returns the last recorded state
func (t *Trajectory) Final() pendulum.State {
	return t.State(t.Len() - 1)
}

// Run drives plant p for the given number of steps of length dt.
// At every step the controller c computes the force from the current plant state,
// the disturbance w (if not nil) is added to it and the plant is advanced.
// The initial state and every following state are recorded in the returned Trajectory.
// It returns error if dt or steps are not positive or if the plant fails to advance;
// in the latter case the trajectory recorded until the failure is returned along with the error.
func Run(p cartpole.Plant, c cartpole.Controller, w cartpole.Noise, dt float64, steps int) (*Trajectory, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("invalid time step: %g", dt)
	}

	if steps <= 0 {
		return nil, fmt.Errorf("invalid number of steps: %d", steps)
	}

	states := make([]float64, 0, (steps+1)*pendulum.StateDim)
	tr := &Trajectory{
		Times:  make([]float64, 0, steps+1),
		Forces: make([]float64, 0, steps),
	}

	x := p.State()
	tr.Times = append(tr.Times, 0)
	states = append(states, x[:]...)

	var err error
	for i := 0; i < steps; i++ {
		var u mat.Vector
		u, err = c.Control(x)
		if err != nil {
			err = fmt.Errorf("step %d: controller failed: %w", i, err)
			break
		}

		if u == nil {
			err = fmt.Errorf("step %d: controller returned nil input", i)
			break
		}

		if w != nil {
			sample := w.Sample()
			if sample.Len() != u.Len() {
				err = fmt.Errorf("step %d: invalid disturbance dimension: %d != %d", i, sample.Len(), u.Len())
				break
			}
			du := mat.NewVecDense(u.Len(), nil)
			du.AddVec(u, sample)
			u = du
		}

		x, err = p.Advance(u, dt)
		if err != nil {
			err = fmt.Errorf("step %d: plant propagation failed: %w", i, err)
			break
		}

		tr.Times = append(tr.Times, float64(i+1)*dt)
		tr.Forces = append(tr.Forces, u.AtVec(0))
		states = append(states, x[:]...)
	}

	tr.States = mat.NewDense(len(tr.Times), pendulum.StateDim, states)

	return tr, err
}
