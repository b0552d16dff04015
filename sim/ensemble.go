package sim

import (
	"fmt"
	"time"

	rnd "golang.org/x/exp/rand"

	cartpole "github.com/milosgajdos/go-cartpole"
	"github.com/milosgajdos/go-cartpole/pendulum"
	"github.com/milosgajdos/go-cartpole/rand"
	"gonum.org/v1/gonum/mat"
)

// InitCond is an uncertain initial condition: nominal state and its covariance
type InitCond struct {
	state pendulum.State
	cov   *mat.SymDense
}

// NewInitCond creates new InitCond and returns it.
// It returns error if cov is not a StateDim x StateDim matrix.
func NewInitCond(state pendulum.State, cov mat.Symmetric) (*InitCond, error) {
	if cov == nil || cov.SymmetricDim() != pendulum.StateDim {
		return nil, fmt.Errorf("invalid initial covariance dimension")
	}

	c := mat.NewSymDense(pendulum.StateDim, nil)
	c.CopySym(cov)

	return &InitCond{
		state: state,
		cov:   c,
	}, nil
}

// State returns nominal initial state
func (c *InitCond) State() pendulum.State {
	return c.state
}

// Cov returns initial covariance
func (c *InitCond) Cov() mat.Symmetric {
	cov := mat.NewSymDense(pendulum.StateDim, nil)
	cov.CopySym(c.cov)

	return cov
}

// Sample draws n initial states around the nominal state using the random source src
func (c *InitCond) Sample(n int, src rnd.Source) ([]pendulum.State, error) {
	samples, err := rand.WithCovN(c.cov, n, src)
	if err != nil {
		return nil, err
	}

	states := make([]pendulum.State, n)
	for i := range states {
		s := c.state
		for j := range s {
			s[j] += samples.At(j, i)
		}
		states[i] = s
	}

	return states, nil
}

// Ensemble runs n simulations of the pendulum with parameters p driven by controller c,
// each starting from an initial state sampled from ic. Samples are drawn from
// a source seeded with seed; if seed is 0 the source is seeded from the current time.
// It returns error if any of the runs fails.
func Ensemble(p pendulum.Params, ic *InitCond, c cartpole.Controller, dt float64, steps, n int, seed uint64) ([]*Trajectory, error) {
	if ic == nil {
		return nil, fmt.Errorf("invalid initial condition")
	}

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	states, err := ic.Sample(n, rnd.NewSource(seed))
	if err != nil {
		return nil, err
	}

	trajs := make([]*Trajectory, n)
	for i, s := range states {
		ip := pendulum.NewWithParams(p)
		ip.SetState(s)

		tr, err := Run(ip, c, nil, dt, steps)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		trajs[i] = tr
	}

	return trajs, nil
}
