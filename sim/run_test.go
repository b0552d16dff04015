package sim

import (
	"bytes"
	"errors"
	"testing"

	"github.com/milosgajdos/go-cartpole/pendulum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
)

type constForce float64

func (f constForce) Control(x pendulum.State) (mat.Vector, error) {
	return mat.NewVecDense(1, []float64{float64(f)}), nil
}

type failingController struct {
	after int
	calls int
}

func (f *failingController) Control(x pendulum.State) (mat.Vector, error) {
	f.calls++
	if f.calls > f.after {
		return nil, errors.New("sensor failure")
	}
	return mat.NewVecDense(1, nil), nil
}

type constNoise struct {
	v *mat.VecDense
}

func (n constNoise) Mean() []float64    { return mat.Col(nil, 0, n.v) }
func (n constNoise) Cov() mat.Symmetric { return mat.NewSymDense(n.v.Len(), nil) }
func (n constNoise) Sample() mat.Vector { return n.v }
func (n constNoise) Reset() error       { return nil }

func TestRun(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	ip := pendulum.New()
	ip.SetState(pendulum.NewState(0, 0.01, 0, 0))

	dt, steps := 0.01, 100
	tr, err := Run(ip, constForce(0), nil, dt, steps)
	require.NoError(err)

	assert.Equal(steps+1, tr.Len())
	assert.Len(tr.Forces, steps)
	r, c := tr.States.Dims()
	assert.Equal(steps+1, r)
	assert.Equal(pendulum.StateDim, c)

	assert.Equal(pendulum.NewState(0, 0.01, 0, 0), tr.State(0))
	assert.InDelta(float64(steps)*dt, tr.Times[steps], 1e-12)
	assert.Equal(ip.State(), tr.Final())

	// replaying the run step by step gives the same states
	ref := pendulum.New()
	ref.SetState(pendulum.NewState(0, 0.01, 0, 0))
	for i := 1; i <= steps; i++ {
		s, err := ref.Advance(mat.NewVecDense(1, nil), dt)
		require.NoError(err)
		assert.Equal(s, tr.State(i))
	}
}

func TestRunNoise(t *testing.T) {
	assert := assert.New(t)

	ip := pendulum.New()
	tr, err := Run(ip, constForce(1), constNoise{mat.NewVecDense(1, []float64{0.5})}, 0.01, 10)
	assert.NoError(err)
	for _, f := range tr.Forces {
		assert.Equal(1.5, f)
	}

	// disturbance dimension must match the control input
	ip = pendulum.New()
	tr, err = Run(ip, constForce(1), constNoise{mat.NewVecDense(2, nil)}, 0.01, 10)
	assert.Error(err)
	assert.Equal(1, tr.Len())
}

func TestRunInvalid(t *testing.T) {
	assert := assert.New(t)

	ip := pendulum.New()

	tr, err := Run(ip, constForce(0), nil, 0, 10)
	assert.Nil(tr)
	assert.Error(err)

	tr, err = Run(ip, constForce(0), nil, 0.01, 0)
	assert.Nil(tr)
	assert.Error(err)
}

func TestRunFailure(t *testing.T) {
	assert := assert.New(t)

	// controller failure
	ip := pendulum.New()
	tr, err := Run(ip, &failingController{after: 5}, nil, 0.01, 10)
	assert.Error(err)
	assert.Equal(6, tr.Len())

	// singular plant
	ip = pendulum.New()
	ip.SetPendulumMass(0)
	tr, err = Run(ip, constForce(0), nil, 0.01, 10)
	assert.ErrorIs(err, pendulum.ErrInvalidParameter)
	assert.Equal(1, tr.Len())
	assert.Equal(pendulum.State{}, ip.State())
}

func TestTrajectoryPlot(t *testing.T) {
	assert := assert.New(t)

	ip := pendulum.New()
	ip.SetState(pendulum.NewState(0, 0.01, 0, 0))
	tr, err := Run(ip, constForce(0), nil, 0.01, 50)
	assert.NoError(err)

	config, velocity, err := NewTrajectoryPlots(tr)
	assert.NoError(err)
	assert.NotNil(config)
	assert.NotNil(velocity)
	assert.Equal("Configuration", config.Title.Text)
	assert.Equal("Velocity", velocity.Title.Text)

	var buf bytes.Buffer
	err = WriteTrajectoryPlot(&buf, tr, 6*vg.Inch, 3*vg.Inch)
	assert.NoError(err)
	assert.True(bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	config, velocity, err = NewTrajectoryPlots(nil)
	assert.Nil(config)
	assert.Nil(velocity)
	assert.Error(err)

	bad := &Trajectory{Times: []float64{0, 1}, States: mat.NewDense(2, 2, nil)}
	_, _, err = NewTrajectoryPlots(bad)
	assert.Error(err)

	path := t.TempDir() + "/trajectory.png"
	assert.NoError(SaveTrajectoryPlot(tr, 6*vg.Inch, 3*vg.Inch, path))
}
