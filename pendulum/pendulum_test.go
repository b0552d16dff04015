package pendulum

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func force(f float64) *mat.VecDense {
	return mat.NewVecDense(1, []float64{f})
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	ip := New()
	assert.NotNil(ip)
	assert.Equal(State{}, ip.State())
	assert.Equal(DefaultCartMass, ip.CartMass())
	assert.Equal(DefaultPendulumMass, ip.PendulumMass())
	assert.Equal(DefaultPendulumLength, ip.PendulumLength())
	assert.Equal(DefaultViscosity, ip.Viscosity())
	assert.Equal(SemiImplicitEuler, ip.Params().Scheme)
}

func TestParamAccessors(t *testing.T) {
	assert := assert.New(t)

	ip := New()

	ip.SetCartMass(2.5)
	assert.Equal(2.5, ip.CartMass())

	ip.SetPendulumMass(0.3)
	assert.Equal(0.3, ip.PendulumMass())

	ip.SetPendulumLength(0.75)
	assert.Equal(0.75, ip.PendulumLength())

	// no validation: caller is responsible for physical sanity
	ip.SetCartMass(-1)
	assert.Equal(-1.0, ip.CartMass())

	p := ip.Params()
	assert.Equal(-1.0, p.CartMass)
	assert.Equal(0.3, p.PendulumMass)
	assert.Equal(0.75, p.PendulumLength)
}

func TestAdvanceRest(t *testing.T) {
	assert := assert.New(t)

	ip := New()
	ip.SetCartMass(1.0)
	ip.SetPendulumMass(1.0)
	ip.SetPendulumLength(1.0)

	s, err := ip.Advance(force(0), 0.01)
	assert.NoError(err)
	assert.Equal(0.0, s.X())
	assert.Equal(0.0, s.Theta())
	assert.Equal(0.0, s.XDot())
	assert.Equal(0.0, s.ThetaDot())
	assert.Equal(s, ip.State())
}

func TestAdvanceEquilibrium(t *testing.T) {
	assert := assert.New(t)

	for _, x0 := range []float64{0, 3.5, -120.25} {
		p := DefaultParams()
		p.Viscosity = 0
		ip := NewWithParams(p)
		ip.SetState(NewState(x0, 0, 0, 0))

		for i := 0; i < 1000; i++ {
			s, err := ip.Advance(force(0), 0.01)
			assert.NoError(err)
			assert.Equal(0.0, s.Theta())
			assert.Equal(0.0, s.ThetaDot())
			assert.Equal(x0, s.X())
		}
	}
}

func TestAdvanceDeterminism(t *testing.T) {
	assert := assert.New(t)

	s0 := NewState(0.4, 0.2, -0.1, 0.7)

	a := New()
	a.SetState(s0)
	b := New()
	b.SetState(s0)

	for i := 0; i < 100; i++ {
		sa, err := a.Advance(force(1.5), 0.005)
		assert.NoError(err)
		sb, err := b.Advance(force(1.5), 0.005)
		assert.NoError(err)
		assert.Equal(sa, sb)
	}

	// repeated step from the same stored state
	c := New()
	c.SetState(s0)
	s1, err := c.Advance(force(-2), 0.01)
	assert.NoError(err)
	c.SetState(s0)
	s2, err := c.Advance(force(-2), 0.01)
	assert.NoError(err)
	assert.Equal(s1, s2)
}

func TestAdvanceSmallAngle(t *testing.T) {
	assert := assert.New(t)

	theta := 1e-3
	dt := 0.01

	ip := New()
	ip.SetState(NewState(0, theta, 0, 0))

	// M = m = l = 1: linearized dynamics give xddot = g*th and thddot = 2*g*th
	xdd, thdd, err := ip.Accel(ip.State(), 0)
	assert.NoError(err)
	assert.InDelta(Gravity*theta, xdd, 1e-6)
	assert.InDelta(2*Gravity*theta, thdd, 1e-6)

	// pendulum falls away from the upright position
	s, err := ip.Advance(force(0), dt)
	assert.NoError(err)
	assert.InDelta(thdd*dt, s.ThetaDot(), 1e-12)
	assert.InDelta(theta+thdd*dt*dt, s.Theta(), 1e-12)
	assert.InDelta(xdd*dt, s.XDot(), 1e-12)
	assert.InDelta(xdd*dt*dt, s.X(), 1e-12)
	assert.Greater(s.Theta(), theta)
}

func TestAdvanceForce(t *testing.T) {
	assert := assert.New(t)

	ip := New()

	// pushing the cart at rest accelerates it and tips the pendulum
	xdd, thdd, err := ip.Accel(State{}, 1)
	assert.NoError(err)
	assert.InDelta(1.0, xdd, 1e-12)
	assert.InDelta(1.0, thdd, 1e-12)

	s, err := ip.Advance(force(1), 0.1)
	assert.NoError(err)
	assert.Greater(s.X(), 0.0)
	assert.Greater(s.XDot(), 0.0)
}

func TestAdvanceInvalidTimeStep(t *testing.T) {
	assert := assert.New(t)

	ip := New()
	s0 := NewState(1, 0.1, 0, 0)
	ip.SetState(s0)

	for _, dt := range []float64{0, -0.01, math.NaN(), math.Inf(1)} {
		s, err := ip.Advance(force(0), dt)
		assert.ErrorIs(err, ErrInvalidParameter)
		assert.Equal(State{}, s)
		assert.Equal(s0, ip.State())
	}
}

func TestAdvanceMalformedInput(t *testing.T) {
	assert := assert.New(t)

	ip := New()
	s0 := NewState(1, 0.1, 0, 0)
	ip.SetState(s0)

	for _, u := range []mat.Vector{
		nil,
		mat.NewVecDense(2, []float64{1, 2}),
		mat.NewVecDense(4, nil),
		force(math.NaN()),
		force(math.Inf(-1)),
	} {
		_, err := ip.Advance(u, 0.01)
		assert.ErrorIs(err, ErrMalformedInput)
		assert.Equal(s0, ip.State())
	}
}

func TestAdvanceSingular(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		name   string
		params func(*InvertedPendulum)
	}{
		{"zero pendulum mass", func(ip *InvertedPendulum) { ip.SetPendulumMass(0) }},
		{"zero pendulum length", func(ip *InvertedPendulum) { ip.SetPendulumLength(0) }},
		{"zero cart mass at rest", func(ip *InvertedPendulum) { ip.SetCartMass(0) }},
		{"all zero", func(ip *InvertedPendulum) {
			ip.SetCartMass(0)
			ip.SetPendulumMass(0)
			ip.SetPendulumLength(0)
		}},
	} {
		t.Run(test.name, func(t *testing.T) {
			ip := New()
			test.params(ip)

			for _, f := range []float64{0, 1, -100} {
				s, err := ip.Advance(force(f), 0.01)
				assert.ErrorIs(err, ErrInvalidParameter)
				assert.True(s.IsFinite())
				assert.Equal(State{}, ip.State())
			}
		})
	}
}

func TestAdvanceFailureKeepsState(t *testing.T) {
	assert := assert.New(t)

	ip := New()
	ip.SetState(NewState(0, 0.1, 0, 0))

	s1, err := ip.Advance(force(0), 0.01)
	assert.NoError(err)

	ip.SetPendulumMass(0)
	_, err = ip.Advance(force(0), 0.01)
	assert.Error(err)
	assert.Equal(s1, ip.State())

	// parameters take effect on the next step
	ip.SetPendulumMass(1)
	s2, err := ip.Advance(force(0), 0.01)
	assert.NoError(err)
	assert.NotEqual(s1, s2)
}

func TestAdvanceSchemes(t *testing.T) {
	assert := assert.New(t)

	s0 := NewState(0, 0.1, 0.5, 0.2)
	dt := 0.01

	results := make(map[Scheme]State)
	for _, sc := range []Scheme{SemiImplicitEuler, ExplicitEuler, Taylor} {
		p := DefaultParams()
		p.Scheme = sc
		ip := NewWithParams(p)
		ip.SetState(s0)

		s, err := ip.Advance(force(0.5), dt)
		assert.NoError(err)
		results[sc] = s
	}

	xdd, thdd, err := New().Accel(s0, 0.5)
	assert.NoError(err)

	// velocities are identical for all schemes
	for _, s := range results {
		assert.InDelta(s0.XDot()+xdd*dt, s.XDot(), 1e-15)
		assert.InDelta(s0.ThetaDot()+thdd*dt, s.ThetaDot(), 1e-15)
	}

	explicit := results[ExplicitEuler]
	assert.InDelta(s0.X()+s0.XDot()*dt, explicit.X(), 1e-15)
	assert.InDelta(s0.Theta()+s0.ThetaDot()*dt, explicit.Theta(), 1e-15)

	semi := results[SemiImplicitEuler]
	assert.InDelta(s0.X()+semi.XDot()*dt, semi.X(), 1e-15)
	assert.InDelta(s0.Theta()+semi.ThetaDot()*dt, semi.Theta(), 1e-15)

	taylor := results[Taylor]
	assert.InDelta(s0.Theta()+s0.ThetaDot()*dt+0.5*thdd*dt*dt, taylor.Theta(), 1e-15)

	// taylor position update lies half way between explicit and semi-implicit
	assert.InDelta((explicit.Theta()+semi.Theta())/2, taylor.Theta(), 1e-15)
}

func TestAdvanceDamped(t *testing.T) {
	assert := assert.New(t)

	// the pendulum starts hanging down (th = pi) and swinging
	ip := New()
	ip.SetState(NewState(0, math.Pi, 0, 1))

	for i := 0; i < 20000; i++ {
		_, err := ip.Advance(force(0), 0.001)
		assert.NoError(err)
	}

	s := ip.State()
	assert.True(s.IsFinite())
	assert.Less(math.Abs(s.ThetaDot()), 1.0)
}

func TestAdvanceConcurrent(t *testing.T) {
	require := require.New(t)

	workers, steps := 8, 50
	s0 := NewState(0, 0.05, 0, 0)

	ref := New()
	ref.SetState(s0)
	for i := 0; i < workers*steps; i++ {
		_, err := ref.Advance(force(0.1), 0.001)
		require.NoError(err)
	}

	ip := New()
	ip.SetState(s0)

	var wg sync.WaitGroup
	errs := make(chan error, workers*steps)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < steps; i++ {
				if _, err := ip.Advance(force(0.1), 0.001); err != nil {
					errs <- err
				}
				_ = ip.CartMass()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(err)
	}
	require.Equal(ref.State(), ip.State())
}

func TestSetStateVec(t *testing.T) {
	assert := assert.New(t)

	ip := New()
	err := ip.SetStateVec(mat.NewVecDense(4, []float64{0.0, 0.01, 0.0, 0.0}))
	assert.NoError(err)
	assert.Equal(NewState(0, 0.01, 0, 0), ip.State())

	err = ip.SetStateVec(mat.NewVecDense(3, nil))
	assert.ErrorIs(err, ErrMalformedInput)
	assert.Equal(NewState(0, 0.01, 0, 0), ip.State())

	err = ip.SetStateVec(nil)
	assert.ErrorIs(err, ErrMalformedInput)
}

func TestString(t *testing.T) {
	assert := assert.New(t)

	ip := New()
	assert.Contains(ip.String(), "CartMass=1")
	assert.Contains(ip.String(), "Scheme=semi-implicit")
}
