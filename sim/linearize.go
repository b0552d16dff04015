package sim

import (
	"fmt"
	"math"

	"github.com/milosgajdos/go-cartpole/pendulum"
	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Linearize returns the continuous-time linear model of the cart pendulum
// with parameters p around the rest state (0, 0, 0, 0) with zero force.
// Model output is the full state: C is identity and D is zero.
//
// Around the rest state sin(th) ~ th, cos(th) ~ 1 and the velocity coupling
// term vanishes, which gives
//
//	qddot = M0^-1 * (F - lambda*qdot + K*q)
//
// where M0 is the mass matrix at th = 0 and K = diag(0, m*l*g).
// It returns pendulum.ErrInvalidParameter if M0 is singular.
func Linearize(p pendulum.Params) (*Continuous, error) {
	m, l := p.PendulumMass, p.PendulumLength

	M0 := mat.NewDense(2, 2, []float64{
		p.CartMass + m, -m * l,
		-m * l, m * l * l,
	})

	scale := math.Max(math.Abs(M0.At(0, 0)), math.Max(math.Abs(M0.At(0, 1)), math.Abs(M0.At(1, 1))))
	if scale == 0 || math.Abs(mat.Det(M0)) <= pendulum.SingularTolerance*scale*scale {
		return nil, fmt.Errorf("%w: singular mass matrix at rest", pendulum.ErrInvalidParameter)
	}

	Minv := new(mat.Dense)
	if err := Minv.Inverse(M0); err != nil {
		return nil, fmt.Errorf("%w: mass matrix inversion failed: %v", pendulum.ErrInvalidParameter, err)
	}

	mlg := m * l * pendulum.Gravity

	A := mat.NewDense(pendulum.StateDim, pendulum.StateDim, nil)
	A.Set(0, 2, 1)
	A.Set(1, 3, 1)
	for i := 0; i < 2; i++ {
		A.Set(2+i, 1, Minv.At(i, 1)*mlg)
		A.Set(2+i, 2, -p.Viscosity*Minv.At(i, 0))
		A.Set(2+i, 3, -p.Viscosity*Minv.At(i, 1))
	}

	B := mat.NewDense(pendulum.StateDim, pendulum.ControlDim, []float64{
		0, 0, Minv.At(0, 0), Minv.At(1, 0),
	})

	C, err := matrix.NewDenseValIdentity(pendulum.StateDim, 1.0)
	if err != nil {
		return nil, err
	}

	D := mat.NewDense(pendulum.StateDim, pendulum.ControlDim, nil)

	return NewContinuous(A, B, C, D)
}

// LinearizeNumeric returns the continuous-time linear model of the pendulum ip
// around the state s and force f. Model matrices are the Jacobians of the
// nonlinear dynamics computed with central finite differences.
// It returns error if the dynamics can't be evaluated around the operating point.
func LinearizeNumeric(ip *pendulum.InvertedPendulum, s pendulum.State, f float64) (*Continuous, error) {
	nx, nu := pendulum.StateDim, pendulum.ControlDim

	var evalErr error
	dyn := func(y, z []float64) {
		xdd, thdd, err := ip.Accel(pendulum.NewState(z[0], z[1], z[2], z[3]), z[4])
		if err != nil {
			evalErr = err
			for i := range y {
				y[i] = math.NaN()
			}
			return
		}
		y[0], y[1], y[2], y[3] = z[2], z[3], xdd, thdd
	}

	jac := mat.NewDense(nx, nx+nu, nil)
	fd.Jacobian(jac, dyn, []float64{s[0], s[1], s[2], s[3], f}, &fd.JacobianSettings{
		Formula: fd.Central,
	})
	if evalErr != nil {
		return nil, evalErr
	}

	C, err := matrix.NewDenseValIdentity(nx, 1.0)
	if err != nil {
		return nil, err
	}

	return NewContinuous(jac.Slice(0, nx, 0, nx), jac.Slice(0, nx, nx, nx+nu), C, mat.NewDense(nx, nu, nil))
}
