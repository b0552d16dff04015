package pendulum

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// SingularTolerance is the smallest relative determinant of the mass matrix
// accepted by the solver. Mass matrices below it are treated as singular.
const SingularTolerance = 1e-12

// Scheme is a time integration scheme
type Scheme int

const (
	// SemiImplicitEuler updates velocities from accelerations first and
	// then positions from the updated velocities.
	SemiImplicitEuler Scheme = iota
	// ExplicitEuler updates positions from the velocities before the step.
	ExplicitEuler
	// Taylor updates positions with the second order Taylor expansion
	// x + xdot*dt + 0.5*xddot*dt^2 and velocities explicitly.
	Taylor
)

// String implements the Stringer interface.
func (s Scheme) String() string {
	switch s {
	case SemiImplicitEuler:
		return "semi-implicit"
	case ExplicitEuler:
		return "explicit"
	case Taylor:
		return "taylor"
	}

	return fmt.Sprintf("Scheme(%d)", int(s))
}

// ParseScheme returns Scheme with the given name.
// Empty name returns SemiImplicitEuler.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(name) {
	case "", "semi-implicit", "symplectic":
		return SemiImplicitEuler, nil
	case "explicit", "euler":
		return ExplicitEuler, nil
	case "taylor":
		return Taylor, nil
	}

	return 0, fmt.Errorf("unknown integration scheme: %q", name)
}

// massMatrix returns generalized mass matrix of q = (x, theta)
//
//	M(q) = | M+m          -m*l*cos(th) |
//	       | -m*l*cos(th)  m*l^2       |
func massMatrix(p Params, s State) *mat.Dense {
	m, l := p.PendulumMass, p.PendulumLength
	c := -m * l * math.Cos(s.Theta())

	return mat.NewDense(2, 2, []float64{
		p.CartMass + m, c,
		c, m * l * l,
	})
}

// couplingMatrix returns damped velocity coupling matrix
//
//	N(q, qdot) = | lambda  m*l*thdot*sin(th) |
//	             | 0       lambda            |
func couplingMatrix(p Params, s State) *mat.Dense {
	m, l := p.PendulumMass, p.PendulumLength

	return mat.NewDense(2, 2, []float64{
		p.Viscosity, m * l * s.ThetaDot() * math.Sin(s.Theta()),
		0, p.Viscosity,
	})
}

// biasVector returns gravity vector G(q) = (0, -m*l*g*sin(th))
func biasVector(p Params, s State) *mat.VecDense {
	m, l := p.PendulumMass, p.PendulumLength

	return mat.NewVecDense(2, []float64{0, -m * l * Gravity * math.Sin(s.Theta())})
}

// accel solves M(q)*qddot = F - N(q,qdot)*qdot - G(q) for qddot.
// It returns ErrInvalidParameter if the mass matrix is singular or ill conditioned.
func accel(p Params, s State, f float64) (float64, float64, error) {
	M := massMatrix(p, s)

	// determinant relative to the largest entry squared
	scale := math.Max(math.Abs(M.At(0, 0)), math.Abs(M.At(1, 1)))
	scale = math.Max(scale, math.Abs(M.At(0, 1)))
	if scale == 0 || math.Abs(mat.Det(M)) <= SingularTolerance*scale*scale {
		return 0, 0, fmt.Errorf("%w: singular mass matrix (cart mass %g, pendulum mass %g, pendulum length %g)",
			ErrInvalidParameter, p.CartMass, p.PendulumMass, p.PendulumLength)
	}

	qDot := mat.NewVecDense(2, []float64{s.XDot(), s.ThetaDot()})

	b := mat.NewVecDense(2, []float64{f, 0})

	nq := new(mat.VecDense)
	nq.MulVec(couplingMatrix(p, s), qDot)
	b.SubVec(b, nq)
	b.SubVec(b, biasVector(p, s))

	qDDot := new(mat.VecDense)
	if err := qDDot.SolveVec(M, b); err != nil {
		return 0, 0, fmt.Errorf("%w: mass matrix solve failed: %v", ErrInvalidParameter, err)
	}

	return qDDot.AtVec(0), qDDot.AtVec(1), nil
}

// step integrates state s over dt with accelerations xdd and thdd using scheme sc.
func step(sc Scheme, s State, xdd, thdd, dt float64) State {
	x, th, xd, thd := s[0], s[1], s[2], s[3]

	xdNext := xd + xdd*dt
	thdNext := thd + thdd*dt

	switch sc {
	case ExplicitEuler:
		return State{x + xd*dt, th + thd*dt, xdNext, thdNext}
	case Taylor:
		dt2 := 0.5 * dt * dt
		return State{x + xd*dt + xdd*dt2, th + thd*dt + thdd*dt2, xdNext, thdNext}
	}

	return State{x + xdNext*dt, th + thdNext*dt, xdNext, thdNext}
}
