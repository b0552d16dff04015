package control

import (
	"fmt"
	"math"

	cartpole "github.com/milosgajdos/go-cartpole"
	"github.com/milosgajdos/go-cartpole/pendulum"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultIters is default maximum number of Riccati iterations
	DefaultIters = 100000
	// DefaultTol is default Riccati convergence tolerance
	DefaultTol = 1e-9
)

// LQR computes infinite horizon discrete-time LQR gain for the linear system sys
// minimizing sum(x'*Q*x + u'*R*u) and returns the StateFeedback controller using it.
// The gain is found by iterating the discrete algebraic Riccati equation
//
//	P = A'*P*A - A'*P*B*(R + B'*P*B)^-1*B'*P*A + Q
//
// until the relative change of P drops below tol or iters is reached.
// It returns error if either of the following conditions is met:
//   - sys is not a 4 state, 1 input system
//   - Q or R dimensions don't match the system
//   - the Riccati iteration fails to converge
func LQR(sys cartpole.LinearSystem, Q, R mat.Symmetric, iters int, tol float64) (*StateFeedback, error) {
	nx, nu, _ := sys.SystemDims()
	if nx != pendulum.StateDim || nu != pendulum.ControlDim {
		return nil, fmt.Errorf("invalid system dimensions: [%d x %d]", nx, nu)
	}

	if Q == nil || Q.SymmetricDim() != nx {
		return nil, fmt.Errorf("invalid state weight dimension")
	}

	if R == nil || R.SymmetricDim() != nu {
		return nil, fmt.Errorf("invalid input weight dimension")
	}

	if iters <= 0 {
		iters = DefaultIters
	}

	if !(tol > 0) {
		tol = DefaultTol
	}

	A, B := sys.SystemMatrix(), sys.ControlMatrix()
	if B == nil {
		return nil, fmt.Errorf("system has no control matrix")
	}

	P := mat.DenseCopyOf(Q)
	K := mat.NewDense(nu, nx, nil)

	var (
		BtP   mat.Dense
		S     mat.Dense
		BtPA  mat.Dense
		AtP   mat.Dense
		AtPB  mat.Dense
		AtPBK mat.Dense
		next  mat.Dense
		delta mat.Dense
	)

	for i := 0; i < iters; i++ {
		// K = (R + B'*P*B)^-1 * B'*P*A
		BtP.Mul(B.T(), P)
		S.Mul(&BtP, B)
		S.Add(&S, R)
		BtPA.Mul(&BtP, A)
		if err := K.Solve(&S, &BtPA); err != nil {
			return nil, fmt.Errorf("riccati gain solve failed: %v", err)
		}

		// P = A'*P*A - A'*P*B*K + Q
		AtP.Mul(A.T(), P)
		next.Mul(&AtP, A)
		AtPB.Mul(&AtP, B)
		AtPBK.Mul(&AtPB, K)
		next.Sub(&next, &AtPBK)
		next.Add(&next, Q)

		delta.Sub(&next, P)
		change := mat.Norm(&delta, math.Inf(1))
		scale := math.Max(1, mat.Norm(&next, math.Inf(1)))
		P.Copy(&next)

		if math.IsNaN(change) || math.IsInf(change, 0) {
			return nil, fmt.Errorf("riccati iteration diverged after %d iterations", i+1)
		}

		if change <= tol*scale {
			var k [pendulum.StateDim]float64
			copy(k[:], mat.Row(nil, 0, K))
			return NewStateFeedback(k), nil
		}
	}

	return nil, fmt.Errorf("riccati iteration did not converge in %d iterations", iters)
}
