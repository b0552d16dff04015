package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// System defines a linear model of a plant using
// traditional matrices of modern control theory.
//
// It contains the System (A), input (B), Observation/Output (C)
// and Feedthrough (D) matrices.
type System struct {
	// System/State matrix A
	A *mat.Dense
	// Control/Input Matrix B
	B *mat.Dense
	// Observation/Output Matrix C
	C *mat.Dense
	// Feedthrough matrix D
	D *mat.Dense
}

// newSystem copies the supplied matrices into a new System.
// It returns error if A is nil or not square or if the dimensions of B, C or D don't match A.
func newSystem(A, B, C, D mat.Matrix) (System, error) {
	if A == nil {
		return System{}, fmt.Errorf("system matrix must be defined for a model")
	}

	nx, cols := A.Dims()
	if nx != cols {
		return System{}, fmt.Errorf("invalid system matrix dimensions: [%d x %d]", nx, cols)
	}

	sys := System{A: mat.DenseCopyOf(A)}
	if B != nil {
		if r, _ := B.Dims(); r != nx {
			return System{}, fmt.Errorf("invalid control matrix rows: %d != %d", r, nx)
		}
		sys.B = mat.DenseCopyOf(B)
	}

	if C != nil {
		if _, c := C.Dims(); c != nx {
			return System{}, fmt.Errorf("invalid output matrix columns: %d != %d", c, nx)
		}
		sys.C = mat.DenseCopyOf(C)
	}

	if D != nil {
		r, c := D.Dims()
		if sys.C == nil || sys.B == nil {
			return System{}, fmt.Errorf("feedthrough matrix requires control and output matrices")
		}
		ny, _ := sys.C.Dims()
		_, nu := sys.B.Dims()
		if r != ny || c != nu {
			return System{}, fmt.Errorf("invalid feedthrough matrix dimensions: [%d x %d]", r, c)
		}
		sys.D = mat.DenseCopyOf(D)
	}

	return sys, nil
}

// SystemDims returns internal state length (nx), input vector length (nu)
// and external/observable/output state length (ny).
func (s System) SystemDims() (nx, nu, ny int) {
	nx, _ = s.A.Dims()
	if s.B != nil {
		_, nu = s.B.Dims()
	}
	if s.C != nil {
		ny, _ = s.C.Dims()
	}
	return nx, nu, ny
}

// SystemMatrix returns state propagation matrix `A`.
func (s System) SystemMatrix() mat.Matrix { return s.A }

// ControlMatrix returns state propagation control matrix `B`
func (s System) ControlMatrix() mat.Matrix {
	if s.B == nil {
		return nil
	}
	return s.B
}

// OutputMatrix returns observation matrix `C`
func (s System) OutputMatrix() mat.Matrix {
	if s.C == nil {
		return nil
	}
	return s.C
}

// FeedForwardMatrix returns observation control matrix `D`
func (s System) FeedForwardMatrix() mat.Matrix {
	if s.D == nil {
		return nil
	}
	return s.D
}

// Observe returns external/observable state given internal state x and input u.
func (s System) Observe(x, u mat.Vector) (mat.Vector, error) {
	if s.C == nil {
		return nil, fmt.Errorf("system has no output matrix")
	}

	nx, nu, ny := s.SystemDims()
	if x == nil || x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector")
	}

	if u != nil && u.Len() != nu {
		return nil, fmt.Errorf("invalid input vector")
	}

	out := mat.NewVecDense(ny, nil)
	out.MulVec(s.C, x)

	if u != nil && s.D != nil {
		outU := mat.NewVecDense(ny, nil)
		outU.MulVec(s.D, u)
		out.AddVec(out, outU)
	}

	return out, nil
}

// propagate returns A*x + B*u after checking vector dimensions.
func (s System) propagate(x, u mat.Vector) (*mat.VecDense, error) {
	nx, nu, _ := s.SystemDims()
	if x == nil || x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector")
	}

	if u != nil && u.Len() != nu {
		return nil, fmt.Errorf("invalid input vector")
	}

	out := mat.NewVecDense(nx, nil)
	out.MulVec(s.A, x)

	if u != nil && s.B != nil {
		outU := mat.NewVecDense(nx, nil)
		outU.MulVec(s.B, u)
		out.AddVec(out, outU)
	}

	return out, nil
}

// String implements the Stringer interface.
func (s System) String() string {
	return fmt.Sprintf("System{\nA=%v\nB=%v\n}",
		mat.Formatted(s.A, mat.Prefix("  "), mat.Squeeze()),
		mat.Formatted(orEmpty(s.B), mat.Prefix("  "), mat.Squeeze()))
}

func orEmpty(m *mat.Dense) mat.Matrix {
	if m == nil {
		return &mat.Dense{}
	}
	return m
}
