package noise

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Zero is zero noise i.e. no disturbance
type Zero struct {
	// size is the noise dimension
	size int
}

// NewZero creates new zero noise i.e. zero mean and zero covariance.
// It returns error if size is negative.
func NewZero(size int) (*Zero, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid noise dimension: %d", size)
	}

	return &Zero{size: size}, nil
}

// Sample returns a vector with zero values.
func (z *Zero) Sample() mat.Vector {
	if z.size == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(z.size, nil)
}

// Cov returns symmetric matrix with zero values.
func (z *Zero) Cov() mat.Symmetric {
	if z.size == 0 {
		return &mat.SymDense{}
	}
	return mat.NewSymDense(z.size, nil)
}

// Mean returns zero mean.
func (z *Zero) Mean() []float64 {
	return make([]float64, z.size)
}

// Reset does nothing: zero noise has no state.
func (z *Zero) Reset() error { return nil }

// String implements the Stringer interface.
func (z *Zero) String() string {
	return fmt.Sprintf("Zero{\nMean=%v\nCov=%v\n}", z.Mean(), mat.Formatted(z.Cov(), mat.Prefix("    "), mat.Squeeze()))
}
