package rand

import (
	"fmt"
	"math"

	rnd "golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// WithCovN draws n random samples from a zero-mean Normal (aka Gaussian) distribution with covariance cov.
// The samples are drawn using the random source src; if src is nil the global source is used.
// It returns matrix which contains the randomly generated samples stored in its columns.
// It fails with error if n is non-positive or if SVD factorization of cov fails.
func WithCovN(cov mat.Symmetric, n int, src rnd.Source) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of samples requested: %d", n)
	}

	if cov == nil || cov.SymmetricDim() == 0 {
		return nil, fmt.Errorf("invalid covariance matrix")
	}

	// SVD is used instead of Cholesky as cov may be (almost) singular
	var svd mat.SVD
	if ok := svd.Factorize(cov, mat.SVDFull); !ok {
		return nil, fmt.Errorf("SVD factorization failed")
	}

	U := new(mat.Dense)
	svd.UTo(U)
	vals := svd.Values(nil)
	for i := range vals {
		vals[i] = math.Sqrt(vals[i])
	}
	diag := mat.NewDiagDense(len(vals), vals)
	U.Mul(U, diag)

	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	rows := cov.SymmetricDim()
	data := make([]float64, rows*n)
	for i := range data {
		data[i] = norm.Rand()
	}
	samples := mat.NewDense(rows, n, data)
	samples.Mul(U, samples)

	return samples, nil
}
