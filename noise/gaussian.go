package noise

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is gaussian noise
type Gaussian struct {
	// dist is a multivariate normal distribution
	dist *distmv.Normal
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *mat.SymDense
	// seed seeds the random source; zero seeds from the clock
	seed uint64
}

// NewGaussian creates new Gaussian noise with given mean and covariance.
// The noise samples are drawn from a source seeded with seed. If seed is 0 the
// source is seeded from the current time and the samples are not reproducible.
// It returns error if mean and cov dimensions don't match or if cov is not positive definite.
func NewGaussian(mean []float64, cov mat.Symmetric, seed uint64) (*Gaussian, error) {
	if cov == nil || cov.SymmetricDim() != len(mean) {
		return nil, fmt.Errorf("invalid covariance dimension")
	}

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	m := make([]float64, len(mean))
	copy(m, mean)

	g := &Gaussian{
		mean: m,
		cov:  c,
		seed: seed,
	}

	if err := g.Reset(); err != nil {
		return nil, err
	}

	return g, nil
}

// NewForce creates new zero mean Gaussian force disturbance with standard deviation std.
func NewForce(std float64, seed uint64) (*Gaussian, error) {
	if !(std > 0) {
		return nil, fmt.Errorf("invalid standard deviation: %g", std)
	}

	return NewGaussian([]float64{0}, mat.NewSymDense(1, []float64{std * std}), seed)
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	r := g.dist.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// Reset resets Gaussian noise: samples drawn after Reset repeat the
// sequence drawn after creation unless the noise is seeded from the clock.
// It returns error if it fails to reset the noise.
func (g *Gaussian) Reset() error {
	seed := g.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	dist, ok := distmv.NewNormal(g.mean, g.cov, rand.NewSource(seed))
	if !ok {
		return fmt.Errorf("covariance is not positive definite")
	}
	g.dist = dist

	return nil
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
