package matrix

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ColSums returns a slice containing m column sums.
// It panics if m is nil.
func ColSums(m *mat.Dense) []float64 {
	_, cols := m.Dims()
	sum := make([]float64, cols)

	for i := 0; i < cols; i++ {
		sum[i] = mat.Sum(m.ColView(i))
	}

	return sum
}

// ColMeans returns a slice containing m column means.
// It panics if m is nil.
func ColMeans(m *mat.Dense) []float64 {
	rows, _ := m.Dims()
	means := ColSums(m)
	floats.Scale(1/float64(rows), means)

	return means
}

// ColMaxAbs returns a slice containing maximum absolute value of every m column.
// It panics if m is nil.
func ColMaxAbs(m *mat.Dense) []float64 {
	_, cols := m.Dims()
	peaks := make([]float64, cols)

	for i := 0; i < cols; i++ {
		col := mat.Col(nil, i, m)
		peaks[i] = math.Max(math.Abs(floats.Max(col)), math.Abs(floats.Min(col)))
	}

	return peaks
}
