package spectrum

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Default asymmetric least squares parameters. Chosen from processing Raman
// spectra; see config.DefaultProcessingConfig for per-kind overrides.
const (
	DefaultBaselineLambda     = 1e3
	DefaultBaselineAsymmetry  = 0.01
	DefaultBaselineIterations = 10
)

// ALSBaseline fits a baseline to y using asymmetric least squares smoothing
// (Eilers & Boelens, 2005). Each iteration solves the pentadiagonal system
//
//	(W + lambda * Dt*D) z = W*y
//
// where D is the second-order difference operator and W the diagonal weight
// matrix, then reassigns weights: p above the fit, 1-p below. Larger lambda
// gives a smoother baseline (recommended 1e2..1e5); p controls asymmetry
// (recommended 0.001..0.1, values toward 0.5 make the fit track peaks).
//
// The band of Dt*D is built analytically instead of materialising the
// difference matrix, and the system is solved with a banded Cholesky
// factorization, which keeps the cost linear in len(y) per iteration.
func ALSBaseline(y []float64, lambda, p float64, nIter int) ([]float64, error) {
	n := len(y)
	if n < 3 {
		return nil, fmt.Errorf("spectrum: baseline fit needs at least 3 points, got %d", n)
	}
	if nIter < 1 {
		nIter = 1
	}

	// Band of Dt*D for the (n-2)xn second-difference matrix D.
	// Diagonal: 1 5 6 ... 6 5 1; first off-diagonal: -2 -4 ... -4 -2;
	// second off-diagonal: all ones.
	pd0 := make([]float64, n)
	pd1 := make([]float64, n)
	pd2 := make([]float64, n)
	for i := range pd0 {
		pd0[i] = 6
	}
	pd0[0], pd0[n-1] = 1, 1
	pd0[1], pd0[n-2] = 5, 5
	for i := 0; i < n-1; i++ {
		pd1[i] = -4
	}
	pd1[0], pd1[n-2] = -2, -2
	for i := 0; i < n-2; i++ {
		pd2[i] = 1
	}

	// Symmetric band storage: row i holds A[i,i], A[i,i+1], A[i,i+2].
	// Off-diagonals are constant across iterations; only the diagonal
	// changes with the weights.
	band := make([]float64, n*3)
	for i := 0; i < n; i++ {
		band[i*3+1] = lambda * pd1[i]
		band[i*3+2] = lambda * pd2[i]
	}
	a := mat.NewSymBandDense(n, 2, band)

	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	rhs := make([]float64, n)
	z := mat.NewVecDense(n, nil)

	var ch mat.BandCholesky
	for iter := 0; iter < nIter; iter++ {
		for i := 0; i < n; i++ {
			band[i*3] = w[i] + lambda*pd0[i]
			rhs[i] = w[i] * y[i]
		}
		if ok := ch.Factorize(a); !ok {
			return nil, fmt.Errorf("spectrum: baseline system is not positive definite at iteration %d (lambda=%g p=%g)", iter, lambda, p)
		}
		if err := ch.SolveVecTo(z, mat.NewVecDense(n, rhs)); err != nil {
			return nil, fmt.Errorf("spectrum: baseline solve failed at iteration %d: %w", iter, err)
		}
		for i := 0; i < n; i++ {
			switch {
			case y[i] > z.AtVec(i):
				w[i] = p
			case y[i] < z.AtVec(i):
				w[i] = 1 - p
			default:
				w[i] = 0
			}
		}
	}

	baseline := make([]float64, n)
	for i := 0; i < n; i++ {
		baseline[i] = z.AtVec(i)
	}
	return baseline, nil
}
