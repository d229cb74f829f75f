// Package testutil generates synthetic spectra for tests: known peak
// positions, controllable baselines and reproducible noise.
package testutil

import (
	"math"
	"math/rand"
)

// Linspace returns n evenly spaced points from start to stop inclusive.
func Linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// GaussianPeak adds a Gaussian of the given centre, height and standard
// deviation (in x units) onto y.
func GaussianPeak(x, y []float64, center, height, sigma float64) {
	for i, xv := range x {
		d := (xv - center) / sigma
		y[i] += height * math.Exp(-0.5*d*d)
	}
}

// TrianglePeak adds a symmetric triangle of the given centre, height and
// base width onto y.
func TrianglePeak(x, y []float64, center, height, width float64) {
	half := width / 2
	for i, xv := range x {
		d := math.Abs(xv - center)
		if d < half {
			y[i] += height * (1 - d/half)
		}
	}
}

// LinearBaseline adds slope*x + offset onto y.
func LinearBaseline(x, y []float64, slope, offset float64) {
	for i, xv := range x {
		y[i] += slope*xv + offset
	}
}

// AddNoise adds seeded uniform noise in [-amplitude, amplitude] onto y.
func AddNoise(y []float64, amplitude float64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range y {
		y[i] += amplitude * (2*rng.Float64() - 1)
	}
}

// TwoPeakSpectrum builds the standard two-Gaussian test spectrum on a flat
// baseline: peaks at 1/3 and 2/3 of the axis, heights 1.0 and 0.6.
func TwoPeakSpectrum(n int) (x, y []float64, centers [2]float64) {
	x = Linspace(0, 100, n)
	y = make([]float64, n)
	centers = [2]float64{100.0 / 3, 200.0 / 3}
	GaussianPeak(x, y, centers[0], 1.0, 2.0)
	GaussianPeak(x, y, centers[1], 0.6, 2.0)
	return x, y, centers
}

// Reversed returns a reversed copy, for building descending axes.
func Reversed(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[len(v)-1-i] = x
	}
	return out
}
