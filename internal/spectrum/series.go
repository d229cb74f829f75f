// Package spectrum implements one-dimensional spectral and chromatographic
// signal processing shared across instrument types: baseline correction,
// Savitzky-Golay smoothing, peak detection and integration, and the
// region-based peak grouping pipeline.
//
// All routines are synchronous, CPU-bound and deterministic. A Spectrum and
// its derived state (baseline, peak table) are owned by a single goroutine;
// callers processing many spectra concurrently should use one Spectrum per
// goroutine.
package spectrum

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for input-contract violations.
var (
	// ErrLengthMismatch reports x/y arrays of different sizes.
	ErrLengthMismatch = errors.New("spectrum: x and y data must have the same length")
	// ErrNoData reports an operation on an empty spectrum.
	ErrNoData = errors.New("spectrum: no data loaded")
	// ErrUnsupportedRule reports an unknown integration rule.
	ErrUnsupportedRule = errors.New(`spectrum: only trapezoidal "trapz" or Simpson's "simpson" rules are supported`)
)

// Orientation describes the direction of the x axis. NMR chemical shift
// scales run descending (ppm), optical scales run ascending (wavelength,
// wavenumber). Region expansion needs to know which way is "outward".
type Orientation int

const (
	// Ascending x axis, e.g. wavelength or retention time.
	Ascending Orientation = iota
	// Descending x axis, e.g. an NMR ppm scale.
	Descending
)

func (o Orientation) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// Series is an ordered pair of equal-length x and y arrays. The x axis is
// monotonic in either direction; orientation is derived once when the data
// is set and carried with the series rather than re-derived per call.
type Series struct {
	X []float64
	Y []float64

	orientation Orientation
}

// NewSeries validates and wraps the given data. The slices are retained,
// not copied.
func NewSeries(x, y []float64) (*Series, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: len(x)=%d len(y)=%d", ErrLengthMismatch, len(x), len(y))
	}
	s := &Series{X: x, Y: y}
	s.orientation = deriveOrientation(x)
	return s, nil
}

func deriveOrientation(x []float64) Orientation {
	if len(x) >= 2 && x[0] > x[len(x)-1] {
		return Descending
	}
	return Ascending
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.X) }

// Orientation reports the direction of the x axis.
func (s *Series) Orientation() Orientation { return s.orientation }

// Copy returns a deep copy of the series.
func (s *Series) Copy() *Series {
	c := &Series{
		X:           append([]float64(nil), s.X...),
		Y:           append([]float64(nil), s.Y...),
		orientation: s.orientation,
	}
	return c
}

// trimMask marks samples strictly inside (xmin, xmax). Borders are
// exclusive: a sample exactly at xmin or xmax is dropped.
func (s *Series) trimMask(xmin, xmax float64) []bool {
	mask := make([]bool, len(s.X))
	for i, v := range s.X {
		mask[i] = v > xmin && v < xmax
	}
	return mask
}

// Trim restricts the series to samples with xmin < x < xmax, in place.
// It reports how many samples survived.
func (s *Series) Trim(xmin, xmax float64) int {
	mask := s.trimMask(xmin, xmax)
	n := 0
	for i, keep := range mask {
		if keep {
			s.X[n] = s.X[i]
			s.Y[n] = s.Y[i]
			n++
		}
	}
	s.X = s.X[:n]
	s.Y = s.Y[:n]
	return n
}

// TrimCopy returns the samples with xmin < x < xmax as new slices, leaving
// the series untouched.
func (s *Series) TrimCopy(xmin, xmax float64) (x, y []float64) {
	mask := s.trimMask(xmin, xmax)
	for i, keep := range mask {
		if keep {
			x = append(x, s.X[i])
			y = append(y, s.Y[i])
		}
	}
	return x, y
}

// NearestIndex returns the value in x closest to v and its index.
func NearestIndex(x []float64, v float64) (float64, int) {
	best := 0
	bestDist := math.Inf(1)
	for i, xv := range x {
		if d := math.Abs(xv - v); d < bestDist {
			bestDist = d
			best = i
		}
	}
	if len(x) == 0 {
		return math.NaN(), -1
	}
	return x[best], best
}

// InterpolateToIndex evaluates x at a fractional sample index by linear
// interpolation between the two neighbouring samples. Indices outside the
// valid range clamp to the first or last sample.
func InterpolateToIndex(x []float64, idx float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	if idx <= 0 {
		return x[0]
	}
	if idx >= float64(len(x)-1) {
		return x[len(x)-1]
	}
	i := int(idx)
	frac := idx - float64(i)
	return x[i] + frac*(x[i+1]-x[i])
}

// gradient computes the unit-spacing numeric gradient: central differences
// in the interior, one-sided differences at the ends.
func gradient(y []float64) []float64 {
	n := len(y)
	g := make([]float64, n)
	if n < 2 {
		return g
	}
	g[0] = y[1] - y[0]
	g[n-1] = y[n-1] - y[n-2]
	for i := 1; i < n-1; i++ {
		g[i] = (y[i+1] - y[i-1]) / 2
	}
	return g
}

// gaussianSmooth convolves y with a normalised Gaussian kernel of the given
// sigma, truncated at four standard deviations, with reflected boundaries.
func gaussianSmooth(y []float64, sigma float64) []float64 {
	n := len(y)
	out := make([]float64, n)
	if n == 0 || sigma <= 0 {
		copy(out, y)
		return out
	}
	radius := int(4*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		k := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = k
		sum += k
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	for i := 0; i < n; i++ {
		acc := 0.0
		for k := -radius; k <= radius; k++ {
			j := reflectIndex(i+k, n)
			acc += kernel[k+radius] * y[j]
		}
		out[i] = acc
	}
	return out
}

// reflectIndex maps an out-of-range index back into [0, n) by mirroring at
// the array edges ("reflect" boundary mode: d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
