package spectrum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
)

// Integration rules supported by IntegrateArea and IntegratePeak.
const (
	RuleTrapz   = "trapz"
	RuleSimpson = "simpson"
)

// IntegrateArea integrates y over the closed index range whose borders are
// the samples nearest to left and right on the x axis. The borders are
// nearest-value lookups, not interpolated. Supported rules are RuleTrapz
// (trapezoidal) and RuleSimpson (Simpson's); anything else is an input
// contract violation.
//
// The sign follows the x axis direction, as with a Riemann integral: on a
// descending axis the result of integrating a positive signal is negative.
func IntegrateArea(s *Series, left, right float64, rule string) (float64, error) {
	if s.Len() == 0 {
		return 0, ErrNoData
	}

	_, li := NearestIndex(s.X, left)
	_, ri := NearestIndex(s.X, right)
	if li > ri {
		li, ri = ri, li
	}
	if ri-li < 1 {
		return 0, fmt.Errorf("spectrum: integration span %g..%g covers fewer than two samples", left, right)
	}

	x := s.X[li : ri+1]
	y := s.Y[li : ri+1]

	// gonum's quadrature routines require an ascending abscissa; reverse a
	// descending span and restore the sign afterwards.
	sign := 1.0
	if x[0] > x[len(x)-1] {
		x = reversed(x)
		y = reversed(y)
		sign = -1
	}

	switch rule {
	case RuleTrapz:
		return sign * integrate.Trapezoidal(x, y), nil
	case RuleSimpson:
		if len(x) < 3 {
			return sign * integrate.Trapezoidal(x, y), nil
		}
		return sign * integrate.Simpsons(x, y), nil
	default:
		return 0, fmt.Errorf("%w (got %q)", ErrUnsupportedRule, rule)
	}
}

// IntegrateRegions integrates each index region and returns the absolute
// value of every integral, one per region. Used with the output of
// GeneratePeakRegions, where the sign carries no information (descending
// ppm axes flip it).
func IntegrateRegions(s *Series, regions []Region) ([]float64, error) {
	out := make([]float64, 0, len(regions))
	for _, r := range regions {
		if r[0] < 0 || r[1] >= s.Len() || r[0] > r[1] {
			return nil, fmt.Errorf("spectrum: region [%d,%d] out of range for %d samples", r[0], r[1], s.Len())
		}
		v, err := IntegrateArea(s, s.X[r[0]], s.X[r[1]], RuleTrapz)
		if err != nil {
			return nil, err
		}
		out = append(out, math.Abs(v))
	}
	return out, nil
}

func reversed(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[len(v)-1-i] = x
	}
	return out
}
