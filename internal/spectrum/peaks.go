package spectrum

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Peak is one row of a peak table. ID is the peak position rounded to the
// nearest integer; distinct peaks sharing a rounded coordinate collide, so
// treat ID as a lookup key rather than a unique identifier.
type Peak struct {
	ID     float64 `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	LeftX  float64 `json:"left_x"`
	RightX float64 `json:"right_x"`
}

// PeakOptions control the peak search.
type PeakOptions struct {
	// Threshold is the relative peak height with respect to the full y
	// range of the searched span. Default 0.1.
	Threshold float64
	// MinWidth is the minimum peak width in samples, measured at half
	// prominence. Default 2.
	MinWidth float64
	// MinDist is the minimum distance between peaks in samples; higher
	// peaks suppress lower ones within the distance. Zero disables it.
	MinDist int
	// Area restricts the search to xmin..xmax when non-nil. The search
	// then runs on a trimmed copy and does not touch stored state.
	Area *[2]float64
}

func (o PeakOptions) withDefaults() PeakOptions {
	if o.Threshold == 0 {
		o.Threshold = 0.1
	}
	if o.MinWidth == 0 {
		o.MinWidth = 2
	}
	return o
}

// borderRelHeight is the relative height at which peak borders are read
// off: close to the peak base, so the borders span the whole peak.
const borderRelHeight = 0.95

// FindPeaks searches the series for peaks above the relative threshold and
// returns the peak table. The threshold is scaled by the y range of the
// searched span; border x coordinates come from interpolating the
// fractional-index width endpoints back onto the x axis.
func FindPeaks(s *Series, opts PeakOptions) []Peak {
	opts = opts.withDefaults()

	x, y := s.X, s.Y
	if opts.Area != nil {
		x, y = s.TrimCopy(opts.Area[0], opts.Area[1])
	}
	if len(y) == 0 {
		return nil
	}

	absHeight := opts.Threshold * (floats.Max(y) - floats.Min(y))
	peaks := findPeakIndices(y, absHeight, opts.MinWidth, opts.MinDist)
	if len(peaks) == 0 {
		return nil
	}

	_, leftIPs, rightIPs := peakWidths(y, peaks, borderRelHeight)

	table := make([]Peak, len(peaks))
	for i, p := range peaks {
		table[i] = Peak{
			ID:     math.Round(x[p]),
			X:      x[p],
			Y:      y[p],
			LeftX:  InterpolateToIndex(x, leftIPs[i]),
			RightX: InterpolateToIndex(x, rightIPs[i]),
		}
	}
	return table
}

// FindPeaksIteratively walks a descending height ladder from max(y) to
// min(y) in the given number of steps and counts the peaks visible at each
// level. Once the count jumps by more than threshold between consecutive
// levels the signal floor has been reached, and the peaks visible at the
// previous level are returned. Useful for Raman spectra, where a fixed
// relative threshold needs retuning per sample.
func FindPeaksIteratively(s *Series, threshold, steps int) []Peak {
	if s.Len() == 0 || steps < 2 {
		return nil
	}
	if threshold <= 0 {
		threshold = 10
	}

	top := floats.Max(s.Y)
	bottom := floats.Min(s.Y)
	level := func(i int) float64 {
		return top + (bottom-top)*float64(i)/float64(steps-1)
	}

	prev := 0
	stop := 1
	for i := 0; i < steps; i++ {
		count := len(findPeakIndices(s.Y, level(i), 0, 0))
		if count-prev > threshold {
			stop = i
			break
		}
		prev = count
		stop = i
	}
	if stop < 1 {
		stop = 1
	}

	peaks := findPeakIndices(s.Y, level(stop-1), 0, 0)
	if len(peaks) == 0 {
		return nil
	}
	_, leftIPs, rightIPs := peakWidths(s.Y, peaks, borderRelHeight)
	table := make([]Peak, len(peaks))
	for i, p := range peaks {
		table[i] = Peak{
			ID:     math.Round(s.X[p]),
			X:      s.X[p],
			Y:      s.Y[p],
			LeftX:  InterpolateToIndex(s.X, leftIPs[i]),
			RightX: InterpolateToIndex(s.X, rightIPs[i]),
		}
	}
	return table
}

// findPeakIndices returns the indices of local maxima at least absHeight
// high, at least minWidth samples wide at half prominence, and at least
// minDist samples apart. minWidth <= 0 and minDist <= 0 disable the
// respective conditions.
func findPeakIndices(y []float64, absHeight, minWidth float64, minDist int) []int {
	peaks := localMaxima(y)

	kept := peaks[:0]
	for _, p := range peaks {
		if y[p] >= absHeight {
			kept = append(kept, p)
		}
	}
	peaks = kept

	if minDist > 0 {
		peaks = selectByDistance(y, peaks, minDist)
	}

	if minWidth > 0 && len(peaks) > 0 {
		widths, _, _ := peakWidths(y, peaks, 0.5)
		kept := peaks[:0]
		for i, p := range peaks {
			if widths[i] >= minWidth {
				kept = append(kept, p)
			}
		}
		peaks = kept
	}

	return peaks
}

// localMaxima finds strict local maxima. A flat plateau counts as one peak
// at its midpoint.
func localMaxima(y []float64) []int {
	var peaks []int
	i := 1
	max := len(y) - 1
	for i < max {
		if y[i-1] < y[i] {
			ahead := i + 1
			for ahead < max && y[ahead] == y[i] {
				ahead++
			}
			if y[ahead] < y[i] {
				peaks = append(peaks, (i+ahead-1)/2)
				i = ahead
				continue
			}
		}
		i++
	}
	return peaks
}

// selectByDistance keeps the highest peaks, suppressing any peak closer
// than distance samples to an already-kept higher peak.
func selectByDistance(y []float64, peaks []int, distance int) []int {
	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return y[peaks[order[a]]] > y[peaks[order[b]]] })

	for _, j := range order {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	var out []int
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// peakProminences measures each peak against the higher terrain around it:
// extend left and right until the signal exceeds the peak height or the
// edge is hit, take the minimum on each side, and subtract the larger of
// the two minima from the peak height.
func peakProminences(y []float64, peaks []int) (prom []float64, leftBases, rightBases []int) {
	prom = make([]float64, len(peaks))
	leftBases = make([]int, len(peaks))
	rightBases = make([]int, len(peaks))

	for i, p := range peaks {
		leftMin := y[p]
		leftBase := p
		for j := p - 1; j >= 0 && y[j] <= y[p]; j-- {
			if y[j] < leftMin {
				leftMin = y[j]
				leftBase = j
			}
		}
		rightMin := y[p]
		rightBase := p
		for j := p + 1; j < len(y) && y[j] <= y[p]; j++ {
			if y[j] < rightMin {
				rightMin = y[j]
				rightBase = j
			}
		}
		prom[i] = y[p] - math.Max(leftMin, rightMin)
		leftBases[i] = leftBase
		rightBases[i] = rightBase
	}
	return prom, leftBases, rightBases
}

// peakWidths measures each peak's width at the evaluation height
// y[peak] - prominence*relHeight. The crossing points on each flank are
// linearly interpolated, so the returned endpoints are fractional sample
// indices.
func peakWidths(y []float64, peaks []int, relHeight float64) (widths, leftIPs, rightIPs []float64) {
	prom, leftBases, rightBases := peakProminences(y, peaks)

	widths = make([]float64, len(peaks))
	leftIPs = make([]float64, len(peaks))
	rightIPs = make([]float64, len(peaks))

	for n, p := range peaks {
		height := y[p] - prom[n]*relHeight

		i := p
		for i > leftBases[n] && y[i] > height {
			i--
		}
		lip := float64(i)
		if y[i] < height {
			lip += (height - y[i]) / (y[i+1] - y[i])
		}

		i = p
		for i < rightBases[n] && y[i] > height {
			i++
		}
		rip := float64(i)
		if y[i] < height {
			rip -= (height - y[i]) / (y[i-1] - y[i])
		}

		widths[n] = rip - lip
		leftIPs[n] = lip
		rightIPs[n] = rip
	}
	return widths, leftIPs, rightIPs
}
