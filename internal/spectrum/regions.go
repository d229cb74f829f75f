package spectrum

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Region is a candidate peak-containing span, stored as inclusive left and
// right sample indices. Region lists are transient: they are recomputed per
// call and never persisted with a spectrum.
type Region [2]int

// maxPeakMapIterations caps the binary-map refinement loop. The loop
// terminates as soon as an iteration flags nothing new, which for real
// signals happens within a handful of passes.
const maxPeakMapIterations = 1000

// noiseFilterRelHeight is the fractional height used when counting
// sub-peaks for the noise-density filter.
const noiseFilterRelHeight = 0.2

// RegionOptions control GeneratePeakRegions.
type RegionOptions struct {
	// Magnitude, Derivative and Smoothed select which signal transforms
	// contribute to the binary peak map. Peaks show up in several
	// complementary transforms; OR-ing their maps increases recall.
	Magnitude  bool
	Derivative bool
	Smoothed   bool
	// DMerge merges regions closer than this distance in x units.
	// Zero disables merging.
	DMerge float64
	// DExpand widens surviving regions by this value in x units.
	// Zero disables expansion.
	DExpand float64
}

// DefaultRegionOptions mirror the Spinsolve NMR processing defaults
// (d_merge in ppm).
func DefaultRegionOptions() RegionOptions {
	return RegionOptions{
		Magnitude:  true,
		Derivative: true,
		Smoothed:   true,
		DMerge:     0.056,
		DExpand:    0,
	}
}

// GeneratePeakRegions converts the signal into a filtered, merged and
// optionally expanded list of index regions likely to contain true peaks.
// Region detection tolerates broad, overlapping peak clusters better than
// point-peak detection. An empty result is a valid outcome, not an error.
//
// The pipeline is fixed: binary map -> region extraction -> size filter ->
// noise filter -> merge -> expand.
func GeneratePeakRegions(s *Series, magnitude []float64, opts RegionOptions) []Region {
	y := s.Y
	if len(magnitude) != len(y) {
		magnitude = nil
	}

	base := y
	if opts.Magnitude && magnitude != nil {
		base = magnitude
	}

	peakMap := CreateBinaryPeakMap(base)

	if opts.Derivative {
		orMask(peakMap, CreateBinaryPeakMap(gradient(base)))
	}
	if opts.Smoothed {
		orMask(peakMap, CreateBinaryPeakMap(gaussianSmooth(base, 3)))
	}

	regions := CombineMapToRegions(peakMap)
	if len(regions) == 0 {
		return regions
	}

	regions = FilterRegions(s.X, regions)
	regions = FilterNoisyRegions(base, regions)
	if opts.DMerge > 0 {
		regions = MergeRegions(s.X, regions, opts.DMerge, true)
	}
	if opts.DExpand > 0 {
		regions = ExpandRegions(s.X, regions, opts.DExpand, s.Orientation())
	}
	return regions
}

func orMask(dst, src []bool) {
	for i := range dst {
		dst[i] = dst[i] || src[i]
	}
}

// CreateBinaryPeakMap flags samples that stand out from the signal floor.
// Points outside mean +/- 3*stddev of the remaining signal are marked as
// peak points and zeroed, and the pass repeats on the residue until nothing
// new is flagged. The cutoff uses population (not sample) statistics.
func CreateBinaryPeakMap(data []float64) []bool {
	work := append([]float64(nil), data...)
	peakMap := make([]bool, len(data))

	for iter := 0; iter < maxPeakMapIterations; iter++ {
		mean := stat.Mean(work, nil)
		std := stat.PopStdDev(work, nil)

		found := false
		for i, v := range work {
			if v > mean+3*std || v < mean-3*std {
				peakMap[i] = true
				work[i] = 0
				found = true
			}
		}
		if !found {
			break
		}
	}
	return peakMap
}

// CombineMapToRegions converts a boolean peak map into inclusive
// [left,right] index pairs over its contiguous true runs. A run touching
// the first sample starts at 0 and a run touching the last sample ends at
// the last index.
func CombineMapToRegions(mapping []bool) []Region {
	var regions []Region
	i := 0
	for i < len(mapping) {
		if !mapping[i] {
			i++
			continue
		}
		left := i
		for i+1 < len(mapping) && mapping[i+1] {
			i++
		}
		regions = append(regions, Region{left, i})
		i++
	}
	return regions
}

// FilterRegions drops regions whose x extent does not exceed the average
// sample spacing, i.e. single-sample noise spikes.
func FilterRegions(x []float64, regions []Region) []Region {
	if len(x) < 2 {
		return regions
	}
	resolution := math.Abs(x[len(x)-1]-x[0]) / float64(len(x)-1)

	var out []Region
	for _, r := range regions {
		if math.Abs(x[r[1]]-x[r[0]]) > resolution {
			out = append(out, r)
		}
	}
	return out
}

// FilterNoisyRegions drops candidate regions whose sub-peak density is not
// below the density observed in the gaps between regions. Density is the
// count of local maxima above 20% of the local maximum divided by the span
// length; the gap reference density is length-weighted. When no gap yields
// a measurable density (single region, adjacent regions) the candidates are
// returned unchanged, as is the case when the filter would drop everything.
func FilterNoisyRegions(y []float64, regions []Region) []Region {
	if len(regions) == 0 {
		return regions
	}

	var ratioSum, weightSum float64
	for i := 0; i < len(regions)-1; i++ {
		gap := y[regions[i][1]:regions[i+1][0]]
		if len(gap) == 0 {
			continue
		}
		ratioSum += subPeakRatio(gap) * float64(len(gap))
		weightSum += float64(len(gap))
	}
	if weightSum == 0 {
		return regions
	}
	noiseRatio := ratioSum / weightSum

	var out []Region
	for _, r := range regions {
		span := y[r[0]:r[1]]
		if len(span) == 0 {
			continue
		}
		ratio := subPeakRatio(span)
		if ratio > 0 && ratio < noiseRatio {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		// Never strip every candidate: a uniformly "noisy" verdict means
		// the reference density itself is unreliable.
		return regions
	}
	return out
}

// subPeakRatio counts local maxima above 20% of the span maximum and
// divides by the span length.
func subPeakRatio(span []float64) float64 {
	max := span[0]
	for _, v := range span {
		if v > max {
			max = v
		}
	}
	peaks := findPeakIndices(span, max*noiseFilterRelHeight, 0, 0)
	return float64(len(peaks)) / float64(len(span))
}

// MergeRegions combines neighbouring regions whose x gap is at most dMerge.
// A pass merges pairwise left to right; with recursively set, passes repeat
// until a fixed point is reached, so chains of close regions collapse into
// one.
func MergeRegions(x []float64, regions []Region, dMerge float64, recursively bool) []Region {
	merged, changed := mergePass(x, regions, dMerge)
	for recursively && changed {
		merged, changed = mergePass(x, merged, dMerge)
	}
	return merged
}

func mergePass(x []float64, regions []Region, dMerge float64) ([]Region, bool) {
	var out []Region
	changed := false
	i := 0
	for i < len(regions) {
		if i+1 < len(regions) && math.Abs(x[regions[i][1]]-x[regions[i+1][0]]) <= dMerge {
			out = append(out, Region{regions[i][0], regions[i+1][1]})
			i += 2
			changed = true
		} else {
			out = append(out, regions[i])
			i++
		}
	}
	return out, changed
}

// ExpandRegions widens each region's borders by dExpand in x units and
// snaps the new borders back to the nearest sample indices. The direction
// of "outward" depends on the axis orientation: on a descending (ppm-like)
// scale the left border grows numerically and the right border shrinks; on
// an ascending (wavelength-like) scale the opposite.
func ExpandRegions(x []float64, regions []Region, dExpand float64, orientation Orientation) []Region {
	out := make([]Region, len(regions))
	for i, r := range regions {
		leftX := x[r[0]]
		rightX := x[r[1]]
		if orientation == Descending {
			leftX += dExpand
			rightX -= dExpand
		} else {
			leftX -= dExpand
			rightX += dExpand
		}
		_, li := NearestIndex(x, leftX)
		_, ri := NearestIndex(x, rightX)
		out[i] = Region{li, ri}
	}
	return out
}
