package spectrum

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticFID builds exp(i*2*pi*cycles*t/n), a single-frequency signal
// whose transform concentrates in one bin.
func syntheticFID(n, cycles int) []complex128 {
	fid := make([]complex128, n)
	for t := range fid {
		fid[t] = cmplx.Exp(complex(0, 2*math.Pi*float64(cycles)*float64(t)/float64(n)))
	}
	return fid
}

func TestMagnitude(t *testing.T) {
	out := Magnitude([]complex128{3 + 4i, 0, -1})
	require.Len(t, out, 3)
	assert.InDelta(t, 5.0, out[0], 1e-12)
	assert.Equal(t, 0.0, out[1])
	assert.InDelta(t, 1.0, out[2], 1e-12)

	assert.Nil(t, Magnitude(nil))
}

func TestApodizeExponential(t *testing.T) {
	fid := syntheticFID(128, 5)

	out := ApodizeExponential(fid, 2)
	require.Len(t, out, len(fid))

	assert.Equal(t, fid[0], out[0], "t=0 carries unit weight")
	for i := 1; i < len(out); i++ {
		assert.Less(t, cmplx.Abs(out[i]), cmplx.Abs(out[i-1])+1e-15,
			"magnitude must decay monotonically at sample %d", i)
	}
	assert.InDelta(t, math.Exp(-2*math.Pi), cmplx.Abs(out[len(out)-1]), 1e-12)

	t.Run("zero broadening is identity", func(t *testing.T) {
		out := ApodizeExponential(fid, 0)
		assert.Equal(t, fid, out)
	})

	t.Run("single sample", func(t *testing.T) {
		out := ApodizeExponential([]complex128{2i}, 3)
		assert.Equal(t, []complex128{2i}, out)
	})
}

func TestApodizeGaussian(t *testing.T) {
	fid := syntheticFID(128, 5)

	out := ApodizeGaussian(fid, 0, 1)
	require.Len(t, out, len(fid))
	assert.Equal(t, fid[0], out[0])
	// Pure Gaussian weight at t=1 is exp(-0.5*pi^2).
	assert.InDelta(t, math.Exp(-0.5*math.Pi*math.Pi), cmplx.Abs(out[len(out)-1]), 1e-12)

	// The sharpening term initially outweighs the re-broadening one.
	sharpened := ApodizeGaussian(fid, 1, 0.5)
	assert.Greater(t, cmplx.Abs(sharpened[10]), cmplx.Abs(fid[10]))
}

func TestZeroFill(t *testing.T) {
	fid := []complex128{1, 2, 3, 4}

	out := ZeroFill(fid, 2)
	require.Len(t, out, 16)
	assert.Equal(t, fid, out[:4])
	for _, v := range out[4:] {
		assert.Equal(t, complex128(0), v)
	}

	assert.Equal(t, fid, ZeroFill(fid, 0))
}

func TestFrequencyTransform(t *testing.T) {
	const (
		n        = 64
		cycles   = 8
		sw       = 640.0 // Hz, so the signal sits at 80 Hz
		specFreq = 400.0 // MHz
	)
	fid := syntheticFID(n, cycles)

	ppm, spec, err := FrequencyTransform(fid, sw, specFreq)
	require.NoError(t, err)
	require.Len(t, ppm, n)
	require.Len(t, spec, n)

	t.Run("axis descends symmetrically", func(t *testing.T) {
		assert.InDelta(t, sw/2/specFreq, ppm[0], 1e-12)
		assert.InDelta(t, -sw/2/specFreq, ppm[n-1], 1e-12)
		for i := 1; i < n; i++ {
			assert.Less(t, ppm[i], ppm[i-1])
		}
		assert.Equal(t, Descending, deriveOrientation(ppm))
	})

	t.Run("signal lands in the right bin", func(t *testing.T) {
		mag := Magnitude(spec)
		best := 0
		for i, v := range mag {
			if v > mag[best] {
				best = i
			}
		}
		// All energy concentrates in one coefficient.
		assert.InDelta(t, float64(n), mag[best], 1e-9)

		binWidth := sw / n / specFreq
		signalPPM := cycles * sw / n / specFreq
		assert.InDelta(t, signalPPM, ppm[best], binWidth)
	})

	t.Run("input contract", func(t *testing.T) {
		_, _, err := FrequencyTransform([]complex128{1}, sw, specFreq)
		assert.Error(t, err)
		_, _, err = FrequencyTransform(fid, 0, specFreq)
		assert.Error(t, err)
		_, _, err = FrequencyTransform(fid, sw, -1)
		assert.Error(t, err)
	})
}
