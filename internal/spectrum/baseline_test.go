package spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croningp/analyticallabware/internal/testutil"
)

func TestALSBaselineTracksLinearTrend(t *testing.T) {
	// With p=0.5 the fit is symmetric, so for a pure linear trend the
	// baseline should closely track the data itself.
	x := testutil.Linspace(0, 10, 200)
	y := make([]float64, len(x))
	testutil.LinearBaseline(x, y, 2.0, 5.0)

	baseline, err := ALSBaseline(y, 1e3, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, baseline, len(y))

	for i := range y {
		assert.InDelta(t, y[i], baseline[i], 1e-6, "baseline diverges from linear trend at sample %d", i)
	}
}

func TestALSBaselineStaysUnderPeaks(t *testing.T) {
	// An asymmetric fit on a flat floor with a tall peak must stay near
	// the floor instead of climbing the peak.
	x := testutil.Linspace(0, 100, 500)
	y := make([]float64, len(x))
	testutil.LinearBaseline(x, y, 0, 1.0)
	testutil.GaussianPeak(x, y, 50, 20.0, 2.0)

	baseline, err := ALSBaseline(y, 1e4, 0.001, 10)
	require.NoError(t, err)

	_, peakIdx := NearestIndex(x, 50)
	assert.Less(t, baseline[peakIdx], 5.0, "baseline climbed into the peak")
	assert.InDelta(t, 1.0, baseline[0], 0.5)
	assert.InDelta(t, 1.0, baseline[len(baseline)-1], 0.5)
}

func TestALSBaselineSmoothness(t *testing.T) {
	// Larger lambda must not produce a rougher baseline.
	x := testutil.Linspace(0, 100, 400)
	y := make([]float64, len(x))
	testutil.LinearBaseline(x, y, 0.1, 2.0)
	testutil.GaussianPeak(x, y, 30, 5.0, 1.5)
	testutil.AddNoise(y, 0.05, 42)

	roughness := func(lambda float64) float64 {
		b, err := ALSBaseline(y, lambda, 0.01, 10)
		require.NoError(t, err)
		sum := 0.0
		for i := 2; i < len(b); i++ {
			d2 := b[i] - 2*b[i-1] + b[i-2]
			sum += d2 * d2
		}
		return sum
	}

	assert.LessOrEqual(t, roughness(1e5), roughness(1e2))
}

func TestALSBaselineDeterministic(t *testing.T) {
	x := testutil.Linspace(0, 50, 300)
	y := make([]float64, len(x))
	testutil.GaussianPeak(x, y, 25, 3.0, 1.0)
	testutil.AddNoise(y, 0.02, 7)

	b1, err := ALSBaseline(y, 1e3, 0.01, 5)
	require.NoError(t, err)
	b2, err := ALSBaseline(y, 1e3, 0.01, 5)
	require.NoError(t, err)

	for i := range b1 {
		if b1[i] != b2[i] {
			t.Fatalf("baseline not reproducible at sample %d: %v != %v", i, b1[i], b2[i])
		}
	}
}

func TestALSBaselineRejectsTinyInput(t *testing.T) {
	_, err := ALSBaseline([]float64{1, 2}, 1e3, 0.01, 10)
	require.Error(t, err)
}

func TestALSBaselineFiniteOutput(t *testing.T) {
	x := testutil.Linspace(0, 10, 100)
	y := make([]float64, len(x))
	testutil.GaussianPeak(x, y, 5, 1.0, 0.5)

	b, err := ALSBaseline(y, 1e2, 0.1, 10)
	require.NoError(t, err)
	for i, v := range b {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite baseline value at %d", i)
	}
}
