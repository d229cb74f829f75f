package spectrum

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Helpers for frequency-domain NMR data. FIDs arrive from the driver layer
// as complex time-domain samples; peak and region work runs on the
// magnitude spectrum after apodization, zero filling and Fourier transform.

// Magnitude returns |v| for each complex sample.
func Magnitude(data []complex128) []float64 {
	if len(data) == 0 {
		return nil
	}
	re := make([]float64, len(data))
	im := make([]float64, len(data))
	for i, c := range data {
		re[i] = real(c)
		im[i] = imag(c)
	}
	out := make([]float64, len(data))
	vecmath.Magnitude(out, re, im)
	return out
}

// ApodizeExponential applies exponential line broadening to a FID:
// each sample is scaled by exp(-pi * lb * t) with t the normalised 0..1
// acquisition time. lb is the broadening in units of the spectral width.
func ApodizeExponential(fid []complex128, lb float64) []complex128 {
	out := make([]complex128, len(fid))
	n := float64(len(fid) - 1)
	if n < 1 {
		copy(out, fid)
		return out
	}
	for i, c := range fid {
		t := float64(i) / n
		out[i] = c * complex(math.Exp(-math.Pi*lb*t), 0)
	}
	return out
}

// ApodizeGaussian applies Lorentz-to-Gauss apodization: an inverse
// exponential of width g1 sharpens the lines, a Gaussian of width g2
// re-broadens them. Both widths are in units of the spectral width.
func ApodizeGaussian(fid []complex128, g1, g2 float64) []complex128 {
	out := make([]complex128, len(fid))
	n := float64(len(fid) - 1)
	if n < 1 {
		copy(out, fid)
		return out
	}
	for i, c := range fid {
		t := float64(i) / n
		w := math.Exp(math.Pi*g1*t - 0.5*math.Pow(math.Pi*g2*t, 2))
		out[i] = c * complex(w, 0)
	}
	return out
}

// ZeroFill doubles the FID length n times by padding zeros, improving the
// digital resolution of the transformed spectrum.
func ZeroFill(fid []complex128, n int) []complex128 {
	size := len(fid)
	for i := 0; i < n; i++ {
		size *= 2
	}
	out := make([]complex128, size)
	copy(out, fid)
	return out
}

// FrequencyTransform converts a time-domain FID into a frequency-domain
// spectrum on a descending chemical-shift axis. spectralWidth is the
// acquisition bandwidth in Hz, spectrometerFreq the observe frequency in
// MHz (so Hz/spectrometerFreq yields ppm). The returned axis runs from
// +sw/2 to -sw/2 in ppm, matching the NMR convention.
func FrequencyTransform(fid []complex128, spectralWidth, spectrometerFreq float64) (ppm []float64, spec []complex128, err error) {
	n := len(fid)
	if n < 2 {
		return nil, nil, fmt.Errorf("spectrum: frequency transform needs at least 2 points, got %d", n)
	}
	if spectralWidth <= 0 || spectrometerFreq <= 0 {
		return nil, nil, fmt.Errorf("spectrum: spectral width and spectrometer frequency must be positive (sw=%g Hz, freq=%g MHz)", spectralWidth, spectrometerFreq)
	}

	fft := fourier.NewCmplxFFT(n)
	coeffs := fft.Coefficients(nil, fid)

	// Shift the zero-frequency bin to the centre, then reverse so the axis
	// descends with increasing index.
	spec = make([]complex128, n)
	half := (n + 1) / 2
	copy(spec, coeffs[half:])
	copy(spec[n-half:], coeffs[:half])
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		spec[i], spec[j] = spec[j], spec[i]
	}

	ppm = make([]float64, n)
	for i := range ppm {
		freq := spectralWidth/2 - float64(i)*spectralWidth/float64(n-1)
		ppm[i] = freq / spectrometerFreq
	}
	return ppm, spec, nil
}
