package spectrum

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Default Savitzky-Golay parameters, chosen from processing Raman spectra.
const (
	DefaultSmoothWindow    = 15
	DefaultSmoothPolyorder = 7
)

// SavGolFilter smooths y with a Savitzky-Golay filter: each sample is
// replaced by the value at that point of a least-squares polynomial of the
// given order fitted over a centred window. The first and last half-window
// samples are filled by evaluating polynomials fitted to the leading and
// trailing windows, so the edges keep the local curvature instead of
// flattening.
//
// window must be a positive odd integer and polyorder < window.
func SavGolFilter(y []float64, window, polyorder int) ([]float64, error) {
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("spectrum: smoothing window must be a positive odd integer, got %d", window)
	}
	if polyorder < 0 || polyorder >= window {
		return nil, fmt.Errorf("spectrum: polyorder must satisfy 0 <= polyorder < window, got polyorder=%d window=%d", polyorder, window)
	}
	if len(y) < window {
		return nil, fmt.Errorf("spectrum: need at least window=%d samples, got %d", window, len(y))
	}

	half := window / 2
	coeffs, err := savGolCoeffs(window, polyorder)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(y))

	// Interior: convolution with the centred coefficients.
	for i := half; i < len(y)-half; i++ {
		acc := 0.0
		for k := -half; k <= half; k++ {
			acc += coeffs[k+half] * y[i+k]
		}
		out[i] = acc
	}

	// Edges: evaluate a polynomial fitted to the first/last window.
	head, err := fitWindowPoly(y[:window], polyorder)
	if err != nil {
		return nil, err
	}
	for i := 0; i < half; i++ {
		out[i] = evalPoly(head, float64(i))
	}
	tail, err := fitWindowPoly(y[len(y)-window:], polyorder)
	if err != nil {
		return nil, err
	}
	for i := 0; i < half; i++ {
		pos := len(y) - half + i
		out[pos] = evalPoly(tail, float64(window-half+i))
	}

	return out, nil
}

// savGolCoeffs returns the window-length convolution coefficients that
// evaluate the fitted polynomial at the window centre. They are the first
// row of the pseudo-inverse of the Vandermonde design matrix, obtained by
// solving (Jt*J) v = e0 and mapping back through J.
func savGolCoeffs(window, polyorder int) ([]float64, error) {
	half := window / 2
	j := vandermonde(window, polyorder, -float64(half))

	var jtj mat.Dense
	jtj.Mul(j.T(), j)

	e0 := mat.NewVecDense(polyorder+1, nil)
	e0.SetVec(0, 1)

	var v mat.VecDense
	if err := v.SolveVec(&jtj, e0); err != nil {
		return nil, fmt.Errorf("spectrum: Savitzky-Golay design matrix is singular: %w", err)
	}

	var c mat.VecDense
	c.MulVec(j, &v)

	coeffs := make([]float64, window)
	for i := range coeffs {
		coeffs[i] = c.AtVec(i)
	}
	return coeffs, nil
}

// fitWindowPoly least-squares fits a polynomial to the window samples at
// positions 0..len(win)-1 and returns its coefficients, constant term first.
func fitWindowPoly(win []float64, polyorder int) ([]float64, error) {
	j := vandermonde(len(win), polyorder, 0)
	b := mat.NewVecDense(len(win), append([]float64(nil), win...))

	var a mat.VecDense
	if err := a.SolveVec(j, b); err != nil {
		return nil, fmt.Errorf("spectrum: edge polynomial fit failed: %w", err)
	}
	coeffs := make([]float64, polyorder+1)
	for i := range coeffs {
		coeffs[i] = a.AtVec(i)
	}
	return coeffs, nil
}

// vandermonde builds the rows x (polyorder+1) design matrix with entries
// (offset+i)^k.
func vandermonde(rows, polyorder int, offset float64) *mat.Dense {
	j := mat.NewDense(rows, polyorder+1, nil)
	for i := 0; i < rows; i++ {
		t := offset + float64(i)
		v := 1.0
		for k := 0; k <= polyorder; k++ {
			j.Set(i, k, v)
			v *= t
		}
	}
	return j
}

func evalPoly(coeffs []float64, t float64) float64 {
	acc := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = acc*t + coeffs[i]
	}
	return acc
}
