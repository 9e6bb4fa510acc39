package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns |X_k| for k = 0..n/2 of the mean-removed series.
func PowerSpectrum(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	mean := stat.Mean(series, nil)
	centered := make([]float64, len(series))
	for i, v := range series {
		centered[i] = v - mean
	}
	fft := fourier.NewFFT(len(series))
	coeff := fft.Coefficients(nil, centered)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the non-zero frequency (in cycles per unit time)
// with the largest spectral magnitude of a series sampled every dt.
func DominantFrequency(series []float64, dt float64) (freq, magnitude float64) {
	ps := PowerSpectrum(series)
	if len(ps) < 2 || dt <= 0 {
		return 0, 0
	}
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	fft := fourier.NewFFT(len(series))
	return fft.Freq(best) / dt, ps[best]
}
