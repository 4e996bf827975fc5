package field

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// powerSpectrum returns the radially binned power spectrum of the current
// snapshot. Bin r collects the modes with |k| rounding to r, for r up to
// n/2. The result is normalized to sum to 1 unless the field is zero.
func powerSpectrum(g *Grid) []float64 {
	n := g.n
	re, im := g.Current()
	x := make([][]complex128, n)
	for i := range x {
		row := make([]complex128, n)
		for j := range row {
			idx := i*n + j
			row[j] = complex(float64(re[idx]), float64(im[idx]))
		}
		x[i] = row
	}
	coeffs := fft.FFT2(x)

	half := n / 2
	bins := make([]float64, half+1)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r := int(math.Round(math.Hypot(float64(signedFreq(i, n)), float64(signedFreq(j, n)))))
			if r > half {
				continue
			}
			c := coeffs[i][j]
			bins[r] += real(c)*real(c) + imag(c)*imag(c)
		}
	}
	if total := floats.Sum(bins); total > 0 {
		floats.Scale(1/total, bins)
	}
	return bins
}

// signedFreq maps an FFT index onto its signed frequency.
func signedFreq(k, n int) int {
	if k > n/2 {
		return k - n
	}
	return k
}

// DominantWavenumber returns the bin holding the most power.
func DominantWavenumber(spectrum []float64) int {
	if len(spectrum) == 0 {
		return 0
	}
	return floats.MaxIdx(spectrum)
}
