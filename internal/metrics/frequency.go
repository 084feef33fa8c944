package metrics

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/san-kum/modelspace/internal/dynamo"
)

// Frequency is the dominant frequency of x[0], in cycles per unit time,
// taken from the power spectrum of the observed samples. Samples are
// assumed evenly spaced.
type Frequency struct {
	samples []float64
	first   float64
	last    float64
}

func NewFrequency() *Frequency { return &Frequency{} }

func (f *Frequency) Name() string { return "frequency" }

func (f *Frequency) Observe(x dynamo.State, t float64) {
	if len(x) == 0 {
		return
	}
	if len(f.samples) == 0 {
		f.first = t
	}
	f.last = t
	f.samples = append(f.samples, x[0])
}

// Value is zero until at least four samples were observed.
func (f *Frequency) Value() float64 {
	n := len(f.samples)
	if n < 4 || f.last <= f.first {
		return 0
	}
	dt := (f.last - f.first) / float64(n-1)

	mean := 0.0
	for _, v := range f.samples {
		mean += v
	}
	mean /= float64(n)
	seq := make([]float64, n)
	for i, v := range f.samples {
		seq[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, seq)
	best, peak := 0, 0.0
	for k := 1; k < len(coeff); k++ {
		if p := cmplx.Abs(coeff[k]); p > peak {
			best, peak = k, p
		}
	}
	return fft.Freq(best) / dt
}

func (f *Frequency) Reset() {
	f.samples = f.samples[:0]
	f.first, f.last = 0, 0
}
