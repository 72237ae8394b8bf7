package dsp

import "math"

// fft computes an in-place iterative radix-2 Cooley–Tukey transform.
// len(x) must be a power of two. The iterative bit-reversal form keeps
// latency predictable under concurrent per-session scheduling — the
// recursive array-splitting variant allocates per level.
func fft(x []complex128) {
	n := len(x)
	if n <= 1 {
		return
	}

	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j |= bit
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}

	// Butterfly stages.
	for length := 2; length <= n; length <<= 1 {
		angle := -2 * math.Pi / float64(length)
		wl := complex(math.Cos(angle), math.Sin(angle))
		for start := 0; start < n; start += length {
			w := complex(1, 0)
			half := length / 2
			for k := range half {
				u := x[start+k]
				v := x[start+k+half] * w
				x[start+k] = u + v
				x[start+k+half] = u - v
				w *= wl
			}
		}
	}
}

// magnitudeSpectrum returns the first half of the magnitude spectrum of
// samples, truncated to the largest power-of-two window that fits in
// min([SpectrumWindow], len(samples)). Returns nil when fewer than two
// samples are available.
func magnitudeSpectrum(samples []float64) []float64 {
	n := min(SpectrumWindow, len(samples))
	n = largestPowerOfTwo(n)
	if n < 2 {
		return nil
	}

	x := make([]complex128, n)
	for i := range n {
		x[i] = complex(samples[i], 0)
	}
	fft(x)

	// Only bins below Nyquist carry independent information.
	mags := make([]float64, n/2)
	for i := range mags {
		mags[i] = cmplxAbs(x[i])
	}
	return mags
}

// largestPowerOfTwo returns the largest power of two ≤ n, or 0 for n < 1.
func largestPowerOfTwo(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	if n < 1 {
		return 0
	}
	return p
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
