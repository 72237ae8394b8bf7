package dsp

// estimatePitch returns a fundamental-frequency estimate in Hz from an
// unnormalized autocorrelation search over lags corresponding to
// [pitchMinHz, pitchMaxHz]. Returns 0 when the buffer is too short to
// cover the longest candidate lag.
func estimatePitch(samples []float64, rate int) float64 {
	minLag := rate / pitchMaxHz
	maxLag := rate / pitchMinHz
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(samples) {
		maxLag = len(samples) - 1
	}
	if maxLag <= minLag {
		return 0
	}

	bestLag := 0
	bestSum := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var sum float64
		for i := 0; i+lag < len(samples); i++ {
			sum += samples[i] * samples[i+lag]
		}
		if sum > bestSum {
			bestSum = sum
			bestLag = lag
		}
	}
	if bestLag == 0 {
		return 0
	}
	return float64(rate) / float64(bestLag)
}
