package dsp

import "math"

// spectrumStats bundles the whole-clip spectral descriptors. Centroid and
// rolloff are fractions of the sample rate in [0, 1].
type spectrumStats struct {
	centroid float64
	rolloff  float64
	entropy  float64
	bands    []float64
}

// analyzeSpectrum computes centroid, rolloff, entropy, and the 13-band
// summary from the normalized magnitude spectrum of samples. A degenerate
// spectrum (all-zero input) yields zero statistics rather than NaNs.
func analyzeSpectrum(samples []float64) spectrumStats {
	mags := magnitudeSpectrum(samples)
	if len(mags) == 0 {
		return spectrumStats{bands: make([]float64, MelBands)}
	}

	// Normalize by the spectrum's own max so thresholds downstream are
	// level-independent.
	peak := maxOf(mags)
	if peak > 0 {
		for i := range mags {
			mags[i] /= peak
		}
	}

	var stats spectrumStats
	stats.centroid = spectralCentroid(mags)
	stats.rolloff = spectralRolloff(mags, 0.95)
	stats.entropy = spectralEntropy(mags)
	stats.bands = bandEnergies(mags, MelBands)
	return stats
}

// spectralCentroid is Σ(freq_i·mag_i)/Σ(mag_i) expressed as a fraction of
// the sample rate. Bin i of a half-spectrum of length m corresponds to the
// frequency fraction i/(2m).
func spectralCentroid(mags []float64) float64 {
	var weighted, total float64
	for i, m := range mags {
		weighted += float64(i) * m
		total += m
	}
	if total == 0 {
		return 0
	}
	return weighted / total / float64(2*len(mags))
}

// spectralRolloff is the smallest frequency fraction below which cumulative
// energy exceeds threshold (e.g. 0.95) of the total.
func spectralRolloff(mags []float64, threshold float64) float64 {
	var total float64
	for _, m := range mags {
		total += m
	}
	if total == 0 {
		return 0
	}
	var cum float64
	for i, m := range mags {
		cum += m
		if cum >= threshold*total {
			return float64(i) / float64(2*len(mags))
		}
	}
	return 0.5
}

// spectralEntropy is −Σ p·log2(p) over magnitudes normalized to a
// probability-like distribution.
func spectralEntropy(mags []float64) float64 {
	var total float64
	for _, m := range mags {
		total += m
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, m := range mags {
		p := m / total
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}

// bandEnergies partitions the spectrum into count equal-width contiguous
// bands and averages magnitude per band. This stands in for a true
// mel-filterbank summary.
func bandEnergies(mags []float64, count int) []float64 {
	bands := make([]float64, count)
	if len(mags) == 0 {
		return bands
	}
	width := len(mags) / count
	if width < 1 {
		width = 1
	}
	for b := range count {
		start := b * width
		if start >= len(mags) {
			break
		}
		end := min(start+width, len(mags))
		bands[b] = mean(mags[start:end])
	}
	return bands
}
