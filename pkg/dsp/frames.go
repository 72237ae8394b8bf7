package dsp

import "math"

// frameSeries partitions samples into non-overlapping [FrameSize] frames
// (the last partial frame is included as-is) and returns the per-frame RMS
// and zero-crossing-rate series.
func frameSeries(samples []float64) (rms, zcr []float64) {
	n := (len(samples) + FrameSize - 1) / FrameSize
	rms = make([]float64, 0, n)
	zcr = make([]float64, 0, n)

	for start := 0; start < len(samples); start += FrameSize {
		end := min(start+FrameSize, len(samples))
		frame := samples[start:end]
		rms = append(rms, frameRMS(frame))
		zcr = append(zcr, frameZCR(frame))
	}
	return rms, zcr
}

// frameRMS is sqrt(mean of squares) over one frame.
func frameRMS(frame []float64) float64 {
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// frameZCR is the fraction of adjacent-sample sign changes in one frame.
func frameZCR(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame)-1)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// variance is the population variance (divisor N, not N-1).
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

func maxOf(xs []float64) float64 {
	var m float64
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}
