// Package dsp computes acoustic features from decoded sample buffers.
//
// Extraction is deterministic and allocation-bounded: the same
// [audio.SampleBuffer] always yields a bit-identical [FeatureVector].
// Short-time statistics (RMS, zero-crossing rate) are computed over
// non-overlapping 512-sample frames; spectral statistics over a single
// power-of-two window at the start of the buffer; pitch by autocorrelation
// over the voice fundamental range.
package dsp

import (
	"errors"
	"math"

	"github.com/voxguard/voxguard/pkg/audio"
)

const (
	// FrameSize is the short-time analysis frame length in samples (32 ms
	// at 16 kHz).
	FrameSize = 512

	// SpectrumWindow caps the FFT window length. The window is the largest
	// power of two that fits in min(SpectrumWindow, len(samples)) —
	// truncating to a power of two is a deliberate approximation, not a
	// windowing bug.
	SpectrumWindow = 2048

	// MelBands is the number of equal-width spectral bands summarised in
	// place of true mel-filterbank MFCCs.
	MelBands = 13

	// Pitch search range for the human voice fundamental.
	pitchMinHz = 80
	pitchMaxHz = 400
)

// ErrTooShort is returned when the buffer holds fewer samples than one
// analysis frame. The caller receives no FeatureVector in that case,
// never one padded with NaNs.
var ErrTooShort = errors.New("dsp: buffer shorter than one analysis frame")

// FeatureVector is the complete set of numeric descriptors extracted from
// one chunk or file. It is produced once per buffer and read-only after
// creation.
type FeatureVector struct {
	// Duration of the analysed audio in seconds.
	Duration float64 `json:"duration"`

	// Per-frame RMS statistics.
	RMSMean float64 `json:"rms_mean"`
	RMSStd  float64 `json:"rms_std"`
	RMSMax  float64 `json:"rms_max"`

	// Per-frame zero-crossing-rate statistics.
	ZCRMean float64 `json:"zcr_mean"`
	ZCRStd  float64 `json:"zcr_std"`

	// Whole-clip spectral statistics, centroid and rolloff expressed as
	// fractions of the sample rate in [0, 1].
	SpectralCentroid float64 `json:"spectral_centroid"`
	SpectralRolloff  float64 `json:"spectral_rolloff"`
	SpectralEntropy  float64 `json:"spectral_entropy"`

	// Mean/std over the 13 equal-width band energies.
	MelMean float64 `json:"mel_mean"`
	MelStd  float64 `json:"mel_std"`

	// Pitch estimate in Hz from autocorrelation, with derived proxies.
	Pitch          float64 `json:"pitch"`
	Tempo          float64 `json:"tempo"`
	PitchStability float64 `json:"pitch_stability"`

	// Population variance of the per-frame RMS series.
	LoudnessVariance float64 `json:"loudness_variance"`
}

// CentroidHz returns the spectral centroid in Hz at the buffer sample rate.
func (f *FeatureVector) CentroidHz() float64 { return f.SpectralCentroid * audio.SampleRate }

// RolloffHz returns the spectral rolloff in Hz at the buffer sample rate.
func (f *FeatureVector) RolloffHz() float64 { return f.SpectralRolloff * audio.SampleRate }

// Extract computes the full feature set for buf. It is a pure function:
// no state is retained between calls and identical buffers produce
// identical vectors. Returns [ErrTooShort] when buf holds fewer samples
// than one frame.
func Extract(buf *audio.SampleBuffer) (*FeatureVector, error) {
	if buf == nil || len(buf.Samples) < FrameSize {
		return nil, ErrTooShort
	}

	rms, zcr := frameSeries(buf.Samples)

	f := &FeatureVector{
		Duration: buf.Seconds(),
		RMSMean:  mean(rms),
		RMSStd:   stddev(rms),
		RMSMax:   maxOf(rms),
		ZCRMean:  mean(zcr),
		ZCRStd:   stddev(zcr),
	}
	f.LoudnessVariance = variance(rms)

	spec := analyzeSpectrum(buf.Samples)
	f.SpectralCentroid = spec.centroid
	f.SpectralRolloff = spec.rolloff
	f.SpectralEntropy = spec.entropy
	f.MelMean = mean(spec.bands)
	f.MelStd = stddev(spec.bands)

	f.Pitch = estimatePitch(buf.Samples, buf.Rate)
	f.Tempo = f.Pitch * 1.5
	f.PitchStability = 1 / (1 + math.Abs(f.Pitch-200)/200)

	return f, nil
}
