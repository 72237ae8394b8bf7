// Package risk turns extracted acoustic features into fraud-risk signals:
// artifact flags, a naturalness quality score, and the combined 0–100 risk
// assessment with its verdict tier.
//
// Every function here is pure and total: given a valid [dsp.FeatureVector]
// it never fails, it only clamps. Thresholds and weights are fixed at
// engine construction and read-only afterwards, so one [Engine] may be
// shared by reference across all sessions.
package risk

import "github.com/voxguard/voxguard/pkg/dsp"

// Artifact detection thresholds.
const (
	roboticRMSStdMax  = 0.01
	clippingRMSMax    = 0.9
	fakeMelStdLow     = 0.05
	fakeMelStdHigh    = 50
	echoCentroidDelta = 0.3
	noiseZCRMean      = 0.6

	artifactPoints = 25
)

// ArtifactSet holds the boolean artifact flags derived from one feature
// vector, plus the derived count and 0–100 artifact score.
type ArtifactSet struct {
	RoboticVoice    bool `json:"robotic_voice"`
	Clipping        bool `json:"clipping"`
	FakeAudio       bool `json:"fake_audio"`
	Echo            bool `json:"echo"`
	BackgroundNoise bool `json:"background_noise"`

	Count int     `json:"count"`
	Score float64 `json:"score"`
}

// DetectArtifacts classifies f against fixed thresholds. Near-constant
// frame energy reads as synthetic cadence; degenerate band-energy spread
// in either direction reads as generated audio.
func DetectArtifacts(f *dsp.FeatureVector) ArtifactSet {
	a := ArtifactSet{
		RoboticVoice:    f.RMSStd < roboticRMSStdMax,
		Clipping:        f.RMSMax > clippingRMSMax,
		FakeAudio:       f.MelStd < fakeMelStdLow || f.MelStd > fakeMelStdHigh,
		Echo:            abs(f.SpectralCentroid-f.SpectralRolloff) > echoCentroidDelta,
		BackgroundNoise: f.ZCRMean > noiseZCRMean,
	}
	for _, set := range []bool{a.RoboticVoice, a.Clipping, a.FakeAudio, a.Echo, a.BackgroundNoise} {
		if set {
			a.Count++
		}
	}
	a.Score = clamp01to100(float64(a.Count) * artifactPoints)
	return a
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
