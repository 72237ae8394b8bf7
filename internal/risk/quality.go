package risk

import "github.com/voxguard/voxguard/pkg/dsp"

// QualityAssessment is the 0–100 naturalness score with its contributing
// sub-checks. Each passing check adds 20 points; with five checks the
// score is capped at 100 by construction.
type QualityAssessment struct {
	Score float64 `json:"score"`

	HasVoice        bool `json:"has_voice"`
	NaturalSpeech   bool `json:"natural_speech"`
	FrequencyHealth bool `json:"frequency_health"`
	PitchConsistent bool `json:"pitch_consistent"`
}

// AssessQuality scores how much f resembles natural speech. The duration
// window check contributes points but is not reported as a named sub-check.
func AssessQuality(f *dsp.FeatureVector) QualityAssessment {
	q := QualityAssessment{
		HasVoice:        f.RMSMean > 0.05,
		NaturalSpeech:   f.ZCRMean > 0.15 && f.ZCRMean < 0.5,
		FrequencyHealth: f.SpectralRolloff > 0.3,
		PitchConsistent: f.PitchStability > 0.5,
	}

	checks := []bool{
		q.HasVoice,
		q.NaturalSpeech,
		q.FrequencyHealth,
		q.PitchConsistent,
		f.Duration > 1 && f.Duration < 30,
	}
	for _, pass := range checks {
		if pass {
			q.Score += 20
		}
	}
	return q
}
