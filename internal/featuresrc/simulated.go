package featuresrc

import (
	"hash/fnv"

	"github.com/voxguard/voxguard/internal/risk"
	"github.com/voxguard/voxguard/pkg/dsp"
)

// Simulated derives heuristic inputs deterministically from an FNV-1a
// hash of the payload. The same payload always yields the same inputs —
// unlike a random generator, repeated analyses of one recording stay
// reproducible. Acoustic fields (pitch) are taken from the real feature
// vector when one is supplied; only the linguistic stand-ins come from
// the hash.
type Simulated struct{}

// Measure implements [Source].
func (Simulated) Measure(payload []byte, features *dsp.FeatureVector) risk.HeuristicInputs {
	h := fnv.New64a()
	_, _ = h.Write(payload)
	sum := h.Sum64()

	in := risk.HeuristicInputs{
		FillerCount:    int(sum % 6),
		PauseStd:       0.02 + float64((sum>>4)%100)/250,
		LatencyMs:      150 + float64((sum>>12)%600),
		WordsPerMinute: 90 + float64((sum>>20)%110),
		NoiseDB:        -70 + float64((sum>>28)%35),
		ZCR:            0.02 + float64((sum>>36)%100)/1000,
		PitchMean:      120 + float64((sum>>44)%160),
		PitchVariance:  100 + float64((sum>>52)%700),
	}

	if features != nil {
		in.PitchMean = features.Pitch
		// Stability of 1 means the pitch sits on the canonical voice
		// fundamental; spread the inverse over the variance range the
		// behavioral thresholds operate on.
		in.PitchVariance = (1 - features.PitchStability) * 800
	}
	return in
}
