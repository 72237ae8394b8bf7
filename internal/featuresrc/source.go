// Package featuresrc supplies the linguistic and timing measurements the
// heuristic scoring mode consumes.
//
// A real linguistic analyzer (transcript-based filler detection, pause
// timing, speech rate) is an external collaborator. Until one is plugged
// in, [Simulated] stands in for it behind the same [Source] interface, so
// swapping in a real analyzer never touches the scoring engine.
package featuresrc

import (
	"github.com/voxguard/voxguard/internal/risk"
	"github.com/voxguard/voxguard/pkg/dsp"
)

// Source produces heuristic scoring inputs for one audio payload.
// Implementations must be deterministic for identical inputs and safe for
// concurrent use. The Intent field of the result is left unset; the
// caller owns it.
type Source interface {
	// Measure derives heuristic inputs from the raw payload and, when
	// available, the extracted feature vector. features may be nil.
	Measure(payload []byte, features *dsp.FeatureVector) risk.HeuristicInputs
}
