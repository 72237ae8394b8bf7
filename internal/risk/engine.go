package risk

import (
	"math"

	"github.com/voxguard/voxguard/pkg/dsp"
)

// Intent is the declared sensitivity tier of the call context. Higher
// intent scales the raw heuristic score up before the verdict is taken.
type Intent string

const (
	IntentLow    Intent = "low"
	IntentMedium Intent = "medium"
	IntentHigh   Intent = "high"
)

// IsValid reports whether i is a recognised intent tier.
func (i Intent) IsValid() bool {
	switch i {
	case IntentLow, IntentMedium, IntentHigh:
		return true
	}
	return false
}

// Verdict is the action tier derived from the final score, ordered by
// increasing suspicion.
type Verdict string

const (
	VerdictFastLane      Verdict = "FAST_LANE"
	VerdictCognitiveTest Verdict = "COGNITIVE_TEST"
	VerdictBlock         Verdict = "BLOCK_IMMEDIATE"
)

// HeuristicInputs are the prosodic/linguistic/environmental measurements
// consumed by heuristic-input scoring. They come from a
// [featuresrc.Source] — simulated until a real linguistic analyzer is
// plugged in.
type HeuristicInputs struct {
	FillerCount    int     `json:"filler_count"`
	PauseStd       float64 `json:"pause_std"`
	LatencyMs      float64 `json:"latency_ms"`
	PitchMean      float64 `json:"pitch_mean"`
	PitchVariance  float64 `json:"pitch_variance"`
	WordsPerMinute float64 `json:"words_per_minute"`
	NoiseDB        float64 `json:"noise_db"`
	ZCR            float64 `json:"zcr"`
	Intent         Intent  `json:"intent"`
}

// ComponentScores break the assessment into its four weighted components,
// each clamped to [0, 100].
type ComponentScores struct {
	Cognitive     float64 `json:"cognitive"`
	Behavioral    float64 `json:"behavioral"`
	Environmental float64 `json:"environmental"`
	Liveness      float64 `json:"liveness"`
}

// Assessment is one complete risk evaluation. Score carries two-decimal
// precision in [0, 100]; Confidence is a percentage in [60, 90].
type Assessment struct {
	Score      float64         `json:"score"`
	Confidence float64         `json:"confidence"`
	Verdict    Verdict         `json:"verdict"`
	Components ComponentScores `json:"components"`
}

// EngineConfig holds the tunable thresholds and multipliers. Zero values
// fall back to the defaults below.
type EngineConfig struct {
	// Multipliers maps intent tiers to score multipliers.
	Multipliers map[Intent]float64

	// ChallengeThreshold is the score at or above which the verdict moves
	// from FAST_LANE to COGNITIVE_TEST.
	ChallengeThreshold float64

	// BlockThreshold is the score at or above which the verdict becomes
	// BLOCK_IMMEDIATE.
	BlockThreshold float64
}

// defaultMultipliers are the stock intent multipliers.
var defaultMultipliers = map[Intent]float64{
	IntentLow:    1.0,
	IntentMedium: 1.4,
	IntentHigh:   1.8,
}

// Engine evaluates risk. It holds no per-call state; all methods are pure
// and the instance is safe for concurrent use by every session.
type Engine struct {
	multipliers map[Intent]float64
	challengeAt float64
	blockAt     float64
}

// NewEngine creates an Engine from cfg, filling unset fields with
// defaults.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		multipliers: cfg.Multipliers,
		challengeAt: cfg.ChallengeThreshold,
		blockAt:     cfg.BlockThreshold,
	}
	if len(e.multipliers) == 0 {
		e.multipliers = defaultMultipliers
	}
	if e.challengeAt == 0 {
		e.challengeAt = 30
	}
	if e.blockAt == 0 {
		e.blockAt = 70
	}
	return e
}

// ScoreHeuristic evaluates the heuristic-input mode used for file and
// periodic full-session analysis. The three acoustic components are
// weighted 30/40/30, scaled by the intent multiplier, and clamped.
func (e *Engine) ScoreHeuristic(in HeuristicInputs) Assessment {
	cognitive := cognitiveScore(in)
	behavioral := behavioralScore(in)
	environmental := environmentalScore(in)

	raw := 0.30*cognitive + 0.40*behavioral + 0.30*environmental

	mult, ok := e.multipliers[in.Intent]
	if !ok {
		mult = e.multipliers[IntentLow]
	}
	final := clamp01to100(raw * mult)

	confidence := 90.0
	if in.NoiseDB < -50 {
		confidence -= 15
	}
	if in.PitchVariance > 500 {
		confidence -= 10
	}
	if confidence < 60 {
		confidence = 60
	}

	return Assessment{
		Score:      round2(final),
		Confidence: confidence,
		Verdict:    e.Verdict(final),
		Components: ComponentScores{
			Cognitive:     cognitive,
			Behavioral:    behavioral,
			Environmental: environmental,
		},
	}
}

// Verdict maps a final score onto the verdict tier.
func (e *Engine) Verdict(score float64) Verdict {
	switch {
	case score < e.challengeAt:
		return VerdictFastLane
	case score < e.blockAt:
		return VerdictCognitiveTest
	default:
		return VerdictBlock
	}
}

// cognitiveScore penalises unnaturally fluent speech: zero fillers and
// machine-regular pause timing score high, human hesitation scores low.
func cognitiveScore(in HeuristicInputs) float64 {
	var s float64
	switch {
	case in.FillerCount == 0:
		s += 40
	case in.FillerCount == 1:
		s += 15
	case in.FillerCount > 4:
		s += 20
	}
	switch {
	case in.PauseStd < 0.08:
		s += 30
	case in.PauseStd > 0.3:
		s += 10
	}
	if in.LatencyMs > 500 {
		s += 20
	}
	return clamp01to100(s)
}

func behavioralScore(in HeuristicInputs) float64 {
	var s float64
	switch {
	case in.PitchVariance > 600:
		s += 45
	case in.PitchVariance > 400:
		s += 25
	case in.PitchVariance > 200:
		s += 10
	}
	switch {
	case in.WordsPerMinute > 180:
		s += 35
	case in.WordsPerMinute > 160:
		s += 15
	case in.WordsPerMinute < 100:
		s += 15
	}
	return clamp01to100(s)
}

func environmentalScore(in HeuristicInputs) float64 {
	var s float64
	switch {
	case in.NoiseDB < -65:
		s += 40
	case in.NoiseDB < -55:
		s += 15
	case in.NoiseDB > -45:
		s += 20
	}
	switch {
	case in.ZCR < 0.03:
		s += 25
	case in.ZCR > 0.08:
		s += 15
	}
	return clamp01to100(s)
}

// Feature-vector scoring references. Frequencies in Hz.
const (
	refRMS        = 0.15
	refZCR        = 0.05
	refRolloffHz  = 3500
	refPitchHz    = 200
	centroidLowHz = 800
	centroidHiHz  = 3500
)

// ScoreFeatures evaluates the feature-vector mode used per streaming
// chunk: deviation-based sub-scores from f plus fixed artifact penalties
// and 10% of an externally supplied fraud-risk scalar. The result is an
// independent score reported alongside the heuristic one, never
// reconciled with it.
func (e *Engine) ScoreFeatures(f *dsp.FeatureVector, art ArtifactSet, fraudRisk float64) float64 {
	var s float64

	s += math.Min(20, abs(f.RMSMean-refRMS)/refRMS*20)
	s += math.Min(20, abs(f.ZCRMean-refZCR)/refZCR*20)

	centroid := f.CentroidHz()
	switch {
	case centroid < centroidLowHz:
		s += 15
	case centroid > centroidHiHz:
		s += 10
	}

	s += math.Min(10, abs(f.RolloffHz()-refRolloffHz)/500)

	switch {
	case f.Tempo < 80 || f.Tempo > 200:
		s += 15
	case f.Tempo < 100 || f.Tempo > 180:
		s += 8
	}

	// Pitch spread penalty, using distance from the canonical voice pitch
	// as the variance proxy the extractor exposes.
	s += math.Min(15, abs(f.Pitch-refPitchHz)/40)

	if art.RoboticVoice {
		s += 20
	}
	if art.FakeAudio {
		s += 25
	}
	if art.Clipping {
		s += 15
	}
	if art.BackgroundNoise {
		s += 10
	}
	if art.Echo {
		s += 8
	}

	s += 0.1 * fraudRisk

	return round2(clamp01to100(s))
}

// LivenessScore is the orchestrator-level liveness estimate: the average
// of three bounded 0–100 terms derived from pause timing, speech rate,
// and noise floor.
func LivenessScore(pauseStd, wordsPerMinute, noiseDB float64) float64 {
	pauses := clamp01to100(pauseStd * 100)
	rate := clamp01to100(math.Min(wordsPerMinute, 150) / 1.5)
	noise := math.Max(0, 100-abs(noiseDB+30)*2)
	return round2((pauses + rate + noise) / 3)
}

func clamp01to100(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 100 {
		return 100
	}
	return x
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
