// Package analyze runs the one-shot analysis pipeline for uploaded
// recordings: decode → extract → score → record. It is synchronous and
// keeps no state beyond the returned result, apart from optionally
// persisting a history record.
package analyze

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voxguard/voxguard/internal/challenge"
	"github.com/voxguard/voxguard/internal/featuresrc"
	"github.com/voxguard/voxguard/internal/history"
	"github.com/voxguard/voxguard/internal/monitor"
	"github.com/voxguard/voxguard/internal/observe"
	"github.com/voxguard/voxguard/internal/risk"
	"github.com/voxguard/voxguard/pkg/audio"
	"github.com/voxguard/voxguard/pkg/dsp"
)

// ComponentDetail is one named component of the risk breakdown with its
// supporting metrics.
type ComponentDetail struct {
	Score   float64            `json:"score"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// MonitoringBlock mirrors the per-session monitoring state for a one-shot
// analysis.
type MonitoringBlock struct {
	Alert    bool             `json:"alert"`
	Severity monitor.Severity `json:"severity,omitempty"`
	Trend    monitor.Trend    `json:"trend"`
}

// CallAnalysis is the complete result record for one analysed recording.
// Field names are part of the external contract.
type CallAnalysis struct {
	CallID    string `json:"call_id"`
	Timestamp string `json:"timestamp"`
	Filename  string `json:"filename,omitempty"`

	RiskScore  float64      `json:"risk_score"`
	Confidence float64      `json:"confidence"`
	Verdict    risk.Verdict `json:"verdict"`

	// FeatureScore is the independent feature-vector mode score, reported
	// alongside RiskScore and never reconciled with it.
	FeatureScore float64 `json:"feature_score"`

	Components    map[string]ComponentDetail `json:"component_analysis"`
	Artifacts     risk.ArtifactSet           `json:"artifacts"`
	Quality       risk.QualityAssessment     `json:"quality"`
	VoiceFeatures *dsp.FeatureVector         `json:"voice_features"`
	Challenge     challenge.Record           `json:"challenge"`
	Monitoring    MonitoringBlock            `json:"monitoring"`

	// Transcript is supplied by an external collaborator; empty when no
	// transcription is available.
	Transcript string `json:"transcript"`
}

// Analyzer drives the batch pipeline. All dependencies are shared by
// reference and never mutated, so one Analyzer serves all requests.
type Analyzer struct {
	engine   *risk.Engine
	selector *challenge.Selector
	source   featuresrc.Source
	metrics  *observe.Metrics

	alertThreshold float64
	store          history.Store
}

// Config holds the Analyzer dependencies. Engine, Selector, and Source
// are required; Metrics defaults to [observe.DefaultMetrics]; Store may
// be nil to disable persistence.
type Config struct {
	Engine         *risk.Engine
	Selector       *challenge.Selector
	Source         featuresrc.Source
	Metrics        *observe.Metrics
	AlertThreshold float64
	Store          history.Store
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	m := cfg.Metrics
	if m == nil {
		m = observe.DefaultMetrics()
	}
	threshold := cfg.AlertThreshold
	if threshold == 0 {
		threshold = 70
	}
	return &Analyzer{
		engine:         cfg.Engine,
		selector:       cfg.Selector,
		source:         cfg.Source,
		metrics:        m,
		alertThreshold: threshold,
		store:          cfg.Store,
	}
}

// riffTag marks a WAV container; anything else is treated as raw PCM.
var riffTag = []byte("RIFF")

// AnalyzeFile runs the full pipeline over one uploaded recording.
// transcript comes from the external transcription collaborator and is
// passed through unchanged. Decode and extraction failures are returned
// as typed errors; scoring never fails.
func (a *Analyzer) AnalyzeFile(ctx context.Context, data []byte, filename, transcript string, intent risk.Intent) (*CallAnalysis, error) {
	ctx, span := observe.StartSpan(ctx, "analyze.file")
	defer span.End()
	start := time.Now()

	buf, err := decode(data)
	if err != nil {
		a.metrics.RecordPipelineError(ctx, "decode")
		return nil, fmt.Errorf("analyze %q: %w", filename, err)
	}

	features, err := dsp.Extract(buf)
	if err != nil {
		a.metrics.RecordPipelineError(ctx, "extract")
		return nil, fmt.Errorf("analyze %q: %w", filename, err)
	}

	artifacts := risk.DetectArtifacts(features)
	quality := risk.AssessQuality(features)

	if !intent.IsValid() {
		intent = risk.IntentLow
	}
	inputs := a.source.Measure(data, features)
	inputs.Intent = intent

	assessment := a.engine.ScoreHeuristic(inputs)
	liveness := risk.LivenessScore(inputs.PauseStd, inputs.WordsPerMinute, inputs.NoiseDB)
	featureScore := a.engine.ScoreFeatures(features, artifacts, 0)

	result := &CallAnalysis{
		CallID:       uuid.NewString(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Filename:     filename,
		RiskScore:    assessment.Score,
		Confidence:   assessment.Confidence,
		Verdict:      assessment.Verdict,
		FeatureScore: featureScore,
		Components: map[string]ComponentDetail{
			"cognitive": {
				Score: assessment.Components.Cognitive,
				Metrics: map[string]float64{
					"filler_count": float64(inputs.FillerCount),
					"pause_std":    inputs.PauseStd,
					"latency_ms":   inputs.LatencyMs,
				},
			},
			"behavioral": {
				Score: assessment.Components.Behavioral,
				Metrics: map[string]float64{
					"pitch_mean":       inputs.PitchMean,
					"pitch_variance":   inputs.PitchVariance,
					"words_per_minute": inputs.WordsPerMinute,
				},
			},
			"environmental": {
				Score: assessment.Components.Environmental,
				Metrics: map[string]float64{
					"noise_db": inputs.NoiseDB,
					"zcr":      inputs.ZCR,
				},
			},
			"liveness": {
				Score: liveness,
			},
		},
		Artifacts:     artifacts,
		Quality:       quality,
		VoiceFeatures: features,
		Challenge:     a.selector.Select(assessment.Score),
		Monitoring:    a.monitoring(assessment.Score),
		Transcript:    transcript,
	}

	a.metrics.BatchAnalysisDuration.Record(ctx, time.Since(start).Seconds())

	if a.store != nil {
		rec := history.CallRecord{
			ID:         result.CallID,
			Filename:   filename,
			Timestamp:  start.UTC(),
			Score:      result.RiskScore,
			Confidence: result.Confidence,
			Verdict:    string(result.Verdict),
			Trend:      string(result.Monitoring.Trend),
			Analyses:   1,
		}
		if err := a.store.Save(ctx, rec); err != nil {
			observe.Logger(ctx).Warn("history save failed", "call_id", result.CallID, "err", err)
		}
	}

	return result, nil
}

// monitoring builds the single-shot monitoring block: a fresh monitor
// records exactly one score, so the trend is STABLE by definition.
func (a *Analyzer) monitoring(score float64) MonitoringBlock {
	obs := monitor.New(a.alertThreshold).Record(score, time.Now())
	return MonitoringBlock{
		Alert:    obs.Alert,
		Severity: obs.Severity,
		Trend:    obs.Trend,
	}
}

// decode picks the container path by sniffing for a RIFF header;
// everything else is treated as a raw 16-bit PCM buffer.
func decode(data []byte) (*audio.SampleBuffer, error) {
	if bytes.HasPrefix(data, riffTag) {
		return audio.DecodeWAV(data)
	}
	return audio.DecodeRaw(data)
}
