package stream

import (
	"github.com/voxguard/voxguard/internal/analyze"
	"github.com/voxguard/voxguard/internal/challenge"
	"github.com/voxguard/voxguard/internal/monitor"
	"github.com/voxguard/voxguard/internal/risk"
	"github.com/voxguard/voxguard/pkg/dsp"
)

// Client message types.
const (
	TypeAudioChunk = "audio_chunk"
	TypeEndStream  = "end_stream"
)

// Server message types.
const (
	TypeConnected      = "connected"
	TypeAnalysisResult = "analysis_result"
	TypeStreamComplete = "stream_complete"
	TypeError          = "error"
)

// ClientMessage is the envelope for messages arriving from the caller.
type ClientMessage struct {
	Type string `json:"type"`

	// Data carries base64-encoded PCM bytes for audio_chunk messages.
	Data string `json:"data,omitempty"`

	// Intent optionally overrides the session intent tier.
	Intent string `json:"intent,omitempty"`
}

// Event is a server-to-client message emitted by a session. All JSON
// field names below are part of the external contract and must not
// change.
type Event interface {
	event()
}

// Connected acknowledges a new session.
type Connected struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

func (Connected) event() {}

// RiskScores carries the per-chunk score block. FullAnalysis holds the
// periodic heuristic cross-check score when one was run for this chunk;
// the two scores are reported side by side, never reconciled.
type RiskScores struct {
	Current      float64      `json:"current"`
	FullAnalysis *float64     `json:"full_analysis,omitempty"`
	Confidence   float64      `json:"confidence"`
	Verdict      risk.Verdict `json:"verdict"`
}

// SecurityBlock carries the artifact score and the selected challenge.
type SecurityBlock struct {
	ArtifactScore float64          `json:"artifact_score"`
	Challenge     challenge.Record `json:"challenge"`
}

// MonitoringBlock carries alert state, trend, and the backpressure
// signal for one analysis.
type MonitoringBlock struct {
	Alert           bool             `json:"alert"`
	Severity        monitor.Severity `json:"severity,omitempty"`
	Trend           monitor.Trend    `json:"trend"`
	ProcessingLagMs float64          `json:"processing_lag_ms"`
}

// AnalysisResult is emitted once per processed chunk.
type AnalysisResult struct {
	Type           string                             `json:"type"`
	SessionID      string                             `json:"sessionId"`
	AnalysisNumber int                                `json:"analysisNumber"`
	RiskScores     RiskScores                         `json:"riskScores"`
	Components     map[string]analyze.ComponentDetail `json:"component_analysis"`
	VoiceFeatures  *dsp.FeatureVector                 `json:"voice_features"`
	Artifacts      risk.ArtifactSet                   `json:"artifacts"`
	Security       SecurityBlock                      `json:"security"`
	Monitoring     MonitoringBlock                    `json:"monitoring"`
	Quality        risk.QualityAssessment             `json:"quality"`
	Recommendation string                             `json:"recommendation"`
}

func (AnalysisResult) event() {}

// Summary is the end-of-session roll-up.
type Summary struct {
	TotalAnalyses   int           `json:"total_analyses"`
	DurationSeconds float64       `json:"duration_seconds"`
	AverageScore    float64       `json:"average_score"`
	FinalTrend      monitor.Trend `json:"final_trend"`

	// FinalVerdict is BLOCK when the last score exceeded the block
	// threshold, ALLOW otherwise.
	FinalVerdict string `json:"final_verdict"`
}

// StreamComplete closes out a session.
type StreamComplete struct {
	Type      string  `json:"type"`
	SessionID string  `json:"sessionId"`
	Summary   Summary `json:"summary"`
}

func (StreamComplete) event() {}

// ErrorEvent reports a chunk-level or protocol-level failure without
// terminating the session.
type ErrorEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func (ErrorEvent) event() {}
