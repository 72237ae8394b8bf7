// Package stream owns the per-session streaming lifecycle: chunks arrive
// in order, run through the analysis pipeline on the session's worker
// goroutine, and leave as structured events.
//
// Sessions are fully independent: each holds its own [monitor.Monitor]
// and chunk queue, and shares only the read-only engine, selector, and
// feature source. A session that falls behind the chunk cadence queues —
// it never drops or reorders — and reports the backlog as processing lag.
package stream

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/voxguard/voxguard/internal/analyze"
	"github.com/voxguard/voxguard/internal/challenge"
	"github.com/voxguard/voxguard/internal/featuresrc"
	"github.com/voxguard/voxguard/internal/monitor"
	"github.com/voxguard/voxguard/internal/observe"
	"github.com/voxguard/voxguard/internal/risk"
	"github.com/voxguard/voxguard/pkg/audio"
	"github.com/voxguard/voxguard/pkg/dsp"
)

// fullAnalysisEvery is the chunk interval of the heuristic-input
// cross-check that runs alongside the per-chunk feature score.
const fullAnalysisEvery = 5

// ErrSessionEnded is returned for any operation on a session after
// end_stream was processed.
var ErrSessionEnded = errors.New("stream: session has ended")

// Pipeline bundles the shared, read-only dependencies every session
// uses. One Pipeline instance serves all sessions.
type Pipeline struct {
	Engine   *risk.Engine
	Selector *challenge.Selector
	Source   featuresrc.Source
	Metrics  *observe.Metrics

	// AlertThreshold for the per-session monitor; zero means 70.
	AlertThreshold float64

	// QueueCapacity is the chunk queue length; zero means 32.
	QueueCapacity int

	// Cadence is the nominal chunk arrival interval used to express
	// queue depth as lag; zero means 500 ms.
	Cadence time.Duration
}

func (p Pipeline) withDefaults() Pipeline {
	if p.Metrics == nil {
		p.Metrics = observe.DefaultMetrics()
	}
	if p.QueueCapacity == 0 {
		p.QueueCapacity = 32
	}
	if p.Cadence == 0 {
		p.Cadence = 500 * time.Millisecond
	}
	return p
}

// Session is one live streaming analysis. Enqueue and End must be called
// from a single goroutine — the transport's read loop — which matches
// the per-connection ordering the protocol guarantees. Events are
// consumed concurrently from [Session.Events].
type Session struct {
	// ID is the generated session identifier.
	ID string

	pipeline  Pipeline
	createdAt time.Time
	intent    risk.Intent

	queue   chan []byte
	events  chan Event
	summary chan Summary
	done    chan struct{}
	ended   bool

	mon *monitor.Monitor

	// lastFull is the most recent heuristic cross-check score, fed into
	// the feature-mode scorer as its external fraud-risk scalar.
	lastFull float64

	// scoreSum accumulates all scores for the end-of-session average,
	// including ones evicted from the monitor's bounded history.
	scoreSum float64
	analyses int
}

// newSession creates and starts a session worker. Callers go through
// [Manager.Create].
func newSession(ctx context.Context, id string, p Pipeline) *Session {
	p = p.withDefaults()
	s := &Session{
		ID:        id,
		pipeline:  p,
		createdAt: time.Now(),
		intent:    risk.IntentLow,
		queue:     make(chan []byte, p.QueueCapacity),
		events:    make(chan Event, p.QueueCapacity),
		summary:   make(chan Summary, 1),
		done:      make(chan struct{}),
		mon:       monitor.New(p.AlertThreshold),
	}
	go s.run(ctx)
	return s
}

// Events returns the channel of server events produced by this session.
// The channel closes after the end-of-session summary was delivered.
func (s *Session) Events() <-chan Event { return s.events }

// SetIntent updates the intent tier applied to subsequent cross-checks.
func (s *Session) SetIntent(i risk.Intent) {
	if i.IsValid() {
		s.intent = i
	}
}

// Enqueue submits one chunk of encoded PCM for analysis. Chunks are
// processed strictly in submission order. When the worker has fallen
// behind, Enqueue blocks until queue space frees up rather than dropping
// the chunk. Returns [ErrSessionEnded] after [End] or once the session
// context was cancelled.
func (s *Session) Enqueue(chunk []byte) error {
	if s.ended {
		return ErrSessionEnded
	}
	select {
	case s.queue <- chunk:
		return nil
	case <-s.done:
		return ErrSessionEnded
	}
}

// End closes the session and returns the summary: after all queued chunks
// were processed, or immediately once the session context was cancelled.
// A second End returns [ErrSessionEnded] and no duplicate summary.
func (s *Session) End() (Summary, error) {
	if s.ended {
		return Summary{}, ErrSessionEnded
	}
	s.ended = true
	close(s.queue)
	return <-s.summary, nil
}

// run is the session worker: it drains the queue sequentially, emits one
// event per chunk, and finishes with the summary. Context cancellation
// stops the worker early, discarding whatever is still queued; the summary
// is always delivered so a late [End] never blocks.
func (s *Session) run(ctx context.Context) {
	defer close(s.events)
	defer close(s.done)

loop:
	for {
		select {
		case chunk, ok := <-s.queue:
			if !ok {
				break loop
			}
			s.processChunk(ctx, chunk)
		case <-ctx.Done():
			break loop
		}
	}

	sum := Summary{
		TotalAnalyses:   s.analyses,
		DurationSeconds: time.Since(s.createdAt).Seconds(),
		FinalTrend:      s.mon.Trend(),
		FinalVerdict:    "ALLOW",
	}
	if s.analyses > 0 {
		sum.AverageScore = s.scoreSum / float64(s.analyses)
	}
	if s.mon.Last() > 70 {
		sum.FinalVerdict = "BLOCK"
	}

	// Summary first: End unblocks even when the completion event can no
	// longer be delivered.
	s.summary <- sum
	s.emit(ctx, StreamComplete{Type: TypeStreamComplete, SessionID: s.ID, Summary: sum})
}

// emit delivers ev to the events channel, giving up when the session
// context dies so a vanished consumer can never wedge the worker.
func (s *Session) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// processChunk runs one chunk through decode → extract → score → emit.
// Failures are isolated to the chunk: an error event goes out and the
// session keeps running.
func (s *Session) processChunk(ctx context.Context, chunk []byte) {
	ctx, span := observe.StartSpan(ctx, "stream.chunk")
	defer span.End()
	start := time.Now()

	buf, err := decodeChunk(chunk)
	if err != nil {
		s.pipeline.Metrics.RecordPipelineError(ctx, "decode")
		s.emit(ctx, ErrorEvent{Type: TypeError, SessionID: s.ID, Message: err.Error()})
		return
	}

	features, err := dsp.Extract(buf)
	if err != nil {
		s.pipeline.Metrics.RecordPipelineError(ctx, "extract")
		s.emit(ctx, ErrorEvent{Type: TypeError, SessionID: s.ID, Message: err.Error()})
		return
	}

	artifacts := risk.DetectArtifacts(features)
	quality := risk.AssessQuality(features)
	score := s.pipeline.Engine.ScoreFeatures(features, artifacts, s.lastFull)

	s.analyses++
	s.scoreSum += score

	inputs := s.pipeline.Source.Measure(chunk, features)
	inputs.Intent = s.intent
	liveness := risk.LivenessScore(inputs.PauseStd, inputs.WordsPerMinute, inputs.NoiseDB)

	scores := RiskScores{
		Current:    score,
		Confidence: 90,
		Verdict:    s.pipeline.Engine.Verdict(score),
	}

	components := map[string]analyze.ComponentDetail{
		"liveness": {Score: liveness},
	}

	// Periodic heuristic cross-check, reported next to the feature score.
	if s.analyses%fullAnalysisEvery == 0 {
		full := s.pipeline.Engine.ScoreHeuristic(inputs)
		s.lastFull = full.Score
		scores.FullAnalysis = &full.Score
		scores.Confidence = full.Confidence
		components["cognitive"] = analyze.ComponentDetail{Score: full.Components.Cognitive}
		components["behavioral"] = analyze.ComponentDetail{Score: full.Components.Behavioral}
		components["environmental"] = analyze.ComponentDetail{Score: full.Components.Environmental}
	}

	obs := s.mon.Record(score, start)
	if obs.Alert {
		s.pipeline.Metrics.RecordAlert(ctx, string(obs.Severity))
	}

	lag := float64(len(s.queue)) * float64(s.pipeline.Cadence.Milliseconds())
	s.pipeline.Metrics.RecordLag(ctx, s.ID, lag)
	s.pipeline.Metrics.RecordChunk(ctx, string(scores.Verdict), time.Since(start).Seconds())

	s.emit(ctx, AnalysisResult{
		Type:           TypeAnalysisResult,
		SessionID:      s.ID,
		AnalysisNumber: s.analyses,
		RiskScores:     scores,
		Components:     components,
		VoiceFeatures:  features,
		Artifacts:      artifacts,
		Security: SecurityBlock{
			ArtifactScore: artifacts.Score,
			Challenge:     s.pipeline.Selector.Select(score),
		},
		Monitoring: MonitoringBlock{
			Alert:           obs.Alert,
			Severity:        obs.Severity,
			Trend:           obs.Trend,
			ProcessingLagMs: lag,
		},
		Quality:        quality,
		Recommendation: recommendation(scores.Verdict),
	})
}

// recommendation renders the verdict as caller-facing guidance.
func recommendation(v risk.Verdict) string {
	switch v {
	case risk.VerdictBlock:
		return "Terminate the call and escalate to the fraud desk."
	case risk.VerdictCognitiveTest:
		return "Issue a verification challenge before proceeding."
	default:
		return "Proceed normally."
	}
}

// decodeChunk sniffs for a WAV header and falls back to raw PCM —
// browser recorders send a container on the first chunk and raw frames
// afterwards.
func decodeChunk(chunk []byte) (*audio.SampleBuffer, error) {
	if bytes.HasPrefix(chunk, []byte("RIFF")) {
		return audio.DecodeWAV(chunk)
	}
	return audio.DecodeRaw(chunk)
}
