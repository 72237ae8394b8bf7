package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voxguard/voxguard/internal/challenge"
	"github.com/voxguard/voxguard/internal/featuresrc"
	"github.com/voxguard/voxguard/internal/risk"
)

func testManager() *Manager {
	return NewManager(Pipeline{
		Engine:   risk.NewEngine(risk.EngineConfig{}),
		Selector: &challenge.Selector{},
		Source:   featuresrc.Simulated{},
	})
}

// silenceChunk is half a second of raw 16-bit PCM silence.
func silenceChunk() []byte {
	return make([]byte, 16000)
}

// collect drains every event the session will ever emit. Must be started
// before End, which blocks until the worker finishes.
func collect(s *Session) <-chan []Event {
	out := make(chan []Event, 1)
	go func() {
		var evs []Event
		for ev := range s.Events() {
			evs = append(evs, ev)
		}
		out <- evs
	}()
	return out
}

func TestSession_OrderedResults(t *testing.T) {
	m := testManager()
	sess := m.Create(context.Background())
	done := collect(sess)

	for range 3 {
		if err := sess.Enqueue(silenceChunk()); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	sum, err := sess.End()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	evs := <-done

	if len(evs) != 4 {
		t.Fatalf("got %d events, want 3 results + 1 completion", len(evs))
	}
	for i := range 3 {
		res, ok := evs[i].(AnalysisResult)
		if !ok {
			t.Fatalf("event %d is %T, want AnalysisResult", i, evs[i])
		}
		if res.AnalysisNumber != i+1 {
			t.Errorf("event %d analysisNumber = %d, want %d", i, res.AnalysisNumber, i+1)
		}
		if res.SessionID != sess.ID {
			t.Errorf("event %d sessionId = %q, want %q", i, res.SessionID, sess.ID)
		}
	}
	final, ok := evs[3].(StreamComplete)
	if !ok {
		t.Fatalf("last event is %T, want StreamComplete", evs[3])
	}
	if final.Summary != sum {
		t.Errorf("completion summary %+v differs from End summary %+v", final.Summary, sum)
	}
	if sum.TotalAnalyses != 3 {
		t.Errorf("total_analyses = %d, want 3", sum.TotalAnalyses)
	}
}

func TestSession_SilenceScoresAsSynthetic(t *testing.T) {
	m := testManager()
	sess := m.Create(context.Background())
	done := collect(sess)

	if err := sess.Enqueue(silenceChunk()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	sum, err := sess.End()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	evs := <-done

	res := evs[0].(AnalysisResult)
	// Silence deviates from every speech reference and trips the robotic
	// and fake-audio artifacts, saturating the feature score.
	if res.RiskScores.Current != 100 {
		t.Errorf("score = %g, want 100", res.RiskScores.Current)
	}
	if res.RiskScores.Verdict != risk.VerdictBlock {
		t.Errorf("verdict = %s, want BLOCK_IMMEDIATE", res.RiskScores.Verdict)
	}
	if !res.Monitoring.Alert {
		t.Error("no alert for saturated score")
	}
	if res.Quality.HasVoice {
		t.Error("HasVoice set for silence")
	}
	if res.Security.Challenge.Tier != challenge.TierCriticalContext {
		t.Errorf("challenge tier = %s, want CRITICAL_CONTEXT", res.Security.Challenge.Tier)
	}
	if sum.FinalVerdict != "BLOCK" {
		t.Errorf("final_verdict = %q, want BLOCK", sum.FinalVerdict)
	}
	if sum.AverageScore != 100 {
		t.Errorf("average_score = %g, want 100", sum.AverageScore)
	}
}

func TestSession_PeriodicCrossCheck(t *testing.T) {
	m := testManager()
	sess := m.Create(context.Background())
	done := collect(sess)

	for range 5 {
		if err := sess.Enqueue(silenceChunk()); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if _, err := sess.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	evs := <-done

	for i := range 5 {
		res := evs[i].(AnalysisResult)
		if i < 4 {
			if res.RiskScores.FullAnalysis != nil {
				t.Errorf("chunk %d carries a cross-check score", i+1)
			}
			continue
		}
		if res.RiskScores.FullAnalysis == nil {
			t.Fatal("fifth chunk is missing the cross-check score")
		}
		if len(res.Components) < 4 {
			t.Errorf("fifth chunk components = %v, want liveness plus the three heuristic components", res.Components)
		}
	}
}

func TestSession_BadChunkDoesNotEndSession(t *testing.T) {
	m := testManager()
	sess := m.Create(context.Background())
	done := collect(sess)

	if err := sess.Enqueue([]byte{0x01}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := sess.Enqueue(silenceChunk()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	sum, err := sess.End()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	evs := <-done

	if _, ok := evs[0].(ErrorEvent); !ok {
		t.Fatalf("first event is %T, want ErrorEvent", evs[0])
	}
	res, ok := evs[1].(AnalysisResult)
	if !ok {
		t.Fatalf("second event is %T, want AnalysisResult", evs[1])
	}
	if res.AnalysisNumber != 1 {
		t.Errorf("analysisNumber = %d, want 1 (failed chunk not counted)", res.AnalysisNumber)
	}
	if sum.TotalAnalyses != 1 {
		t.Errorf("total_analyses = %d, want 1", sum.TotalAnalyses)
	}
}

func TestSession_EndIsTerminal(t *testing.T) {
	m := testManager()
	sess := m.Create(context.Background())
	done := collect(sess)

	if _, err := sess.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	<-done

	if _, err := sess.End(); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("second End err = %v, want ErrSessionEnded", err)
	}
	if err := sess.Enqueue(silenceChunk()); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("Enqueue after End err = %v, want ErrSessionEnded", err)
	}
}

func TestSession_CancellationUnblocksEnd(t *testing.T) {
	// A consumer that vanishes must not wedge the worker: with a queue and
	// events buffer of 2 and three chunks, the worker fills the events
	// channel and blocks mid-emission. Cancelling the session context has
	// to free it so End still returns a summary.
	m := NewManager(Pipeline{
		Engine:        risk.NewEngine(risk.EngineConfig{}),
		Selector:      &challenge.Selector{},
		Source:        featuresrc.Simulated{},
		QueueCapacity: 2,
	})
	ctx, cancel := context.WithCancel(context.Background())
	sess := m.Create(ctx)

	for range 3 {
		if err := sess.Enqueue(silenceChunk()); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	cancel()

	type endResult struct {
		sum Summary
		err error
	}
	done := make(chan endResult, 1)
	go func() {
		sum, err := sess.End()
		done <- endResult{sum, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("end: %v", res.err)
		}
		if res.sum.FinalVerdict == "" {
			t.Error("cancelled session delivered an empty summary")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("End did not return after context cancellation")
	}

	if err := sess.Enqueue(silenceChunk()); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("Enqueue after cancellation err = %v, want ErrSessionEnded", err)
	}
}

func TestSession_EmptySessionAllows(t *testing.T) {
	m := testManager()
	sess := m.Create(context.Background())
	done := collect(sess)

	sum, err := sess.End()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	<-done

	if sum.TotalAnalyses != 0 || sum.AverageScore != 0 {
		t.Errorf("empty summary = %+v, want zero analyses and score", sum)
	}
	if sum.FinalVerdict != "ALLOW" {
		t.Errorf("final_verdict = %q, want ALLOW", sum.FinalVerdict)
	}
}

func TestManager(t *testing.T) {
	m := testManager()
	ctx := context.Background()

	a := m.Create(ctx)
	b := m.Create(ctx)
	if a.ID == b.ID {
		t.Fatal("duplicate session IDs")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	if m.Get(a.ID) != a {
		t.Error("Get did not return the created session")
	}
	if m.Get("missing") != nil {
		t.Error("Get returned a session for an unknown ID")
	}

	m.Remove(ctx, a.ID)
	m.Remove(ctx, a.ID) // idempotent
	if m.Len() != 1 {
		t.Errorf("Len() after remove = %d, want 1", m.Len())
	}

	// Leave no running workers behind.
	for _, s := range []*Session{a, b} {
		done := collect(s)
		if _, err := s.End(); err != nil {
			t.Fatalf("end: %v", err)
		}
		<-done
	}
	m.Remove(ctx, b.ID)
}
