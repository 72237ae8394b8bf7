package monitor

import (
	"testing"
	"time"
)

func record(m *Monitor, scores ...float64) Observation {
	var obs Observation
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, s := range scores {
		obs = m.Record(s, at.Add(time.Duration(i)*time.Second))
	}
	return obs
}

func TestTrend(t *testing.T) {
	t.Run("single score is stable", func(t *testing.T) {
		m := New(0)
		if obs := record(m, 50); obs.Trend != TrendStable {
			t.Errorf("trend = %s, want STABLE", obs.Trend)
		}
	})

	t.Run("step up over ten entries is increasing", func(t *testing.T) {
		m := New(0)
		obs := record(m, 10, 10, 10, 10, 10, 80, 80, 80, 80, 80)
		if obs.Trend != TrendIncreasing {
			t.Errorf("trend = %s, want INCREASING", obs.Trend)
		}
	})

	t.Run("step down is decreasing", func(t *testing.T) {
		m := New(0)
		obs := record(m, 80, 80, 80, 80, 80, 10, 10, 10, 10, 10)
		if obs.Trend != TrendDecreasing {
			t.Errorf("trend = %s, want DECREASING", obs.Trend)
		}
	})

	t.Run("small drift stays stable", func(t *testing.T) {
		m := New(0)
		obs := record(m, 50, 51, 52, 51, 50, 52, 53, 52, 51, 52)
		if obs.Trend != TrendStable {
			t.Errorf("trend = %s, want STABLE", obs.Trend)
		}
	})

	t.Run("short history splits at the midpoint", func(t *testing.T) {
		m := New(0)
		obs := record(m, 10, 80)
		if obs.Trend != TrendIncreasing {
			t.Errorf("trend = %s, want INCREASING", obs.Trend)
		}
	})
}

func TestHistoryEviction(t *testing.T) {
	m := New(0)
	for i := range 15 {
		m.Record(float64(i), time.Now())
	}
	if m.Len() != 10 {
		t.Errorf("Len() = %d, want 10", m.Len())
	}
	if m.Analyses() != 15 {
		t.Errorf("Analyses() = %d, want 15", m.Analyses())
	}
	if m.Last() != 14 {
		t.Errorf("Last() = %g, want 14", m.Last())
	}
	// Retained scores are 5..14, mean 9.5.
	if m.Average() != 9.5 {
		t.Errorf("Average() = %g, want 9.5", m.Average())
	}
}

func TestAlerts(t *testing.T) {
	t.Run("default threshold", func(t *testing.T) {
		for _, tc := range []struct {
			score    float64
			alert    bool
			severity Severity
		}{
			{50, false, ""},
			{70, false, ""},
			{71, true, SeverityHigh},
			{85, true, SeverityHigh},
			{86, true, SeverityCritical},
			{100, true, SeverityCritical},
		} {
			obs := New(0).Record(tc.score, time.Now())
			if obs.Alert != tc.alert {
				t.Errorf("score %g: alert = %v, want %v", tc.score, obs.Alert, tc.alert)
			}
			if obs.Severity != tc.severity {
				t.Errorf("score %g: severity = %q, want %q", tc.score, obs.Severity, tc.severity)
			}
		}
	})

	t.Run("lowered threshold raises medium alerts", func(t *testing.T) {
		obs := New(40).Record(55, time.Now())
		if !obs.Alert {
			t.Fatal("no alert for 55 with threshold 40")
		}
		if obs.Severity != SeverityMedium {
			t.Errorf("severity = %q, want MEDIUM", obs.Severity)
		}
	})
}

func TestEmptyAccessors(t *testing.T) {
	m := New(0)
	if m.Last() != 0 || m.Average() != 0 || m.Len() != 0 || m.Analyses() != 0 {
		t.Errorf("fresh monitor not zeroed: last=%g avg=%g len=%d analyses=%d",
			m.Last(), m.Average(), m.Len(), m.Analyses())
	}
	if m.Trend() != TrendStable {
		t.Errorf("Trend() = %s, want STABLE", m.Trend())
	}
}
