// Package monitor tracks the rolling risk-score history of one session
// and derives its trend and alert state.
//
// Each session owns exactly one [Monitor]; instances are never shared
// across sessions, so score history cannot leak between callers. A
// Monitor is not safe for concurrent use — the session's single worker
// goroutine is its only writer.
package monitor

import "time"

const (
	// historyCapacity bounds the score FIFO.
	historyCapacity = 10

	// trendWindow is the number of recent scores compared against the
	// scores preceding them when classifying the trend.
	trendWindow = 5

	// trendDelta is the mean difference needed to leave STABLE.
	trendDelta = 5

	// Alert severity thresholds.
	defaultAlertThreshold = 70
	highThreshold         = 70
	criticalThreshold     = 85
)

// Trend is the direction of recent score movement.
type Trend string

const (
	TrendIncreasing Trend = "INCREASING"
	TrendDecreasing Trend = "DECREASING"
	TrendStable     Trend = "STABLE"
)

// Severity labels a raised alert.
type Severity string

const (
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Observation is the outcome of recording one score.
type Observation struct {
	// Alert is set when the score crossed the alert threshold.
	Alert bool `json:"alert"`

	// Severity of the alert; empty when Alert is false.
	Severity Severity `json:"severity,omitempty"`

	// Trend over the bounded history after this score was appended.
	Trend Trend `json:"trend"`
}

type entry struct {
	score float64
	at    time.Time
}

// Monitor holds a capacity-10 FIFO of (score, timestamp) pairs for one
// session.
type Monitor struct {
	history   []entry
	analyses  int
	threshold float64
}

// New creates a Monitor with the given alert threshold; zero means the
// default of 70.
func New(alertThreshold float64) *Monitor {
	if alertThreshold == 0 {
		alertThreshold = defaultAlertThreshold
	}
	return &Monitor{
		history:   make([]entry, 0, historyCapacity),
		threshold: alertThreshold,
	}
}

// Record appends score at the given time, evicting the oldest entry beyond
// capacity, and returns the resulting alert and trend state.
func (m *Monitor) Record(score float64, at time.Time) Observation {
	m.analyses++
	m.history = append(m.history, entry{score: score, at: at})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}

	obs := Observation{Trend: m.trend()}
	if score > m.threshold {
		obs.Alert = true
		switch {
		case score > criticalThreshold:
			obs.Severity = SeverityCritical
		case score > highThreshold:
			obs.Severity = SeverityHigh
		default:
			obs.Severity = SeverityMedium
		}
	}
	return obs
}

// trend compares the mean of the newest trendWindow scores against the
// mean of the scores preceding them. Fewer than two recorded scores is
// STABLE by definition.
func (m *Monitor) trend() Trend {
	if len(m.history) < 2 {
		return TrendStable
	}

	split := len(m.history) - trendWindow
	if split < 1 {
		split = len(m.history) / 2
	}
	older := m.history[:split]
	newer := m.history[split:]

	diff := meanScore(newer) - meanScore(older)
	switch {
	case diff >= trendDelta:
		return TrendIncreasing
	case diff <= -trendDelta:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// Analyses returns the total number of recorded scores, including evicted
// ones.
func (m *Monitor) Analyses() int { return m.analyses }

// Average returns the mean over the retained history, 0 when empty.
func (m *Monitor) Average() float64 {
	return meanScore(m.history)
}

// Last returns the most recent score, 0 when nothing was recorded.
func (m *Monitor) Last() float64 {
	if len(m.history) == 0 {
		return 0
	}
	return m.history[len(m.history)-1].score
}

// Trend returns the current trend without recording a new score.
func (m *Monitor) Trend() Trend { return m.trend() }

// Len returns the number of retained history entries.
func (m *Monitor) Len() int { return len(m.history) }

func meanScore(es []entry) float64 {
	if len(es) == 0 {
		return 0
	}
	var sum float64
	for _, e := range es {
		sum += e.score
	}
	return sum / float64(len(es))
}
