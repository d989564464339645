// Package stats keeps rolling latency summaries for document commands.
package stats

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at      time.Time
	elapsed time.Duration
}

// Summary aggregates the samples recorded for one command within the window.
type Summary struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinUs  int64   `json:"min_us"`
	MaxUs  int64   `json:"max_us"`
	MeanUs float64 `json:"mean_us"`
	P50Us  float64 `json:"p50_us"`
	P95Us  float64 `json:"p95_us"`
	P99Us  float64 `json:"p99_us"`
}

type series struct {
	samples []sample
	errors  []time.Time
}

// Recorder tracks command latencies per action over a rolling window.
type Recorder struct {
	mu     sync.Mutex
	window time.Duration
	byName map[string]*series
	now    func() time.Time
}

func NewRecorder(window time.Duration) *Recorder {
	if window <= 0 {
		window = time.Hour
	}
	return &Recorder{
		window: window,
		byName: make(map[string]*series),
		now:    time.Now,
	}
}

// Record adds one command run. failed runs count toward Errors as well.
func (r *Recorder) Record(action string, elapsed time.Duration, failed bool) {
	if elapsed < 0 {
		elapsed = 0
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byName[action]
	if !ok {
		s = &series{}
		r.byName[action] = s
	}
	r.pruneLocked(s, now)
	s.samples = append(s.samples, sample{at: now, elapsed: elapsed})
	if failed {
		s.errors = append(s.errors, now)
	}
}

// Snapshot summarizes every action with samples still inside the window.
func (r *Recorder) Snapshot() map[string]Summary {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Summary, len(r.byName))
	for name, s := range r.byName {
		r.pruneLocked(s, now)
		if len(s.samples) == 0 {
			delete(r.byName, name)
			continue
		}
		out[name] = summarize(s)
	}
	return out
}

func summarize(s *series) Summary {
	us := make([]int64, len(s.samples))
	var sum int64
	for i, sm := range s.samples {
		us[i] = sm.elapsed.Microseconds()
		sum += us[i]
	}
	slices.Sort(us)
	return Summary{
		Count:  len(us),
		Errors: len(s.errors),
		MinUs:  us[0],
		MaxUs:  us[len(us)-1],
		MeanUs: float64(sum) / float64(len(us)),
		P50Us:  percentile(us, 50),
		P95Us:  percentile(us, 95),
		P99Us:  percentile(us, 99),
	}
}

func (r *Recorder) pruneLocked(s *series, now time.Time) {
	cutoff := now.Add(-r.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool { return sm.at.Before(cutoff) })
	s.errors = slices.DeleteFunc(s.errors, func(t time.Time) bool { return t.Before(cutoff) })
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[lo+1])-float64(sorted[lo]))*frac
}
