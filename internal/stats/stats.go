package stats

import (
	"slices"
	"sync"
	"time"
)

// Pipeline operations tracked by the service.
const (
	OpExtract = "extract"
	OpChunk   = "chunk"
	OpIngest  = "ingest"
	OpTokens  = "tokens"
)

type sample struct {
	at       time.Time
	duration time.Duration
	failed   bool
}

// Snapshot aggregates the latency samples of one operation still inside
// the window.
type Snapshot struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// Window keeps latencies per operation name for a rolling period.
type Window struct {
	mu      sync.Mutex
	samples map[string][]sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewWindow(maxAge time.Duration) *Window {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Window{
		samples: make(map[string][]sample),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Record adds one sample for op. Negative durations count as zero.
func (w *Window) Record(op string, d time.Duration, failed bool) {
	if d < 0 {
		d = 0
	}
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[op] = append(prune(w.samples[op], now.Add(-w.maxAge)), sample{
		at:       now,
		duration: d,
		failed:   failed,
	})
}

// Time records the time elapsed since start for op.
func (w *Window) Time(op string, start time.Time, err error) {
	w.Record(op, w.now().Sub(start), err != nil)
}

// Snapshot returns the aggregate for one operation.
func (w *Window) Snapshot(op string) Snapshot {
	cutoff := w.now().Add(-w.maxAge)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[op] = prune(w.samples[op], cutoff)
	return aggregate(w.samples[op])
}

// All returns a snapshot per operation that has recorded samples, plus the
// operation names in sorted order.
func (w *Window) All() (map[string]Snapshot, []string) {
	cutoff := w.now().Add(-w.maxAge)

	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]Snapshot, len(w.samples))
	names := make([]string, 0, len(w.samples))
	for op, ss := range w.samples {
		ss = prune(ss, cutoff)
		w.samples[op] = ss
		if len(ss) == 0 {
			continue
		}
		out[op] = aggregate(ss)
		names = append(names, op)
	}
	slices.Sort(names)
	return out, names
}

func aggregate(ss []sample) Snapshot {
	if len(ss) == 0 {
		return Snapshot{}
	}
	values := make([]float64, 0, len(ss))
	var sum float64
	failures := 0
	for _, s := range ss {
		ms := float64(s.duration) / float64(time.Millisecond)
		values = append(values, ms)
		sum += ms
		if s.failed {
			failures++
		}
	}
	slices.Sort(values)

	return Snapshot{
		Count:    len(values),
		Failures: failures,
		MinMs:    values[0],
		MaxMs:    values[len(values)-1],
		AvgMs:    sum / float64(len(values)),
		P50Ms:    percentile(values, 50),
		P95Ms:    percentile(values, 95),
		P99Ms:    percentile(values, 99),
	}
}

// prune drops samples older than cutoff in place.
func prune(ss []sample, cutoff time.Time) []sample {
	keep := ss[:0]
	for _, s := range ss {
		if !s.at.Before(cutoff) {
			keep = append(keep, s)
		}
	}
	return keep
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := float64(len(sorted)-1) * pct / 100
	lower := int(idx)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	weight := idx - float64(lower)
	return sorted[lower] + (sorted[lower+1]-sorted[lower])*weight
}
