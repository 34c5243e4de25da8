package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestWindow(maxAge time.Duration) (*Window, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	w := NewWindow(maxAge)
	w.now = clock.now
	return w, clock
}

func TestSnapshotPercentiles(t *testing.T) {
	w, _ := newTestWindow(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		w.Record(OpChunk, time.Duration(ms)*time.Millisecond, false)
	}

	snap := w.Snapshot(OpChunk)
	assert.Equal(t, 5, snap.Count)
	assert.Equal(t, 0, snap.Failures)
	assert.InDelta(t, 100, snap.MinMs, 1e-9)
	assert.InDelta(t, 500, snap.MaxMs, 1e-9)
	assert.InDelta(t, 300, snap.AvgMs, 1e-9)
	assert.InDelta(t, 300, snap.P50Ms, 1e-9)
	assert.InDelta(t, 480, snap.P95Ms, 1e-9)
	assert.InDelta(t, 496, snap.P99Ms, 1e-9)
}

func TestPrunesExpiredSamples(t *testing.T) {
	w, clock := newTestWindow(10 * time.Second)
	w.Record(OpExtract, 100*time.Millisecond, false)
	clock.advance(25 * time.Second)

	assert.Equal(t, 0, w.Snapshot(OpExtract).Count)

	w.Record(OpExtract, 200*time.Millisecond, true)
	snap := w.Snapshot(OpExtract)
	require.Equal(t, 1, snap.Count)
	assert.Equal(t, 1, snap.Failures)
	assert.InDelta(t, 200, snap.MinMs, 1e-9)
	assert.InDelta(t, 200, snap.MaxMs, 1e-9)
}

func TestRecordClampsNegativeDuration(t *testing.T) {
	w, _ := newTestWindow(time.Hour)
	w.Record(OpTokens, -10*time.Millisecond, false)

	snap := w.Snapshot(OpTokens)
	require.Equal(t, 1, snap.Count)
	assert.Zero(t, snap.MinMs)
	assert.Zero(t, snap.MaxMs)
}

func TestTimeMarksFailures(t *testing.T) {
	w, clock := newTestWindow(time.Hour)
	start := clock.t
	clock.advance(40 * time.Millisecond)
	w.Time(OpIngest, start, errors.New("boom"))

	snap := w.Snapshot(OpIngest)
	require.Equal(t, 1, snap.Count)
	assert.Equal(t, 1, snap.Failures)
	assert.InDelta(t, 40, snap.MaxMs, 1e-9)
}

func TestAllSkipsEmptyOperations(t *testing.T) {
	w, clock := newTestWindow(time.Minute)
	w.Record(OpExtract, time.Millisecond, false)
	clock.advance(2 * time.Minute)
	w.Record(OpChunk, time.Millisecond, false)
	w.Record(OpTokens, time.Millisecond, false)

	all, names := w.All()
	assert.Equal(t, []string{OpChunk, OpTokens}, names)
	assert.NotContains(t, all, OpExtract)
	assert.Equal(t, 1, all[OpChunk].Count)
}
