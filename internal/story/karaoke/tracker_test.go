package karaoke

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSurface struct {
	mu     sync.Mutex
	words  []string
	frames []Frame
}

func (s *recordingSurface) SetWords(words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = words
}

func (s *recordingSurface) WordBox(i int) (Box, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.words) {
		return Box{}, false
	}
	return Box{X: float64(i * 10), Y: 5, W: 4, H: 1}, true
}

func (s *recordingSurface) Draw(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
}

func (s *recordingSurface) snapshot() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Frame(nil), s.frames...)
}

func (s *recordingSurface) last() Frame {
	f := s.snapshot()
	if len(f) == 0 {
		return Frame{}
	}
	return f[len(f)-1]
}

func TestTrackerRunsToCompletion(t *testing.T) {
	surface := &recordingSurface{}
	tr := NewTracker(surface, 500)

	tr.Start("one two three four five", 600*time.Millisecond)
	require.Eventually(t, func() bool { return !tr.Active() }, 3*time.Second, 5*time.Millisecond)

	frames := surface.snapshot()
	require.NotEmpty(t, frames)
	assert.Equal(t, Hidden(), frames[len(frames)-1])

	last := -1
	for _, f := range frames[:len(frames)-1] {
		assert.GreaterOrEqual(t, f.ActiveIndex, last)
		assert.Equal(t, 1.0, f.Opacity)
		assert.Equal(t, 4.0, f.Y)
		last = f.ActiveIndex
	}
	assert.Equal(t, 0, frames[0].ActiveIndex)
	assert.Equal(t, 1.0, frames[0].X)
}

func TestTrackerStopHidesIndicator(t *testing.T) {
	surface := &recordingSurface{}
	tr := NewTracker(surface, 200)

	tr.Start("a long story about a brave little owl", 10*time.Second)
	require.Eventually(t, func() bool { return len(surface.snapshot()) > 0 }, time.Second, 5*time.Millisecond)

	tr.Stop()
	assert.False(t, tr.Active())
	assert.Equal(t, Hidden(), surface.last())

	n := len(surface.snapshot())
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, surface.snapshot(), n, "no frames after stop")
}

func TestTrackerRestartReplacesLoop(t *testing.T) {
	surface := &recordingSurface{}
	tr := NewTracker(surface, 200)

	tr.Start("first narration text", 10*time.Second)
	tr.Start("second narration", 10*time.Second)
	assert.True(t, tr.Active())

	surface.mu.Lock()
	assert.Equal(t, []string{"second", "narration"}, surface.words)
	surface.mu.Unlock()

	tr.Stop()
	tr.Stop()
	assert.False(t, tr.Active())
}

func TestTrackerWithoutDuration(t *testing.T) {
	surface := &recordingSurface{}
	tr := NewTracker(surface, 60)

	tr.Start("we wait", 0)
	assert.False(t, tr.Active())
	assert.Equal(t, []Frame{Hidden()}, surface.snapshot())
}

func TestBounceUp(t *testing.T) {
	assert.False(t, bounceUp(0))
	assert.False(t, bounceUp(249*time.Millisecond))
	assert.True(t, bounceUp(250*time.Millisecond))
	assert.False(t, bounceUp(500*time.Millisecond))
}
