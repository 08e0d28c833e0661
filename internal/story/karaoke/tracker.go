package karaoke

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// BouncePeriod is one full up-and-down cycle of the indicator
const BouncePeriod = 500 * time.Millisecond

// Box is a word's on-screen rectangle
type Box struct {
	X, Y, W, H float64
}

// Frame is the indicator state drawn on each change
type Frame struct {
	X, Y        float64
	Opacity     float64
	ActiveIndex int
	Lifted      bool
}

// Hidden is the frame shown whenever narration is not playing
func Hidden() Frame {
	return Frame{ActiveIndex: -1}
}

// Surface displays narration words and the indicator over them
type Surface interface {
	SetWords(words []string)
	WordBox(i int) (Box, bool)
	Draw(f Frame)
}

// Tracker drives the indicator while narration plays. At most one ticking
// loop exists; Start and Stop both cancel the previous one.
type Tracker struct {
	surface  Surface
	interval time.Duration
	now      func() time.Time

	// IndicatorWidth centres the indicator; Offset raises it above the word.
	IndicatorWidth float64
	Offset         float64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTracker creates a tracker ticking fps times per second
func NewTracker(surface Surface, fps int) *Tracker {
	if fps <= 0 {
		fps = 60
	}
	return &Tracker{
		surface:        surface,
		interval:       time.Second / time.Duration(fps),
		now:            time.Now,
		IndicatorWidth: 2,
		Offset:         1,
	}
}

// Start shows text and begins tracking a narration of the given duration
func (t *Tracker) Start(text string, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	layout := NewLayout(text)
	t.surface.SetWords(layout.Words)
	if duration <= 0 || len(layout.Words) == 0 {
		t.surface.Draw(Hidden())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	logrus.WithFields(logrus.Fields{
		"words":    len(layout.Words),
		"chars":    layout.TotalChars,
		"duration": duration,
	}).Debug("Karaoke tracking started")

	go t.run(ctx, done, layout, duration, t.now())
}

// Stop cancels tracking and hides the indicator
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Active reports whether a ticking loop is running
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *Tracker) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
	t.surface.Draw(Hidden())
}

func (t *Tracker) run(ctx context.Context, done chan struct{}, layout *Layout, duration time.Duration, start time.Time) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	last := -1
	lifted := false
	var current Frame

	for {
		elapsed := t.now().Sub(start)
		if elapsed >= duration {
			t.surface.Draw(Hidden())
			return
		}

		changed := false
		if idx := layout.ActiveIndex(elapsed, duration); idx != -1 && idx != last {
			if box, ok := t.surface.WordBox(idx); ok {
				last = idx
				current = Frame{
					X:           box.X + box.W/2 - t.IndicatorWidth/2,
					Y:           box.Y - t.Offset,
					Opacity:     1,
					ActiveIndex: idx,
				}
				changed = true
			}
		}

		if up := bounceUp(elapsed); up != lifted {
			lifted = up
			changed = changed || last != -1
		}

		if changed {
			current.Lifted = lifted
			t.surface.Draw(current)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// bounceUp reports whether the indicator is in the raised half of its bounce
func bounceUp(elapsed time.Duration) bool {
	return (elapsed/(BouncePeriod/2))%2 == 1
}
