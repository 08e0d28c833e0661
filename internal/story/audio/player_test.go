package audio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	mu        sync.Mutex
	resumeErr error
	resumes   int
	clears    int
	playing   []beep.Streamer
}

func (d *fakeDevice) Resume(beep.SampleRate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resumes++
	return d.resumeErr
}

func (d *fakeDevice) Play(s beep.Streamer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = append(d.playing, s)
}

func (d *fakeDevice) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clears++
	d.playing = nil
}

func (d *fakeDevice) Close() error {
	return nil
}

func (d *fakeDevice) active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.playing)
}

// drain streams the first active streamer to its end
func (d *fakeDevice) drain() {
	d.mu.Lock()
	s := d.playing[0]
	d.playing = d.playing[1:]
	d.mu.Unlock()

	buf := make([][2]float64, 512)
	for {
		if _, ok := s.Stream(buf); !ok {
			return
		}
	}
}

func TestPlayReturnsDuration(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPlayer(dev)

	d := p.Play(Encode(make([]int16, 12000)))
	assert.Equal(t, 500*time.Millisecond, d)
	assert.True(t, p.IsPlaying())
	assert.Equal(t, 1, dev.resumes)
	assert.Equal(t, 1, dev.active())
}

func TestPlayReplacesCurrentPlayback(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPlayer(dev)

	p.Play(Encode(make([]int16, 100)))
	p.Play(Encode(make([]int16, 200)))

	assert.Equal(t, 1, dev.clears)
	assert.Equal(t, 1, dev.active())
}

func TestStopIsSafeWhenIdle(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPlayer(dev)

	p.Stop()
	p.Stop()
	assert.Equal(t, 0, dev.clears)

	p.Play(Encode(make([]int16, 10)))
	p.Stop()
	assert.Equal(t, 1, dev.clears)
	assert.False(t, p.IsPlaying())
}

func TestPlayFailuresReportZero(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPlayer(dev)

	assert.Equal(t, time.Duration(0), p.Play("%%%"))
	assert.False(t, p.IsPlaying())

	dev.resumeErr = errors.New("no output")
	assert.Equal(t, time.Duration(0), p.Play(Encode(make([]int16, 10))))
	assert.Equal(t, 0, dev.active())
}

func TestPlaybackFinishes(t *testing.T) {
	dev := &fakeDevice{}
	p := NewPlayer(dev)

	p.Play(Encode(make([]int16, 2000)))
	require.True(t, p.IsPlaying())

	dev.drain()
	require.Eventually(t, func() bool { return !p.IsPlaying() }, time.Second, 5*time.Millisecond)
}
