package audio

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/sirupsen/logrus"
)

// Player plays one narration at a time
type Player struct {
	mu     sync.Mutex
	device Device
	ctrl   *beep.Ctrl
}

// NewPlayer creates a player that owns device
func NewPlayer(device Device) *Player {
	return &Player{device: device}
}

// Play stops whatever is playing and starts payload from the beginning.
// It returns the audio duration, or 0 when nothing could be played.
func (p *Player) Play(payload string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.device.Resume(beep.SampleRate(SampleRate)); err != nil {
		logrus.WithError(err).Warn("Audio device unavailable")
		return 0
	}

	p.stopLocked()

	pcm, err := Decode(payload)
	if err != nil {
		logrus.WithError(err).Warn("Error playing audio")
		return 0
	}

	ctrl := &beep.Ctrl{Streamer: pcm.Streamer()}
	p.ctrl = ctrl

	// the callback runs on the speaker goroutine with its lock held
	p.device.Play(beep.Seq(ctrl, beep.Callback(func() {
		go p.finished(ctrl)
	})))

	logrus.WithFields(logrus.Fields{
		"frames":   pcm.Frames(),
		"duration": pcm.Duration(),
	}).Debug("Started narration playback")

	return pcm.Duration()
}

// Stop halts the current playback; it is safe when nothing is playing
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// IsPlaying reports whether a narration is active
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctrl != nil
}

// Close stops playback and releases the device
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return p.device.Close()
}

func (p *Player) stopLocked() {
	if p.ctrl == nil {
		return
	}
	p.device.Clear()
	p.ctrl = nil
}

func (p *Player) finished(ctrl *beep.Ctrl) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == ctrl {
		p.ctrl = nil
	}
}
