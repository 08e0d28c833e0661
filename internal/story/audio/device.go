package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Device is an audio output the player owns exclusively
type Device interface {
	// Resume makes the device ready to play at the given rate.
	// Devices start suspended; resuming an active device is a no-op.
	Resume(rate beep.SampleRate) error
	Play(s beep.Streamer)
	Clear()
	Close() error
}

// Speaker is the system speaker, initialised on first use
type Speaker struct {
	mu    sync.Mutex
	ready bool
	rate  beep.SampleRate
}

func NewSpeaker() *Speaker {
	return &Speaker{}
}

func (s *Speaker) Resume(rate beep.SampleRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready && s.rate == rate {
		return nil
	}

	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to initialise speaker: %w", err)
	}
	s.ready = true
	s.rate = rate
	return nil
}

func (s *Speaker) Play(st beep.Streamer) {
	speaker.Play(st)
}

func (s *Speaker) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		speaker.Clear()
	}
}

func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		speaker.Close()
		s.ready = false
	}
	return nil
}
