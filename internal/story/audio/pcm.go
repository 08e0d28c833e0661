// Package audio decodes narration payloads and plays them through the speaker.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/faiface/beep"
)

// Narration payloads are 16-bit little-endian PCM at 24 kHz, single channel, sent as base64 text.
const (
	SampleRate  = 24000
	NumChannels = 1
)

// PCM is decoded audio with one float buffer per channel
type PCM struct {
	SampleRate int
	Channels   [][]float64
}

// Decode turns a base64 narration payload into per-channel samples
func Decode(payload string) (*PCM, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 audio: %w", err)
	}
	return DecodeBytes(data, SampleRate, NumChannels)
}

// DecodeBytes reinterprets raw bytes as interleaved signed 16-bit little-endian samples
func DecodeBytes(data []byte, sampleRate, numChannels int) (*PCM, error) {
	if numChannels < 1 {
		return nil, fmt.Errorf("invalid channel count %d", numChannels)
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("truncated sample: %d bytes", len(data))
	}

	samples := len(data) / 2
	if samples%numChannels != 0 {
		return nil, fmt.Errorf("%d samples do not divide into %d channels", samples, numChannels)
	}
	frames := samples / numChannels

	pcm := &PCM{
		SampleRate: sampleRate,
		Channels:   make([][]float64, numChannels),
	}
	for ch := 0; ch < numChannels; ch++ {
		buf := make([]float64, frames)
		for i := 0; i < frames; i++ {
			off := (i*numChannels + ch) * 2
			v := int16(binary.LittleEndian.Uint16(data[off:]))
			buf[i] = float64(v) / 32768.0
		}
		pcm.Channels[ch] = buf
	}
	return pcm, nil
}

// Encode packs mono samples into a narration payload
func Encode(samples []int16) string {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return base64.StdEncoding.EncodeToString(data)
}

// Frames returns the number of sample frames
func (p *PCM) Frames() int {
	if len(p.Channels) == 0 {
		return 0
	}
	return len(p.Channels[0])
}

// Seconds returns the length of the audio in seconds
func (p *PCM) Seconds() float64 {
	if p.SampleRate <= 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.SampleRate)
}

// Duration returns the length of the audio
func (p *PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(p.Frames()) * time.Second / time.Duration(p.SampleRate)
}

// Streamer returns a seekable stream over the samples starting at position zero
func (p *PCM) Streamer() beep.StreamSeeker {
	return &pcmStreamer{pcm: p}
}

type pcmStreamer struct {
	pcm *PCM
	pos int
}

func (s *pcmStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	frames := s.pcm.Frames()
	if s.pos >= frames {
		return 0, false
	}

	left := s.pcm.Channels[0]
	right := left
	if len(s.pcm.Channels) > 1 {
		right = s.pcm.Channels[1]
	}

	for n < len(samples) && s.pos < frames {
		samples[n][0] = left[s.pos]
		samples[n][1] = right[s.pos]
		n++
		s.pos++
	}
	return n, true
}

func (s *pcmStreamer) Err() error {
	return nil
}

func (s *pcmStreamer) Len() int {
	return s.pcm.Frames()
}

func (s *pcmStreamer) Position() int {
	return s.pos
}

func (s *pcmStreamer) Seek(p int) error {
	if p < 0 || p > s.pcm.Frames() {
		return fmt.Errorf("seek position %d out of range [0, %d]", p, s.pcm.Frames())
	}
	s.pos = p
	return nil
}

// Resample converts to rate, mixing down to mono
func (p *PCM) Resample(rate int) *PCM {
	if rate == p.SampleRate || p.Frames() == 0 {
		return &PCM{SampleRate: rate, Channels: [][]float64{p.mono()}}
	}

	r := beep.Resample(4, beep.SampleRate(p.SampleRate), beep.SampleRate(rate), p.Streamer())
	out := make([]float64, 0, p.Frames()*rate/p.SampleRate+1)
	buf := make([][2]float64, 512)
	for {
		n, ok := r.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, (buf[i][0]+buf[i][1])/2)
		}
		if !ok {
			break
		}
	}
	return &PCM{SampleRate: rate, Channels: [][]float64{out}}
}

func (p *PCM) mono() []float64 {
	if len(p.Channels) == 1 {
		return append([]float64(nil), p.Channels[0]...)
	}
	out := make([]float64, p.Frames())
	for _, ch := range p.Channels {
		for i, v := range ch {
			out[i] += v / float64(len(p.Channels))
		}
	}
	return out
}

// Int16 returns the first channel as clamped 16-bit samples
func (p *PCM) Int16() []int16 {
	if len(p.Channels) == 0 {
		return nil
	}
	out := make([]int16, len(p.Channels[0]))
	for i, v := range p.Channels[0] {
		s := v * 32768.0
		switch {
		case s > 32767:
			s = 32767
		case s < -32768:
			s = -32768
		}
		out[i] = int16(s)
	}
	return out
}
