package remote

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"

	"storyquest/internal/story/audio"
)

// wavData is the sample data of a RIFF/WAVE file. Rate and Channels are zero
// when the input had no header.
type wavData struct {
	Samples  []byte
	Rate     int
	Channels int
}

// parseWAV finds the fmt and data chunks. Headerless input is returned as samples.
func parseWAV(b []byte) (wavData, error) {
	if len(b) < 12 || !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return wavData{Samples: b}, nil
	}

	var w wavData
	pos := 12
	for pos+8 <= len(b) {
		id := string(b[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(b[pos+4 : pos+8]))
		pos += 8

		switch id {
		case "fmt ":
			if pos+8 <= len(b) {
				w.Channels = int(binary.LittleEndian.Uint16(b[pos+2:]))
				w.Rate = int(binary.LittleEndian.Uint32(b[pos+4:]))
			}
		case "data":
			end := pos + size
			// streamed output leaves the size unset or oversized
			if end > len(b) || size == 0 {
				end = len(b)
			}
			w.Samples = b[pos:end]
			return w, nil
		}
		pos += size + size%2
	}
	return wavData{}, errors.New("wav payload has no data chunk")
}

// stripWAVHeader returns only the samples
func stripWAVHeader(b []byte) ([]byte, error) {
	w, err := parseWAV(b)
	return w.Samples, err
}

// wavToPayload converts a WAV file of any rate into a narration payload
func wavToPayload(b []byte) (string, error) {
	w, err := parseWAV(b)
	if err != nil {
		return "", err
	}
	if w.Samples = w.Samples[:len(w.Samples)&^1]; len(w.Samples) == 0 {
		return "", errors.New("no audio data returned")
	}
	if (w.Rate == 0 || w.Rate == audio.SampleRate) && w.Channels <= 1 {
		return base64.StdEncoding.EncodeToString(w.Samples), nil
	}

	channels := max(w.Channels, 1)
	rate := w.Rate
	if rate == 0 {
		rate = audio.SampleRate
	}
	// drop a trailing partial frame
	frame := 2 * channels
	pcm, err := audio.DecodeBytes(w.Samples[:len(w.Samples)/frame*frame], rate, channels)
	if err != nil {
		return "", err
	}
	return audio.Encode(pcm.Resample(audio.SampleRate).Int16()), nil
}
