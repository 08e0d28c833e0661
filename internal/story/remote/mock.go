package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"strings"
	"time"

	"storyquest/internal/domain/story"
	"storyquest/internal/story/audio"
)

// MockWordsPerMinute is the reading pace of the mock narrator
const MockWordsPerMinute = 150

var mockBeats = []struct {
	scene   string
	choices [3]string
}{
	{"We tiptoe along a sparkly path and spot a glowing door", [3]string{"Let's knock on the door!", "We should peek through the keyhole", "Let's follow the sparkles"}},
	{"A tiny owl hoots hello and offers us a map made of leaves", [3]string{"Let's read the map!", "We should thank the owl", "Let's ask the owl to come along"}},
	{"The ground rumbles and a rainbow bridge appears in front of us", [3]string{"Let's cross the bridge!", "We should count the colors", "Let's slide down the rainbow"}},
	{"We find a treasure chest humming a happy song", [3]string{"Let's open the chest!", "We should sing along", "Let's look for the key"}},
}

// Mock is an offline backend that writes, draws and narrates without any API
type Mock struct {
	// Latency delays every call, honouring cancellation
	Latency time.Duration
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) wait(ctx context.Context) error {
	if m.Latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *Mock) Tell(ctx context.Context, prompt string) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}

	character := promptField(prompt, "CURRENT CHARACTER")
	setting := promptField(prompt, "CURRENT SETTING")
	child := promptField(prompt, "THE CHILD'S NAME")
	turn := strings.Count(prompt, "\nChild: ")
	beat := mockBeats[turn%len(mockBeats)]

	narrative := fmt.Sprintf("%s here! %s in the %s. What should we do now, %s?", character, beat.scene, setting, child)
	return marshalTurn(narrative, fmt.Sprintf("%s in the %s. %s.", character, setting, beat.scene), beat.choices[:])
}

func marshalTurn(narrative, imagePrompt string, choices []string) (string, error) {
	b, err := json.Marshal(map[string]any{
		"narrative":   narrative,
		"imagePrompt": imagePrompt,
		"choices":     choices,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Illustrate draws a soft gradient whose hue depends on the prompt
func (m *Mock) Illustrate(ctx context.Context, prompt string) ([]byte, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	var seed uint8
	for _, r := range prompt {
		seed += uint8(r)
	}

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{R: seed + uint8(x/2), G: uint8(y), B: 200 - seed/2, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Narrate produces a quiet tone as long as reading the text aloud would take
func (m *Mock) Narrate(ctx context.Context, n story.Narration) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}

	words := len(story.Words(n.Text))
	if words == 0 {
		return "", fmt.Errorf("nothing to narrate")
	}
	duration := time.Duration(words) * time.Minute / MockWordsPerMinute
	return audio.Encode(tone(duration, 440)), nil
}

func tone(d time.Duration, hz float64) []int16 {
	n := int(d.Seconds() * audio.SampleRate)
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(1200 * math.Sin(2*math.Pi*hz*float64(i)/audio.SampleRate))
	}
	return samples
}
