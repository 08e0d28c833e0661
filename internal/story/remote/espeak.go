package remote

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"storyquest/internal/domain/story"
)

// eSpeak words per minute, a little slower than its default 175 for young listeners
const espeakSpeed = 150

// espeakLanguages maps story languages to eSpeak voice names
var espeakLanguages = map[string]string{
	"English":    "en-us",
	"Spanish":    "es",
	"French":     "fr",
	"German":     "de",
	"Italian":    "it",
	"Japanese":   "ja",
	"Chinese":    "cmn",
	"Portuguese": "pt-br",
	"Hindi":      "hi",
}

// espeakVariants gives each catalog voice a distinct eSpeak variant
var espeakVariants = map[string]string{
	"Puck":   "m3",
	"Charon": "m1",
	"Kore":   "f2",
	"Fenrir": "m7",
	"Zephyr": "f4",
}

// ESpeak narrates offline with eSpeak or eSpeak-NG writing WAV to stdout
type ESpeak struct {
	path string
}

// NewESpeak finds the eSpeak executable and checks it runs
func NewESpeak() (*ESpeak, error) {
	path, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}
	if err := exec.Command(path, "--version").Run(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}
	return &ESpeak{path: path}, nil
}

func findESpeakExecutable() (string, error) {
	for _, candidate := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("eSpeak executable not found in PATH")
}

// ESpeakVoice is the eSpeak voice argument for a story language and catalog voice
func ESpeakVoice(language, voice string) string {
	lang, ok := espeakLanguages[language]
	if !ok {
		lang = espeakLanguages[story.DefaultLanguage]
	}
	if variant, ok := espeakVariants[voice]; ok {
		return lang + "+" + variant
	}
	return lang
}

func (e *ESpeak) Narrate(ctx context.Context, n story.Narration) (string, error) {
	args := []string{
		"--stdout",
		"-v", ESpeakVoice(n.Language, n.Voice),
		"-s", strconv.Itoa(espeakSpeed),
		n.Text,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("eSpeak failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	return wavToPayload(stdout.Bytes())
}
