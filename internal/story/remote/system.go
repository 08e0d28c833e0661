package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"storyquest/internal/domain/story"
)

// System narrates with the operating system's own speech engine: the 'say'
// command on macOS and SAPI through PowerShell on Windows. Both render to a
// temporary WAV file that is then turned into a payload.
type System struct {
	goos string
}

// NewSystem checks the platform has a speech engine
func NewSystem() (*System, error) {
	s := &System{goos: runtime.GOOS}
	name, _ := s.command("", "")
	if name == "" {
		return nil, fmt.Errorf("no system speech engine on %s", runtime.GOOS)
	}
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s not found: %w", name, err)
	}
	return s, nil
}

// command builds the invocation that speaks textFile into out
func (s *System) command(out, textFile string) (string, []string) {
	switch s.goos {
	case "darwin":
		return "say", []string{
			"-r", "150",
			"--file-format=WAVE",
			"--data-format=LEI16@24000",
			"-o", out,
			"-f", textFile,
		}
	case "windows":
		script := fmt.Sprintf(`Add-Type -AssemblyName System.Speech;
$synth = New-Object System.Speech.Synthesis.SpeechSynthesizer;
$synth.Rate = -1;
$synth.SetOutputToWaveFile('%s');
$synth.Speak([System.IO.File]::ReadAllText('%s'));
$synth.Dispose()`, psQuote(out), psQuote(textFile))
		return "powershell", []string{"-NoProfile", "-Command", script}
	default:
		return "", nil
	}
}

func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (s *System) Narrate(ctx context.Context, n story.Narration) (string, error) {
	dir, err := os.MkdirTemp("", "storyquest-voice")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	textFile := filepath.Join(dir, "page.txt")
	if err := os.WriteFile(textFile, []byte(n.Text), 0600); err != nil {
		return "", err
	}
	out := filepath.Join(dir, "page.wav")

	name, args := s.command(out, textFile)
	if name == "" {
		return "", errors.New("no system speech engine")
	}
	if output, err := exec.CommandContext(ctx, name, args...).CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return "", fmt.Errorf("failed to read speech: %w", err)
	}
	return wavToPayload(data)
}
