package remote

import (
	"context"
	"fmt"
	"os"

	"storyquest/internal/config"

	"github.com/sirupsen/logrus"
)

// Backends is what NewFromConfig resolved for each medium
type Backends struct {
	Story string
	Image string
	TTS   string
}

// Built is a ready client plus the pieces the CLI reports on. Cache is nil when disabled.
type Built struct {
	Client   *Client
	Backends Backends
	Cache    *CachedNarrator
}

func geminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

func openAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// hasGoogleCredentials checks for a service account key file
func hasGoogleCredentials() bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok
}

func hasESpeak() bool {
	_, err := findESpeakExecutable()
	return err == nil
}

func hasSystemVoice() bool {
	_, err := NewSystem()
	return err == nil
}

// Resolve turns "auto" into a concrete backend for the medium
func Resolve(backend string, narration bool) string {
	if backend != "" && backend != config.BackendAuto {
		return backend
	}

	switch {
	case geminiKey() != "":
		return config.BackendGemini
	case narration && hasGoogleCredentials():
		return config.BackendCloudTTS
	case openAIKey() != "":
		return config.BackendOpenAI
	case narration && hasESpeak():
		return config.BackendESpeak
	case narration && hasSystemVoice():
		return config.BackendSystem
	default:
		return config.BackendMock
	}
}

// NewFromConfig wires the storyteller, illustrator and narrator named by the config
func NewFromConfig(ctx context.Context, cfg config.Config) (*Built, error) {
	b := Backends{
		Story: Resolve(cfg.Story.Backend, false),
		Image: Resolve(cfg.Image.Backend, false),
		TTS:   Resolve(cfg.TTS.Backend, true),
	}

	var (
		gemini *Gemini
		oa     *OpenAI
		mock   = NewMock()
	)
	needs := func(name string) bool {
		return b.Story == name || (cfg.Image.Enabled && b.Image == name) || b.TTS == name
	}

	if needs(config.BackendGemini) {
		g, err := NewGemini(ctx, geminiKey(), cfg.Story.Model, cfg.Image.Model, cfg.TTS.Model)
		if err != nil {
			return nil, err
		}
		gemini = g
	}
	if needs(config.BackendOpenAI) {
		oa = NewOpenAI(openAIKey(), os.Getenv("OPENAI_BASE_URL"), cfg.Story.Model, cfg.Image.Model, cfg.TTS.Model)
	}

	var storyteller Storyteller
	switch b.Story {
	case config.BackendGemini:
		storyteller = gemini
	case config.BackendOpenAI:
		storyteller = oa
	case config.BackendMock:
		storyteller = mock
	default:
		return nil, fmt.Errorf("unsupported story backend: %s", b.Story)
	}

	var illustrator Illustrator
	if cfg.Image.Enabled {
		switch b.Image {
		case config.BackendGemini:
			illustrator = gemini
		case config.BackendOpenAI:
			illustrator = oa
		case config.BackendMock:
			illustrator = mock
		default:
			return nil, fmt.Errorf("unsupported image backend: %s", b.Image)
		}
	}

	var narrator Narrator
	switch b.TTS {
	case config.BackendGemini:
		narrator = gemini
	case config.BackendOpenAI:
		narrator = oa
	case config.BackendCloudTTS:
		c, err := NewCloudTTS(ctx)
		if err != nil {
			return nil, err
		}
		narrator = c
	case config.BackendESpeak:
		e, err := NewESpeak()
		if err != nil {
			return nil, err
		}
		narrator = e
	case config.BackendSystem:
		sys, err := NewSystem()
		if err != nil {
			return nil, err
		}
		narrator = sys
	case config.BackendMock:
		narrator = mock
	default:
		return nil, fmt.Errorf("unsupported TTS backend: %s", b.TTS)
	}

	built := &Built{Backends: b}
	if cfg.TTS.Cache && b.TTS != config.BackendMock {
		cached, err := NewCachedNarrator(narrator, cfg.TTS.CachePath, b.TTS)
		if err != nil {
			logrus.WithError(err).Warn("Narration cache disabled")
		} else {
			built.Cache = cached
			narrator = cached
		}
	}

	logrus.WithFields(logrus.Fields{
		"story": b.Story,
		"image": b.Image,
		"tts":   b.TTS,
	}).Info("Remote backends selected")

	built.Client = NewClient(storyteller, illustrator, narrator)
	return built, nil
}
