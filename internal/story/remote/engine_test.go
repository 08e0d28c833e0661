package remote

import (
	"context"
	"testing"

	"storyquest/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearKeys(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestResolve(t *testing.T) {
	clearKeys(t)
	assert.Equal(t, config.BackendMock, Resolve(config.BackendAuto, false))
	assert.Equal(t, config.BackendOpenAI, Resolve(config.BackendOpenAI, false))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	assert.Equal(t, config.BackendOpenAI, Resolve("", false))

	t.Setenv("GOOGLE_API_KEY", "g-test")
	assert.Equal(t, config.BackendGemini, Resolve(config.BackendAuto, true))
}

func TestNewFromConfigMock(t *testing.T) {
	clearKeys(t)
	cfg := config.Config{
		Story: config.StoryConfig{Backend: config.BackendMock},
		Image: config.ImageConfig{Backend: config.BackendMock, Enabled: true},
		TTS:   config.TTSConfig{Backend: config.BackendMock, Cache: true, CachePath: t.TempDir()},
	}

	built, err := NewFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, built.Cache)
	assert.Equal(t, Backends{Story: "mock", Image: "mock", TTS: "mock"}, built.Backends)

	state, err := built.Client.RequestNarrativeTurn(context.Background(), NewTurnRequest(testSession(), nil))
	require.NoError(t, err)
	assert.Len(t, state.Choices, 3)
}

func TestNewFromConfigUnknownBackend(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.Config{
		Story: config.StoryConfig{Backend: "parrot"},
		TTS:   config.TTSConfig{Backend: config.BackendMock},
	})
	assert.Error(t, err)
}
