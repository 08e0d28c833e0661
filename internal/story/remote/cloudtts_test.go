package remote

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloudVoiceName(t *testing.T) {
	code, name := CloudVoiceName("Spanish", "Puck")
	assert.Equal(t, "es-ES", code)
	assert.Equal(t, "es-ES-Chirp3-HD-Puck", name)

	code, name = CloudVoiceName("Klingon", "")
	assert.Equal(t, "en-US", code)
	assert.Equal(t, "en-US-Chirp3-HD-Kore", name)
}

func TestSplitIntoChunks(t *testing.T) {
	text := strings.Repeat("word ", 30)
	chunks := splitIntoChunks(text, 20)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 20)
	}
	assert.Equal(t, strings.TrimSpace(text), strings.Join(chunks, " "))
	assert.Empty(t, splitIntoChunks("   ", 20))
}
