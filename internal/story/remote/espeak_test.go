package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestESpeakVoice(t *testing.T) {
	assert.Equal(t, "es+m3", ESpeakVoice("Spanish", "Puck"))
	assert.Equal(t, "en-us+f2", ESpeakVoice("", "Kore"))
	assert.Equal(t, "cmn", ESpeakVoice("Chinese", "Narrator"))
}
