package remote

import (
	"errors"
	"testing"

	"storyquest/internal/domain/story"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTurnPrompt(t *testing.T) {
	req := TurnRequest{
		CharacterName:        "Friendly Dragon",
		CharacterDescription: "Breathes bubbles instead of fire.",
		SettingName:          "Royal Castle",
		SettingDescription:   "Tall towers and a moat.",
		History: []story.HistoryItem{
			{Role: story.RoleModel, Text: "We land by the gate."},
			{Role: story.RoleUser, Text: "Let's knock!"},
		},
	}

	prompt := BuildTurnPrompt(req)
	assert.Contains(t, prompt, "TARGET LANGUAGE: English")
	assert.Contains(t, prompt, "THE CHILD'S NAME: friend")
	assert.Contains(t, prompt, "ADOPT THE PERSONA of Friendly Dragon")
	assert.Contains(t, prompt, "Storyteller: We land by the gate.\nChild: Let's knock!")
	assert.Contains(t, prompt, `"choices" (array of exactly 3 strings)`)

	req.Language = "French"
	req.ChildName = "Mia"
	prompt = BuildTurnPrompt(req)
	assert.Contains(t, prompt, "IN French")
	assert.Contains(t, prompt, "What should we do now, Mia?")
	assert.Equal(t, "Royal Castle", promptField(prompt, "CURRENT SETTING"))
}

func TestStyledImagePrompt(t *testing.T) {
	assert.Equal(t,
		"Digital art style, colorful, children's book illustration, soft lighting, cute, detailed. A dragon by a moat",
		StyledImagePrompt("A dragon by a moat"))
}

func TestParseTurn(t *testing.T) {
	state, err := ParseTurn(`{"narrative":" We fly! ","imagePrompt":"sky","choices":["Up"," Down ","Around"]}`)
	require.NoError(t, err)
	assert.Equal(t, "We fly!", state.Narrative)
	assert.Equal(t, "sky", state.ImagePrompt)
	assert.Equal(t, []string{"Up", "Down", "Around"}, state.Choices)

	fenced := "```json\n{\"narrative\":\"Hi\",\"imagePrompt\":\"\",\"choices\":[\"a\",\"b\",\"c\"]}\n```"
	state, err = ParseTurn(fenced)
	require.NoError(t, err)
	assert.Equal(t, "Hi", state.Narrative)
}

func TestParseTurnMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", "   "},
		{"not json", "Once upon a time"},
		{"missing narrative", `{"imagePrompt":"x","choices":["a","b","c"]}`},
		{"blank narrative", `{"narrative":"  ","imagePrompt":"x","choices":["a","b","c"]}`},
		{"missing image prompt", `{"narrative":"n","choices":["a","b","c"]}`},
		{"two choices", `{"narrative":"n","imagePrompt":"x","choices":["a","b"]}`},
		{"four choices", `{"narrative":"n","imagePrompt":"x","choices":["a","b","c","d"]}`},
		{"empty choice", `{"narrative":"n","imagePrompt":"x","choices":["a"," ","c"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := ParseTurn(tt.raw)
			assert.Nil(t, state)
			assert.True(t, errors.Is(err, story.ErrMalformedOutput))
			assert.True(t, errors.Is(err, story.ErrGenerationFailed))
		})
	}
}
