// Package remote talks to the hosted models that write, illustrate and narrate each turn.
package remote

import (
	"context"
	"errors"
	"fmt"

	"storyquest/internal/domain/story"

	"github.com/sirupsen/logrus"
)

// Storyteller returns the raw structured turn for a prompt
type Storyteller interface {
	Tell(ctx context.Context, prompt string) (string, error)
}

// Illustrator renders a scene image for a styled prompt
type Illustrator interface {
	Illustrate(ctx context.Context, prompt string) ([]byte, error)
}

// Narrator synthesizes speech and returns base64 24 kHz mono 16-bit PCM
type Narrator interface {
	Narrate(ctx context.Context, n story.Narration) (string, error)
}

// TurnRequest is everything the storyteller needs for the next turn
type TurnRequest struct {
	CharacterName        string
	CharacterDescription string
	SettingName          string
	SettingDescription   string
	History              []story.HistoryItem
	Language             string
	ChildName            string
}

// NewTurnRequest builds a request from the session and the transcript so far
func NewTurnRequest(s *story.Session, history []story.HistoryItem) TurnRequest {
	return TurnRequest{
		CharacterName:        s.Character.Name,
		CharacterDescription: s.Character.Description,
		SettingName:          s.Setting.Name,
		SettingDescription:   s.Setting.Description,
		History:              history,
		Language:             s.LanguageOrDefault(),
		ChildName:            s.ChildName,
	}
}

// Client wraps the three remote calls of a turn. Each fails on its own.
type Client struct {
	storyteller Storyteller
	illustrator Illustrator
	narrator    Narrator
}

// NewClient creates a client; a nil illustrator or narrator disables that medium
func NewClient(s Storyteller, i Illustrator, n Narrator) *Client {
	return &Client{
		storyteller: s,
		illustrator: i,
		narrator:    n,
	}
}

// RequestNarrativeTurn generates the next story segment. Any failure wraps
// story.ErrGenerationFailed and no partial state is returned.
func (c *Client) RequestNarrativeTurn(ctx context.Context, req TurnRequest) (*story.State, error) {
	if c.storyteller == nil {
		return nil, fmt.Errorf("%w: no storyteller configured", story.ErrGenerationFailed)
	}

	raw, err := c.storyteller.Tell(ctx, BuildTurnPrompt(req))
	if err != nil {
		if errors.Is(err, story.ErrGenerationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", story.ErrGenerationFailed, err)
	}

	state, err := ParseTurn(raw)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// RequestSceneImage renders the scene. Failures are logged and return nil.
func (c *Client) RequestSceneImage(ctx context.Context, prompt string) []byte {
	if c.illustrator == nil {
		return nil
	}

	img, err := c.illustrator.Illustrate(ctx, StyledImagePrompt(prompt))
	if err != nil {
		logrus.WithError(fmt.Errorf("%w: %v", story.ErrMediaUnavailable, err)).Warn("Image generation failed")
		return nil
	}
	if len(img) == 0 {
		return nil
	}
	return img
}

// RequestNarration synthesizes the narrative in the given voice. Failures are logged and return "".
func (c *Client) RequestNarration(ctx context.Context, n story.Narration) string {
	if c.narrator == nil {
		return ""
	}

	payload, err := c.narrator.Narrate(ctx, n)
	if err != nil {
		logrus.WithError(fmt.Errorf("%w: %v", story.ErrMediaUnavailable, err)).Warn("TTS generation failed")
		return ""
	}
	return payload
}
