package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"storyquest/internal/domain/story"

	"google.golang.org/genai"
)

const (
	DefaultGeminiStoryModel = "gemini-2.5-flash"
	DefaultGeminiImageModel = "imagen-4.0-generate-001"
	DefaultGeminiTTSModel   = "gemini-2.5-flash-preview-tts"
	DefaultGeminiVoice      = "Kore"
)

// Gemini generates turns, images and narration with the Gemini API
type Gemini struct {
	client     *genai.Client
	storyModel string
	imageModel string
	ttsModel   string
}

// NewGemini creates a Gemini backend; empty model names use the defaults
func NewGemini(ctx context.Context, apiKey, storyModel, imageModel, ttsModel string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client:     client,
		storyModel: orDefault(storyModel, DefaultGeminiStoryModel),
		imageModel: orDefault(imageModel, DefaultGeminiImageModel),
		ttsModel:   orDefault(ttsModel, DefaultGeminiTTSModel),
	}, nil
}

// turnSchema is the structured output contract of a turn
func turnSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"narrative": {
				Type:        genai.TypeString,
				Description: "The story text to read aloud, written in character using 'We' and 'Us'.",
			},
			"imagePrompt": {
				Type:        genai.TypeString,
				Description: "A detailed description of the scene for image generation.",
			},
			"choices": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "3 options for the user.",
				MinItems:    genai.Ptr[int64](3),
				MaxItems:    genai.Ptr[int64](3),
			},
		},
		Required: []string{"narrative", "imagePrompt", "choices"},
	}
}

func (g *Gemini) Tell(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.storyModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   turnSchema(),
	})
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("failed to generate story")
	}
	return text, nil
}

func (g *Gemini) Illustrate(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    "4:3",
	})
	if err != nil {
		return nil, err
	}

	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errors.New("no image returned")
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}

func (g *Gemini) Narrate(ctx context.Context, n story.Narration) (string, error) {
	voice := orDefault(n.Voice, DefaultGeminiVoice)

	resp, err := g.client.Models.GenerateContent(ctx, g.ttsModel, genai.Text(n.Text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no audio candidate returned")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
		}
	}
	return "", errors.New("no audio data returned")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
