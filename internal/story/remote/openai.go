package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"storyquest/internal/domain/story"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenAIStoryModel = openai.GPT4TurboPreview
	DefaultOpenAIImageModel = openai.CreateImageModelDallE3
	DefaultOpenAITTSModel   = "tts-1"
)

// openAIVoices maps the catalog's voice ids to the closest OpenAI voice
var openAIVoices = map[string]string{
	"Puck":   "fable",
	"Charon": "onyx",
	"Kore":   "nova",
	"Fenrir": "echo",
	"Zephyr": "shimmer",
}

// OpenAI generates turns, images and narration with the OpenAI API
type OpenAI struct {
	client     *openai.Client
	storyModel string
	imageModel string
	ttsModel   string
}

// NewOpenAI creates an OpenAI backend; baseURL may point at a compatible server
func NewOpenAI(apiKey, baseURL, storyModel, imageModel, ttsModel string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(cfg),
		storyModel: orDefault(storyModel, DefaultOpenAIStoryModel),
		imageModel: orDefault(imageModel, DefaultOpenAIImageModel),
		ttsModel:   orDefault(ttsModel, DefaultOpenAITTSModel),
	}
}

func (o *OpenAI) Tell(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.storyModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("failed to generate story")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAI) Illustrate(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          o.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errors.New("no image returned")
	}
	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Narrate asks for raw pcm, which is 24 kHz mono 16-bit little-endian
func (o *OpenAI) Narrate(ctx context.Context, n story.Narration) (string, error) {
	voice, ok := openAIVoices[n.Voice]
	if !ok {
		voice = "alloy"
	}

	body, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.ttsModel),
		Input:          n.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormat("pcm"),
	})
	if err != nil {
		return "", err
	}
	defer body.Close()

	pcm, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read speech: %w", err)
	}
	if len(pcm) == 0 {
		return "", errors.New("no audio data returned")
	}
	return base64.StdEncoding.EncodeToString(pcm), nil
}
