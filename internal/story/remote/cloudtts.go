package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"storyquest/internal/domain/story"
	"storyquest/internal/story/audio"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

// chunkLimit keeps each request under the 5000 byte input limit
const chunkLimit = 4800

// cloudLanguageCodes maps story languages to Cloud TTS locales
var cloudLanguageCodes = map[string]string{
	"English":    "en-US",
	"Spanish":    "es-ES",
	"French":     "fr-FR",
	"German":     "de-DE",
	"Italian":    "it-IT",
	"Japanese":   "ja-JP",
	"Chinese":    "cmn-CN",
	"Portuguese": "pt-BR",
	"Hindi":      "hi-IN",
}

// CloudTTS narrates with Google Cloud Text-to-Speech Chirp 3 HD voices
type CloudTTS struct {
	client *texttospeech.Client
}

// NewCloudTTS uses application default credentials
func NewCloudTTS(ctx context.Context) (*CloudTTS, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}
	return &CloudTTS{client: client}, nil
}

// CloudVoiceName is the Chirp voice for a catalog voice in a story language
func CloudVoiceName(language, voice string) (string, string) {
	code, ok := cloudLanguageCodes[language]
	if !ok {
		code = cloudLanguageCodes[story.DefaultLanguage]
	}
	return code, fmt.Sprintf("%s-Chirp3-HD-%s", code, orDefault(voice, DefaultGeminiVoice))
}

func (c *CloudTTS) Narrate(ctx context.Context, n story.Narration) (string, error) {
	code, name := CloudVoiceName(n.Language, n.Voice)

	var pcm []byte
	for i, chunk := range splitIntoChunks(n.Text, chunkLimit) {
		resp, err := c.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: code,
				Name:         name,
			},
			AudioConfig: &texttospeechpb.AudioConfig{
				AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
				SampleRateHertz: audio.SampleRate,
			},
		})
		if err != nil {
			return "", fmt.Errorf("failed to synthesize chunk %d: %w", i, err)
		}

		data, err := stripWAVHeader(resp.AudioContent)
		if err != nil {
			return "", fmt.Errorf("chunk %d: %w", i, err)
		}
		pcm = append(pcm, data...)
	}

	if len(pcm) == 0 {
		return "", errors.New("no audio data returned")
	}
	return base64.StdEncoding.EncodeToString(pcm), nil
}

// Voices lists the Chirp 3 HD voices available for a story language
func (c *CloudTTS) Voices(ctx context.Context, language string) ([]string, error) {
	code, _ := CloudVoiceName(language, "")
	resp, err := c.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: code})
	if err != nil {
		return nil, err
	}

	var voices []string
	for _, v := range resp.Voices {
		if strings.Contains(v.Name, "Chirp3-HD") {
			voices = append(voices, v.Name)
		}
	}
	return voices, nil
}

func (c *CloudTTS) Close() error {
	return c.client.Close()
}

func splitIntoChunks(text string, limit int) []string {
	var chunks []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+1+len(word) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
