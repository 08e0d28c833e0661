package remote

import (
	"encoding/json"
	"fmt"
	"strings"

	"storyquest/internal/domain/story"
)

// ImageStyle is put in front of every scene prompt
const ImageStyle = "Digital art style, colorful, children's book illustration, soft lighting, cute, detailed."

// StyledImagePrompt adds the illustration style to a scene description
func StyledImagePrompt(prompt string) string {
	return ImageStyle + " " + prompt
}

// FormatHistory renders the transcript the way it is replayed to the model
func FormatHistory(history []story.HistoryItem) string {
	lines := make([]string, 0, len(history))
	for _, h := range history {
		speaker := "Storyteller"
		if h.Role == story.RoleUser {
			speaker = "Child"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, h.Text))
	}
	return strings.Join(lines, "\n")
}

// BuildTurnPrompt writes the storyteller instructions for the next turn
func BuildTurnPrompt(req TurnRequest) string {
	lang := req.Language
	if lang == "" {
		lang = story.DefaultLanguage
	}
	child := req.ChildName
	if child == "" {
		child = story.DefaultChildName
	}

	var b strings.Builder
	b.WriteString("You are an interactive storyteller for children. You are roleplaying as the character described below.\n\n")
	fmt.Fprintf(&b, "TARGET LANGUAGE: %s\n\n", lang)
	fmt.Fprintf(&b, "CURRENT CHARACTER: %s\n", req.CharacterName)
	fmt.Fprintf(&b, "CHARACTER TRAITS: %s\n\n", req.CharacterDescription)
	fmt.Fprintf(&b, "CURRENT SETTING: %s\n", req.SettingName)
	fmt.Fprintf(&b, "SETTING DETAILS: %s\n\n", req.SettingDescription)
	fmt.Fprintf(&b, "THE CHILD'S NAME: %s\n\n", child)
	b.WriteString("PREVIOUS STORY CONTEXT:\n")
	b.WriteString(FormatHistory(req.History))
	b.WriteString("\n\nTASK:\n")
	fmt.Fprintf(&b, "1. Write the next short segment of the story (approx 3-4 sentences) IN %s.\n", lang)
	fmt.Fprintf(&b, "   - ADOPT THE PERSONA of %s.\n", req.CharacterName)
	fmt.Fprintf(&b, "   - NARRATIVE PERSPECTIVE: This is a shared adventure between YOU (%s) and the CHILD (%s).\n", req.CharacterName, child)
	b.WriteString("   - KEY REQUIREMENT: Use inclusive language like \"We\", \"Us\", \"Our\", \"Let's\".\n")
	b.WriteString("   - Make the child feel like the main hero who is helping you.\n")
	fmt.Fprintf(&b, "   - If %s is not English, adapt the Character Name and Setting Name to be natural in that language.\n", lang)
	fmt.Fprintf(&b, "   - End the narrative segment by asking the child a question directly (e.g., \"What should we do now, %s?\").\n", child)
	fmt.Fprintf(&b, "2. Provide a visual description of the current scene for image generation. ALWAYS include a visual description of %s in the scene.\n", req.CharacterName)
	fmt.Fprintf(&b, "3. Provide 3 short, fun choices for what the child can do next, IN %s. Use \"We\" phrasing (e.g., \"Let's jump!\", \"We should hide\").\n\n", lang)
	b.WriteString(`Output JSON only, as an object with exactly these fields: "narrative" (string), "imagePrompt" (string), "choices" (array of exactly 3 strings).`)
	return b.String()
}

type turnPayload struct {
	Narrative   *string  `json:"narrative"`
	ImagePrompt *string  `json:"imagePrompt"`
	Choices     []string `json:"choices"`
}

// ParseTurn decodes a structured turn. Anything but a narrative, an image
// prompt and exactly three choices is story.ErrMalformedOutput.
func ParseTurn(raw string) (*story.State, error) {
	raw = stripFence(strings.TrimSpace(raw))
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", story.ErrMalformedOutput)
	}

	var p turnPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", story.ErrMalformedOutput, err)
	}

	if p.Narrative == nil || strings.TrimSpace(*p.Narrative) == "" {
		return nil, fmt.Errorf("%w: missing narrative", story.ErrMalformedOutput)
	}
	if p.ImagePrompt == nil {
		return nil, fmt.Errorf("%w: missing imagePrompt", story.ErrMalformedOutput)
	}
	if len(p.Choices) != 3 {
		return nil, fmt.Errorf("%w: expected 3 choices, got %d", story.ErrMalformedOutput, len(p.Choices))
	}

	choices := make([]string, len(p.Choices))
	for i, c := range p.Choices {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("%w: choice %d is empty", story.ErrMalformedOutput, i+1)
		}
		choices[i] = c
	}

	return &story.State{
		Narrative:   strings.TrimSpace(*p.Narrative),
		ImagePrompt: strings.TrimSpace(*p.ImagePrompt),
		Choices:     choices,
	}, nil
}

// stripFence removes a markdown code fence some models wrap JSON in
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// promptField reads a "LABEL: value" line back out of a turn prompt
func promptField(prompt, label string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), label+":"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
