package story

import "strings"

// Role identifies who authored a transcript entry
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// RetryChoice is the reserved choice offered after a failed turn
const RetryChoice = "Try Again"

// FallbackNarrative is shown when the story text could not be generated
const FallbackNarrative = "Oh no! The story magic got a little tangled. Let's try again."

// Character is a storyteller the child can adventure with
type Character struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Emoji       string `json:"emoji" yaml:"emoji"`
	Color       string `json:"color" yaml:"color"`
	Category    string `json:"category" yaml:"category"`
	Voice       string `json:"voice" yaml:"voice"`
}

// Setting is the place where the adventure happens
type Setting struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Emoji       string `json:"emoji" yaml:"emoji"`
	Category    string `json:"category" yaml:"category"`
}

// HistoryItem is one entry of the adventure transcript
type HistoryItem struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// State is the generated content of a single turn
type State struct {
	Narrative   string   `json:"narrative"`
	Choices     []string `json:"choices"`
	ImagePrompt string   `json:"imagePrompt"`
}

// Fallback returns the scene shown after the narrative failed
func Fallback() *State {
	return &State{
		Narrative: FallbackNarrative,
		Choices:   []string{RetryChoice},
	}
}

// IsRetry reports whether choice is the reserved recovery choice
func IsRetry(choice string) bool {
	return choice == RetryChoice
}

// Narration is a request for synthesized speech
type Narration struct {
	Text     string
	Voice    string
	Language string
}

// Words splits narration text the way it is highlighted while read aloud
func Words(text string) []string {
	return strings.Fields(text)
}
