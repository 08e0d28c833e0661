package story

import "fmt"

const (
	DefaultLanguage  = "English"
	DefaultChildName = "friend"
)

// Session holds everything a story run needs from the child's earlier selections.
// It is built once and handed to the orchestrator; nothing else looks the values up.
type Session struct {
	Character *Character
	Setting   *Setting
	Language  string
	ChildName string
}

// Validate fails fast when the selections needed to tell a story are missing
func (s *Session) Validate() error {
	if s == nil || s.Character == nil || s.Setting == nil {
		return ErrMissingSelection
	}
	if s.Character.Name == "" {
		return fmt.Errorf("%w: character %q has no name", ErrMissingSelection, s.Character.ID)
	}
	if s.Setting.Name == "" {
		return fmt.Errorf("%w: setting %q has no name", ErrMissingSelection, s.Setting.ID)
	}
	return nil
}

// LanguageOrDefault returns the story language, English when unset
func (s *Session) LanguageOrDefault() string {
	if s.Language == "" {
		return DefaultLanguage
	}
	return s.Language
}
