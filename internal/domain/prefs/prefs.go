package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"storyquest/internal/domain/names"
	"storyquest/internal/domain/story"

	"github.com/sirupsen/logrus"
)

// Keys of the flat preference file
const (
	KeyCharacter = "selectedCharacter"
	KeySetting   = "selectedSetting"
	KeyLanguage  = "storyLanguage"
	KeyChildName = "userName"
)

// Store is a flat key-value file holding the child's selections between runs
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the JSON file at path
func NewStore(path string) *Store {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logrus.WithError(err).Warn("Failed to create preferences directory")
	}
	return &Store{path: path}
}

// Path returns the file backing the store
func (s *Store) Path() string {
	return s.path
}

// All returns every stored key
func (s *Store) All() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the value for key and whether it was present
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores a single key
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// Delete removes a key; removing a missing key is not an error
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	delete(values, key)
	return s.save(values)
}

// SetCharacter stores the selected character as a serialized record
func (s *Store) SetCharacter(c *story.Character) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode character: %w", err)
	}
	return s.Set(KeyCharacter, string(data))
}

// SetSetting stores the selected setting as a serialized record
func (s *Store) SetSetting(st *story.Setting) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode setting: %w", err)
	}
	return s.Set(KeySetting, string(data))
}

// SetLanguage stores the preferred story language
func (s *Store) SetLanguage(lang string) error {
	return s.Set(KeyLanguage, lang)
}

// SetChildName stores the child's display name once it passes the name check
func (s *Store) SetChildName(name string) error {
	if err := names.Validate(name); err != nil {
		return err
	}
	return s.Set(KeyChildName, name)
}

// Session builds the story session from stored selections.
// It fails with story.ErrMissingSelection when the character or setting is absent.
func (s *Store) Session() (*story.Session, error) {
	values, err := s.All()
	if err != nil {
		return nil, err
	}

	session := &story.Session{
		Language:  values[KeyLanguage],
		ChildName: values[KeyChildName],
	}

	if raw, ok := values[KeyCharacter]; ok {
		var c story.Character
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("%w: stored character is unreadable: %v", story.ErrMissingSelection, err)
		}
		session.Character = &c
	}
	if raw, ok := values[KeySetting]; ok {
		var st story.Setting
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("%w: stored setting is unreadable: %v", story.ErrMissingSelection, err)
		}
		session.Setting = &st
	}

	// a name that slipped into the file by hand never reaches a model
	if err := names.Validate(session.ChildName); err != nil {
		return nil, err
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}
	return session, nil
}

// load reads the preference file; a missing file is an empty store
func (s *Store) load() (map[string]string, error) {
	values := make(map[string]string)

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to decode preferences: %w", err)
	}
	return values, nil
}

func (s *Store) save(values map[string]string) error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create preferences file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(values); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"keys": len(values),
		"file": s.path,
	}).Debug("Saved preferences")

	return nil
}
