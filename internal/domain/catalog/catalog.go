package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"storyquest/internal/domain/story"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtin []byte

// Language is a story language the models are asked to write in
type Language struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

// Catalog is the static collection of characters, settings and languages
type Catalog struct {
	Characters []story.Character `yaml:"characters"`
	Settings   []story.Setting   `yaml:"settings"`
	Languages  []Language        `yaml:"languages"`
}

// Load parses the catalog embedded in the binary
func Load() (*Catalog, error) {
	return Parse(builtin)
}

// Parse decodes a YAML catalog and checks ids are unique
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	seen := make(map[string]bool)
	for _, ch := range c.Characters {
		if seen["c:"+ch.ID] {
			return nil, fmt.Errorf("duplicate character id %q", ch.ID)
		}
		seen["c:"+ch.ID] = true
	}
	for _, s := range c.Settings {
		if seen["s:"+s.ID] {
			return nil, fmt.Errorf("duplicate setting id %q", s.ID)
		}
		seen["s:"+s.ID] = true
	}

	return &c, nil
}

// Character finds a character by id
func (c *Catalog) Character(id string) (*story.Character, bool) {
	for i := range c.Characters {
		if c.Characters[i].ID == id {
			ch := c.Characters[i]
			return &ch, true
		}
	}
	return nil, false
}

// Setting finds a setting by id
func (c *Catalog) Setting(id string) (*story.Setting, bool) {
	for i := range c.Settings {
		if c.Settings[i].ID == id {
			s := c.Settings[i]
			return &s, true
		}
	}
	return nil, false
}

// Language finds a language by code or label, case-insensitively
func (c *Catalog) Language(name string) (Language, bool) {
	for _, l := range c.Languages {
		if strings.EqualFold(l.Code, name) || strings.EqualFold(l.Label, name) {
			return l, true
		}
	}
	return Language{}, false
}

// CharactersIn returns the characters of a category; "" or "all" returns every character
func (c *Catalog) CharactersIn(category string) []story.Character {
	if category == "" || strings.EqualFold(category, "all") {
		return c.Characters
	}
	var out []story.Character
	for _, ch := range c.Characters {
		if strings.EqualFold(ch.Category, category) {
			out = append(out, ch)
		}
	}
	return out
}

// SettingsIn returns the settings of a category; "" or "all" returns every setting
func (c *Catalog) SettingsIn(category string) []story.Setting {
	if category == "" || strings.EqualFold(category, "all") {
		return c.Settings
	}
	var out []story.Setting
	for _, s := range c.Settings {
		if strings.EqualFold(s.Category, category) {
			out = append(out, s)
		}
	}
	return out
}

// CharacterCategories lists character categories in catalog order
func (c *Catalog) CharacterCategories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, ch := range c.Characters {
		if !seen[ch.Category] {
			seen[ch.Category] = true
			out = append(out, ch.Category)
		}
	}
	return out
}

// SettingCategories lists setting categories in catalog order
func (c *Catalog) SettingCategories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range c.Settings {
		if !seen[s.Category] {
			seen[s.Category] = true
			out = append(out, s.Category)
		}
	}
	return out
}

// Voices maps each voice id to the characters that speak with it
func (c *Catalog) Voices() map[string][]string {
	out := make(map[string][]string)
	for _, ch := range c.Characters {
		out[ch.Voice] = append(out[ch.Voice], ch.Name)
	}
	for _, names := range out {
		sort.Strings(names)
	}
	return out
}
