package nest

import (
	"errors"
	"fmt"
	"strings"

	"storyquest/internal/cli/scheme/colours"
	"storyquest/internal/domain/names"
	"storyquest/internal/domain/prefs"
	"storyquest/internal/domain/story"

	"github.com/spf13/cobra"
)

var prefKeys = []string{prefs.KeyCharacter, prefs.KeySetting, prefs.KeyLanguage, prefs.KeyChildName}

func (sq *StoryQuest) ShowPrefs(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(sq.out)
	colours.Title.Fprintln(sq.out, "⚙️ Saved Selections ⚙️")
	colours.Info.Fprintf(sq.out, "📁 %s\n\n", sq.prefs.Path())

	session, err := sq.prefs.Session()
	if err != nil && !errors.Is(err, story.ErrMissingSelection) {
		return err
	}
	if session == nil {
		session = sq.partialSession()
	}

	row := func(label, value string) {
		fmt.Fprintf(sq.out, "  %-10s ", label)
		if value == "" {
			colours.Warning.Fprintln(sq.out, "not chosen")
			return
		}
		colours.Title.Fprintln(sq.out, value)
	}

	if session.Character != nil {
		row("Character", fmt.Sprintf("%s %s", session.Character.Emoji, session.Character.Name))
	} else {
		row("Character", "")
	}
	if session.Setting != nil {
		row("Place", fmt.Sprintf("%s %s", session.Setting.Emoji, session.Setting.Name))
	} else {
		row("Place", "")
	}
	row("Language", session.LanguageOrDefault())
	row("Name", session.ChildName)
	return nil
}

// partialSession reads whatever selections exist, ignoring ones that do not resolve
func (sq *StoryQuest) partialSession() *story.Session {
	values, _ := sq.prefs.All()
	s := &story.Session{Language: values[prefs.KeyLanguage], ChildName: values[prefs.KeyChildName]}

	if names.Validate(s.ChildName) != nil {
		s.ChildName = ""
	}
	if c, ok := sq.storedCharacter(); ok {
		s.Character = c
	}
	if st, ok := sq.storedSetting(); ok {
		s.Setting = st
	}
	return s
}

// SetPref stores one selection: character, setting, language or name
func (sq *StoryQuest) SetPref(cmd *cobra.Command, args []string) error {
	key, value := strings.ToLower(args[0]), strings.TrimSpace(strings.Join(args[1:], " "))

	switch key {
	case "character":
		c, ok := sq.catalog.Character(value)
		if !ok {
			return fmt.Errorf("unknown character %q, see 'storyquest characters'", value)
		}
		if err := sq.prefs.SetCharacter(c); err != nil {
			return err
		}
		colours.Success.Fprintf(sq.out, "✅ %s %s will lead the adventure\n", c.Emoji, c.Name)

	case "setting", "place":
		s, ok := sq.catalog.Setting(value)
		if !ok {
			return fmt.Errorf("unknown setting %q, see 'storyquest settings'", value)
		}
		if err := sq.prefs.SetSetting(s); err != nil {
			return err
		}
		colours.Success.Fprintf(sq.out, "✅ The story will happen in %s %s\n", s.Emoji, s.Name)

	case "language":
		l, ok := sq.catalog.Language(value)
		if !ok {
			return fmt.Errorf("unknown language %q, see 'storyquest languages'", value)
		}
		if err := sq.prefs.SetLanguage(l.Code); err != nil {
			return err
		}
		colours.Success.Fprintf(sq.out, "✅ Stories will be told in %s\n", l.Code)

	case "name":
		if err := sq.prefs.SetChildName(value); err != nil {
			if errors.Is(err, story.ErrInputRejected) {
				colours.Warning.Fprintln(sq.out, names.RejectedMessage)
				return nil
			}
			return err
		}
		colours.Success.Fprintf(sq.out, "✅ Hello, %s!\n", value)

	default:
		return fmt.Errorf("unknown preference %q, use character, setting, language or name", key)
	}
	return nil
}

func (sq *StoryQuest) ClearPrefs(cmd *cobra.Command, args []string) error {
	for _, k := range prefKeys {
		if err := sq.prefs.Delete(k); err != nil {
			return err
		}
	}
	colours.Success.Fprintln(sq.out, "🧹 Selections cleared")
	return nil
}

// AddPrefsCommands adds the prefs subcommands to the root command
func (sq *StoryQuest) AddPrefsCommands(rootCmd *cobra.Command) {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "⚙️ Show saved selections",
		RunE:  sq.ShowPrefs,
	}

	setCmd := &cobra.Command{
		Use:   "set <character|setting|language|name> <value>",
		Short: "✏️ Save a selection",
		Args:  cobra.MinimumNArgs(2),
		RunE:  sq.SetPref,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "🧹 Forget every selection",
		RunE:  sq.ClearPrefs,
	}

	prefsCmd.AddCommand(setCmd, clearCmd)
	rootCmd.AddCommand(prefsCmd)
}
