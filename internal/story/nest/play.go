package nest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storyquest/internal/cli/scheme/colours"
	"storyquest/internal/domain/names"
	"storyquest/internal/domain/prefs"
	"storyquest/internal/domain/story"
	"storyquest/internal/story/adventure"
	"storyquest/internal/story/audio"
	"storyquest/internal/story/karaoke"
	"storyquest/internal/story/remote"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const indicatorGlyph = "▼"

// errQuit ends a picker without an error message
var errQuit = errors.New("quit")

// PlayCommand builds the play command and its flags
func (sq *StoryQuest) PlayCommand() *cobra.Command {
	playCmd := &cobra.Command{
		Use:   "play",
		Short: "🚀 Start a story adventure",
		Long:  "Pick a character and a place, then choose what happens next on every page",
		RunE:  sq.Play,
	}

	playCmd.Flags().StringP("character", "c", "", "Character id, see 'storyquest characters'")
	playCmd.Flags().StringP("setting", "s", "", "Setting id, see 'storyquest settings'")
	playCmd.Flags().StringP("language", "l", "", "Story language, see 'storyquest languages'")
	playCmd.Flags().StringP("name", "n", "", "The child's name")
	playCmd.Flags().Bool("pick", false, "Choose everything again instead of using saved selections")
	playCmd.Flags().Bool("no-audio", false, "Don't read pages aloud automatically")
	return playCmd
}

// Play starts an interactive story with the saved or flagged selections
func (sq *StoryQuest) Play(cmd *cobra.Command, args []string) error {
	session, err := sq.resolveSession(cmd)
	if errors.Is(err, errQuit) {
		colours.Warning.Fprintln(sq.out, "👋 Maybe next time! Sweet dreams! 🌙")
		return nil
	}
	if err != nil {
		return err
	}

	noAudio, _ := cmd.Flags().GetBool("no-audio")

	built, err := remote.NewFromConfig(sq.ctx, sq.cfg)
	if err != nil {
		return err
	}

	player := audio.NewPlayer(audio.NewSpeaker())
	defer player.Close()

	surface := karaoke.NewTerminalSurface(sq.out, sq.cfg.Karaoke.Width, indicatorGlyph)
	tracker := karaoke.NewTracker(surface, sq.cfg.Karaoke.FPS)

	orch, err := adventure.New(session, built.Client, player, adventure.Options{
		StoryTimeout: sq.cfg.Story.Timeout,
		MediaTimeout: sq.cfg.Media.Timeout,
		AudioEnabled: sq.cfg.Audio.Enabled && !noAudio,
		Highlighter:  tracker,
	})
	if err != nil {
		return err
	}
	defer orch.Close()
	sq.setActive(orch)
	defer sq.setActive(nil)

	var images *imageSaver
	if sq.cfg.Image.Enabled {
		images = newImageSaver(sq.cfg.Image.Dir)
		defer orch.Subscribe(images.Observe)()
	}

	fmt.Fprintln(sq.out)
	colours.Title.Fprintf(sq.out, "📖 %s %s and %s in %s %s\n",
		session.Character.Emoji, session.Character.Name, childOrFriend(session), session.Setting.Emoji, session.Setting.Name)
	colours.Info.Fprintln(sq.out, "✨ Opening the storybook...")

	if err := orch.Start(sq.ctx); err != nil {
		return err
	}
	return sq.storyLoop(orch, surface, images)
}

func childOrFriend(s *story.Session) string {
	if s.ChildName == "" {
		return "you"
	}
	return s.ChildName
}

func (sq *StoryQuest) storyLoop(orch *adventure.Orchestrator, surface *karaoke.TerminalSurface, images *imageSaver) error {
	for {
		snap := orch.Snapshot()
		sq.showTurn(surface, snap, images)

		choice, quit := sq.readChoice(orch, surface, images)
		if quit {
			orch.Close()
			surface.Append("", colours.Warning.Sprint("👋 The End... for now! Sweet dreams! 🌙"))
			return nil
		}

		if story.IsRetry(choice) {
			surface.Append("", colours.Info.Sprint("🔄 Let's start the story again..."))
		} else {
			surface.Append("", colours.Info.Sprintf("✨ %s", choice))
		}

		err := orch.SubmitChoice(sq.ctx, choice)
		switch {
		case errors.Is(err, adventure.ErrTurnInProgress):
			surface.Append(colours.Warning.Sprint("⏳ Hold on, the story is still being written!"))
		case errors.Is(err, adventure.ErrClosed):
			return nil
		case err != nil:
			return err
		}
	}
}

func (sq *StoryQuest) showTurn(surface *karaoke.TerminalSurface, snap adventure.Snapshot, images *imageSaver) {
	if snap.Scene == nil {
		return
	}

	fmt.Fprintln(sq.out)
	surface.Show(snap.Scene.Narrative)

	lines := []string{""}
	if snap.Phase == adventure.PhaseFallback {
		lines = append(lines, colours.Error.Sprint("💥 The story got stuck."))
	}
	for i, c := range snap.Scene.Choices {
		lines = append(lines, colours.Choice.Sprintf("  %d. %s", i+1, c))
	}
	if status := mediaStatus(snap, images); status != "" {
		lines = append(lines, "", status)
	}
	lines = append(lines, "")
	surface.Append(lines...)
}

func mediaStatus(snap adventure.Snapshot, images *imageSaver) string {
	var parts []string
	if images != nil {
		if path, ok := images.Path(snap.Turn); ok {
			parts = append(parts, "🖼️  "+path)
		} else if snap.ImageLoading {
			parts = append(parts, "🎨 painting...")
		}
	}
	switch {
	case snap.AudioLoading:
		parts = append(parts, "🎧 warming up the voice...")
	case snap.Playing:
		parts = append(parts, "🔊 reading aloud")
	}
	if len(parts) == 0 {
		return ""
	}
	return colours.Info.Sprint(strings.Join(parts, "  "))
}

// readChoice prompts until the child picks a choice or quits
func (sq *StoryQuest) readChoice(orch *adventure.Orchestrator, surface *karaoke.TerminalSurface, images *imageSaver) (string, bool) {
	for {
		snap := orch.Snapshot()
		choices := snap.Choices()

		if len(choices) == 1 {
			surface.Prompt(colours.Prompt.Sprint("🌟 Press Enter to try again, 'q' to quit: "))
		} else {
			surface.Prompt(colours.Prompt.Sprintf("🌟 Pick 1-%d ('a' audio, 'i' picture, 'q' quit): ", len(choices)))
		}

		input, err := sq.readLine()
		surface.Advance(1)
		if err != nil {
			return "", true
		}

		switch strings.ToLower(input) {
		case "q", "quit":
			return "", true
		case "a", "audio":
			sq.toggleAudio(orch, surface)
			continue
		case "i", "picture":
			if status := mediaStatus(orch.Snapshot(), images); status != "" {
				surface.Append(status)
			} else {
				surface.Append(colours.Warning.Sprint("🖼️  No picture for this page"))
			}
			continue
		case "":
			if len(choices) == 1 {
				return choices[0], false
			}
			continue
		}

		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(choices) {
			surface.Append(colours.Warning.Sprintf("ℹ️  Type a number from 1 to %d", len(choices)))
			continue
		}
		return choices[n-1], false
	}
}

func (sq *StoryQuest) toggleAudio(orch *adventure.Orchestrator, surface *karaoke.TerminalSurface) {
	before := orch.Snapshot()
	if before.Audio == "" {
		if before.AudioLoading {
			surface.Append(colours.Info.Sprint("🎧 The voice is almost ready..."))
		} else {
			surface.Append(colours.Warning.Sprint("🔇 No narration for this page"))
		}
		return
	}

	orch.ToggleAudio()
	if orch.Snapshot().Playing {
		surface.Append(colours.Success.Sprint("▶️  Reading aloud"))
	} else {
		surface.Append(colours.Warning.Sprint("⏹️  Stopped"))
	}
}

func (sq *StoryQuest) readLine() (string, error) {
	line, err := sq.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// resolveSession combines flags, saved selections and interactive pickers.
// Whatever is chosen is saved for next time.
func (sq *StoryQuest) resolveSession(cmd *cobra.Command) (*story.Session, error) {
	charID, _ := cmd.Flags().GetString("character")
	settingID, _ := cmd.Flags().GetString("setting")
	language, _ := cmd.Flags().GetString("language")
	name, _ := cmd.Flags().GetString("name")
	pick, _ := cmd.Flags().GetBool("pick")

	s := sq.partialSession()

	switch {
	case charID != "":
		c, ok := sq.catalog.Character(charID)
		if !ok {
			return nil, fmt.Errorf("unknown character %q, see 'storyquest characters'", charID)
		}
		s.Character = c
	case pick || s.Character == nil:
		c, err := sq.pickCharacter()
		if err != nil {
			return nil, err
		}
		s.Character = c
	}

	switch {
	case settingID != "":
		st, ok := sq.catalog.Setting(settingID)
		if !ok {
			return nil, fmt.Errorf("unknown setting %q, see 'storyquest settings'", settingID)
		}
		s.Setting = st
	case pick || s.Setting == nil:
		st, err := sq.pickSetting()
		if err != nil {
			return nil, err
		}
		s.Setting = st
	}

	if language != "" {
		l, ok := sq.catalog.Language(language)
		if !ok {
			return nil, fmt.Errorf("unknown language %q, see 'storyquest languages'", language)
		}
		s.Language = l.Code
	}

	if cmd.Flags().Changed("name") {
		if err := names.Validate(name); err != nil {
			colours.Warning.Fprintln(sq.out, names.RejectedMessage)
			return nil, err
		}
		s.ChildName = strings.TrimSpace(name)
	} else if pick || s.ChildName == "" {
		n, err := sq.askName()
		if err != nil {
			return nil, err
		}
		s.ChildName = n
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	sq.saveSession(s)
	return s, nil
}

func (sq *StoryQuest) saveSession(s *story.Session) {
	save := func(what string, err error) {
		if err != nil {
			logrus.WithError(err).Warnf("Failed to save %s", what)
		}
	}
	save("character", sq.prefs.SetCharacter(s.Character))
	save("setting", sq.prefs.SetSetting(s.Setting))
	if s.Language != "" {
		save("language", sq.prefs.SetLanguage(s.Language))
	}
	if s.ChildName != "" {
		save("name", sq.prefs.SetChildName(s.ChildName))
	}
}

// storedCharacter refreshes the saved character from the catalog by id
func (sq *StoryQuest) storedCharacter() (*story.Character, bool) {
	raw, ok, err := sq.prefs.Get(prefs.KeyCharacter)
	if err != nil || !ok {
		return nil, false
	}
	var c story.Character
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		logrus.WithError(err).Warn("Ignoring unreadable saved character")
		return nil, false
	}
	if fresh, ok := sq.catalog.Character(c.ID); ok {
		return fresh, true
	}
	return &c, c.Name != ""
}

func (sq *StoryQuest) storedSetting() (*story.Setting, bool) {
	raw, ok, err := sq.prefs.Get(prefs.KeySetting)
	if err != nil || !ok {
		return nil, false
	}
	var s story.Setting
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		logrus.WithError(err).Warn("Ignoring unreadable saved setting")
		return nil, false
	}
	if fresh, ok := sq.catalog.Setting(s.ID); ok {
		return fresh, true
	}
	return &s, s.Name != ""
}

func (sq *StoryQuest) pickCharacter() (*story.Character, error) {
	fmt.Fprintln(sq.out)
	colours.Title.Fprintln(sq.out, "🦸 Choose Your Story Friend! 🦸")

	chars := sq.catalog.Characters
	current := ""
	for i, c := range chars {
		if c.Category != current {
			current = c.Category
			colours.Info.Fprintf(sq.out, "\n📖 %s\n", current)
		}
		fmt.Fprintf(sq.out, "  %2d. %s ", i+1, c.Emoji)
		colours.Title.Fprintln(sq.out, c.Name)
	}

	idx, err := sq.pickIndex(len(chars), func(id string) int {
		for i, c := range chars {
			if c.ID == id {
				return i
			}
		}
		return -1
	})
	if err != nil {
		return nil, err
	}
	c := chars[idx]
	return &c, nil
}

func (sq *StoryQuest) pickSetting() (*story.Setting, error) {
	fmt.Fprintln(sq.out)
	colours.Title.Fprintln(sq.out, "🗺️ Where Should We Go? 🗺️")

	settings := sq.catalog.Settings
	current := ""
	for i, s := range settings {
		if s.Category != current {
			current = s.Category
			colours.Info.Fprintf(sq.out, "\n📖 %s\n", current)
		}
		fmt.Fprintf(sq.out, "  %2d. %s ", i+1, s.Emoji)
		colours.Title.Fprintln(sq.out, s.Name)
	}

	idx, err := sq.pickIndex(len(settings), func(id string) int {
		for i, s := range settings {
			if s.ID == id {
				return i
			}
		}
		return -1
	})
	if err != nil {
		return nil, err
	}
	s := settings[idx]
	return &s, nil
}

// pickIndex reads a 1-based number or an id until it names an entry
func (sq *StoryQuest) pickIndex(n int, byID func(string) int) (int, error) {
	for {
		fmt.Fprintln(sq.out)
		colours.Prompt.Fprint(sq.out, "🌟 Enter a number or id (or 'q' to quit): ")

		input, err := sq.readLine()
		if err != nil {
			return 0, errQuit
		}
		if input == "q" || input == "quit" {
			return 0, errQuit
		}

		if i, err := strconv.Atoi(input); err == nil && i >= 1 && i <= n {
			return i - 1, nil
		}
		if i := byID(strings.ToLower(input)); i >= 0 {
			return i, nil
		}
		colours.Error.Fprintln(sq.out, "❌ Invalid selection! Please try again.")
	}
}

// askName asks for the child's name; an empty answer keeps the default
func (sq *StoryQuest) askName() (string, error) {
	for {
		colours.Prompt.Fprint(sq.out, "🧒 What's your name? (Enter to skip): ")
		input, err := sq.readLine()
		if err != nil {
			return "", nil
		}
		if err := names.Validate(input); err != nil {
			colours.Warning.Fprintln(sq.out, names.RejectedMessage)
			continue
		}
		return input, nil
	}
}
