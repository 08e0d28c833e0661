package nest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"storyquest/internal/cli/scheme/colours"
	"storyquest/internal/config"
	"storyquest/internal/domain/catalog"
	"storyquest/internal/domain/prefs"
	"storyquest/internal/story/adventure"
	"storyquest/internal/story/remote"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// StoryQuest main application structure
type StoryQuest struct {
	cfg     config.Config
	catalog *catalog.Catalog
	prefs   *prefs.Store

	in  *bufio.Reader
	out io.Writer

	ctx    context.Context
	Cancel context.CancelFunc

	mu     sync.Mutex
	active *adventure.Orchestrator
}

func NewStoryQuest(cfg config.Config) *StoryQuest {
	cat, err := catalog.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load catalog")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &StoryQuest{
		cfg:     cfg,
		catalog: cat,
		prefs:   prefs.NewStore(cfg.Prefs.Path),
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		ctx:     ctx,
		Cancel:  cancel,
	}
}

// Configure swaps in a reloaded config
func (sq *StoryQuest) Configure(cfg config.Config) {
	sq.cfg = cfg
	sq.prefs = prefs.NewStore(cfg.Prefs.Path)
}

func (sq *StoryQuest) setActive(o *adventure.Orchestrator) {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	sq.active = o
}

// Stop cancels the running story and silences the narration
func (sq *StoryQuest) Stop() {
	sq.Cancel()

	sq.mu.Lock()
	active := sq.active
	sq.mu.Unlock()
	if active != nil {
		active.Close()
	}
}

func (sq *StoryQuest) ShowWelcome() {
	fmt.Fprintln(sq.out)
	colours.Title.Fprintln(sq.out, "🌟 Welcome to StoryQuest! 🌟")
	fmt.Fprintln(sq.out)
	colours.Info.Fprintln(sq.out, "📚 Available commands:")
	fmt.Fprintln(sq.out, "  • storyquest play        - Start a story adventure")
	fmt.Fprintln(sq.out, "  • storyquest characters  - Meet the characters")
	fmt.Fprintln(sq.out, "  • storyquest settings    - Explore the places")
	fmt.Fprintln(sq.out, "  • storyquest languages   - Story languages")
	fmt.Fprintln(sq.out, "  • storyquest voices      - Who speaks with which voice")
	fmt.Fprintln(sq.out, "  • storyquest prefs       - Saved selections")
	fmt.Fprintln(sq.out, "  • storyquest cache       - Narration cache")
	fmt.Fprintln(sq.out)
	colours.Prompt.Fprintln(sq.out, "✨ Ready for a magical story adventure? ✨")
}

func (sq *StoryQuest) ListCharacters(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")

	chars := sq.catalog.CharactersIn(category)
	if len(chars) == 0 {
		colours.Warning.Fprintf(sq.out, "🔍 No characters in %q. Try one of: %s\n",
			category, strings.Join(sq.catalog.CharacterCategories(), ", "))
		return nil
	}

	fmt.Fprintln(sq.out)
	colours.Title.Fprintln(sq.out, "🦸 Characters 🦸")

	current := ""
	for _, c := range chars {
		if c.Category != current {
			current = c.Category
			fmt.Fprintln(sq.out)
			colours.Info.Fprintf(sq.out, "📖 %s\n", current)
		}
		fmt.Fprintf(sq.out, "  %s ", c.Emoji)
		colours.Title.Fprint(sq.out, c.Name)
		colours.Author.Fprintf(sq.out, " (%s)\n", c.ID)
		fmt.Fprintf(sq.out, "     💡 %s\n", c.Description)
	}

	fmt.Fprintln(sq.out)
	colours.Success.Fprintf(sq.out, "✨ Found %d wonderful friends! ✨\n", len(chars))
	return nil
}

func (sq *StoryQuest) ListSettings(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")

	settings := sq.catalog.SettingsIn(category)
	if len(settings) == 0 {
		colours.Warning.Fprintf(sq.out, "🔍 No places in %q. Try one of: %s\n",
			category, strings.Join(sq.catalog.SettingCategories(), ", "))
		return nil
	}

	fmt.Fprintln(sq.out)
	colours.Title.Fprintln(sq.out, "🗺️ Places 🗺️")

	current := ""
	for _, s := range settings {
		if s.Category != current {
			current = s.Category
			fmt.Fprintln(sq.out)
			colours.Info.Fprintf(sq.out, "📖 %s\n", current)
		}
		fmt.Fprintf(sq.out, "  %s ", s.Emoji)
		colours.Title.Fprint(sq.out, s.Name)
		colours.Author.Fprintf(sq.out, " (%s)\n", s.ID)
		fmt.Fprintf(sq.out, "     💡 %s\n", s.Description)
	}

	fmt.Fprintln(sq.out)
	colours.Success.Fprintf(sq.out, "✨ Found %d magical places! ✨\n", len(settings))
	return nil
}

func (sq *StoryQuest) ListLanguages(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(sq.out)
	colours.Title.Fprintln(sq.out, "🌍 Story Languages 🌍")
	fmt.Fprintln(sq.out)
	for _, l := range sq.catalog.Languages {
		fmt.Fprintf(sq.out, "  • %s", l.Code)
		if l.Label != l.Code {
			colours.Author.Fprintf(sq.out, " (%s)", l.Label)
		}
		fmt.Fprintln(sq.out)
	}
	return nil
}

func (sq *StoryQuest) ListVoices(cmd *cobra.Command, args []string) error {
	voices := sq.catalog.Voices()
	ids := make([]string, 0, len(voices))
	for id := range voices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintln(sq.out)
	colours.Title.Fprintln(sq.out, "🎤 Voices 🎤")
	for _, id := range ids {
		fmt.Fprintln(sq.out)
		colours.Info.Fprintf(sq.out, "🔊 %s", id)
		fmt.Fprintf(sq.out, " (%d characters)\n", len(voices[id]))
		fmt.Fprintf(sq.out, "     %s\n", strings.Join(voices[id], ", "))
	}
	return nil
}

// ShowCacheStatus displays information about the narration cache
func (sq *StoryQuest) ShowCacheStatus(cmd *cobra.Command, args []string) error {
	colours.Title.Fprintln(sq.out, "📊 Narration Cache Status")

	stats, err := remote.DirStats(sq.cfg.TTS.CachePath)
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	if !sq.cfg.TTS.Cache {
		colours.Warning.Fprintln(sq.out, "⏸️  Caching is turned off (tts.cache)")
	}
	colours.Info.Fprintf(sq.out, "📁 Location: %s\n", stats.Directory)
	colours.Info.Fprintf(sq.out, "🎧 Narrations: %d\n", stats.Files)
	colours.Info.Fprintf(sq.out, "📏 Size: %.2f MB\n", stats.SizeMB)
	return nil
}

func (sq *StoryQuest) ClearCache(cmd *cobra.Command, args []string) error {
	if err := os.RemoveAll(sq.cfg.TTS.CachePath); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	colours.Success.Fprintln(sq.out, "✅ Narration cache cleared")
	return nil
}

// AddCacheCommands adds the cache subcommands to the root command
func (sq *StoryQuest) AddCacheCommands(rootCmd *cobra.Command) {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "💾 Manage the narration cache",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "📊 Show cache status",
		RunE:  sq.ShowCacheStatus,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "🧹 Remove every cached narration",
		RunE:  sq.ClearCache,
	}

	cacheCmd.AddCommand(statusCmd, clearCmd)
	rootCmd.AddCommand(cacheCmd)
}
