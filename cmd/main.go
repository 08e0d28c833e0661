package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storyquest/internal/cli/scheme/colours"
	"storyquest/internal/config"
	"storyquest/internal/story/nest"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {

	config.Init()

	app := nest.NewStoryQuest(config.Load())

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		app.Stop()
		fmt.Println("\n" + colours.Warning.Sprint("👋 Goodbye! Sweet dreams! 🌙"))
		os.Exit(0)
	}()

	rootCmd := &cobra.Command{
		Use:   "storyquest",
		Short: "🐉 Choose-your-own-adventure stories, read aloud",
		Long: `
┌─────────────────────────────────────┐
│  🐉 Welcome to StoryQuest! 🏰       │
│  Stories where YOU choose the way   │
│  Read aloud for kids 👶✨           │
└─────────────────────────────────────┘

Pick a friend and a magical place, then decide what happens next
on every page. Each page comes with a picture and a voice. 🌙
		`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// flags are bound to viper keys, so the config is reloaded once they are parsed
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			if noImages, _ := cmd.Flags().GetBool("no-images"); noImages {
				cfg.Image.Enabled = false
			}
			config.ConfigureLogging(cfg.Log.Level)
			app.Configure(cfg)
		},
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowWelcome()
		},
	}

	rootCmd.PersistentFlags().String("story-backend", "", "Story backend: auto, gemini, openai or mock")
	rootCmd.PersistentFlags().String("tts-backend", "", "Narration backend: auto, gemini, openai, cloudtts, espeak, system or mock")
	rootCmd.PersistentFlags().Bool("no-images", false, "Don't draw scene pictures")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	bindFlag(rootCmd, "story.backend", "story-backend")
	bindFlag(rootCmd, "tts.backend", "tts-backend")
	bindFlag(rootCmd, "log.level", "log-level")

	// Characters command
	charactersCmd := &cobra.Command{
		Use:   "characters",
		Short: "🦸 List the characters",
		Long:  "Display every character a story can be told with",
		RunE:  app.ListCharacters,
	}

	// Settings command
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "🗺️ List the places stories happen in",
		RunE:  app.ListSettings,
	}

	// Languages command
	languagesCmd := &cobra.Command{
		Use:   "languages",
		Short: "🌍 List story languages",
		RunE:  app.ListLanguages,
	}

	// Voices command
	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🎤 List narration voices and who speaks with them",
		RunE:  app.ListVoices,
	}

	// Add flags
	charactersCmd.Flags().StringP("category", "g", "", "Filter by category")
	settingsCmd.Flags().StringP("category", "g", "", "Filter by category")

	rootCmd.AddCommand(app.PlayCommand(), charactersCmd, settingsCmd, languagesCmd, voicesCmd)

	app.AddPrefsCommands(rootCmd)
	app.AddCacheCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}

// bindFlag ties a persistent flag to a viper key; an unset flag keeps the config value
func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}
