package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	BackendAuto     = "auto"
	BackendGemini   = "gemini"
	BackendOpenAI   = "openai"
	BackendCloudTTS = "cloudtts"
	BackendESpeak   = "espeak"
	BackendSystem   = "system"
	BackendMock     = "mock"
)

// Config is the typed view of everything viper knows
type Config struct {
	Story   StoryConfig
	Image   ImageConfig
	TTS     TTSConfig
	Media   MediaConfig
	Audio   AudioConfig
	Karaoke KaraokeConfig
	Prefs   PrefsConfig
	Log     LogConfig
}

type StoryConfig struct {
	Backend string
	Model   string
	Timeout time.Duration
}

type ImageConfig struct {
	Backend string
	Model   string
	Enabled bool
	Dir     string
}

type TTSConfig struct {
	Backend   string
	Model     string
	CachePath string
	Cache     bool
}

type MediaConfig struct {
	Timeout time.Duration
}

type AudioConfig struct {
	Enabled bool
}

type KaraokeConfig struct {
	FPS   int
	Width int
}

type PrefsConfig struct {
	Path string
}

type LogConfig struct {
	Level string
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".storyquest")
}

// SetDefaults registers the default for every key
func SetDefaults() {
	base := homeDir()

	viper.SetDefault("story.backend", BackendAuto)
	viper.SetDefault("story.model", "")
	viper.SetDefault("story.timeout", 60*time.Second)

	viper.SetDefault("image.backend", BackendAuto)
	viper.SetDefault("image.model", "")
	viper.SetDefault("image.enabled", true)
	viper.SetDefault("image.dir", filepath.Join(base, "images"))

	viper.SetDefault("tts.backend", BackendAuto)
	viper.SetDefault("tts.model", "")
	viper.SetDefault("tts.cache_path", filepath.Join(base, "cache"))
	viper.SetDefault("tts.cache", true)

	viper.SetDefault("media.timeout", 90*time.Second)
	viper.SetDefault("audio.enabled", true)
	viper.SetDefault("karaoke.fps", 30)
	viper.SetDefault("karaoke.width", 60)
	viper.SetDefault("prefs.path", filepath.Join(base, "prefs.json"))
	viper.SetDefault("log.level", "warn")
}

// Init sets defaults, binds STORYQUEST_ env vars and reads storyquest.yaml if present
func Init() {
	SetDefaults()

	viper.SetConfigName("storyquest")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.storyquest")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("STORYQUEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logrus.WithError(err).Warn("Failed to read config file")
		}
	}
}

// Load builds a Config from the current viper state
func Load() Config {
	return Config{
		Story: StoryConfig{
			Backend: strings.ToLower(viper.GetString("story.backend")),
			Model:   viper.GetString("story.model"),
			Timeout: viper.GetDuration("story.timeout"),
		},
		Image: ImageConfig{
			Backend: strings.ToLower(viper.GetString("image.backend")),
			Model:   viper.GetString("image.model"),
			Enabled: viper.GetBool("image.enabled"),
			Dir:     viper.GetString("image.dir"),
		},
		TTS: TTSConfig{
			Backend:   strings.ToLower(viper.GetString("tts.backend")),
			Model:     viper.GetString("tts.model"),
			CachePath: viper.GetString("tts.cache_path"),
			Cache:     viper.GetBool("tts.cache"),
		},
		Media: MediaConfig{
			Timeout: viper.GetDuration("media.timeout"),
		},
		Audio: AudioConfig{
			Enabled: viper.GetBool("audio.enabled"),
		},
		Karaoke: KaraokeConfig{
			FPS:   viper.GetInt("karaoke.fps"),
			Width: viper.GetInt("karaoke.width"),
		},
		Prefs: PrefsConfig{
			Path: viper.GetString("prefs.path"),
		},
		Log: LogConfig{
			Level: viper.GetString("log.level"),
		},
	}
}

// ConfigureLogging applies log.level to logrus, writing to stderr
func ConfigureLogging(level string) {
	logrus.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithError(err).Warnf("Unknown log level %q, using warn", level)
		lvl = logrus.WarnLevel
	}
	logrus.SetLevel(lvl)
}
