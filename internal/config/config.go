// Package config loads the player configuration from flags, GUIDED_*
// environment variables and an optional YAML file, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowaak/guided-trainer/internal/trainer"
)

const (
	envPrefix = "GUIDED"
	appDir    = ".guided-session"
)

type Config struct {
	Plan          string          `mapstructure:"plan"`
	Week          int             `mapstructure:"week"`
	Day           string          `mapstructure:"day"`
	DB            string          `mapstructure:"db"`
	LogFile       string          `mapstructure:"log_file"`
	Lang          string          `mapstructure:"lang"`
	Speech        SpeechConfig    `mapstructure:"speech"`
	Location      LocationConfig  `mapstructure:"location"`
	HeartRate     HeartRateConfig `mapstructure:"heart_rate"`
	Trackable     []string        `mapstructure:"trackable"`
	CountdownCues []string        `mapstructure:"countdown_cues"`
	List          bool            `mapstructure:"list"`

	// ConfigFile is the file that was read, empty when none was found
	ConfigFile string `mapstructure:"-"`
}

type SpeechConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

type LocationConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Listen     string        `mapstructure:"listen"`
	FixTimeout time.Duration `mapstructure:"fix_timeout"`
}

type HeartRateConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Device      string        `mapstructure:"device"`
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
}

// Dir is ~/.guided-session
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, appDir)
}

// Load parses args (without the program name) and resolves the configuration.
// pflag.ErrHelp is returned as is when --help was asked for.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("guided-session", pflag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file (default ~/.guided-session/config.yaml when present)")
	fs.String("plan", "", "training plan YAML; empty uses the bundled plan")
	fs.Int("week", 1, "week number to run")
	fs.String("day", "", "day name to run; empty picks the first day of the week")
	fs.String("db", filepath.Join(Dir(), "sessions.db"), "SQLite database for progress and paused sessions")
	fs.String("log-file", filepath.Join(Dir(), "guided-session.log"), "log file")
	fs.String("lang", "es", "cue language (es|en)")
	fs.Bool("speech", true, "speak cues")
	fs.String("speech-command", "", "text to speech command; empty picks espeak-ng, espeak, say or spd-say")
	fs.StringSlice("speech-args", nil, "arguments placed before the cue text")
	fs.Bool("location", true, "serve the location page and record routes")
	fs.String("location-listen", ":8765", "address of the location page")
	fs.Duration("location-fix-timeout", trainer.DefaultLocationFixTimeout, "how long to wait for a first fix")
	fs.Bool("heart-rate", false, "record heart rate from a Bluetooth strap")
	fs.String("heart-rate-device", "", "strap address; empty uses the remembered one")
	fs.Duration("heart-rate-scan-timeout", 20*time.Second, "how long to scan for a strap")
	fs.StringSlice("trackable", trainer.DefaultTrackableExercises, "exercises whose route is recorded")
	fs.StringSlice("countdown-cues", trainer.DefaultCountdownCueExercises, "exercises with spoken 60/30/10 second cues")
	fs.Bool("list", false, "print the plan and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, flag := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if *configPath != "" {
		v.SetConfigFile(*configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.Plan = expandHome(cfg.Plan)
	cfg.DB = expandHome(cfg.DB)
	cfg.LogFile = expandHome(cfg.LogFile)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// flagKeys maps config keys onto their flags
var flagKeys = map[string]string{
	"plan":                    "plan",
	"week":                    "week",
	"day":                     "day",
	"db":                      "db",
	"log_file":                "log-file",
	"lang":                    "lang",
	"speech.enabled":          "speech",
	"speech.command":          "speech-command",
	"speech.args":             "speech-args",
	"location.enabled":        "location",
	"location.listen":         "location-listen",
	"location.fix_timeout":    "location-fix-timeout",
	"heart_rate.enabled":      "heart-rate",
	"heart_rate.device":       "heart-rate-device",
	"heart_rate.scan_timeout": "heart-rate-scan-timeout",
	"trackable":               "trackable",
	"countdown_cues":          "countdown-cues",
	"list":                    "list",
}

func (c *Config) validate() error {
	if c.Week < 1 {
		return fmt.Errorf("week must be at least 1, got %d", c.Week)
	}
	if c.Lang != "es" && c.Lang != "en" {
		return fmt.Errorf("invalid lang: %s (must be es or en)", c.Lang)
	}
	if c.DB == "" {
		return errors.New("db path is required")
	}
	if c.Location.Enabled && c.Location.Listen == "" {
		return errors.New("location.listen is required when location is enabled")
	}
	if c.Location.FixTimeout < 0 {
		return fmt.Errorf("location.fix_timeout cannot be negative: %v", c.Location.FixTimeout)
	}
	if c.HeartRate.Enabled && c.HeartRate.ScanTimeout <= 0 {
		return fmt.Errorf("heart_rate.scan_timeout must be positive: %v", c.HeartRate.ScanTimeout)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
