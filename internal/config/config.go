// Package config loads the daemon configuration from TOML or YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"pilot/internal/action"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

// Duration accepts Go duration strings ("30s", "1m30s") in both formats.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	LogLevel    string `toml:"log_level" yaml:"log_level"`
	Socket      string `toml:"socket" yaml:"socket"`
	MetricsAddr string `toml:"metrics_addr" yaml:"metrics_addr"`
	Proxy       string `toml:"proxy" yaml:"proxy"`
	DryRun      bool   `toml:"dry_run" yaml:"dry_run"`

	Listen  Listen  `toml:"listen" yaml:"listen"`
	OpenAI  OpenAI  `toml:"openai" yaml:"openai"`
	Voice   Voice   `toml:"voice" yaml:"voice"`
	Macro   Macro   `toml:"macro" yaml:"macro"`
	Capture Capture `toml:"capture" yaml:"capture"`
	OBS     OBS     `toml:"obs" yaml:"obs"`
	Events  Events  `toml:"events" yaml:"events"`
	Steam   Steam   `toml:"steam" yaml:"steam"`
}

type Listen struct {
	// Continuous keeps the microphone open and waits for the wake word.
	Continuous   bool     `toml:"continuous" yaml:"continuous"`
	WakeWord     string   `toml:"wake_word" yaml:"wake_word"`
	WhisperModel string   `toml:"whisper_model" yaml:"whisper_model"`
	Language     string   `toml:"language" yaml:"language"`
	Threads      int      `toml:"threads" yaml:"threads"`
	Beep         string   `toml:"beep" yaml:"beep"`
	Silence      Duration `toml:"silence" yaml:"silence"`
	MaxLength    Duration `toml:"max_length" yaml:"max_length"`
}

type OpenAI struct {
	Model string `toml:"model" yaml:"model"`
}

type Voice struct {
	// Engine is one of "openai", "espeak" or "none".
	Engine    string `toml:"engine" yaml:"engine"`
	Name      string `toml:"name" yaml:"name"`
	Language  string `toml:"language" yaml:"language"`
	Duck      bool   `toml:"duck" yaml:"duck"`
	MinVolume int    `toml:"min_volume" yaml:"min_volume"`
}

type Macro struct {
	AFKDuration  Duration `toml:"afk_duration" yaml:"afk_duration"`
	AFKInterval  Duration `toml:"afk_interval" yaml:"afk_interval"`
	MoveDuration Duration `toml:"move_duration" yaml:"move_duration"`
	MoveInterval Duration `toml:"move_interval" yaml:"move_interval"`
	CharDelay    Duration `toml:"char_delay" yaml:"char_delay"`
	SpamCount    int      `toml:"spam_count" yaml:"spam_count"`
	SpamInterval Duration `toml:"spam_interval" yaml:"spam_interval"`
	TeamChat     bool     `toml:"team_chat" yaml:"team_chat"`
	MessagesDB   string   `toml:"messages_db" yaml:"messages_db"`
}

type Capture struct {
	Dir          string `toml:"dir" yaml:"dir"`
	CameraDevice string `toml:"camera_device" yaml:"camera_device"`
}

type OBS struct {
	URL string `toml:"url" yaml:"url"`
}

type Events struct {
	RedisAddr    string `toml:"redis_addr" yaml:"redis_addr"`
	RedisChannel string `toml:"redis_channel" yaml:"redis_channel"`
	BusURL       string `toml:"bus_url" yaml:"bus_url"`
}

type Steam struct {
	Roots []string `toml:"roots" yaml:"roots"`
}

func Default() Config {
	s := action.DefaultSettings()
	return Config{
		LogLevel:    "info",
		Socket:      filepath.Join(os.TempDir(), "pilot.sock"),
		MetricsAddr: "",
		Listen: Listen{
			WakeWord:     "pilot",
			WhisperModel: "third_party/whisper.cpp/models/ggml-base.en.bin",
			Language:     "en",
			Beep:         "beep.mp3",
			Silence:      Duration(600 * time.Millisecond),
			MaxLength:    Duration(10 * time.Second),
		},
		Voice: Voice{Engine: "openai", Name: "alloy", Language: "en", Duck: true, MinVolume: 10},
		Macro: Macro{
			AFKDuration:  Duration(s.AFKDuration),
			AFKInterval:  Duration(s.AFKInterval),
			MoveDuration: Duration(s.MoveDuration),
			MoveInterval: Duration(s.MoveInterval),
			CharDelay:    Duration(s.CharDelay),
			SpamCount:    s.SpamCount,
			SpamInterval: Duration(s.SpamInterval),
			TeamChat:     s.TeamChat,
			MessagesDB:   "pilot.db",
		},
		Capture: Capture{Dir: "captures"},
		OBS:     OBS{URL: "ws://localhost:4455"},
		Events:  Events{RedisChannel: "pilot:events"},
	}
}

// Load reads path over the defaults. The format follows the extension. An
// empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(raw), &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Voice.Engine {
	case "openai", "espeak", "none", "":
	default:
		return fmt.Errorf("unknown voice engine %q", c.Voice.Engine)
	}
	if c.Macro.SpamCount < 0 {
		return fmt.Errorf("spam_count must not be negative, got %d", c.Macro.SpamCount)
	}
	return nil
}

// Settings maps the macro section onto handler settings.
func (c Config) Settings() action.Settings {
	s := action.DefaultSettings()
	s.AFKDuration = c.Macro.AFKDuration.Std()
	s.AFKInterval = c.Macro.AFKInterval.Std()
	s.MoveDuration = c.Macro.MoveDuration.Std()
	s.MoveInterval = c.Macro.MoveInterval.Std()
	s.CharDelay = c.Macro.CharDelay.Std()
	s.SpamCount = c.Macro.SpamCount
	s.SpamInterval = c.Macro.SpamInterval.Std()
	s.TeamChat = c.Macro.TeamChat
	return s
}

// Secrets come from the environment, never from the config file.
type Secrets struct {
	OpenAIKey   string
	OBSPassword string
}

func SecretsFromEnv() Secrets {
	return Secrets{
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OBSPassword: os.Getenv("OBS_PASSWORD"),
	}
}
