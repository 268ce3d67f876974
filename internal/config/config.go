package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFilename is looked up in the working directory when no
	// path is given.
	DefaultConfigFilename = "panel-stopwatch.yaml"

	// DefaultDebounceIntervalMs is the press acceptance window.
	DefaultDebounceIntervalMs = 300
	// DefaultHideDelayMs is how long controls stay visible after activity.
	DefaultHideDelayMs = 3000
	// TickIntervalMs is fixed; the stopwatch counts whole seconds.
	TickIntervalMs = 1000
	// DefaultImageRotateIntervalMs is the background rotation period.
	DefaultImageRotateIntervalMs = 30000
	// DefaultPollIntervalMs is the GPIO sampling period in poll mode.
	DefaultPollIntervalMs = 20

	// DefaultImageDir holds the background images.
	DefaultImageDir = "img"
	// DefaultChip is the GPIO character device.
	DefaultChip = "gpiochip0"
	// DefaultStartStopPin is the BCM pin of the start/stop button.
	DefaultStartStopPin = 17
	// DefaultResetPin is the BCM pin of the reset button.
	DefaultResetPin = 27
	// DefaultHTTPAddr is the status server listen address.
	DefaultHTTPAddr = ":8080"
	// DefaultClientID is the MQTT client id.
	DefaultClientID = "panel-stopwatch"
	// DefaultTopicPrefix is prepended to every MQTT topic.
	DefaultTopicPrefix = "panel/stopwatch"
)

// Input modes.
const (
	ModePoll = "poll"
	ModeEdge = "edge"
)

// Pull bias values.
const (
	PullUp   = "up"
	PullDown = "down"
	PullNone = "none"
)

// Edge values.
const (
	EdgeRising  = "rising"
	EdgeFalling = "falling"
)

var (
	// ErrTickInterval is returned when tick_interval_ms is set to anything but 1000.
	ErrTickInterval = errors.New("tick_interval_ms is fixed at 1000")
	// ErrNonPositive is returned for zero or negative intervals.
	ErrNonPositive = errors.New("interval must be positive")
	// ErrUnknownFormat is returned for config files that are neither YAML nor TOML.
	ErrUnknownFormat = errors.New("unknown config format")

	errConfigIsNotSet = errors.New("configuration is not set")
)

// Config holds every daemon setting.
type Config struct {
	LogLevel string `yaml:"log_level" toml:"log_level"`
	LogFile  string `yaml:"log_file" toml:"log_file"`

	DebounceIntervalMs    int  `yaml:"debounce_interval_ms" toml:"debounce_interval_ms"`
	HideDelayMs           int  `yaml:"hide_delay_ms" toml:"hide_delay_ms"`
	TickIntervalMs        int  `yaml:"tick_interval_ms" toml:"tick_interval_ms"`
	ImageRotateIntervalMs int  `yaml:"image_rotate_interval_ms" toml:"image_rotate_interval_ms"`
	Rollover              bool `yaml:"rollover" toml:"rollover"`

	ImageDir string `yaml:"image_dir" toml:"image_dir"`

	Inputs   InputsConfig   `yaml:"inputs" toml:"inputs"`
	MQTT     MQTTConfig     `yaml:"mqtt" toml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http" toml:"http"`
	Terminal TerminalConfig `yaml:"terminal" toml:"terminal"`
}

// InputsConfig describes the GPIO buttons.
type InputsConfig struct {
	// Enabled is a pointer so an omitted key keeps the default (on).
	Enabled        *bool         `yaml:"enabled" toml:"enabled"`
	Chip           string        `yaml:"chip" toml:"chip"`
	Mode           string        `yaml:"mode" toml:"mode"`
	PollIntervalMs int           `yaml:"poll_interval_ms" toml:"poll_interval_ms"`
	StartStop      ChannelConfig `yaml:"start_stop" toml:"start_stop"`
	Reset          ChannelConfig `yaml:"reset" toml:"reset"`
}

// ChannelConfig describes one button line.
type ChannelConfig struct {
	Pin  int    `yaml:"pin" toml:"pin"`
	Pull string `yaml:"pull" toml:"pull"`
	Edge string `yaml:"edge" toml:"edge"`
	// Debounce defaults to true; false accepts every edge.
	Debounce *bool `yaml:"debounce" toml:"debounce"`
	// DebounceIntervalMs overrides the global interval when non-zero.
	DebounceIntervalMs int `yaml:"debounce_interval_ms" toml:"debounce_interval_ms"`
}

// MQTTConfig configures the optional broker connection. An empty broker disables it.
type MQTTConfig struct {
	Broker      string `yaml:"broker" toml:"broker"`
	ClientID    string `yaml:"client_id" toml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix" toml:"topic_prefix"`
}

// HTTPConfig configures the status server. An empty address disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// TerminalConfig enables the terminal display.
type TerminalConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := new(Config)
	cfg.HTTP.Addr = DefaultHTTPAddr

	if err := Validate(cfg); err != nil {
		panic(err) // defaults are always valid
	}

	return cfg
}

// Load reads the file at path. An empty path tries DefaultConfigFilename and
// falls back to Default when that file does not exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg, err := Parse(contents, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes contents in the given format ("yaml" or "toml") and validates it.
func Parse(contents []byte, format string) (*Config, error) {
	cfg := new(Config)
	cfg.HTTP.Addr = DefaultHTTPAddr

	switch format {
	case "yaml":
		if err := yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
}

// Validate fills defaults for unset fields and rejects invalid values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	setDefault(&cfg.DebounceIntervalMs, DefaultDebounceIntervalMs)
	setDefault(&cfg.HideDelayMs, DefaultHideDelayMs)
	setDefault(&cfg.TickIntervalMs, TickIntervalMs)
	setDefault(&cfg.ImageRotateIntervalMs, DefaultImageRotateIntervalMs)

	if cfg.TickIntervalMs != TickIntervalMs {
		return fmt.Errorf("%w: got %d", ErrTickInterval, cfg.TickIntervalMs)
	}

	for name, v := range map[string]int{
		"debounce_interval_ms":     cfg.DebounceIntervalMs,
		"hide_delay_ms":            cfg.HideDelayMs,
		"image_rotate_interval_ms": cfg.ImageRotateIntervalMs,
	} {
		if v <= 0 {
			return fmt.Errorf("%s: %w", name, ErrNonPositive)
		}
	}

	if cfg.ImageDir == "" {
		cfg.ImageDir = DefaultImageDir
	}

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = DefaultClientID
		}

		if cfg.MQTT.TopicPrefix == "" {
			cfg.MQTT.TopicPrefix = DefaultTopicPrefix
		}
	}

	return validateInputs(&cfg.Inputs)
}

func validateInputs(in *InputsConfig) error {
	if in.Enabled == nil {
		on := true
		in.Enabled = &on
	}

	if in.Chip == "" {
		in.Chip = DefaultChip
	}

	switch in.Mode {
	case "":
		in.Mode = ModePoll
	case ModePoll, ModeEdge:
	default:
		return fmt.Errorf("inputs.mode: unknown mode %q", in.Mode)
	}

	setDefault(&in.PollIntervalMs, DefaultPollIntervalMs)

	if in.PollIntervalMs <= 0 {
		return fmt.Errorf("inputs.poll_interval_ms: %w", ErrNonPositive)
	}

	if in.StartStop.Pin == 0 {
		in.StartStop.Pin = DefaultStartStopPin
	}

	if in.Reset.Pin == 0 {
		in.Reset.Pin = DefaultResetPin
	}

	if in.StartStop.Pin == in.Reset.Pin {
		return fmt.Errorf("inputs: start_stop and reset share pin %d", in.Reset.Pin)
	}

	if err := validateChannel("start_stop", &in.StartStop); err != nil {
		return err
	}

	return validateChannel("reset", &in.Reset)
}

func validateChannel(name string, ch *ChannelConfig) error {
	if ch.Pin < 0 {
		return fmt.Errorf("inputs.%s.pin: negative pin %d", name, ch.Pin)
	}

	switch ch.Pull {
	case "":
		ch.Pull = PullUp
	case PullUp, PullDown, PullNone:
	default:
		return fmt.Errorf("inputs.%s.pull: unknown bias %q", name, ch.Pull)
	}

	switch ch.Edge {
	case "":
		// A pulled-up button reads low when pressed.
		if ch.Pull == PullDown {
			ch.Edge = EdgeRising
		} else {
			ch.Edge = EdgeFalling
		}
	case EdgeRising, EdgeFalling:
	default:
		return fmt.Errorf("inputs.%s.edge: unknown edge %q", name, ch.Edge)
	}

	if ch.Debounce == nil {
		on := true
		ch.Debounce = &on
	}

	if ch.DebounceIntervalMs < 0 {
		return fmt.Errorf("inputs.%s.debounce_interval_ms: %w", name, ErrNonPositive)
	}

	return nil
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

// InputsEnabled reports whether GPIO buttons should be opened.
func (c *Config) InputsEnabled() bool {
	return c.Inputs.Enabled == nil || *c.Inputs.Enabled
}

// DebounceFor returns the effective debounce interval of a channel.
// Zero means the channel is not debounced.
func (c *Config) DebounceFor(ch ChannelConfig) time.Duration {
	if ch.Debounce != nil && !*ch.Debounce {
		return 0
	}

	if ch.DebounceIntervalMs > 0 {
		return ms(ch.DebounceIntervalMs)
	}

	return ms(c.DebounceIntervalMs)
}

// HideDelay returns hide_delay_ms as a duration.
func (c *Config) HideDelay() time.Duration { return ms(c.HideDelayMs) }

// ImageRotateInterval returns image_rotate_interval_ms as a duration.
func (c *Config) ImageRotateInterval() time.Duration { return ms(c.ImageRotateIntervalMs) }

// PollInterval returns the GPIO sampling period.
func (c *Config) PollInterval() time.Duration { return ms(c.Inputs.PollIntervalMs) }

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
