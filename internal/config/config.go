package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gptwalk/internal/walkthrough"
)

const (
	DefaultTheme    = "cyberpunk"
	DefaultHeads    = 8
	MaxHeads        = 8
	MaxTokens       = 6
	DefaultLogLevel = "info"
	DefaultDataDir  = ".gptwalk"
)

var DefaultTokens = []string{"The", "cat", "sat", "on", "the", "mat"}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Theme     string       `yaml:"theme"`
	Autoplay  bool         `yaml:"autoplay"`
	StartStep int          `yaml:"start_step"`
	Tokens    []string     `yaml:"tokens"`
	Heads     int          `yaml:"heads"`
	Catalog   string       `yaml:"catalog,omitempty"`
	DataDir   string       `yaml:"data_dir"`
	Timing    TimingConfig `yaml:"timing"`
	Log       LogConfig    `yaml:"log"`
}

type TimingConfig struct {
	StepDwell     time.Duration `yaml:"step_dwell"`
	PhaseInterval time.Duration `yaml:"phase_interval"`
	ScrollDelay   time.Duration `yaml:"scroll_delay"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func DefaultConfig() *Config {
	tokens := make([]string, len(DefaultTokens))
	copy(tokens, DefaultTokens)
	return &Config{
		Theme:   DefaultTheme,
		Tokens:  tokens,
		Heads:   DefaultHeads,
		DataDir: DefaultDataDir,
		Timing: TimingConfig{
			StepDwell:     walkthrough.DefaultStepDwell,
			PhaseInterval: walkthrough.DefaultPhaseInterval,
			ScrollDelay:   walkthrough.DefaultScrollDelay,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(DefaultConfig(), path)
}

// LoadOver reads path on top of a copy of base, so keys missing from the
// file keep the base values.
func LoadOver(base *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	cfg.Tokens = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Tokens == nil {
		cfg.Tokens = append([]string(nil), base.Tokens...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Timing.StepDwell <= 0:
		return fmt.Errorf("%w: timing.step_dwell must be positive", ErrInvalidConfig)
	case c.Timing.PhaseInterval <= 0:
		return fmt.Errorf("%w: timing.phase_interval must be positive", ErrInvalidConfig)
	case c.Timing.ScrollDelay <= 0:
		return fmt.Errorf("%w: timing.scroll_delay must be positive", ErrInvalidConfig)
	case len(c.Tokens) == 0:
		return fmt.Errorf("%w: tokens must not be empty", ErrInvalidConfig)
	case len(c.Tokens) > MaxTokens:
		return fmt.Errorf("%w: at most %d tokens, got %d", ErrInvalidConfig, MaxTokens, len(c.Tokens))
	case c.Heads < 1 || c.Heads > MaxHeads:
		return fmt.Errorf("%w: heads must be in 1..%d, got %d", ErrInvalidConfig, MaxHeads, c.Heads)
	}
	return nil
}

// GetTiming converts the configured periods for the controller.
func (c *Config) GetTiming() walkthrough.Timing {
	return walkthrough.Timing{
		StepDwell:     c.Timing.StepDwell,
		PhaseInterval: c.Timing.PhaseInterval,
		ScrollDelay:   c.Timing.ScrollDelay,
	}
}

// GetCatalog loads the configured catalog file, or the built-in steps when
// none is set.
func (c *Config) GetCatalog() (walkthrough.Catalog, error) {
	if c.Catalog == "" {
		return walkthrough.DefaultCatalog(), nil
	}
	return walkthrough.LoadCatalog(c.Catalog)
}

// GetInitState is the playback state the session starts from.
func (c *Config) GetInitState() walkthrough.PlaybackState {
	return walkthrough.PlaybackState{ActiveStep: walkthrough.ClampStep(c.StartStep)}
}
