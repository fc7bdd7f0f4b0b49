// Package config loads the server settings from an optional YAML file, an
// optional .env file and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bucketsort/internal/judge"
	"bucketsort/internal/playground"
	"bucketsort/internal/shape"
	"bucketsort/internal/zone"
)

const (
	EnvPort    = "PORT"
	EnvBaseURL = "BASE_URL"
	EnvConfig  = "BUCKETSORT_CONFIG"
)

var ErrInvalid = errors.New("invalid config")

// Server settings. VisitorTTL is how long the visitor cookie lives.
type Server struct {
	Port       int           `yaml:"port"`
	BaseURL    string        `yaml:"base_url,omitempty"`
	VisitorTTL time.Duration `yaml:"visitor_ttl"`
}

type Game struct {
	DurationSeconds int           `yaml:"duration_seconds"`
	TargetCount     int           `yaml:"target_count"`
	WinDelay        time.Duration `yaml:"win_delay"`
	RemovalStep     float64       `yaml:"removal_step"`
	Rules           judge.Rules   `yaml:"rules"`
	RewardCode      string        `yaml:"reward_code"`
}

type Cues struct {
	SampleRate int `yaml:"sample_rate"`
}

type Config struct {
	Server     Server            `yaml:"server"`
	Game       Game              `yaml:"game"`
	Zones      zone.Geometry     `yaml:"zones"`
	Playground playground.Config `yaml:"playground"`
	Cues       Cues              `yaml:"cues"`
}

func Default() *Config {
	return &Config{
		Server: Server{Port: 8080, VisitorTTL: 24 * time.Hour},
		Game: Game{
			DurationSeconds: 30,
			TargetCount:     5,
			WinDelay:        judge.DefaultWinDelay,
			RemovalStep:     judge.DefaultRemovalStep,
			Rules:           judge.DefaultRules,
			RewardCode:      "TIDY10",
		},
		Zones:      zone.DefaultGeometry,
		Playground: playground.DefaultConfig,
		Cues:       Cues{SampleRate: 44100},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// FromEnv loads .env if present, then the YAML file named by
// BUCKETSORT_CONFIG if set, then applies PORT and BASE_URL.
func FromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c := Default()
	if path := strings.TrimSpace(os.Getenv(EnvConfig)); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		c = loaded
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvPort, v, ErrInvalid)
		}
		c.Server.Port = port
	}
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.Server.BaseURL = strings.TrimRight(v, "/")
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}
	check(c.Server.Port > 0 && c.Server.Port < 65536, "server.port %d out of range", c.Server.Port)
	check(c.Game.DurationSeconds > 0, "game.duration_seconds must be positive")
	check(c.Game.TargetCount > 0, "game.target_count must be positive")
	check(c.Game.RemovalStep > 0 && c.Game.RemovalStep <= 1, "game.removal_step %v not in (0,1]", c.Game.RemovalStep)
	check(validColor(c.Game.Rules.TargetColor), "game.rules.target_color %q unknown", c.Game.Rules.TargetColor)
	check(validKind(c.Game.Rules.TargetKind), "game.rules.target_kind %q unknown", c.Game.Rules.TargetKind)
	check(c.Zones.Width > 0, "zones.width must be positive")
	check(c.Zones.AnchorFraction >= 0 && c.Zones.AnchorFraction <= 1, "zones.anchor_fraction %v not in [0,1]", c.Zones.AnchorFraction)
	check(c.Playground.MaxShapes >= 0, "playground.max_shapes must not be negative")
	check(c.Cues.SampleRate >= 8000, "cues.sample_rate %d too low", c.Cues.SampleRate)
	return errors.Join(errs...)
}

func validColor(c shape.Color) bool {
	for _, known := range shape.Colors {
		if c == known {
			return true
		}
	}
	return false
}

func validKind(k shape.Kind) bool {
	for _, known := range shape.Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}

// Judge converts the game settings for a new judge.
func (c *Config) Judge() judge.Config {
	return judge.Config{
		Rules:           c.Game.Rules,
		Geometry:        c.Zones,
		DurationSeconds: c.Game.DurationSeconds,
		TargetCount:     c.Game.TargetCount,
		WinDelay:        c.Game.WinDelay,
		RemovalStep:     c.Game.RemovalStep,
	}
}
