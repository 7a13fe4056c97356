// Package config loads the YAML configuration of a tickai run.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/tickai/internal/core/npc"
	"github.com/zeusync/tickai/internal/core/npc/pest"
	"github.com/zeusync/tickai/internal/core/observability/log"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Server    ServerConfig    `yaml:"server"`
	World     WorldConfig     `yaml:"world"`
	Agents    []AgentConfig   `yaml:"agents"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type SchedulerConfig struct {
	Interval      Duration `yaml:"interval"`
	StopOnFailure bool     `yaml:"stop_on_failure"`
}

type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	// Buffer is the number of frames queued per websocket client before
	// frames are dropped for it.
	Buffer int `yaml:"buffer"`
}

type WorldConfig struct {
	Width  float64  `yaml:"width"`
	Height float64  `yaml:"height"`
	Items  int      `yaml:"items"`
	Kinds  []string `yaml:"kinds,omitempty"`
	Seed   uint64   `yaml:"seed"`
}

type AgentConfig struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Position npc.Vec2 `yaml:"position"`
	Speed    float64  `yaml:"speed"`
	History  int      `yaml:"history"`
	AI       AIConfig `yaml:"ai"`
}

type AIConfig struct {
	MinIdleTime      Duration `yaml:"min_idle_time"`
	MaxIdleTime      Duration `yaml:"max_idle_time"`
	MinWanderRange   float64  `yaml:"min_wander_range"`
	MaxWanderRange   float64  `yaml:"max_wander_range"`
	VisionRadius     float64  `yaml:"vision_radius"`
	VisionArc        float64  `yaml:"vision_arc"`
	InteractionRange float64  `yaml:"interaction_range"`
}

// Default returns a complete configuration with a single agent.
func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: "info", Encoding: "console"},
		Scheduler: SchedulerConfig{Interval: Duration(100 * time.Millisecond)},
		Server:    ServerConfig{Enabled: true, Addr: ":8080", Buffer: 64},
		World:     WorldConfig{Width: 40, Height: 30, Items: 12, Kinds: []string{"litter", "sock", "cheese"}, Seed: 7},
		Agents: []AgentConfig{func() AgentConfig {
			a := DefaultAgent()
			a.ID, a.Name = "moomoo", "MooMoo"
			a.Position = npc.Vec2{X: 20, Y: 15}
			return a
		}()},
	}
}

// DefaultAgent returns the settings an agent entry starts from.
func DefaultAgent() AgentConfig {
	ai := pest.DefaultAIConfig()
	return AgentConfig{
		Speed:   3.5,
		History: npc.DefaultHistory,
		AI: AIConfig{
			MinIdleTime:      Duration(ai.MinIdleTime),
			MaxIdleTime:      Duration(ai.MaxIdleTime),
			MinWanderRange:   ai.MinWanderRange,
			MaxWanderRange:   ai.MaxWanderRange,
			VisionRadius:     ai.VisionRadius,
			VisionArc:        ai.VisionArc,
			InteractionRange: ai.InteractionRange,
		},
	}
}

// UnmarshalYAML fills unspecified agent fields from DefaultAgent.
func (a *AgentConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain AgentConfig
	*a = DefaultAgent()
	return node.Decode((*plain)(a))
}

// Pest converts the AI settings.
func (c AIConfig) Pest() pest.AIConfig {
	return pest.AIConfig{
		MinIdleTime:      time.Duration(c.MinIdleTime),
		MaxIdleTime:      time.Duration(c.MaxIdleTime),
		MinWanderRange:   c.MinWanderRange,
		MaxWanderRange:   c.MaxWanderRange,
		VisionRadius:     c.VisionRadius,
		VisionArc:        c.VisionArc,
		InteractionRange: c.InteractionRange,
	}
}

// Load reads the file at path over the defaults. An empty path yields Default.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r over the defaults, assigns ids to anonymous agents
// and validates the result. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for i := range cfg.Agents {
		if cfg.Agents[i].ID == "" {
			cfg.Agents[i].ID = uuid.NewString()
		}
		if cfg.Agents[i].Name == "" {
			cfg.Agents[i].Name = cfg.Agents[i].ID
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg as YAML.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (log.Level, error) {
	return log.ParseLevel(c.Log.Level)
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	if c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		return invalid("log.encoding must be json or console, got %q", c.Log.Encoding)
	}
	if c.Scheduler.Interval <= 0 {
		return invalid("scheduler.interval must be positive")
	}
	if c.Server.Enabled {
		if c.Server.Addr == "" {
			return invalid("server.addr is required")
		}
		if c.Server.Buffer <= 0 {
			return invalid("server.buffer must be positive")
		}
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return invalid("world size must be positive")
	}
	if c.World.Items < 0 {
		return invalid("world.items must not be negative")
	}

	seen := make(map[string]struct{}, len(c.Agents))
	for i, a := range c.Agents {
		if _, ok := seen[a.ID]; ok {
			return invalid("agents[%d].id %q is not unique", i, a.ID)
		}
		seen[a.ID] = struct{}{}
		if err := a.validate(c.World); err != nil {
			return fmt.Errorf("%w: agents[%d]: %v", ErrInvalid, i, err)
		}
	}
	return nil
}

func (a AgentConfig) validate(w WorldConfig) error {
	switch {
	case a.ID == "":
		return errors.New("id is required")
	case a.Position.X < 0 || a.Position.Y < 0 || a.Position.X > w.Width || a.Position.Y > w.Height:
		return fmt.Errorf("position %v is outside the world", a.Position)
	case a.Speed < 0:
		return errors.New("speed must not be negative")
	case a.History <= 0:
		return errors.New("history must be positive")
	case a.AI.MinIdleTime < 0 || a.AI.MaxIdleTime < a.AI.MinIdleTime:
		return errors.New("ai idle times must satisfy 0 <= min <= max")
	case a.AI.MinWanderRange < 0 || a.AI.MaxWanderRange < a.AI.MinWanderRange:
		return errors.New("ai wander ranges must satisfy 0 <= min <= max")
	case a.AI.VisionRadius < 0:
		return errors.New("ai.vision_radius must not be negative")
	case a.AI.VisionArc < 0 || a.AI.VisionArc > 360:
		return errors.New("ai.vision_arc must be within [0, 360]")
	case a.AI.InteractionRange <= 0:
		return errors.New("ai.interaction_range must be positive")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
