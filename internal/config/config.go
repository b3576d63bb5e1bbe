package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Versifine/autofly/internal/logger"
	"github.com/Versifine/autofly/internal/nav"
	"github.com/Versifine/autofly/internal/pathfind"
	"github.com/Versifine/autofly/internal/run"
	"github.com/Versifine/autofly/internal/waypoint"
	"github.com/Versifine/autofly/internal/world"
)

type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Navigator  NavigatorConfig  `yaml:"navigator"`
	Waypoints  WaypointsConfig  `yaml:"waypoints"`
	Pathfinder PathfinderConfig `yaml:"pathfinder"`
	Run        RunConfig        `yaml:"run"`
	Sim        SimConfig        `yaml:"sim"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
	Color  string `yaml:"color"`
}

type NavigatorConfig struct {
	Radius             float64 `yaml:"radius"`
	CruiseHeight       float64 `yaml:"cruise_height"`
	VerticalAssist     bool    `yaml:"vertical_assist"`
	FlightOffOnArrival bool    `yaml:"flight_off_on_arrival"`
	DisableOnArrival   bool    `yaml:"disable_on_arrival"`

	ArrivalPause        time.Duration `yaml:"arrival_pause"`
	ManualMoveThreshold float64       `yaml:"manual_move_threshold"`
	ManualIdleResume    time.Duration `yaml:"manual_idle_resume"`
	ManualMaxHold       time.Duration `yaml:"manual_max_hold"`

	LatchBand      float64       `yaml:"latch_band"`
	VerticalStart  float64       `yaml:"vertical_start"`
	VerticalStop   float64       `yaml:"vertical_stop"`
	LandingTimeout time.Duration `yaml:"landing_timeout"`
	SettleSpeed    float64       `yaml:"settle_speed"`

	AssistStall time.Duration `yaml:"assist_stall"`
	AssistBoost float64       `yaml:"assist_boost"`

	StuckStall     time.Duration `yaml:"stuck_stall"`
	RepathCooldown time.Duration `yaml:"repath_cooldown"`
	ClimbHeight    float64       `yaml:"climb_height"`
	ClimbRetry     time.Duration `yaml:"climb_retry"`
	RecoveryRadius int           `yaml:"recovery_radius"`
}

type WaypointsConfig struct {
	// Text uses the "x y z; x z" list format.
	Text        string  `yaml:"text"`
	JSONFile    string  `yaml:"json_file"`
	SkipReached bool    `yaml:"skip_reached"`
	Wrap        bool    `yaml:"wrap"`
	DedupRadius float64 `yaml:"dedup_radius"`
}

type PathfinderConfig struct {
	MaxDistance   int `yaml:"max_distance"`
	NodesPerThink int `yaml:"nodes_per_think"`
	MaxNodes      int `yaml:"max_nodes"`
	StallTicks    int `yaml:"stall_ticks"`
}

type LedgerConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type RunConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Travel         string        `yaml:"travel"`
	Dimension      string        `yaml:"dimension"`
	StateTimeout   time.Duration `yaml:"state_timeout"`
	SearchRadius   int           `yaml:"search_radius"`
	ExitRadius     int           `yaml:"exit_radius"`
	ApproachRadius float64       `yaml:"approach_radius"`
	Cooldown       time.Duration `yaml:"cooldown"`
	VoidMargin     float64       `yaml:"void_margin"`
	FallSpeed      float64       `yaml:"fall_speed"`
	EmergencyClimb float64       `yaml:"emergency_climb"`
	Ledger         LedgerConfig  `yaml:"ledger"`
}

type SimConfig struct {
	FloorY      int        `yaml:"floor_y"`
	FloorRadius int        `yaml:"floor_radius"`
	Start       [3]float64 `yaml:"start"`
	Flying      bool       `yaml:"flying"`
	// Containers is [[x, y, z], ...]; y 0 places the container on the floor.
	Containers      [][3]int      `yaml:"containers"`
	ContainerStacks int           `yaml:"container_stacks"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	MaxTicks        int           `yaml:"max_ticks"`
	Trace           string        `yaml:"trace"`
	StatusLine      bool          `yaml:"status_line"`
}

func (s SimConfig) ContainerPositions() []world.BlockPos {
	out := make([]world.BlockPos, 0, len(s.Containers))
	for _, c := range s.Containers {
		out = append(out, world.BlockPos{X: c[0], Y: c[1], Z: c[2]})
	}
	return out
}

// Defaults returns a configuration with every field at its built-in value.
func Defaults() Config {
	n := nav.DefaultConfig()
	p := pathfind.DefaultConfig()
	r := run.DefaultConfig()
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "console", Color: "auto"},
		Navigator: NavigatorConfig{
			Radius:              n.Radius,
			CruiseHeight:        n.CruiseHeight,
			VerticalAssist:      n.VerticalAssist,
			FlightOffOnArrival:  n.FlightOffOnArrival,
			DisableOnArrival:    n.DisableOnArrival,
			ArrivalPause:        n.ArrivalPause,
			ManualMoveThreshold: n.ManualMoveThreshold,
			ManualIdleResume:    n.ManualIdleResume,
			ManualMaxHold:       n.ManualMaxHold,
			LatchBand:           n.LatchBand,
			VerticalStart:       n.VerticalStart,
			VerticalStop:        n.VerticalStop,
			LandingTimeout:      n.LandingTimeout,
			SettleSpeed:         n.SettleSpeed,
			AssistStall:         n.AssistStall,
			AssistBoost:         n.AssistBoost,
			StuckStall:          n.StuckStall,
			RepathCooldown:      n.RepathCooldown,
			ClimbHeight:         n.ClimbHeight,
			ClimbRetry:          n.ClimbRetry,
			RecoveryRadius:      n.RecoveryRadius,
		},
		Waypoints: WaypointsConfig{SkipReached: n.SkipReached, Wrap: n.Wrap, DedupRadius: 2},
		Pathfinder: PathfinderConfig{
			MaxDistance:   p.MaxDistance,
			NodesPerThink: p.NodesPerThink,
			MaxNodes:      p.MaxNodes,
			StallTicks:    p.StallTicks,
		},
		Run: RunConfig{
			Travel:         string(r.Travel),
			Dimension:      r.Dimension,
			StateTimeout:   r.StateTimeout,
			SearchRadius:   r.SearchRadius,
			ExitRadius:     r.ExitRadius,
			ApproachRadius: r.ApproachRadius,
			Cooldown:       r.Cooldown,
			VoidMargin:     r.VoidMargin,
			FallSpeed:      r.FallSpeed,
			EmergencyClimb: r.EmergencyClimb,
			Ledger:         LedgerConfig{Driver: "memory"},
		},
		Sim: SimConfig{
			FloorY:          63,
			FloorRadius:     64,
			Start:           [3]float64{0.5, 64, 0.5},
			Flying:          true,
			ContainerStacks: 3,
			TickInterval:    50 * time.Millisecond,
			MaxTicks:        12000,
		},
	}
}

// Load reads path over Defaults, so keys left out keep their default value.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	n := c.Navigator
	check(n.Radius > 0, "navigator.radius must be positive, got %v", n.Radius)
	check(n.CruiseHeight >= 0, "navigator.cruise_height must not be negative, got %v", n.CruiseHeight)
	check(n.VerticalStop < n.VerticalStart, "navigator.vertical_stop (%v) must be below vertical_start (%v)", n.VerticalStop, n.VerticalStart)
	check(n.LatchBand >= 0, "navigator.latch_band must not be negative, got %v", n.LatchBand)
	check(n.AssistBoost >= 1, "navigator.assist_boost must be at least 1, got %v", n.AssistBoost)
	check(n.RecoveryRadius > 0, "navigator.recovery_radius must be positive, got %d", n.RecoveryRadius)
	check(n.SettleSpeed > 0, "navigator.settle_speed must be positive, got %v", n.SettleSpeed)
	for name, d := range map[string]time.Duration{
		"arrival_pause":      n.ArrivalPause,
		"manual_idle_resume": n.ManualIdleResume,
		"manual_max_hold":    n.ManualMaxHold,
		"assist_stall":       n.AssistStall,
		"stuck_stall":        n.StuckStall,
		"repath_cooldown":    n.RepathCooldown,
		"climb_retry":        n.ClimbRetry,
		"landing_timeout":    n.LandingTimeout,
	} {
		check(d >= 0, "navigator.%s must not be negative, got %s", name, d)
	}

	check(c.Waypoints.DedupRadius >= 0, "waypoints.dedup_radius must not be negative, got %v", c.Waypoints.DedupRadius)

	p := c.Pathfinder
	check(p.MaxDistance > 0, "pathfinder.max_distance must be positive, got %d", p.MaxDistance)
	check(p.NodesPerThink > 0, "pathfinder.nodes_per_think must be positive, got %d", p.NodesPerThink)
	check(p.MaxNodes >= 0, "pathfinder.max_nodes must not be negative, got %d", p.MaxNodes)

	r := c.Run
	switch run.Travel(strings.ToLower(r.Travel)) {
	case run.TravelFlight, run.TravelWalk:
	default:
		check(false, "run.travel must be flight or walk, got %q", r.Travel)
	}
	switch strings.ToLower(r.Ledger.Driver) {
	case "", "memory", "json", "sqlite":
	default:
		check(false, "run.ledger.driver must be memory, json or sqlite, got %q", r.Ledger.Driver)
	}
	check(r.StateTimeout > 0, "run.state_timeout must be positive, got %s", r.StateTimeout)
	check(r.SearchRadius > 0, "run.search_radius must be positive, got %d", r.SearchRadius)
	check(r.ExitRadius > 0, "run.exit_radius must be positive, got %d", r.ExitRadius)
	check(r.ApproachRadius > 0, "run.approach_radius must be positive, got %v", r.ApproachRadius)
	check(r.Cooldown >= 0, "run.cooldown must not be negative, got %s", r.Cooldown)
	check(r.FallSpeed > 0, "run.fall_speed must be positive, got %v", r.FallSpeed)

	s := c.Sim
	check(s.FloorRadius >= 0, "sim.floor_radius must not be negative, got %d", s.FloorRadius)
	check(s.TickInterval >= 0, "sim.tick_interval must not be negative, got %s", s.TickInterval)
	check(s.MaxTicks >= 0, "sim.max_ticks must not be negative, got %d", s.MaxTicks)
	check(s.ContainerStacks > 0, "sim.container_stacks must be positive, got %d", s.ContainerStacks)

	return errors.Join(errs...)
}

func (c *Config) LoggerConfig(out io.Writer) logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: out,
		File:   c.Logging.File,
		Color:  c.Logging.Color,
	}
}

func (c *Config) NavConfig() nav.Config {
	n := nav.DefaultConfig()
	src := c.Navigator
	n.Radius = src.Radius
	n.CruiseHeight = src.CruiseHeight
	n.VerticalAssist = src.VerticalAssist
	n.SkipReached = c.Waypoints.SkipReached
	n.Wrap = c.Waypoints.Wrap
	n.FlightOffOnArrival = src.FlightOffOnArrival
	n.DisableOnArrival = src.DisableOnArrival
	n.ArrivalPause = src.ArrivalPause
	n.ManualMoveThreshold = src.ManualMoveThreshold
	n.ManualIdleResume = src.ManualIdleResume
	n.ManualMaxHold = src.ManualMaxHold
	n.LatchBand = src.LatchBand
	n.VerticalStart = src.VerticalStart
	n.VerticalStop = src.VerticalStop
	n.LandingTimeout = src.LandingTimeout
	n.SettleSpeed = src.SettleSpeed
	n.AssistStall = src.AssistStall
	n.AssistBoost = src.AssistBoost
	n.StuckStall = src.StuckStall
	n.RepathCooldown = src.RepathCooldown
	n.ClimbHeight = src.ClimbHeight
	n.ClimbRetry = src.ClimbRetry
	n.RecoveryRadius = src.RecoveryRadius
	return n
}

func (c *Config) PathfindConfig() pathfind.Config {
	return pathfind.Config{
		MaxDistance:   c.Pathfinder.MaxDistance,
		NodesPerThink: c.Pathfinder.NodesPerThink,
		MaxNodes:      c.Pathfinder.MaxNodes,
		StallTicks:    c.Pathfinder.StallTicks,
	}
}

func (c *Config) RunConfig() run.Config {
	r := c.Run
	return run.Config{
		Travel:         run.Travel(strings.ToLower(r.Travel)),
		Dimension:      r.Dimension,
		StateTimeout:   r.StateTimeout,
		SearchRadius:   r.SearchRadius,
		ExitRadius:     r.ExitRadius,
		ApproachRadius: r.ApproachRadius,
		Cooldown:       r.Cooldown,
		VoidMargin:     r.VoidMargin,
		FallSpeed:      r.FallSpeed,
		EmergencyClimb: r.EmergencyClimb,
		Wrap:           c.Waypoints.Wrap,
	}
}

// LoadWaypoints parses the text list, then appends JSON points that are not
// already within dedup_radius of a text point.
func (c *Config) LoadWaypoints() ([]waypoint.Waypoint, error) {
	list := waypoint.ParseText(c.Waypoints.Text)
	if c.Waypoints.JSONFile == "" {
		return list, nil
	}
	extra, err := waypoint.LoadJSONFile(c.Waypoints.JSONFile, waypoint.JSONOptions{
		DedupAgainst: list,
		DedupRadius:  c.Waypoints.DedupRadius,
	})
	if err != nil {
		return nil, fmt.Errorf("load waypoints: %w", err)
	}
	return append(list, extra...), nil
}
