package pathfind

import (
	"github.com/Versifine/autofly/internal/nav"
	"github.com/Versifine/autofly/internal/world"
)

type Config struct {
	// MaxDistance bounds the search to a cube around the start.
	MaxDistance int
	// NodesPerThink caps the nodes expanded by one Think call.
	NodesPerThink int
	// MaxNodes ends the search with a partial path after this many expansions. 0 means unbounded.
	MaxNodes int
	// StallTicks is how long the executor tolerates no movement before failing.
	StallTicks int
}

func DefaultConfig() Config {
	return Config{
		MaxDistance:   32,
		NodesPerThink: 200,
		MaxNodes:      20000,
		StallTicks:    40,
	}
}

// Service hands out tick-bounded searches over a block world.
type Service struct {
	cfg    Config
	blocks world.Query
}

func New(cfg Config, blocks world.Query) *Service {
	if cfg.StallTicks <= 0 {
		cfg.StallTicks = DefaultConfig().StallTicks
	}
	return &Service{cfg: cfg, blocks: blocks}
}

func (s *Service) BeginSearch(from, goal world.BlockPos) nav.Search {
	return &Search{inner: newSearch(from, goal, s.blocks, s.cfg), stallTicks: s.cfg.StallTicks}
}

// Search adapts the resumable A* to the navigator's Search interface.
type Search struct {
	inner      *search
	stallTicks int
	exec       *Executor
}

func (s *Search) Think() { s.inner.Think() }

// Done reports a finished search with at least a partial path.
func (s *Search) Done() bool {
	return s.inner.finished && len(s.inner.result.Path) > 0
}

func (s *Search) Failed() bool {
	return s.inner.finished && len(s.inner.result.Path) == 0
}

// Complete reports whether the path reaches the goal rather than the closest node.
func (s *Search) Complete() bool {
	return s.inner.result.Complete
}

func (s *Search) Executor() nav.Executor {
	if !s.Done() {
		return nil
	}
	if s.exec == nil {
		s.exec = NewExecutor(s.inner.result.Path, s.stallTicks)
	}
	return s.exec
}
