package nav

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/event"
	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/world"
)

const tickStep = 50 * time.Millisecond

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingKeys struct {
	down input.Set
	yaw  float32
}

func (k *recordingKeys) SetKey(key input.Key, down bool) {
	if down {
		k.down = k.down.With(key)
	} else {
		k.down = k.down.Without(key)
	}
}

func (k *recordingKeys) SetYaw(yaw float32) { k.yaw = yaw }

type fakeFlight struct {
	rate   float64
	flying bool
}

func (f *fakeFlight) AscentRate() float64        { return f.rate }
func (f *fakeFlight) SetAscentRate(rate float64) { f.rate = rate }
func (f *fakeFlight) SetFlying(on bool)          { f.flying = on }

type scriptedExecutor struct {
	path      []world.BlockPos
	doneAfter int
	fail      bool
	processed int
	locked    input.Actuator
	released  bool
}

func (e *scriptedExecutor) LockControls(keys input.Actuator) { e.locked = keys }

func (e *scriptedExecutor) Process(Observation) {
	e.processed++
	if e.locked != nil {
		e.locked.SetKey(input.KeyForward, true)
	}
}

func (e *scriptedExecutor) Done() bool   { return !e.fail && e.processed >= e.doneAfter }
func (e *scriptedExecutor) Failed() bool { return e.fail && e.processed > 0 }

func (e *scriptedExecutor) ReleaseControls() {
	e.released = true
	if e.locked != nil {
		input.ReleaseAll(e.locked)
	}
}

func (e *scriptedExecutor) Path() []world.BlockPos { return e.path }

type scriptedSearch struct {
	thinks    int
	doneAfter int // <= 0 never finishes
	fail      bool
	exec      *scriptedExecutor
}

func (s *scriptedSearch) Think() { s.thinks++ }

func (s *scriptedSearch) Done() bool {
	return !s.fail && s.doneAfter > 0 && s.thinks >= s.doneAfter
}

func (s *scriptedSearch) Failed() bool { return s.fail && s.thinks > 0 }

func (s *scriptedSearch) Executor() Executor {
	if s.exec == nil {
		return nil
	}
	return s.exec
}

type scriptedPathfinder struct {
	next   func() *scriptedSearch
	begins []world.BlockPos
	last   *scriptedSearch
}

func (p *scriptedPathfinder) BeginSearch(from, goal world.BlockPos) Search {
	p.begins = append(p.begins, goal)
	p.last = p.next()
	return p.last
}

type harness struct {
	nav    *Navigator
	clock  *fakeClock
	keys   *recordingKeys
	grid   *world.Grid
	flight *fakeFlight
	finder *scriptedPathfinder
	bus    *event.Bus

	arrived   []event.ArrivedEvent
	recovery  []event.RecoveryEvent
	disabled  []event.DisabledEvent
	modeTrail []string
}

type harnessOption func(*Deps)

func withTargets(t Targets) harnessOption {
	return func(d *Deps) { d.Targets = t }
}

func newHarness(t *testing.T, cfg Config, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		clock:  newFakeClock(),
		keys:   &recordingKeys{},
		grid:   world.NewGrid(world.DimensionOverworld),
		flight: &fakeFlight{rate: 0.05, flying: true},
		finder: &scriptedPathfinder{next: func() *scriptedSearch { return &scriptedSearch{} }},
		bus:    event.NewBus(),
	}
	h.bus.Subscribe(event.EventNavArrived, func(raw any) { h.arrived = append(h.arrived, raw.(event.ArrivedEvent)) })
	h.bus.Subscribe(event.EventNavRecovery, func(raw any) { h.recovery = append(h.recovery, raw.(event.RecoveryEvent)) })
	h.bus.Subscribe(event.EventNavDisabled, func(raw any) { h.disabled = append(h.disabled, raw.(event.DisabledEvent)) })
	h.bus.Subscribe(event.EventNavMode, func(raw any) { h.modeTrail = append(h.modeTrail, raw.(event.ModeEvent).To) })

	deps := Deps{
		World:      h.grid,
		Keys:       h.keys,
		Clock:      h.clock,
		Pathfinder: h.finder,
		Flight:     h.flight,
		Bus:        h.bus,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h.nav = New(cfg, deps)
	return h
}

// tick runs one navigator decision and advances simulated time by one game tick.
func (h *harness) tick(obs Observation) Result {
	res := h.nav.Tick(obs)
	h.clock.Advance(tickStep)
	return res
}

func (h *harness) fill(t *testing.T, a, b world.BlockPos, name string) {
	t.Helper()
	if err := h.grid.Fill(a, b, name); err != nil {
		t.Fatalf("fill %v..%v: %v", a, b, err)
	}
}

func at(x, y, z float64) Observation {
	return Observation{Present: true, Position: mgl64.Vec3{x, y, z}, Dimension: world.DimensionOverworld}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Radius = 4
	cfg.CruiseHeight = 80
	return cfg
}

func assertAllUp(t *testing.T, keys *recordingKeys) {
	t.Helper()
	if !keys.down.Empty() {
		t.Fatalf("keys still down: %s", keys.down)
	}
}
