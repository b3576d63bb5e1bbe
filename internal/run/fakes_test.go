package run

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/event"
	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/nav"
	"github.com/Versifine/autofly/internal/waypoint"
	"github.com/Versifine/autofly/internal/world"
)

const tickStep = 50 * time.Millisecond

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeNavigator arrives arriveAfter ticks after each Enable.
type fakeNavigator struct {
	arriveAfter int
	fail        error
	never       bool
	enableErr   error

	enabled  bool
	ticks    int
	targets  []waypoint.Waypoint
	radii    []float64
	disables int
}

func (n *fakeNavigator) SetTarget(wp waypoint.Waypoint) {
	n.targets = append(n.targets, wp)
	n.radii = append(n.radii, 0)
}

func (n *fakeNavigator) SetTargetWithin(wp waypoint.Waypoint, radius float64) {
	n.targets = append(n.targets, wp)
	n.radii = append(n.radii, radius)
}

func (n *fakeNavigator) Enable() error {
	if n.enableErr != nil {
		return n.enableErr
	}
	n.enabled = true
	n.ticks = 0
	return nil
}

func (n *fakeNavigator) Disable(string) {
	n.enabled = false
	n.disables++
}

func (n *fakeNavigator) Tick(nav.Observation) nav.Result {
	if !n.enabled {
		return nav.Result{Outcome: nav.OutcomeIdle}
	}
	n.ticks++
	if n.fail != nil {
		n.enabled = false
		return nav.Result{Outcome: nav.OutcomeDisabled, Err: n.fail}
	}
	if !n.never && n.ticks >= n.arriveAfter {
		return nav.Result{Outcome: nav.OutcomeArrived}
	}
	return nav.Result{Outcome: nav.OutcomeActive}
}

func (n *fakeNavigator) lastTarget() waypoint.Waypoint {
	if len(n.targets) == 0 {
		return waypoint.Waypoint{}
	}
	return n.targets[len(n.targets)-1]
}

type fakeSession struct {
	refuse     bool
	openAfter  int
	lootSteps  int
	opened     []world.BlockPos
	polls      int
	looted     int
	closeCount int
}

func (s *fakeSession) Open(pos world.BlockPos) bool {
	if s.refuse {
		return false
	}
	s.opened = append(s.opened, pos)
	s.polls = 0
	return true
}

func (s *fakeSession) Opened() bool {
	s.polls++
	return s.polls >= s.openAfter
}

func (s *fakeSession) LootStep() bool {
	s.looted++
	return s.looted >= s.lootSteps
}

func (s *fakeSession) Close() { s.closeCount++ }

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

type fakeFlight struct{ flying bool }

func (f *fakeFlight) AscentRate() float64    { return 0.05 }
func (f *fakeFlight) SetAscentRate(float64) {}
func (f *fakeFlight) SetFlying(on bool)      { f.flying = on }

type harness struct {
	grid    *world.Grid
	clock   *fakeClock
	keys    *recordingKeys
	nav     *fakeNavigator
	session *fakeSession
	flight  *fakeFlight
	store   *waypoint.Store
	ledger  *JSONLedger
	bus     *event.Bus
	run     *Orchestrator

	states  []event.RunStateEvent
	records []event.RunTargetEvent
}

// newHarness builds a stone floor at y63 from -20..20 and a run over the given targets.
func newHarness(t *testing.T, cfg Config, targets ...waypoint.Waypoint) *harness {
	t.Helper()
	h := &harness{
		grid:    world.NewGrid(world.DimensionOverworld),
		clock:   &fakeClock{now: time.Unix(1_700_000_000, 0)},
		keys:    &recordingKeys{},
		nav:     &fakeNavigator{arriveAfter: 1},
		session: &fakeSession{openAfter: 1, lootSteps: 2},
		flight:  &fakeFlight{},
		store:   waypoint.NewStore(targets),
		ledger:  NewMemoryLedger(),
		bus:     event.NewBus(),
	}
	h.fill(t, world.BlockPos{X: -20, Y: 63, Z: -20}, world.BlockPos{X: 20, Y: 63, Z: 20}, "stone")
	h.bus.Subscribe(event.EventRunState, func(raw any) {
		h.states = append(h.states, raw.(event.RunStateEvent))
	})
	h.bus.Subscribe(event.EventRunTarget, func(raw any) {
		h.records = append(h.records, raw.(event.RunTargetEvent))
	})
	h.run = New(cfg, Deps{
		World:     h.grid,
		Keys:      h.keys,
		Clock:     h.clock,
		Navigator: h.nav,
		Flight:    h.flight,
		Targets:   h.store,
		Session:   h.session,
		Ledger:    h.ledger,
		Bus:       h.bus,
	})
	return h
}

func (h *harness) fill(t *testing.T, a, b world.BlockPos, name string) {
	t.Helper()
	if err := h.grid.Fill(a, b, name); err != nil {
		t.Fatalf("Fill: %v", err)
	}
}

func (h *harness) tick(obs nav.Observation) error {
	h.clock.Advance(tickStep)
	return h.run.Tick(obs)
}

// tickUntil ticks with obs until the run reaches want, failing after max ticks.
func (h *harness) tickUntil(t *testing.T, obs nav.Observation, want State, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if h.run.State() == want {
			return
		}
		if err := h.tick(obs); err != nil {
			t.Fatalf("Tick: %v (state %s)", err, h.run.State())
		}
	}
	if h.run.State() != want {
		t.Fatalf("state = %s after %d ticks, want %s", h.run.State(), limit, want)
	}
}

func at(x, y, z float64) nav.Observation {
	return nav.Observation{Present: true, Position: mgl64.Vec3{x, y, z}, OnGround: true, Dimension: world.DimensionOverworld}
}

func testConfig() Config {
	return DefaultConfig()
}
