// Package sim is an in-process stand-in for the game client: a block grid,
// player physics, synthetic keys and a stepped clock.
package sim

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/nav"
	"github.com/Versifine/autofly/internal/physics"
	"github.com/Versifine/autofly/internal/world"
)

const TickInterval = 50 * time.Millisecond

// Clock only moves when the host steps.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type Host struct {
	grid  *world.Grid
	keys  *input.KeyState
	clock *Clock

	mu     sync.Mutex
	state  physics.State
	human  input.Set
	absent bool
	ticks  int
}

func NewHost(grid *world.Grid, start mgl64.Vec3, flying bool) *Host {
	return &Host{
		grid:  grid,
		keys:  input.NewKeyState(),
		clock: NewClock(time.Unix(1_700_000_000, 0)),
		state: physics.NewState(start, flying),
	}
}

func (h *Host) World() *world.Grid    { return h.grid }
func (h *Host) Keys() *input.KeyState { return h.keys }
func (h *Host) Clock() *Clock         { return h.clock }
func (h *Host) Dimension() string     { return h.grid.Dimension() }

func (h *Host) Ticks() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ticks
}

func (h *Host) State() physics.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Host) Position() mgl64.Vec3 { return h.State().Position }

func (h *Host) SetVelocity(v mgl64.Vec3) {
	h.mu.Lock()
	h.state.Velocity = v
	h.mu.Unlock()
}

// Press sets the keys a person is physically holding.
func (h *Host) Press(keys input.Set) {
	h.mu.Lock()
	h.human = keys
	h.mu.Unlock()
}

// Detach makes the player disappear, as on disconnect.
func (h *Host) Detach() {
	h.mu.Lock()
	h.absent = true
	h.mu.Unlock()
}

func (h *Host) Observe() nav.Observation {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.absent {
		return nav.Observation{}
	}
	return nav.Observation{
		Present:   true,
		Position:  h.state.Position,
		Velocity:  h.state.Velocity,
		Yaw:       h.keys.Yaw(),
		OnGround:  h.state.OnGround,
		Pressed:   h.keys.Down() | h.human,
		Dimension: h.grid.Dimension(),
	}
}

// Step advances physics and the clock by one tick.
func (h *Host) Step() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.absent {
		physics.Tick(&h.state, physics.Input{Keys: h.keys.Down() | h.human, Yaw: h.keys.Yaw()}, h.grid)
	}
	h.ticks++
	h.clock.Advance(TickInterval)
}

func (h *Host) AscentRate() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.FlySpeed
}

func (h *Host) SetAscentRate(rate float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rate > 0 {
		h.state.FlySpeed = rate
	}
}

func (h *Host) SetFlying(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Flying = on
	if !on {
		h.state.Velocity[1] = 0
	}
}
