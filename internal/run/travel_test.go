package run

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/nav"
	"github.com/Versifine/autofly/internal/pathfind"
	"github.com/Versifine/autofly/internal/physics"
	"github.com/Versifine/autofly/internal/waypoint"
	"github.com/Versifine/autofly/internal/world"
)

func walkWorld(t *testing.T) *world.Grid {
	t.Helper()
	g := world.NewGrid(world.DimensionOverworld)
	if err := g.Fill(world.BlockPos{X: -4, Y: 0, Z: -4}, world.BlockPos{X: 12, Y: 0, Z: 4}, "stone"); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	return g
}

// walk drives the leg against walking physics until it stops running.
func walk(t *testing.T, g *world.Grid, l leg, keys *input.KeyState, start mgl64.Vec3, limit int) (legStatus, physics.State, error) {
	t.Helper()
	state := physics.NewState(start, false)
	state.OnGround = true
	for i := 0; i < limit; i++ {
		status, err := l.tick(nav.Observation{Present: true, Position: state.Position, Velocity: state.Velocity, OnGround: state.OnGround})
		if status != legRunning {
			return status, state, err
		}
		physics.Tick(&state, physics.Input{Keys: keys.Down(), Yaw: keys.Yaw()}, g)
	}
	return legRunning, state, nil
}

// TestWalkLegReachesGoal 测试步行段到达目标
func TestWalkLegReachesGoal(t *testing.T) {
	g := walkWorld(t)
	// wall across the straight line
	for z := -1; z <= 1; z++ {
		for y := 1; y <= 2; y++ {
			if err := g.Set(4, y, z, "stone"); err != nil {
				t.Fatalf("Set: %v", err)
			}
		}
	}
	keys := input.NewKeyState()
	l := newWalkLeg(pathfind.New(pathfind.DefaultConfig(), g), keys, world.BlockPos{X: 8, Y: 1, Z: 0})

	status, state, err := walk(t, g, l, keys, mgl64.Vec3{0.5, 1, 0.5}, 600)
	if status != legArrived {
		t.Fatalf("status = %v err = %v at %v", status, err, state.Position)
	}
	if !keys.Down().Empty() {
		t.Fatalf("keys after arrival = %s", keys.Down())
	}
}

// TestWalkLegFailsWhenEnclosed 测试被围住时步行段失败
func TestWalkLegFailsWhenEnclosed(t *testing.T) {
	g := walkWorld(t)
	for _, p := range []world.BlockPos{{X: 1, Y: 1, Z: 0}, {X: -1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 1}, {X: 0, Y: 1, Z: -1}} {
		for dy := 0; dy <= 2; dy++ {
			if err := g.Set(p.X, p.Y+dy, p.Z, "stone"); err != nil {
				t.Fatalf("Set: %v", err)
			}
		}
	}
	keys := input.NewKeyState()
	l := newWalkLeg(pathfind.New(pathfind.DefaultConfig(), g), keys, world.BlockPos{X: 8, Y: 1, Z: 0})

	status, _, err := walk(t, g, l, keys, mgl64.Vec3{0.5, 1, 0.5}, 50)
	if status != legFailed || !errors.Is(err, errNoPath) {
		t.Fatalf("status = %v err = %v, want no path", status, err)
	}
}

// TestRunWalkTravelUsesPathfinder 测试步行模式使用寻路
func TestRunWalkTravelUsesPathfinder(t *testing.T) {
	g := walkWorld(t)
	keys := input.NewKeyState()
	cfg := testConfig()
	cfg.Travel = TravelWalk
	o := New(cfg, Deps{
		World:   g,
		Keys:    keys,
		Clock:   &fakeClock{},
		Walker:  pathfind.New(pathfind.DefaultConfig(), g),
		Targets: waypoint.NewStore([]waypoint.Waypoint{waypoint.NewXZ(6, 0)}),
	})
	if err := o.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	state := physics.NewState(mgl64.Vec3{0.5, 1, 0.5}, false)
	state.OnGround = true
	for i := 0; i < 400 && o.State() != StateSearchingContainer && o.State() != StateExiting; i++ {
		obs := nav.Observation{Present: true, Position: state.Position, OnGround: state.OnGround}
		if err := o.Tick(obs); err != nil {
			t.Fatalf("Tick: %v", err)
		}
		physics.Tick(&state, physics.Input{Keys: keys.Down(), Yaw: keys.Yaw()}, g)
	}
	if o.State() != StateSearchingContainer && o.State() != StateExiting {
		t.Fatalf("state = %s at %v, want the target reached", o.State(), state.Position)
	}
	if d := world.HorizontalDist(state.Position, mgl64.Vec3{6.5, 1, 0.5}); d > 1.5 {
		t.Fatalf("stopped %.2f blocks from the target", d)
	}
}
