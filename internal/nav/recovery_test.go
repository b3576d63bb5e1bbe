package nav

import (
	"testing"

	"github.com/Versifine/autofly/internal/event"
	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/waypoint"
	"github.com/Versifine/autofly/internal/world"
)

// roofedHarness puts the player on a floor under a 11x11 roof, with open sky
// beyond it, and targets a point far to the south.
func roofedHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, testConfig())
	h.fill(t, world.BlockPos{X: -20, Y: 63, Z: -20}, world.BlockPos{X: 20, Y: 63, Z: 40}, "stone")
	h.fill(t, world.BlockPos{X: -5, Y: 67, Z: -5}, world.BlockPos{X: 5, Y: 67, Z: 5}, "stone")
	h.nav.SetTarget(waypoint.New(0, 64, 60))
	if err := h.nav.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	return h
}

func countPhase(events []event.RecoveryEvent, phase event.RecoveryPhase) int {
	n := 0
	for _, e := range events {
		if e.Phase == phase {
			n++
		}
	}
	return n
}

// TestStuckEscalatesOnceWithOpenSky 测试头顶开阔时卡住只升级一次并进入爬升
func TestStuckEscalatesOnceWithOpenSky(t *testing.T) {
	h := newHarness(t, testConfig())
	h.nav.SetTarget(waypoint.New(0, 100, 60))
	if err := h.nav.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	for i := 0; i < 39; i++ {
		h.tick(at(0.5, 100, 0.5))
	}
	if len(h.recovery) != 0 {
		t.Fatalf("escalated after %d ticks, before the stall window", 39)
	}
	for i := 0; i < 21; i++ {
		h.tick(at(0.5, 100, 0.5))
	}
	if len(h.recovery) != 1 || h.recovery[0].Phase != event.RecoveryClimb {
		t.Fatalf("recovery events = %+v, want exactly one climb", h.recovery)
	}
	if h.nav.Mode() != ModeClimb {
		t.Fatalf("mode = %v, want climb", h.nav.Mode())
	}
	if h.keys.down != input.SetOf(input.KeyJump) {
		t.Fatalf("keys during climb = %s, want JUMP only", h.keys.down)
	}
}

// TestClimbEndsAtTargetHeight 测试爬升到目标高度后结束
func TestClimbEndsAtTargetHeight(t *testing.T) {
	h := newHarness(t, testConfig())
	h.nav.SetTarget(waypoint.New(0, 100, 60))
	if err := h.nav.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	for i := 0; i < 41; i++ {
		h.tick(at(0.5, 100, 0.5))
	}
	if h.nav.Mode() != ModeClimb {
		t.Fatalf("mode = %v, want climb", h.nav.Mode())
	}
	h.tick(at(0.5, 106.5, 0.5))
	if h.nav.Mode() != ModeSteering {
		t.Fatalf("mode = %v, want steering once climb height is reached", h.nav.Mode())
	}
	if !h.keys.down.Has(input.KeyForward) {
		t.Fatalf("keys = %s, want steering to resume", h.keys.down)
	}
}

// TestStuckFallsBackToPathfinderOnce 测试爬升无效后只回退一次寻路
func TestStuckFallsBackToPathfinderOnce(t *testing.T) {
	h := roofedHarness(t)

	for i := 0; i < 200; i++ {
		h.tick(at(0.5, 64, 0.5))
	}
	if len(h.finder.begins) != 1 {
		t.Fatalf("BeginSearch calls = %d, want 1", len(h.finder.begins))
	}
	goal := h.finder.begins[0]
	if goal != (world.BlockPos{X: 0, Y: 64, Z: 12}) {
		t.Fatalf("recovery goal = %+v, want open sky straight ahead", goal)
	}
	if countPhase(h.recovery, event.RecoveryPathfind) != 1 {
		t.Fatalf("recovery events = %+v", h.recovery)
	}
	if h.nav.Mode() != ModeRecovery {
		t.Fatalf("mode = %v, want recovery", h.nav.Mode())
	}
	if h.finder.last.thinks != 159 {
		t.Fatalf("thinks = %d, want one per tick after hand-off", h.finder.last.thinks)
	}
	assertAllUp(t, h.keys)
}

// TestRecoveryGoalUsesLookPerpendicularWhenAheadBlocked 测试前方被堵时绕行目标取视线的垂直方向
func TestRecoveryGoalUsesLookPerpendicularWhenAheadBlocked(t *testing.T) {
	h := newHarness(t, testConfig())
	h.fill(t, world.BlockPos{X: -20, Y: 63, Z: -20}, world.BlockPos{X: 20, Y: 63, Z: 20}, "stone")
	// Roof over everything except a strip to the player's left (+X when facing +Z).
	h.fill(t, world.BlockPos{X: -20, Y: 67, Z: -20}, world.BlockPos{X: 5, Y: 70, Z: 20}, "stone")
	h.nav.SetTarget(waypoint.New(0, 64, 100))
	if err := h.nav.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	obs := at(0.5, 64, 0.5)
	obs.Yaw = 0
	goal, ok := h.nav.recoveryGoal(obs)
	if !ok {
		t.Fatal("expected a recovery goal")
	}
	if goal.X <= 5 || goal.Z != 0 {
		t.Fatalf("goal = %+v, want a tile to the left under open sky", goal)
	}
}

// TestRecoveryExecutorDrivesThenResumes 测试寻路执行器走完路径后恢复飞行
func TestRecoveryExecutorDrivesThenResumes(t *testing.T) {
	h := roofedHarness(t)
	exec := &scriptedExecutor{doneAfter: 3, path: []world.BlockPos{{X: 0, Y: 64, Z: 0}, {X: 0, Y: 64, Z: 12}}}
	h.finder.next = func() *scriptedSearch { return &scriptedSearch{doneAfter: 2, exec: exec} }

	for i := 0; i < 41; i++ {
		h.tick(at(0.5, 64, 0.5))
	}
	if h.nav.Mode() != ModeRecovery {
		t.Fatalf("mode = %v, want recovery", h.nav.Mode())
	}
	h.tick(at(0.5, 64, 0.5))
	if exec.locked != nil {
		t.Fatal("executor locked before the search finished")
	}
	h.tick(at(0.5, 64, 0.5))
	if exec.locked == nil {
		t.Fatal("executor should lock controls once the search is done")
	}
	if len(h.nav.Snapshot().RecoveryPath) != 2 {
		t.Fatalf("snapshot path = %v", h.nav.Snapshot().RecoveryPath)
	}
	if !h.keys.down.Has(input.KeyForward) {
		t.Fatal("executor should be driving keys")
	}
	h.tick(at(0.5, 64, 0.5))
	h.tick(at(0.5, 64, 0.5))

	if !exec.released {
		t.Fatal("executor controls not released")
	}
	if h.nav.Mode() != ModeSteering {
		t.Fatalf("mode = %v, want steering after recovery", h.nav.Mode())
	}
	if countPhase(h.recovery, event.RecoveryFinished) != 1 {
		t.Fatalf("recovery events = %+v, want a finished event", h.recovery)
	}
}

// TestRecoverySearchFailureFallsBackToSteering 测试寻路失败时回到普通转向
func TestRecoverySearchFailureFallsBackToSteering(t *testing.T) {
	h := roofedHarness(t)
	h.finder.next = func() *scriptedSearch { return &scriptedSearch{fail: true} }

	for i := 0; i < 42; i++ {
		h.tick(at(0.5, 64, 0.5))
	}
	if h.nav.Mode() != ModeSteering {
		t.Fatalf("mode = %v, want steering after failed search", h.nav.Mode())
	}
	if !h.keys.down.Has(input.KeyForward) {
		t.Fatalf("keys = %s, want normal steering", h.keys.down)
	}
	if got := h.nav.Snapshot().RecoveryFailures; got != 1 {
		t.Fatalf("failures = %d, want 1", got)
	}

	for i := 0; i < 20; i++ {
		h.tick(at(0.5, 64, 0.5))
	}
	if len(h.finder.begins) != 1 {
		t.Fatalf("BeginSearch calls = %d, want 1 before the next stall window", len(h.finder.begins))
	}
}

// TestManualInputHandsOffAndResumes 测试手动输入接管后自动恢复
func TestManualInputHandsOffAndResumes(t *testing.T) {
	h := newHarness(t, testConfig())
	h.nav.SetTarget(waypoint.New(0, 80, 100))
	if err := h.nav.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	h.tick(at(0.5, 80, 0.5))

	obs := at(0.5, 80, 0.5)
	obs.Pressed = input.SetOf(input.KeyLeft)
	h.tick(obs)
	if h.nav.Mode() != ModeManual {
		t.Fatalf("mode = %v, want manual", h.nav.Mode())
	}
	assertAllUp(t, h.keys)

	for i := 0; i < 10; i++ {
		h.tick(obs)
	}
	if h.nav.Mode() != ModeManual {
		t.Fatal("hand-off should hold while input continues")
	}

	idle := at(0.5, 80.2, 0.5)
	for i := 0; i < 19; i++ {
		h.tick(idle)
	}
	if h.nav.Mode() != ModeManual {
		t.Fatal("resumed before one second without input")
	}
	h.tick(idle)
	if h.nav.Mode() != ModeSteering {
		t.Fatalf("mode = %v, want steering after idle resume", h.nav.Mode())
	}
	if !h.keys.down.Has(input.KeyForward) {
		t.Fatalf("keys = %s, want steering keys", h.keys.down)
	}
}

// TestOwnKeysAreNotManualInput 测试导航器自己按下的键不算手动输入
func TestOwnKeysAreNotManualInput(t *testing.T) {
	h := newHarness(t, testConfig())
	h.nav.SetTarget(waypoint.New(0, 80, 100))
	if err := h.nav.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	h.tick(at(0.5, 80, 0.5))

	obs := at(0.5, 80, 0.6)
	obs.Pressed = h.keys.down
	h.tick(obs)
	if h.nav.Mode() != ModeSteering {
		t.Fatalf("mode = %v, own keys must not trigger hand-off", h.nav.Mode())
	}
}

// TestManualMovementTriggersRecovery 测试手动移动后触发恢复流程
func TestManualMovementTriggersRecovery(t *testing.T) {
	h := newHarness(t, testConfig())
	h.nav.SetTarget(waypoint.New(0, 80, 100))
	if err := h.nav.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	obs := at(0.5, 80, 0.5)
	obs.Pressed = input.SetOf(input.KeyBack)
	h.tick(obs)
	obs.Position[2] = -1.0
	h.tick(obs)

	if len(h.recovery) != 1 || h.recovery[0].Reason != "manual" {
		t.Fatalf("recovery events = %+v, want one manual escalation", h.recovery)
	}
	if h.nav.Mode() != ModeClimb {
		t.Fatalf("mode = %v, want climb under open sky", h.nav.Mode())
	}
}

// TestManualHoldExpiryForcesRecovery 测试手动按键保持超过上限后强制进入恢复
func TestManualHoldExpiryForcesRecovery(t *testing.T) {
	h := newHarness(t, testConfig())
	h.nav.SetTarget(waypoint.New(0, 80, 100))
	if err := h.nav.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	obs := at(0.5, 80, 0.5)
	obs.Pressed = input.SetOf(input.KeyJump)
	for i := 0; i < 60; i++ {
		h.tick(obs)
	}
	if len(h.recovery) != 0 {
		t.Fatalf("recovery before max hold: %+v", h.recovery)
	}
	h.tick(obs)
	if len(h.recovery) != 1 {
		t.Fatalf("recovery events = %d, want 1 after 3s hold", len(h.recovery))
	}
}

// TestManualDuringPauseDoesNotRepeatArrival 测试到达暂停期间的手动输入不会重复触发到达
func TestManualDuringPauseDoesNotRepeatArrival(t *testing.T) {
	h := newHarness(t, testConfig())
	h.nav.SetTarget(waypoint.New(0, 64, 0))
	if err := h.nav.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	h.tick(at(0.5, 64, 1.5))

	obs := at(0.5, 64, 1.5)
	obs.Pressed = input.SetOf(input.KeyForward)
	h.tick(obs)
	for i := 0; i < 30; i++ {
		h.tick(at(0.5, 64, 1.5))
	}
	if len(h.arrived) != 1 {
		t.Fatalf("arrived events = %d, want 1", len(h.arrived))
	}
	if _, ok := h.nav.Target(); ok {
		t.Fatal("single target should be cleared after the pause")
	}
	assertAllUp(t, h.keys)
}
