package render

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/input"
	"github.com/Versifine/autofly/internal/nav"
	"github.com/Versifine/autofly/internal/waypoint"
	"github.com/Versifine/autofly/internal/world"
)

type recorder struct {
	paths [][]mgl64.Vec3
	lines []Color
	to    mgl64.Vec3
}

func (r *recorder) DrawPathPreview(points []mgl64.Vec3) { r.paths = append(r.paths, points) }

func (r *recorder) DrawLineToGoal(_, to mgl64.Vec3, color Color) {
	r.lines = append(r.lines, color)
	r.to = to
}

func steeringStatus() nav.Status {
	return nav.Status{
		Enabled:     true,
		Mode:        nav.ModeSteering,
		Vertical:    nav.VerticalDescend,
		Target:      waypoint.New(0, 64, 0),
		HasTarget:   true,
		Position:    mgl64.Vec3{0.5, 90, 20.5},
		Goal:        mgl64.Vec3{0.5, 64, 0.5},
		DistHoriz:   20,
		DesiredY:    64,
		HasDesiredY: true,
		Keys:        input.SetOf(input.KeyForward, input.KeySneak),
	}
}

func TestOverlay(t *testing.T) {
	tests := []struct {
		name      string
		status    func() nav.Status
		wantPaths int
		wantLine  Color
		wantTo    mgl64.Vec3
	}{
		{
			name:     "steering draws goal line",
			status:   steeringStatus,
			wantLine: ColorSteering,
			wantTo:   mgl64.Vec3{0.5, 64, 0.5},
		},
		{
			name: "recovery draws path",
			status: func() nav.Status {
				st := steeringStatus()
				st.Mode = nav.ModeRecovery
				st.RecoveryPath = []world.BlockPos{{X: 0, Y: 64, Z: 0}, {X: 1, Y: 64, Z: 0}}
				return st
			},
			wantPaths: 1,
			wantLine:  ColorRecovery,
			wantTo:    mgl64.Vec3{0.5, 64, 0.5},
		},
		{
			name: "missing goal falls back to target",
			status: func() nav.Status {
				st := steeringStatus()
				st.Goal = mgl64.Vec3{}
				st.Target = waypoint.New(3, 70, -2)
				return st
			},
			wantLine: ColorSteering,
			wantTo:   mgl64.Vec3{3.5, 70, -1.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			Overlay(r, tt.status())
			if len(r.paths) != tt.wantPaths {
				t.Fatalf("paths = %d, want %d", len(r.paths), tt.wantPaths)
			}
			if len(r.lines) != 1 || r.lines[0] != tt.wantLine {
				t.Fatalf("lines = %v, want [%s]", r.lines, tt.wantLine)
			}
			if r.to != tt.wantTo {
				t.Fatalf("goal = %v, want %v", r.to, tt.wantTo)
			}
		})
	}
}

func TestOverlayDisabledDrawsNothing(t *testing.T) {
	r := &recorder{}
	st := steeringStatus()
	st.Enabled = false
	Overlay(r, st)
	Overlay(nil, st)
	if len(r.paths) != 0 || len(r.lines) != 0 {
		t.Fatalf("drew while disabled: %+v", r)
	}
}

func TestMultiSkipsNil(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Overlay(Multi(a, nil, b), steeringStatus())
	if len(a.lines) != 1 || len(b.lines) != 1 {
		t.Fatalf("fan out failed: a=%d b=%d", len(a.lines), len(b.lines))
	}
}

func TestTerminalFlushOverwritesLine(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	st := steeringStatus()
	Overlay(term, st)
	if err := term.Flush(st); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	first := buf.String()
	for _, want := range []string{"\r[", "STEERING", "TGT:0 64 0", "V:descend Y*:64.0", "KEYS:FORWARD+SNEAK", "GOAL:0.5,64.0,0.5"} {
		if !strings.Contains(first, want) {
			t.Fatalf("line %q missing %q", first, want)
		}
	}

	buf.Reset()
	st.Enabled = false
	if err := term.Flush(st); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	second := buf.String()
	if !strings.HasPrefix(second, "\r[autofly off]") {
		t.Fatalf("second line = %q", second)
	}
	if len(second) != len(first) {
		t.Fatalf("shorter line not padded: %d vs %d", len(second), len(first))
	}
}

func TestTraceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace", "flight.jsonl.zst")
	tr, err := NewTrace(path)
	if err != nil {
		t.Fatalf("NewTrace: %v", err)
	}

	st := steeringStatus()
	st.Mode = nav.ModeRecovery
	st.RecoveryPath = []world.BlockPos{{X: 1, Y: 64, Z: 1}}
	Overlay(tr, st)
	if err := tr.Record(st); err != nil {
		t.Fatalf("Record: %v", err)
	}
	st.Enabled = false
	if err := tr.Record(st); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tr.Record(st); err == nil {
		t.Fatal("Record after Close should fail")
	}

	entries, err := ReadTrace(path)
	if err != nil {
		t.Fatalf("ReadTrace: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	first := entries[0]
	if first.Tick != 0 || first.Mode != "stuck_recovery" || first.Keys != "FORWARD+SNEAK" {
		t.Fatalf("first = %+v", first)
	}
	if len(first.Path) != 1 || first.Path[0] != (TracePoint{1.5, 64, 1.5}) {
		t.Fatalf("path = %v", first.Path)
	}
	if first.Goal == nil || first.Goal.Color != ColorRecovery {
		t.Fatalf("goal = %+v", first.Goal)
	}
	if first.Target == nil || *first.Target != [3]int{0, 64, 0} || first.DesiredY == nil || *first.DesiredY != 64 {
		t.Fatalf("target fields = %+v", first)
	}
	if second := entries[1]; second.Tick != 1 || second.Enabled || len(second.Path) != 0 || second.Goal != nil {
		t.Fatalf("draws leaked into the next tick: %+v", second)
	}
}
