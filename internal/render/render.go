// Package render draws read-only views of navigator state: a terminal status
// line and a compressed per-tick trace.
package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/autofly/internal/nav"
)

// Color is an ANSI 256 colour code, as lipgloss accepts it.
type Color string

const (
	ColorIdle     Color = "241"
	ColorSteering Color = "42"
	ColorManual   Color = "214"
	ColorPause    Color = "39"
	ColorRecovery Color = "196"
	ColorClimb    Color = "205"
)

type Renderer interface {
	DrawPathPreview(points []mgl64.Vec3)
	DrawLineToGoal(from, to mgl64.Vec3, color Color)
}

func ModeColor(m nav.ModeKind) Color {
	switch m {
	case nav.ModeSteering:
		return ColorSteering
	case nav.ModeManual:
		return ColorManual
	case nav.ModePause:
		return ColorPause
	case nav.ModeRecovery:
		return ColorRecovery
	case nav.ModeClimb:
		return ColorClimb
	default:
		return ColorIdle
	}
}

// Overlay draws the recovery path and the line to the goal from a snapshot.
func Overlay(r Renderer, st nav.Status) {
	if r == nil || !st.Enabled {
		return
	}
	if len(st.RecoveryPath) > 0 {
		points := make([]mgl64.Vec3, 0, len(st.RecoveryPath))
		for _, p := range st.RecoveryPath {
			points = append(points, p.Center())
		}
		r.DrawPathPreview(points)
	}
	if st.HasTarget {
		goal := st.Goal
		if goal == (mgl64.Vec3{}) {
			goal = st.Target.Center()
		}
		r.DrawLineToGoal(st.Position, goal, ModeColor(st.Mode))
	}
}

type multi []Renderer

// Multi fans draw calls out to every non-nil renderer.
func Multi(rs ...Renderer) Renderer {
	out := make(multi, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) DrawPathPreview(points []mgl64.Vec3) {
	for _, r := range m {
		r.DrawPathPreview(points)
	}
}

func (m multi) DrawLineToGoal(from, to mgl64.Vec3, color Color) {
	for _, r := range m {
		r.DrawLineToGoal(from, to, color)
	}
}
