package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/term"

	"github.com/Versifine/autofly/internal/nav"
)

// Terminal keeps a single status line up to date on a terminal. Draw calls
// are buffered until the next Flush.
type Terminal struct {
	out   io.Writer
	color bool
	cols  int

	mu          sync.Mutex
	statusWidth int
	path        []mgl64.Vec3
	goal        mgl64.Vec3
	goalColor   Color
	hasGoal     bool
}

func NewTerminal(out io.Writer) *Terminal {
	t := &Terminal{out: out}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.color = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			t.cols = w
		}
	}
	return t
}

func (t *Terminal) DrawPathPreview(points []mgl64.Vec3) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.path = append(t.path[:0], points...)
}

func (t *Terminal) DrawLineToGoal(_, to mgl64.Vec3, color Color) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.goal = to
	t.goalColor = color
	t.hasGoal = true
}

// Line formats the status line for st without writing it.
func (t *Terminal) Line(st nav.Status) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lineLocked(st)
}

func (t *Terminal) lineLocked(st nav.Status) string {
	if !st.Enabled {
		return t.paint("[autofly off]", ColorIdle)
	}

	mode := t.paint(strings.ToUpper(st.Mode.String()), ModeColor(st.Mode))
	parts := []string{
		mode,
		fmt.Sprintf("X:%.1f Y:%.1f Z:%.1f", st.Position.X(), st.Position.Y(), st.Position.Z()),
	}
	if st.HasTarget {
		parts = append(parts, fmt.Sprintf("TGT:%s DIST:%.1f", st.Target, st.DistHoriz))
	}
	vert := "V:" + st.Vertical.String()
	if st.HasDesiredY {
		vert += fmt.Sprintf(" Y*:%.1f", st.DesiredY)
	}
	if st.Latched {
		vert += " latched"
	}
	parts = append(parts, vert, "KEYS:"+st.Keys.String())
	if t.hasGoal {
		parts = append(parts, t.paint(fmt.Sprintf("GOAL:%.1f,%.1f,%.1f", t.goal.X(), t.goal.Y(), t.goal.Z()), t.goalColor))
	}
	if len(t.path) > 0 {
		parts = append(parts, t.paint(fmt.Sprintf("PATH:%d", len(t.path)), ColorRecovery))
	}
	if st.Repaths > 0 || st.RecoveryFailures > 0 {
		parts = append(parts, fmt.Sprintf("REPATH:%d FAIL:%d", st.Repaths, st.RecoveryFailures))
	}

	line := "[" + strings.Join(parts, " | ") + "]"
	if t.cols > 0 && lipgloss.Width(line) > t.cols {
		line = lipgloss.NewStyle().MaxWidth(t.cols).Render(line)
	}
	return line
}

func (t *Terminal) paint(s string, c Color) string {
	if !t.color {
		return s
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(string(c))).Bold(true).Render(s)
}

// Flush rewrites the status line in place and clears buffered draws.
func (t *Terminal) Flush(st nav.Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := t.lineLocked(st)
	width := lipgloss.Width(line)
	padding := ""
	if t.statusWidth > width {
		padding = strings.Repeat(" ", t.statusWidth-width)
	}
	if width > t.statusWidth {
		t.statusWidth = width
	}
	t.path = t.path[:0]
	t.hasGoal = false

	_, err := fmt.Fprintf(t.out, "\r%s%s", line, padding)
	return err
}
