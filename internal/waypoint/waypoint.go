// Package waypoint holds the ordered target list the navigator flies through.
package waypoint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Waypoint is a target column, optionally pinned to a Y level.
type Waypoint struct {
	X    int
	Y    int
	Z    int
	HasY bool
}

func New(x, y, z int) Waypoint { return Waypoint{X: x, Y: y, Z: z, HasY: true} }

func NewXZ(x, z int) Waypoint { return Waypoint{X: x, Z: z} }

// Center is the horizontal block center; Y is the pinned level or 0.
func (w Waypoint) Center() mgl64.Vec3 {
	return mgl64.Vec3{float64(w.X) + 0.5, float64(w.Y), float64(w.Z) + 0.5}
}

func (w Waypoint) HorizontalDist(pos mgl64.Vec3) float64 {
	dx := float64(w.X) + 0.5 - pos.X()
	dz := float64(w.Z) + 0.5 - pos.Z()
	return mgl64.Vec2{dx, dz}.Len()
}

func (w Waypoint) String() string {
	if w.HasY {
		return fmt.Sprintf("%d %d %d", w.X, w.Y, w.Z)
	}
	return fmt.Sprintf("%d %d", w.X, w.Z)
}

var (
	entrySep = regexp.MustCompile(`[\n;]+`)
	tokenSep = regexp.MustCompile(`[\s,]+`)
)

// ParseText reads "x z" or "x y z" entries separated by ';' or newlines.
// Malformed entries are dropped.
func ParseText(text string) []Waypoint {
	var out []Waypoint
	for _, entry := range entrySep.Split(text, -1) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		tokens := tokenSep.Split(entry, -1)
		nums := make([]int, 0, len(tokens))
		ok := true
		for _, tok := range tokens {
			if tok == "" {
				continue
			}
			n, err := strconv.Atoi(tok)
			if err != nil {
				ok = false
				break
			}
			nums = append(nums, n)
		}
		if !ok {
			continue
		}
		switch len(nums) {
		case 2:
			out = append(out, NewXZ(nums[0], nums[1]))
		case 3:
			out = append(out, New(nums[0], nums[1], nums[2]))
		}
	}
	return out
}

// FormatText is the inverse of ParseText.
func FormatText(list []Waypoint) string {
	parts := make([]string, len(list))
	for i, w := range list {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}

// ReachedWithin builds a skip predicate for waypoints already within radius of pos.
func ReachedWithin(pos mgl64.Vec3, radius float64) func(Waypoint) bool {
	return func(w Waypoint) bool {
		return w.HorizontalDist(pos) <= radius
	}
}
