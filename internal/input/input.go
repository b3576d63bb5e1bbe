// Package input models the six synthetic movement keys the navigator drives.
package input

import "strings"

type Key uint8

const (
	KeyForward Key = iota
	KeyBack
	KeyLeft
	KeyRight
	KeyJump
	KeySneak
)

// AllKeys lists every key the navigator may hold.
var AllKeys = [...]Key{KeyForward, KeyBack, KeyLeft, KeyRight, KeyJump, KeySneak}

func (k Key) String() string {
	switch k {
	case KeyForward:
		return "FORWARD"
	case KeyBack:
		return "BACK"
	case KeyLeft:
		return "LEFT"
	case KeyRight:
		return "RIGHT"
	case KeyJump:
		return "JUMP"
	case KeySneak:
		return "SNEAK"
	default:
		return "UNKNOWN"
	}
}

// Set is a bitmask of keys.
type Set uint8

func SetOf(keys ...Key) Set {
	var s Set
	for _, k := range keys {
		s = s.With(k)
	}
	return s
}

func (s Set) Has(k Key) bool    { return s&(1<<k) != 0 }
func (s Set) With(k Key) Set    { return s | 1<<k }
func (s Set) Without(k Key) Set { return s &^ (1 << k) }
func (s Set) Empty() bool       { return s == 0 }

func (s Set) String() string {
	if s.Empty() {
		return "-"
	}
	parts := make([]string, 0, len(AllKeys))
	for _, k := range AllKeys {
		if s.Has(k) {
			parts = append(parts, k.String())
		}
	}
	return strings.Join(parts, "+")
}

// Actuator is the host hook that turns synthetic key state into movement.
type Actuator interface {
	SetKey(k Key, down bool)
	SetYaw(yaw float32)
}

// ReleaseAll puts every key in the up state.
func ReleaseAll(a Actuator) {
	if a == nil {
		return
	}
	for _, k := range AllKeys {
		a.SetKey(k, false)
	}
}

// Apply writes the full desired key state, pressing keys in want and releasing the rest.
func Apply(a Actuator, want Set) {
	if a == nil {
		return
	}
	for _, k := range AllKeys {
		a.SetKey(k, want.Has(k))
	}
}
