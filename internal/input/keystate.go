package input

import "sync"

// KeyState is an Actuator that records key state for a movement simulation to consume.
// Reads may come from a render goroutine, so access is guarded.
type KeyState struct {
	mu   sync.RWMutex
	down Set
	yaw  float32
}

func NewKeyState() *KeyState {
	return &KeyState{}
}

func (s *KeyState) SetKey(k Key, down bool) {
	s.mu.Lock()
	if down {
		s.down = s.down.With(k)
	} else {
		s.down = s.down.Without(k)
	}
	s.mu.Unlock()
}

func (s *KeyState) SetYaw(yaw float32) {
	s.mu.Lock()
	s.yaw = yaw
	s.mu.Unlock()
}

func (s *KeyState) Down() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.down
}

func (s *KeyState) Yaw() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.yaw
}

// Tracker wraps an Actuator and remembers which keys were pressed through it,
// so callers can tell their own presses apart from a human's.
type Tracker struct {
	next Actuator
	held Set
}

func NewTracker(next Actuator) *Tracker {
	return &Tracker{next: next}
}

func (t *Tracker) SetKey(k Key, down bool) {
	if down {
		t.held = t.held.With(k)
	} else {
		t.held = t.held.Without(k)
	}
	if t.next != nil {
		t.next.SetKey(k, down)
	}
}

func (t *Tracker) SetYaw(yaw float32) {
	if t.next != nil {
		t.next.SetYaw(yaw)
	}
}

func (t *Tracker) Held() Set {
	return t.held
}
