package waypoint

import "sync"

// Store is the ordered waypoint list with a cursor. current is -1 when nothing is selected.
type Store struct {
	mu      sync.RWMutex
	list    []Waypoint
	current int
}

func NewStore(list []Waypoint) *Store {
	s := &Store{current: -1}
	s.Load(list)
	return s
}

// Load replaces the list wholesale and invalidates the cursor.
func (s *Store) Load(list []Waypoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append([]Waypoint(nil), list...)
	s.current = -1
}

// Append adds waypoints after the existing ones, keeping the cursor.
func (s *Store) Append(list []Waypoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, list...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

func (s *Store) Waypoints() []Waypoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Waypoint(nil), s.list...)
}

func (s *Store) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Current() (Waypoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current < 0 || s.current >= len(s.list) {
		return Waypoint{}, false
	}
	return s.list[s.current], true
}

// SelectNext scans forward from the cursor, wrapping around when wrap is set,
// and skips entries matching skip. Exhaustion clears the cursor.
func (s *Store) SelectNext(skip func(Waypoint) bool, wrap bool) (Waypoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.list)
	if n == 0 {
		s.current = -1
		return Waypoint{}, false
	}

	start := s.current + 1
	steps := n - start
	if wrap {
		steps = n
	}
	for i := 0; i < steps; i++ {
		idx := (start + i) % n
		w := s.list[idx]
		if skip != nil && skip(w) {
			continue
		}
		s.current = idx
		return w, true
	}
	s.current = -1
	return Waypoint{}, false
}

// SelectAt moves the cursor to index, wrapping out-of-range values.
func (s *Store) SelectAt(index int) (Waypoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.list)
	if n == 0 {
		s.current = -1
		return Waypoint{}, false
	}
	s.current = ((index % n) + n) % n
	return s.list[s.current], true
}

func (s *Store) SelectPrevious() (Waypoint, bool) {
	s.mu.RLock()
	idx := s.current - 1
	if s.current < 0 {
		idx = len(s.list) - 1
	}
	s.mu.RUnlock()
	return s.SelectAt(idx)
}
