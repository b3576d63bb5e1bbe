// Package pathfind is an incremental block-level A* used to walk or hover
// around obstacles the flight navigator cannot clear on its own.
package pathfind

import (
	"container/heap"

	"github.com/Versifine/autofly/internal/world"
)

const (
	defaultMaxPathDist = 64
	maxDropHeight      = 3
)

type PathResult struct {
	Path     []world.BlockPos
	Complete bool
}

// FindPath runs a search to completion. Use Search for tick-bounded work.
func FindPath(from, to world.BlockPos, blocks world.Query, maxDist int) PathResult {
	s := newSearch(from, to, blocks, Config{MaxDistance: maxDist, NodesPerThink: 1 << 30})
	for !s.finished {
		s.Think()
	}
	return s.result
}

// search holds resumable A* state. Think expands at most NodesPerThink nodes.
type search struct {
	blocks   world.Query
	cfg      Config
	start    world.BlockPos
	goal     world.BlockPos
	open     nodeQueue
	cameFrom map[world.BlockPos]world.BlockPos
	gScore   map[world.BlockPos]int
	closed   map[world.BlockPos]struct{}
	best     world.BlockPos
	bestH    int
	expanded int

	finished bool
	result   PathResult
}

func newSearch(from, to world.BlockPos, blocks world.Query, cfg Config) *search {
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = defaultMaxPathDist
	}
	if cfg.NodesPerThink <= 0 {
		cfg.NodesPerThink = DefaultConfig().NodesPerThink
	}
	s := &search{blocks: blocks, cfg: cfg}
	if blocks == nil {
		s.finished = true
		return s
	}

	start, ok := world.NormalizeStandable(blocks, from)
	if !ok {
		s.finished = true
		return s
	}
	goal, ok := world.NormalizeStandable(blocks, to)
	if !ok {
		goal, ok = nearestStandable(to, start, blocks)
	}
	if !ok {
		s.finished = true
		return s
	}
	s.start = start
	s.goal = goal
	if start == goal {
		s.finish(PathResult{Path: []world.BlockPos{start}, Complete: true})
		return s
	}

	heap.Init(&s.open)
	heap.Push(&s.open, node{Pos: start, G: 0, F: heuristic(start, goal)})
	s.cameFrom = make(map[world.BlockPos]world.BlockPos)
	s.gScore = map[world.BlockPos]int{start: 0}
	s.closed = make(map[world.BlockPos]struct{})
	s.best = start
	s.bestH = heuristic(start, goal)
	return s
}

func (s *search) finish(r PathResult) {
	s.finished = true
	s.result = r
}

func (s *search) Think() {
	if s.finished {
		return
	}
	for budget := s.cfg.NodesPerThink; budget > 0; budget-- {
		if s.open.Len() == 0 || (s.cfg.MaxNodes > 0 && s.expanded >= s.cfg.MaxNodes) {
			s.finishPartial()
			return
		}
		current := heap.Pop(&s.open).(node)
		if _, seen := s.closed[current.Pos]; seen {
			continue
		}
		s.closed[current.Pos] = struct{}{}
		s.expanded++

		if current.Pos == s.goal {
			s.finish(PathResult{Path: reconstructPath(s.cameFrom, s.start, s.goal), Complete: true})
			return
		}

		h := heuristic(current.Pos, s.goal)
		if h < s.bestH || (h == s.bestH && s.gScore[current.Pos] < s.gScore[s.best]) {
			s.best = current.Pos
			s.bestH = h
		}

		for _, next := range neighbors(current.Pos, s.blocks) {
			if !withinRadius(s.start, next, s.cfg.MaxDistance) {
				continue
			}
			if _, seen := s.closed[next]; seen {
				continue
			}
			tentative := s.gScore[current.Pos] + moveCost(current.Pos, next)
			if prev, known := s.gScore[next]; known && tentative >= prev {
				continue
			}
			s.cameFrom[next] = current.Pos
			s.gScore[next] = tentative
			heap.Push(&s.open, node{Pos: next, G: tentative, F: tentative + heuristic(next, s.goal)})
		}
	}
}

// finishPartial ends the search with the path to the node closest to the goal.
func (s *search) finishPartial() {
	if s.best == s.start {
		s.finish(PathResult{})
		return
	}
	s.finish(PathResult{Path: reconstructPath(s.cameFrom, s.start, s.best)})
}

func nearestStandable(target, from world.BlockPos, blocks world.Query) (world.BlockPos, bool) {
	best := world.BlockPos{}
	bestDist := 0
	found := false
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			for dz := -2; dz <= 2; dz++ {
				candidate := target.Add(dx, dy, dz)
				if !world.Standable(blocks, candidate) {
					continue
				}
				if d := world.SqDist(candidate, from); !found || d < bestDist {
					best = candidate
					bestDist = d
					found = true
				}
			}
		}
	}
	return best, found
}

func neighbors(pos world.BlockPos, blocks world.Query) []world.BlockPos {
	dirs := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	out := make([]world.BlockPos, 0, 4)

	for _, d := range dirs {
		flat := pos.Add(d[0], 0, d[1])
		if world.Standable(blocks, flat) {
			out = append(out, flat)
			continue
		}
		// stepping up needs headroom above the current tile
		up := pos.Add(d[0], 1, d[1])
		if world.Standable(blocks, up) && world.Passable(blocks, pos.X, pos.Y+2, pos.Z) {
			out = append(out, up)
			continue
		}
		for drop := 1; drop <= maxDropHeight; drop++ {
			down := pos.Add(d[0], -drop, d[1])
			if !world.Standable(blocks, down) {
				continue
			}
			if canDropTo(flat.X, pos.Y, flat.Z, down.Y, blocks) {
				out = append(out, down)
				break
			}
		}
	}
	return out
}

func canDropTo(x, fromY, z, toY int, blocks world.Query) bool {
	for y := fromY + 1; y >= toY+1; y-- {
		if !world.Passable(blocks, x, y, z) {
			return false
		}
	}
	return true
}

func withinRadius(origin, pos world.BlockPos, maxDist int) bool {
	dx := abs(pos.X - origin.X)
	dy := abs(pos.Y - origin.Y)
	dz := abs(pos.Z - origin.Z)
	return max(dx, dy, dz) <= maxDist
}

func reconstructPath(cameFrom map[world.BlockPos]world.BlockPos, start, goal world.BlockPos) []world.BlockPos {
	path := []world.BlockPos{goal}
	for cur := goal; cur != start; {
		prev, ok := cameFrom[cur]
		if !ok {
			return nil
		}
		path = append(path, prev)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func heuristic(a, b world.BlockPos) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)*2 + abs(a.Z-b.Z)
}

func moveCost(a, b world.BlockPos) int {
	base := 10
	if b.Y > a.Y {
		return base + 8
	}
	if b.Y < a.Y {
		return base + 4
	}
	return base
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type node struct {
	Pos   world.BlockPos
	G     int
	F     int
	index int
}

type nodeQueue []node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].F == q[j].F {
		return q[i].G < q[j].G
	}
	return q[i].F < q[j].F
}

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	n := x.(node)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
