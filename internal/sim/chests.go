package sim

import (
	"sync"

	"github.com/Versifine/autofly/internal/world"
)

// reach is how close the player must be to open a container.
const reach = 5.0

// Chests is a container GUI over the host's world. Every container starts
// with the same number of stacks and one stack moves per loot step.
type Chests struct {
	host      *Host
	stacks    int
	openDelay int

	mu      sync.Mutex
	left    map[world.BlockPos]int
	open    world.BlockPos
	pending bool
	waited  int
	isOpen  bool
	looted  int
	opens   int
}

func NewChests(host *Host, stacks, openDelay int) *Chests {
	return &Chests{
		host:      host,
		stacks:    stacks,
		openDelay: openDelay,
		left:      make(map[world.BlockPos]int),
	}
}

func (c *Chests) Open(pos world.BlockPos) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !world.IsContainerID(c.host.World().Block(pos.X, pos.Y, pos.Z)) {
		return false
	}
	if c.host.Position().Sub(pos.Center()).Len() > reach {
		return false
	}
	if _, seen := c.left[pos]; !seen {
		c.left[pos] = c.stacks
	}
	c.open = pos
	c.pending = true
	c.waited = 0
	c.isOpen = false
	c.opens++
	return true
}

func (c *Chests) Opened() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending {
		return c.isOpen
	}
	c.waited++
	if c.waited >= c.openDelay {
		c.pending = false
		c.isOpen = true
	}
	return c.isOpen
}

func (c *Chests) LootStep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isOpen {
		return false
	}
	if c.left[c.open] > 0 {
		c.left[c.open]--
		c.looted++
	}
	return c.left[c.open] == 0
}

func (c *Chests) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	c.isOpen = false
}

// Looted is the number of stacks taken so far.
func (c *Chests) Looted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.looted
}

func (c *Chests) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}
