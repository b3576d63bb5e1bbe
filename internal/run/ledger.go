package run

import (
	"fmt"
	"strings"

	"github.com/Versifine/autofly/internal/waypoint"
)

type Status string

const (
	StatusUnknown  Status = ""
	StatusComplete Status = "complete"
	StatusMissing  Status = "missing"
)

// Key identifies a run target across sessions.
type Key struct {
	Dimension string
	X, Y, Z   int
}

func KeyFor(dimension string, wp waypoint.Waypoint) Key {
	return Key{Dimension: dimension, X: wp.X, Y: wp.Y, Z: wp.Z}
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%d,%d,%d", k.Dimension, k.X, k.Y, k.Z)
}

// Record is one ledger row as persisted.
type Record struct {
	Dimension string `json:"dimension"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Z         int    `json:"z"`
	Status    Status `json:"status"`
}

func (r Record) Key() Key {
	return Key{Dimension: r.Dimension, X: r.X, Y: r.Y, Z: r.Z}
}

// Ledger remembers what happened to each target so repeated runs skip
// finished work.
type Ledger interface {
	Status(key Key) (Status, error)
	Mark(key Key, status Status) error
	Records() ([]Record, error)
	Close() error
}

// OpenLedger opens a ledger by driver name: "json", "sqlite", or "memory".
func OpenLedger(driver, path string) (Ledger, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "memory":
		return NewMemoryLedger(), nil
	case "json":
		l, err := OpenJSONLedger(path)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "sqlite":
		l, err := OpenSQLiteLedger(path)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", driver)
	}
}
