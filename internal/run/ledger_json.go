package run

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/elliotchance/orderedmap/v2"
)

// JSONLedger keeps records in first-seen order and rewrites the whole array
// on every Mark. An empty path keeps everything in memory.
type JSONLedger struct {
	mu      sync.Mutex
	path    string
	records *orderedmap.OrderedMap[Key, Record]
}

func NewMemoryLedger() *JSONLedger {
	return &JSONLedger{records: orderedmap.NewOrderedMap[Key, Record]()}
}

// OpenJSONLedger loads path if it exists. Later duplicates of a key win, so
// hand-appended records are honoured.
func OpenJSONLedger(path string) (*JSONLedger, error) {
	if path == "" {
		return nil, errors.New("empty ledger path")
	}
	l := &JSONLedger{path: path, records: orderedmap.NewOrderedMap[Key, Record]()}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(data) == 0 {
		return l, nil
	}
	var list []Record
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	for _, r := range list {
		l.records.Set(r.Key(), r)
	}
	return l, nil
}

func (l *JSONLedger) Status(key Key) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.records.Get(key)
	if !ok {
		return StatusUnknown, nil
	}
	return r.Status, nil
}

func (l *JSONLedger) Mark(key Key, status Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records.Set(key, Record{Dimension: key.Dimension, X: key.X, Y: key.Y, Z: key.Z, Status: status})
	return l.flushLocked()
}

func (l *JSONLedger) Records() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listLocked(), nil
}

func (l *JSONLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushLocked()
}

func (l *JSONLedger) listLocked() []Record {
	out := make([]Record, 0, l.records.Len())
	for el := l.records.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

func (l *JSONLedger) flushLocked() error {
	if l.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(l.listLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
