package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/klauspost/compress/zstd"

	"github.com/Versifine/autofly/internal/nav"
)

type TracePoint [3]float64

func pointOf(v mgl64.Vec3) TracePoint { return TracePoint{v.X(), v.Y(), v.Z()} }

type TraceLine struct {
	From  TracePoint `json:"from"`
	To    TracePoint `json:"to"`
	Color Color      `json:"color"`
}

// TraceEntry is one line of a flight trace.
type TraceEntry struct {
	Tick     int          `json:"tick"`
	Enabled  bool         `json:"enabled"`
	Mode     string       `json:"mode"`
	Vertical string       `json:"vertical"`
	Latched  bool         `json:"latched,omitempty"`
	Pos      TracePoint   `json:"pos"`
	Target   *[3]int      `json:"target,omitempty"`
	Dist     float64      `json:"dist"`
	DesiredY *float64     `json:"desired_y,omitempty"`
	Keys     string       `json:"keys"`
	Path     []TracePoint `json:"path,omitempty"`
	Goal     *TraceLine   `json:"goal,omitempty"`
	Repaths  int          `json:"repaths,omitempty"`
}

// Trace writes one zstd-compressed JSON line per recorded tick.
type Trace struct {
	mu   sync.Mutex
	f    *os.File
	enc  *zstd.Encoder
	w    *bufio.Writer
	tick int

	path []TracePoint
	goal *TraceLine
}

func NewTrace(path string) (*Trace, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Trace{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

func (t *Trace) DrawPathPreview(points []mgl64.Vec3) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.path = t.path[:0]
	for _, p := range points {
		t.path = append(t.path, pointOf(p))
	}
}

func (t *Trace) DrawLineToGoal(from, to mgl64.Vec3, color Color) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.goal = &TraceLine{From: pointOf(from), To: pointOf(to), Color: color}
}

// Record writes st together with whatever was drawn since the last call.
func (t *Trace) Record(st nav.Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil {
		return os.ErrClosed
	}

	entry := TraceEntry{
		Tick:     t.tick,
		Enabled:  st.Enabled,
		Mode:     st.Mode.String(),
		Vertical: st.Vertical.String(),
		Latched:  st.Latched,
		Pos:      pointOf(st.Position),
		Dist:     st.DistHoriz,
		Keys:     st.Keys.String(),
		Goal:     t.goal,
		Repaths:  st.Repaths,
	}
	if len(t.path) > 0 {
		entry.Path = append([]TracePoint(nil), t.path...)
	}
	if st.HasTarget {
		entry.Target = &[3]int{st.Target.X, st.Target.Y, st.Target.Z}
	}
	if st.HasDesiredY {
		y := st.DesiredY
		entry.DesiredY = &y
	}
	t.tick++
	t.path = t.path[:0]
	t.goal = nil

	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := t.w.Write(b); err != nil {
		return err
	}
	return t.w.WriteByte('\n')
}

func (t *Trace) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil {
		return nil
	}
	err := t.w.Flush()
	if cerr := t.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := t.f.Close(); err == nil {
		err = cerr
	}
	t.w, t.enc, t.f = nil, nil, nil
	return err
}

// ReadTrace decodes a trace written by Trace.
func ReadTrace(path string) ([]TraceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var out []TraceEntry
	for sc.Scan() {
		var entry TraceEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", filepath.Base(path), len(out)+1, err)
		}
		out = append(out, entry)
	}
	return out, sc.Err()
}
