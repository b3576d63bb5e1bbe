package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type Config struct {
	Level  string
	Format string // "text", "json", "console"
	Output io.Writer
	// File, when set, receives a copy of every record in addition to Output.
	File string
	// Color is "auto", "always" or "never".
	Color string
}

var (
	once   sync.Once
	lg     *slog.Logger
	closer io.Closer
)

// Init installs the process-wide logger. Only the first call has effect.
func Init(cfg Config) error {
	var initErr error
	once.Do(func() {
		l, c, err := New(cfg)
		if err != nil {
			initErr = err
			l, c, _ = New(Config{Level: cfg.Level, Format: cfg.Format, Output: cfg.Output, Color: cfg.Color})
		}
		lg = l
		closer = c
		slog.SetDefault(lg)
	})
	return initErr
}

// New builds a logger without touching the process default.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	level := parseLevel(cfg.Level)

	out := cfg.Output
	var file *os.File
	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nopCloser{}, fmt.Errorf("create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		file = f
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(withFile(out, file), &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(withFile(out, file), &slog.HandlerOptions{Level: level})
	default:
		h := &consoleHandler{w: out, level: level, color: useColor(cfg.Color, out), mu: &sync.Mutex{}}
		if file != nil {
			h.mirror = file
		}
		handler = h
	}
	if file != nil {
		return slog.New(handler), file, nil
	}
	return slog.New(handler), nopCloser{}, nil
}

func L() *slog.Logger {
	if lg == nil {
		_ = Init(Config{Level: "debug", Format: "console"})
	}
	return lg
}

// Component returns the default logger tagged with a component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

// Close flushes and closes the log file opened by Init, if any.
func Close() error {
	if closer == nil {
		return nil
	}
	return closer.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func withFile(out io.Writer, file *os.File) io.Writer {
	if file == nil {
		return out
	}
	return io.MultiWriter(out, file)
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func parseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var levelStyles = map[string]lipgloss.Style{
	"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	"WARN ": lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	"INFO ": lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
}

// consoleHandler outputs human-friendly log lines:
//
//	12:00:00 INFO  navigator enabled  component=nav target=(0, 64, 0)
type consoleHandler struct {
	w      io.Writer
	mirror io.Writer
	color  bool
	level  slog.Level
	attrs  []slog.Attr
	group  string
	mu     *sync.Mutex
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.Format(time.TimeOnly) // "15:04:05"
	lvl := levelTag(r.Level)

	var body string
	for _, a := range h.attrs {
		body += formatAttr("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		body += formatAttr(h.group, a)
		return true
	})

	plain := fmt.Sprintf("%s %s %s%s\n", ts, lvl, r.Message, body)
	line := plain
	if h.color {
		line = fmt.Sprintf("%s %s %s%s\n", ts, levelStyles[lvl].Render(lvl), r.Message, body)
	}

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}
	if _, err := fmt.Fprint(h.w, line); err != nil {
		return err
	}
	if h.mirror != nil {
		_, err := fmt.Fprint(h.mirror, plain)
		return err
	}
	return nil
}

func (h *consoleHandler) clone() *consoleHandler {
	c := *h
	c.attrs = append([]slog.Attr{}, h.attrs...)
	return &c
}

// WithAttrs qualifies keys with the group open at the time, so attrs added
// before a WithGroup keep their bare names.
func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, a := range attrs {
		c.attrs = append(c.attrs, slog.Attr{Key: qualify(h.group, a.Key), Value: a.Value})
	}
	return c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	c := h.clone()
	if h.group != "" {
		c.group = h.group + "." + name
	} else {
		c.group = name
	}
	return c
}

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN "
	case l >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}

func formatAttr(group string, a slog.Attr) string {
	return fmt.Sprintf("  %s=%v", qualify(group, a.Key), a.Value)
}

func qualify(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}
