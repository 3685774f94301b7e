package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

//nolint:gochecknoglobals
var (
	colorFaint     = color.New(color.FgHiBlack)
	colorUnderline = color.New(color.FgHiBlack, color.Underline)

	levelColors = map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgCyan),
		slog.LevelInfo:  color.New(color.FgGreen),
		slog.LevelWarn:  color.New(color.FgYellow),
		slog.LevelError: color.New(color.FgRed, color.Bold),
	}
)

// ConsoleHandler renders records as a single coloured line followed by the
// calling function, for reading in a terminal.
type ConsoleHandler struct {
	Output    io.Writer
	Level     slog.Leveler
	PkgLevels map[string]slog.Level // logger name prefix -> minimum level

	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// NewConsoleHandler returns a ConsoleHandler writing to out.
func NewConsoleHandler(out io.Writer, level slog.Leveler, pkgLevels map[string]slog.Level) *ConsoleHandler {
	return &ConsoleHandler{
		Output:    out,
		Level:     level,
		PkgLevels: pkgLevels,
		mu:        new(sync.Mutex),
	}
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	if !h.pkgEnabled(loggerName(attrs), r.Level) {
		return nil
	}

	var sb strings.Builder

	sb.WriteString(colorFaint.Sprint(r.Time.Format("15:04:05.000000")))
	sb.WriteString(" ")
	sb.WriteString(levelColor(r.Level).Sprint("[" + r.Level.String() + "]"))
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	if len(attrs) > 0 {
		var prefix string
		if len(h.groups) > 0 {
			prefix = strings.Join(h.groups, ".") + "."
		}

		sb.WriteString(" ")
		sb.WriteString(colorFaint.Sprint("|"))
		renderAttrs(&sb, prefix, attrs)
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fn := frame.Function[strings.LastIndex(frame.Function, string(os.PathSeparator))+1:]

		sb.WriteString("\n-> ")
		sb.WriteString(colorFaint.Sprint(fn + "()"))
		sb.WriteString(" in ")
		sb.WriteString(colorUnderline.Sprint(frame.File + ":" + strconv.Itoa(frame.Line)))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := fmt.Fprintln(h.Output, sb.String()); err != nil {
		return fmt.Errorf("write log line: %w", err)
	}

	return nil
}

// pkgEnabled applies the most specific PkgLevels entry matching name, walking
// "a.b.c" -> "a.b" -> "a" -> "".
func (h *ConsoleHandler) pkgEnabled(name string, level slog.Level) bool {
	key := name

	for {
		if threshold, ok := h.PkgLevels[key]; ok {
			return level >= threshold
		}

		if key == "" {
			return true
		}

		if i := strings.LastIndex(key, "."); i >= 0 {
			key = key[:i]
		} else {
			key = ""
		}
	}
}

func loggerName(attrs []slog.Attr) string {
	for _, attr := range attrs {
		if attr.Key == "logger" {
			return attr.Value.String()
		}
	}

	return ""
}

func levelColor(level slog.Level) *color.Color {
	if c, ok := levelColors[level]; ok {
		return c
	}

	return colorFaint
}

func renderAttrs(sb *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			renderAttrs(sb, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		sb.WriteString(" " + prefix + attr.Key + "=")
		sb.WriteString(colorFaint.Sprint(attr.Value.String()))
	}
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)

	return &clone
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)

	return &clone
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.Level.Level() <= level
}
