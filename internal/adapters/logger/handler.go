package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

// RuleKey is the attribute that ConsoleHandler lifts into a "[target]" prefix.
const RuleKey = "rule"

// ConsoleHandler is a slog.Handler producing colored, human-readable lines for the
// terminal. Handlers derived through WithAttrs and WithGroup share one writer lock.
type ConsoleHandler struct {
	out    *termenv.Output
	mu     *sync.Mutex
	level  slog.Leveler
	rule   string
	prefix string
	attrs  []string
}

// NewConsoleHandler creates a ConsoleHandler writing to w, or stderr when w is nil.
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	if w == nil {
		w = os.Stderr
	}
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &ConsoleHandler{out: output.New(w, true), mu: &sync.Mutex{}, level: level}
}

// Enabled reports whether records at level are written.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes one record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	marker, color := levelStyle(r.Level)

	rule := h.rule
	attrs := append([]string(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && a.Key == RuleKey {
			rule = a.Value.String()
			return true
		}
		attrs = appendAttr(attrs, h.prefix, a)
		return true
	})

	var sb strings.Builder
	if marker != "" {
		sb.WriteString(marker + " ")
	}
	if rule != "" {
		sb.WriteString("[" + rule + "] ")
	}
	sb.WriteString(r.Message)
	for _, a := range attrs {
		sb.WriteString(" " + a)
	}

	line := h.out.String(sb.String()).Foreground(color).String() + "\n"
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.WriteString(line)
	return err
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]string(nil), h.attrs...)
	for _, a := range attrs {
		if h.prefix == "" && a.Key == RuleKey {
			next.rule = a.Value.String()
			continue
		}
		next.attrs = appendAttr(next.attrs, h.prefix, a)
	}
	return &next
}

// WithGroup returns a handler qualifying later attribute keys with name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func levelStyle(level slog.Level) (string, termenv.Color) {
	switch {
	case level < slog.LevelInfo:
		return "", termenv.RGBColor(string(style.Smoke))
	case level < slog.LevelWarn:
		return "", termenv.RGBColor(string(style.Ash))
	case level < slog.LevelError:
		return style.Warning, termenv.RGBColor(string(style.Amber))
	default:
		return style.Cross, termenv.RGBColor(string(style.Red))
	}
}

// appendAttr formats a as key=value, flattening groups. Values containing spaces
// are quoted.
func appendAttr(dst []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			dst = appendAttr(dst, p, ga)
		}
		return dst
	}
	v := a.Value.String()
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		v = strconv.Quote(v)
	}
	return append(dst, prefix+a.Key+"="+v)
}
