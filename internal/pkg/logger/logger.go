package logger

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Encoding string `envconfig:"ENCODING" default:"console"` // console | json
	Level    string `envconfig:"LEVEL" default:"info"`
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// New json в stdout для прода, console в stderr для локального запуска.
// Неизвестные encoding или level - паника на старте.
func New(app string, cfg *Config) *slog.Logger {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	encoding := cmp.Or(c.Encoding, "console")

	out := io.Writer(os.Stderr)
	if encoding == "json" {
		out = os.Stdout
	}

	return slog.New(newHandler(out, encoding, cmp.Or(c.Level, "info"))).With("app", app)
}

func newHandler(w io.Writer, encoding, level string) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(level), AddSource: true}

	switch encoding {
	case "json":
		return slog.NewJSONHandler(w, opts)
	case "console":
		return NewConsoleHandler(w, opts)
	}
	panic(fmt.Errorf("invalid logger config: encoding %s is not supported", encoding))
}

func parseLevel(level string) slog.Level {
	l, ok := levels[strings.ToLower(level)]
	if !ok {
		panic(fmt.Errorf("invalid logger config: level %s is not supported", level))
	}
	return l
}

// ConsoleHandler текстовый вывод для локальной разработки: source сокращается до file:line
type ConsoleHandler struct {
	handler slog.Handler
}

func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	textOpts := &slog.HandlerOptions{}
	if opts != nil {
		*textOpts = *opts
	}
	replace := textOpts.ReplaceAttr
	textOpts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.SourceKey && len(groups) == 0 {
			if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
				a = slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
			}
		}
		if replace != nil {
			return replace(groups, a)
		}
		return a
	}

	return &ConsoleHandler{
		handler: slog.NewTextHandler(w, textOpts),
	}
}

func (h *ConsoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *ConsoleHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.handler.Handle(ctx, record)
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ConsoleHandler{
		handler: h.handler.WithAttrs(attrs),
	}
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	return &ConsoleHandler{
		handler: h.handler.WithGroup(name),
	}
}
