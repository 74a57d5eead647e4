package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment names accepted by WithEnvironment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Format selects the slog handler New builds.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// profile holds the level and format an environment starts from.
type profile struct {
	level  slog.Level
	format Format
}

var profiles = map[string]profile{
	EnvDevelopment: {level: slog.LevelDebug, format: FormatText},
	EnvStaging:     {level: slog.LevelInfo, format: FormatJSON},
	EnvProduction:  {level: slog.LevelInfo, format: FormatJSON},
}

// CanonicalEnv maps env aliases ("prod", "stage", "dev") to their canonical name.
// Anything unrecognized is development.
func CanonicalEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case EnvProduction, "prod":
		return EnvProduction
	case EnvStaging, "stage":
		return EnvStaging
	default:
		return EnvDevelopment
	}
}

// IsProduction reports whether env names the production environment.
func IsProduction(env string) bool {
	return CanonicalEnv(env) == EnvProduction
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") into a slog.Level.
func ParseLevel(name string) (slog.Level, bool) {
	var l slog.Level
	name = strings.TrimSpace(name)
	if name == "" {
		return l, false
	}
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return l, false
	}
	return l, true
}

type options struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
	source     bool
}

// Option configures New.
type Option func(*options)

// WithEnvironment applies the level and format of env and tags every record
// with the service and env attributes. Later options still override the level
// and format.
func WithEnvironment(env, service string) Option {
	return func(o *options) {
		env = CanonicalEnv(env)
		p := profiles[env]
		o.level, o.format = p.level, p.format
		if service != "" {
			o.attrs = append(o.attrs, slog.String("service", service))
		}
		o.attrs = append(o.attrs, slog.String("env", env))
	}
}

func WithLevel(l slog.Level) Option {
	return func(o *options) { o.level = l }
}

// WithLevelName sets the level from its name. Empty or unknown names are ignored,
// so an unset LOG_LEVEL keeps the environment default.
func WithLevelName(name string) Option {
	return func(o *options) {
		if l, ok := ParseLevel(name); ok {
			o.level = l
		}
	}
}

func WithTextFormatter() Option {
	return func(o *options) { o.format = FormatText }
}

func WithJSONFormatter() Option {
	return func(o *options) { o.format = FormatJSON }
}

// WithOutput redirects records to w. Nil is ignored.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) { o.attrs = append(o.attrs, attrs...) }
}

// WithContextExtractors registers extractors evaluated on every record.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) { o.extractors = append(o.extractors, extractors...) }
}

// WithSource records the caller's file and line.
func WithSource() Option {
	return func(o *options) { o.source = true }
}

// New builds a logger. Without options it writes JSON at info level to stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{level: slog.LevelInfo, format: FormatJSON, output: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	ho := &slog.HandlerOptions{Level: o.level, AddSource: o.source}
	var h slog.Handler
	if o.format == FormatText {
		h = slog.NewTextHandler(o.output, ho)
	} else {
		h = slog.NewJSONHandler(o.output, ho)
	}
	if len(o.attrs) > 0 {
		h = h.WithAttrs(o.attrs)
	}
	return slog.New(NewContextHandler(h, o.extractors...))
}

// Discard returns a logger that drops every record. Components use it when no
// logger is configured.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}
