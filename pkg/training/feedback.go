package training

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/conntrack/pkg/logger"
	"github.com/dmitrymomot/conntrack/pkg/signature"
)

// DefaultDelta is the confidence added to an entry per confirming example.
const DefaultDelta = 0.02

// Feedback applies labeled examples to a catalog.
// It never invents entry names: unknown labels are logged and skipped.
type Feedback struct {
	catalog  *signature.Catalog
	delta    float64
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures Feedback.
type Option func(*Feedback)

// WithDelta sets the reinforcement step. Non-positive values keep DefaultDelta.
func WithDelta(d float64) Option {
	return func(f *Feedback) {
		if d > 0 {
			f.delta = d
		}
	}
}

// WithRecorder sets where submitted examples are kept.
func WithRecorder(r Recorder) Option {
	return func(f *Feedback) {
		if r != nil {
			f.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Feedback) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithClock overrides the time source used for ReceivedAt.
func WithClock(now func() time.Time) Option {
	return func(f *Feedback) {
		if now != nil {
			f.now = now
		}
	}
}

// New returns a Feedback for catalog with an in-memory recorder by default.
func New(catalog *signature.Catalog, opts ...Option) *Feedback {
	f := &Feedback{
		catalog:  catalog,
		delta:    DefaultDelta,
		recorder: NewMemoryRecorder(DefaultHistory),
		logger:   logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Delta returns the reinforcement step.
func (f *Feedback) Delta() float64 { return f.delta }

// Submit reinforces every labeled entry that exists in the catalog and appends
// explicit patterns to those entries. Past classifications are not revisited.
func (f *Feedback) Submit(ctx context.Context, ex Example) (Ack, error) {
	if _, err := f.catalog.Snapshot(); err != nil {
		return Ack{}, err
	}

	ex.UserAgent = strings.TrimSpace(ex.UserAgent)
	if ex.UserAgent == "" {
		return Ack{}, fmt.Errorf("%w: user agent is required", ErrInvalidExample)
	}
	for cat, raw := range ex.Patterns {
		if !cat.Valid() {
			return Ack{}, fmt.Errorf("%w: %w: %q", ErrInvalidExample, signature.ErrUnknownCategory, cat)
		}
		if raw == "" {
			continue
		}
		if _, err := signature.ParsePattern(raw); err != nil {
			return Ack{}, fmt.Errorf("%w: %s pattern: %w", ErrInvalidExample, cat, err)
		}
	}
	ex.Device = strings.TrimSpace(ex.Device)
	ex.Browser = strings.TrimSpace(ex.Browser)
	ex.OS = strings.TrimSpace(ex.OS)
	ex.ReceivedAt = f.now()

	ack := Ack{Example: ex, Outcomes: make([]Outcome, 0, len(signature.Categories))}
	for _, cat := range signature.Categories {
		ack.Outcomes = append(ack.Outcomes, f.apply(ctx, cat, ex))
	}
	ack.CatalogVersion = f.catalog.Version()

	if err := f.recorder.Record(ctx, ex); err != nil {
		f.logger.WarnContext(ctx, "failed to record training example", logger.Error(err))
	}
	return ack, nil
}

// Recent returns up to n of the most recently submitted examples, newest first.
func (f *Feedback) Recent(ctx context.Context, n int) ([]Example, error) {
	return f.recorder.Recent(ctx, n)
}

func (f *Feedback) apply(ctx context.Context, cat signature.Category, ex Example) Outcome {
	label := ex.Label(cat)
	out := Outcome{Category: cat, Label: label, Status: StatusNoLabel}
	if label == "" || label == signature.Unknown {
		return out
	}

	snap, err := f.catalog.Snapshot()
	if err != nil {
		f.logger.ErrorContext(ctx, "catalog unavailable during training", logger.Error(err))
		out.Status = StatusIgnored
		return out
	}
	prev, ok := snap.Lookup(cat, label)
	if !ok {
		f.logger.InfoContext(ctx, "ignoring unknown training label",
			logger.Category(string(cat)),
			logger.Entry(label),
		)
		out.Status = StatusIgnored
		return out
	}

	entry, err := f.catalog.Reinforce(cat, label, f.delta)
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to reinforce entry",
			logger.Category(string(cat)), logger.Entry(label), logger.Error(err))
		out.Status = StatusIgnored
		return out
	}
	out.Confidence = entry.BaseConfidence
	out.Status = StatusUnchanged
	if entry.BaseConfidence != prev.BaseConfidence {
		out.Status = StatusReinforced
	}

	if raw, ok := ex.Patterns[cat]; ok && raw != "" {
		_, added, err := f.catalog.AddPattern(cat, label, raw)
		if err != nil {
			f.logger.ErrorContext(ctx, "failed to add pattern",
				logger.Category(string(cat)), logger.Entry(label), logger.Error(err))
		}
		out.PatternAdded = added
	}

	f.logger.DebugContext(ctx, "training applied",
		logger.Category(string(cat)),
		logger.Entry(label),
		slog.String("status", string(out.Status)),
		slog.Float64("confidence", out.Confidence),
	)
	return out
}
