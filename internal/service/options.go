package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/alexanderramin/budgetops/internal/domain"
)

// DefaultNotesMaxLength caps procurement step notes when no limit is configured.
const DefaultNotesMaxLength = 750

// Option configures a service.
type Option func(*options)

type options struct {
	now            func() time.Time
	observers      observers
	logger         *slog.Logger
	notesMaxLength int
	trackerType    domain.TrackerType
}

// WithClock replaces the wall clock; tests pin it to a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithObserver adds an observer; repeated use reports to every one given.
func WithObserver(obs UseCaseObserver) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithLogger sets the logger used for warnings that do not fail an operation.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithNotesMaxLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.notesMaxLength = n
		}
	}
}

// WithTrackerType selects the step set of trackers created by reconciliation.
func WithTrackerType(t domain.TrackerType) Option {
	return func(o *options) {
		if t != "" {
			o.trackerType = t
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:            func() time.Time { return time.Now().UTC() },
		logger:         slog.New(slog.DiscardHandler),
		notesMaxLength: DefaultNotesMaxLength,
		trackerType:    domain.TrackerDefault,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// observe reports a finished use case. Call it from a deferred closure so
// err holds the named result.
func (o options) observe(ctx context.Context, name string, startedAt time.Time, fields map[string]any, err error) {
	o.observers.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}
