package sqlitekv

import (
	"io"
	"log/slog"
	"time"
)

const (
	defaultBusyTimeout = 5 * time.Second
	defaultJournalMode = "WAL"
)

type options struct {
	busyTimeout time.Duration
	journalMode string
	logger      *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithBusyTimeout sets how long a transaction waits for a lock held by
// another connection or process before failing.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		o.busyTimeout = d
	}
}

// WithJournalMode overrides the journal mode (default "WAL"). Modes other than
// WAL make readers and the writer block each other.
func WithJournalMode(mode string) Option {
	return func(o *options) {
		o.journalMode = mode
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		busyTimeout: defaultBusyTimeout,
		journalMode: defaultJournalMode,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
