package lsh

import (
	"context"
	"io"
	"log/slog"

	"github.com/viant/sqlite-lsh/band"
	"github.com/viant/sqlite-lsh/kv"
	"github.com/viant/sqlite-lsh/kv/memkv"
	"github.com/viant/sqlite-lsh/kv/sqlitekv"
	"github.com/viant/sqlite-lsh/params"
)

const (
	// DefaultThreshold is the Jaccard threshold used when none is set.
	DefaultThreshold = 0.9
	// DefaultSignatureLength is the signature length used when none is set.
	DefaultSignatureLength = 128
)

// Backend opens the transactional store holding an index's collections.
type Backend func(ctx context.Context, location string, collections []string) (kv.Store, error)

// SQLite returns the durable backend: location is a database file path.
func SQLite(opts ...sqlitekv.Option) Backend {
	return func(ctx context.Context, location string, collections []string) (kv.Store, error) {
		return sqlitekv.Open(ctx, location, collections, opts...)
	}
}

// Memory returns a volatile backend; location is ignored and every Open
// starts empty.
func Memory() Backend {
	return func(_ context.Context, _ string, collections []string) (kv.Store, error) {
		return memkv.Open(collections...)
	}
}

type options struct {
	threshold       float64
	signatureLength int
	weights         params.Weights
	parameterizer   params.Parameterizer
	hasher          band.Hasher
	backend         Backend
	logger          *slog.Logger
	metrics         MetricsCollector
}

// Option configures Open.
type Option func(*options)

// WithThreshold sets the Jaccard similarity threshold in [0, 1].
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = t
	}
}

// WithSignatureLength sets h, the length every signature must have.
func WithSignatureLength(h int) Option {
	return func(o *options) {
		o.signatureLength = h
	}
}

// WithWeights sets the false positive / false negative weighting used to
// choose the band layout.
func WithWeights(w params.Weights) Option {
	return func(o *options) {
		o.weights = w
	}
}

// WithParams bypasses the parameterizer and uses b bands of r rows.
func WithParams(b, r int) Option {
	return func(o *options) {
		o.parameterizer = params.Fixed{B: b, R: r}
	}
}

// WithParameterizer replaces the layout optimiser.
func WithParameterizer(p params.Parameterizer) Option {
	return func(o *options) {
		if p != nil {
			o.parameterizer = p
		}
	}
}

// WithHasher sets the band hasher. An index must always be reopened with the
// hasher it was built with.
func WithHasher(h band.Hasher) Option {
	return func(o *options) {
		if h != nil {
			o.hasher = h
		}
	}
}

// WithBackend selects the store backend (default SQLite).
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithLogger sets the diagnostic logger. Pass nil to discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector. Pass nil to disable.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func newOptions(opts []Option) options {
	o := options{
		threshold:       DefaultThreshold,
		signatureLength: DefaultSignatureLength,
		weights:         params.DefaultWeights,
		parameterizer:   params.Optimal{},
		hasher:          band.Default,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	if o.backend == nil {
		o.backend = SQLite(sqlitekv.WithLogger(o.logger))
	}
	return o
}
