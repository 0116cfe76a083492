package disk

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/IvanBrykalov/tiercache/cache"
)

// Option configures a disk tier.
type Option func(*options)

type options struct {
	logger     logrus.FieldLogger
	metrics    cache.Metrics
	maxReaders int
}

// WithLogger sets the logger used for swallowed failures. Default: discard.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics sink. Default: cache.NoopMetrics.
func WithMetrics(m cache.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMaxReaders bounds the number of reads running at once (0 = no bound).
func WithMaxReaders(n int) Option {
	return func(o *options) { o.maxReaders = n }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.logger = l
	}
	if o.metrics == nil {
		o.metrics = cache.NoopMetrics{}
	}
	return o
}
