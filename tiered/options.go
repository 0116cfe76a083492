package tiered

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// Loader produces the value for a key missing from every tier.
type Loader[V any] func(ctx context.Context, key string) (V, error)

// Option configures a coordinator.
type Option[V any] func(*options[V])

type options[V any] struct {
	logger  logrus.FieldLogger
	metrics Metrics
	loader  Loader[V]
}

// WithLogger sets the logger. Default: discard.
func WithLogger[V any](l logrus.FieldLogger) Option[V] {
	return func(o *options[V]) { o.logger = l }
}

// WithMetrics sets the metrics sink. Default: NoopMetrics.
func WithMetrics[V any](m Metrics) Option[V] {
	return func(o *options[V]) { o.metrics = m }
}

// WithLoader enables GetOrLoad.
func WithLoader[V any](fn Loader[V]) Option[V] {
	return func(o *options[V]) { o.loader = fn }
}

func buildOptions[V any](opts []Option[V]) options[V] {
	o := options[V]{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.logger = l
	}
	if o.metrics == nil {
		o.metrics = NoopMetrics{}
	}
	return o
}
