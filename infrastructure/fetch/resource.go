package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"seedflow/models"
)

// InvalidDataFormat is the error text recorded for malformed payloads.
const InvalidDataFormat = "invalid data format"

// Loader produces a fresh value for a Resource.
type Loader[T any] func(ctx context.Context) (T, error)

// State is a point-in-time copy of a Resource.
type State[T any] struct {
	Data          T
	Loading       bool
	Error         string
	HasLoadedOnce bool
	UpdatedAt     time.Time
}

// Resource keeps the last good value of a remote read together with its
// loading and error flags. Loading is only raised for the first fetch so
// later refreshes never blank the page.
type Resource[T any] struct {
	mu      sync.Mutex
	name    string
	failMsg string
	load    Loader[T]
	state   State[T]
	logger  *zap.Logger
}

type Option func(*options)

type options struct {
	failMsg string
	logger  *zap.Logger
}

// WithFailureMessage sets the error text recorded on transport failures.
func WithFailureMessage(msg string) Option {
	return func(o *options) { o.failMsg = msg }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(name string, opts []Option) options {
	o := options{failMsg: "failed to load " + name, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// NewResource starts in the loading state with the zero value of T.
func NewResource[T any](name string, load Loader[T], opts ...Option) *Resource[T] {
	o := buildOptions(name, opts)
	return &Resource[T]{
		name:    name,
		failMsg: o.failMsg,
		load:    load,
		state:   State[T]{Loading: true},
		logger:  o.logger.With(zap.String("resource", name)),
	}
}

// Refetch runs the loader once. A malformed payload is recorded as
// InvalidDataFormat and not returned; a transport failure is recorded and
// returned. The previous data survives any failure.
func (r *Resource[T]) Refetch(ctx context.Context) error {
	r.mu.Lock()
	first := !r.state.HasLoadedOnce
	if first {
		r.state.Loading = true
	}
	r.state.Error = ""
	load := r.load
	r.mu.Unlock()

	data, err := load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if first {
		r.state.Loading = false
		r.state.HasLoadedOnce = true
	}
	switch {
	case err == nil:
		r.state.Data = data
		r.state.UpdatedAt = time.Now()
		return nil
	case errors.Is(err, models.ErrInvalidDataFormat):
		r.state.Error = InvalidDataFormat
		r.logger.Warn("malformed payload", zap.Error(err))
		return nil
	default:
		r.state.Error = r.failMsg
		r.logger.Warn("fetch failed", zap.Error(err))
		return err
	}
}

// Snapshot returns a copy of the current state.
func (r *Resource[T]) Snapshot() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Resource[T]) Name() string { return r.name }
