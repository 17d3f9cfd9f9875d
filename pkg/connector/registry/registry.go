// Package registry builds keepice connectors lazily, one shared instance per
// connector type.
package registry

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajitpratap0/keepice/pkg/config"
	"github.com/ajitpratap0/keepice/pkg/connector/athena"
	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/connector/iceberg"
	"github.com/ajitpratap0/keepice/pkg/connector/spark"
	"github.com/ajitpratap0/keepice/pkg/errors"
	"github.com/ajitpratap0/keepice/pkg/logger"
)

// Factory creates a connector instance. The registry connects it.
type Factory func(log *zap.Logger) (core.Connector, error)

// Registry manages connector construction and reuse
type Registry struct {
	factories map[core.Type]Factory
	instances map[core.Type]core.Connector
	mu        sync.Mutex
	logger    *zap.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithFactory registers or replaces the factory for a connector type
func WithFactory(t core.Type, f Factory) Option {
	return func(r *Registry) {
		r.factories[t] = f
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates a registry with a factory for every section declared in cfg
func New(cfg *config.ConnectorsConfig, opts ...Option) *Registry {
	r := &Registry{
		factories: make(map[core.Type]Factory),
		instances: make(map[core.Type]core.Connector),
		logger:    logger.Get(),
	}

	if cfg != nil {
		if cfg.SparkIceberg != nil {
			section := cfg.SparkIceberg
			r.factories[core.TypeSparkIceberg] = func(log *zap.Logger) (core.Connector, error) {
				return spark.New(section, spark.WithLogger(log))
			}
		}
		if cfg.Athena != nil {
			section := cfg.Athena
			r.factories[core.TypeAthena] = func(log *zap.Logger) (core.Connector, error) {
				return athena.New(section, athena.WithLogger(log))
			}
		}
		if cfg.PyIceberg != nil {
			section := cfg.PyIceberg
			r.factories[core.TypePyIceberg] = func(log *zap.Logger) (core.Connector, error) {
				return iceberg.New(section, iceberg.WithLogger(log))
			}
		}
	}

	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "connector_registry"))
	return r
}

// Get returns the connector for t, creating and connecting it on first use.
// A connector that fails to connect is not kept.
func (r *Registry) Get(ctx context.Context, t core.Type) (core.Connector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.instances[t]; ok {
		return c, nil
	}

	factory, ok := r.factories[t]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "configuration missing for connector type %s", t).
			WithDetail("connector", string(t))
	}

	c, err := factory(r.logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create connector").
			WithDetail("connector", string(t))
	}
	if _, err := c.Connect(ctx); err != nil {
		return nil, err
	}

	r.instances[t] = c
	r.logger.Info("connector created", zap.String("type", string(t)))
	return c, nil
}

// Types lists the connector types this registry can build
func (r *Registry) Types() []core.Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]core.Type, 0, len(r.factories))
	for _, t := range core.Types() {
		if _, ok := r.factories[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

// Has reports whether a factory is registered for t
func (r *Registry) Has(t core.Type) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.factories[t]
	return ok
}

// Close closes every connector created so far. The next Get creates a new
// instance.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for t, c := range r.instances {
		err = multierr.Append(err, c.Close())
		delete(r.instances, t)
	}
	return err
}
