package manager

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ajitpratap0/keepice/pkg/config"
	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/connector/registry"
	"github.com/ajitpratap0/keepice/pkg/errors"
	"github.com/ajitpratap0/keepice/pkg/logger"
)

// Factory builds table managers from the connectors configuration
type Factory struct {
	config      *config.Config
	registry    *registry.Registry
	managerOpts []Option
	logger      *zap.Logger
}

type factoryOptions struct {
	configPath   string
	searchDir    string
	registryOpts []registry.Option
	managerOpts  []Option
	logger       *zap.Logger
}

// FactoryOption configures a Factory
type FactoryOption func(*factoryOptions)

// WithConfigPath loads the configuration from path instead of searching for
// the config folder.
func WithConfigPath(path string) FactoryOption {
	return func(o *factoryOptions) {
		o.configPath = path
	}
}

// WithSearchDir starts the config folder search at dir instead of the
// working directory.
func WithSearchDir(dir string) FactoryOption {
	return func(o *factoryOptions) {
		o.searchDir = dir
	}
}

// WithRegistryOptions passes options to the connector registry
func WithRegistryOptions(opts ...registry.Option) FactoryOption {
	return func(o *factoryOptions) {
		o.registryOpts = append(o.registryOpts, opts...)
	}
}

// WithManagerOptions passes options to every manager the factory builds
func WithManagerOptions(opts ...Option) FactoryOption {
	return func(o *factoryOptions) {
		o.managerOpts = append(o.managerOpts, opts...)
	}
}

// WithFactoryLogger sets the logger of the factory and its registry
func WithFactoryLogger(l *zap.Logger) FactoryOption {
	return func(o *factoryOptions) {
		o.logger = l
	}
}

// NewFactory locates and loads connectors_config.yaml and builds the
// connector registry from it.
func NewFactory(opts ...FactoryOption) (*Factory, error) {
	o := applyFactoryOptions(opts)

	path := o.configPath
	if path == "" {
		start := o.searchDir
		if start == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to resolve working directory")
			}
			start = wd
		}
		dir, err := config.FindConfigDir(start)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, config.FileName)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("connectors configuration loaded", zap.String("path", path))
	return newFactory(cfg, o)
}

// NewFactoryFromConfig builds a factory from an in-memory configuration
func NewFactoryFromConfig(cfg *config.Config, opts ...FactoryOption) (*Factory, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "invalid configuration: config cannot be nil")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid configuration")
	}
	return newFactory(cfg, applyFactoryOptions(opts))
}

func applyFactoryOptions(opts []FactoryOption) *factoryOptions {
	o := &factoryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return o
}

func newFactory(cfg *config.Config, o *factoryOptions) (*Factory, error) {
	registryOpts := append([]registry.Option{registry.WithLogger(o.logger)}, o.registryOpts...)
	return &Factory{
		config:      cfg,
		registry:    registry.New(cfg.Connectors, registryOpts...),
		managerOpts: o.managerOpts,
		logger:      o.logger.With(zap.String("component", "manager_factory")),
	}, nil
}

// GetManager returns a manager bound to the connector named name. The name
// is matched case-insensitively.
func (f *Factory) GetManager(ctx context.Context, name string) (*TableManager, error) {
	t, err := core.ParseType(name)
	if err != nil {
		return nil, err
	}

	connector, err := f.registry.Get(ctx, t)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("binding table manager", zap.String("connector", string(t)))
	return New(ctx, connector, f.managerOpts...)
}

// Config returns the loaded configuration
func (f *Factory) Config() *config.Config {
	return f.config
}

// Registry returns the connector registry
func (f *Factory) Registry() *registry.Registry {
	return f.registry
}

// Close closes every connector the factory created
func (f *Factory) Close() error {
	return f.registry.Close()
}
