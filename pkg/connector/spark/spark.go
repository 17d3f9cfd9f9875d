// Package spark implements the keepice connector for Apache Spark through
// Spark Connect.
package spark

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/keepice/pkg/config"
	"github.com/ajitpratap0/keepice/pkg/connector/base"
	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/errors"
)

// Connector runs SQL on a Spark Connect session
type Connector struct {
	*base.BaseConnector

	cfg        config.SparkIcebergConfig
	newSession SessionFactory
	session    Session
	log        *zap.Logger
}

// Option configures a Connector
type Option func(*Connector)

// WithSessionFactory replaces the Spark Connect session construction
func WithSessionFactory(f SessionFactory) Option {
	return func(c *Connector) {
		c.newSession = f
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Connector) {
		c.log = l
	}
}

// New creates a Spark connector from a validated config section
func New(cfg *config.SparkIcebergConfig, opts ...Option) (*Connector, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "spark_iceberg configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Connector{
		cfg:        *cfg,
		newSession: newConnectSession,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.BaseConnector = base.NewBaseConnector(core.TypeSparkIceberg, c.cfg.CatalogName, c.log)
	return c, nil
}

// Remote returns the Spark Connect connection string with the application
// name attached as the user agent.
func (c *Connector) Remote() string {
	remote := c.cfg.Master
	if strings.Contains(remote, "user_agent=") {
		return remote
	}
	if !strings.Contains(remote, ";") {
		remote = strings.TrimSuffix(remote, "/") + "/"
	}
	return remote + ";user_agent=" + c.cfg.AppName
}

// Connect opens the session and applies the configured settings with
// SET statements, in key order.
func (c *Connector) Connect(ctx context.Context) (any, error) {
	return c.ConnectOnce(ctx, func(ctx context.Context) (any, error) {
		session, err := c.newSession(ctx, c.Remote())
		if err != nil {
			return nil, err
		}

		keys := make([]string, 0, len(c.cfg.Config))
		for k := range c.cfg.Config {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if _, err := session.Sql(ctx, fmt.Sprintf("SET %s=%s", k, c.cfg.Config[k])); err != nil {
				_ = session.Stop()
				return nil, fmt.Errorf("applying %s: %w", k, err)
			}
		}

		c.session = session
		c.Logger().Info("spark session started",
			zap.String("app_name", c.cfg.AppName),
			zap.Int("settings", len(keys)))
		return session, nil
	})
}

// Query runs sql on the session and collects the resulting DataFrame
func (c *Connector) Query(ctx context.Context, sql string) (*core.Result, error) {
	if err := c.RequireConnected(); err != nil {
		return nil, err
	}

	rows, err := c.session.Sql(ctx, sql)
	if err != nil {
		return nil, err
	}
	return &core.Result{Columns: rows.Columns, Rows: rows.Values}, nil
}

// Close stops the Spark session
func (c *Connector) Close() error {
	return c.Release(func(any) error {
		s := c.session
		c.session = nil
		return s.Stop()
	})
}

// Verify interface compliance.
var _ core.Connector = (*Connector)(nil)
