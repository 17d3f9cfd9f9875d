// Package iceberg implements the keepice connector that talks to an Iceberg
// catalog directly instead of going through a SQL engine.
//
// The connector loads the catalog with iceberg-go (REST by default, Glue
// when the catalog properties say so) and serves database and table
// management through core.Catalog. Free-form SQL is not supported.
package iceberg

import (
	"context"
	stderrors "errors"
	"iter"
	"strings"

	iceberg "github.com/apache/iceberg-go"
	"github.com/apache/iceberg-go/catalog"
	_ "github.com/apache/iceberg-go/catalog/glue"
	_ "github.com/apache/iceberg-go/catalog/rest"
	"github.com/apache/iceberg-go/table"
	"go.uber.org/zap"

	"github.com/ajitpratap0/keepice/pkg/config"
	"github.com/ajitpratap0/keepice/pkg/connector/base"
	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/errors"
)

// Catalog is the subset of catalog.Catalog the connector uses
type Catalog interface {
	ListNamespaces(ctx context.Context, parent table.Identifier) ([]table.Identifier, error)
	CreateNamespace(ctx context.Context, namespace table.Identifier, props iceberg.Properties) error
	ListTables(ctx context.Context, namespace table.Identifier) iter.Seq2[table.Identifier, error]
	CreateTable(ctx context.Context, identifier table.Identifier, schema *iceberg.Schema, opts ...catalog.CreateTableOpt) (*table.Table, error)
	LoadTable(ctx context.Context, identifier table.Identifier) (*table.Table, error)
	DropTable(ctx context.Context, identifier table.Identifier) error
}

// CatalogLoader opens the catalog named name with the given properties
type CatalogLoader func(ctx context.Context, name string, props iceberg.Properties) (Catalog, error)

// Connector manages namespaces and tables through an Iceberg catalog
type Connector struct {
	*base.BaseConnector

	cfg     config.PyIcebergConfig
	load    CatalogLoader
	catalog Catalog
	log     *zap.Logger
}

// Option configures a Connector
type Option func(*Connector)

// WithCatalogLoader replaces catalog.Load
func WithCatalogLoader(l CatalogLoader) Option {
	return func(c *Connector) {
		c.load = l
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Connector) {
		c.log = l
	}
}

// New creates a catalog connector from a validated config section
func New(cfg *config.PyIcebergConfig, opts ...Option) (*Connector, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "pyiceberg configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Connector{
		cfg:  *cfg,
		load: loadCatalog,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.BaseConnector = base.NewBaseConnector(core.TypePyIceberg, c.cfg.CatalogName, c.log)
	return c, nil
}

func loadCatalog(ctx context.Context, name string, props iceberg.Properties) (Catalog, error) {
	return catalog.Load(ctx, name, props)
}

// Properties returns the catalog properties passed to catalog.Load. Custom
// properties win over the ones derived from uri and warehouse.
func (c *Connector) Properties() iceberg.Properties {
	uri := c.cfg.URI
	if !strings.Contains(uri, "://") {
		uri = "http://" + uri
	}

	props := iceberg.Properties{
		"type":      "rest",
		"uri":       uri,
		"warehouse": c.cfg.Warehouse,
	}
	for key, value := range c.cfg.Properties {
		props[key] = value
	}
	return props
}

// Connect loads the catalog
func (c *Connector) Connect(ctx context.Context) (any, error) {
	return c.ConnectOnce(ctx, func(ctx context.Context) (any, error) {
		props := c.Properties()
		c.Logger().Debug("loading iceberg catalog",
			zap.String("catalog_name", c.cfg.CatalogName),
			zap.Any("properties", SanitizeProperties(props)))

		cat, err := c.load(ctx, c.cfg.CatalogName, props)
		if err != nil {
			return nil, err
		}
		c.catalog = cat

		c.Logger().Info("iceberg catalog loaded",
			zap.String("catalog_name", c.cfg.CatalogName),
			zap.String("warehouse", c.cfg.Warehouse))
		return cat, nil
	})
}

// Query is not supported; the catalog has no SQL engine
func (c *Connector) Query(_ context.Context, _ string) (*core.Result, error) {
	return nil, errors.New(errors.ErrorTypeUnsupported, "query is not supported by the pyiceberg connector").
		WithDetail("connector", string(core.TypePyIceberg))
}

// Close is a no-op. The catalog client holds no session and stays shared
// by every manager bound to the connector.
func (c *Connector) Close() error {
	return nil
}

// ListNamespaces lists the top-level namespaces
func (c *Connector) ListNamespaces(ctx context.Context) (*core.Result, error) {
	if err := c.RequireConnected(); err != nil {
		return nil, err
	}

	namespaces, err := c.catalog.ListNamespaces(ctx, nil)
	if err != nil {
		return nil, err
	}

	res := &core.Result{Columns: []string{"namespace"}}
	for _, ns := range namespaces {
		res.Rows = append(res.Rows, []any{strings.Join(ns, ".")})
	}
	return res, nil
}

// ListTables lists the tables in database
func (c *Connector) ListTables(ctx context.Context, database string) (*core.Result, error) {
	if err := c.RequireConnected(); err != nil {
		return nil, err
	}

	res := &core.Result{Columns: []string{"namespace", "tableName"}}
	for ident, err := range c.catalog.ListTables(ctx, table.Identifier{database}) {
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, []any{database, ident[len(ident)-1]})
	}
	return res, nil
}

// CreateNamespace creates database. An existing namespace is not an error.
func (c *Connector) CreateNamespace(ctx context.Context, database string) error {
	if err := c.RequireConnected(); err != nil {
		return err
	}

	err := c.catalog.CreateNamespace(ctx, table.Identifier{database}, nil)
	if err != nil && !stderrors.Is(err, catalog.ErrNamespaceAlreadyExists) {
		return err
	}
	return nil
}

// CreateTable creates the table described by def. An existing table is not
// an error.
func (c *Connector) CreateTable(ctx context.Context, def core.TableDefinition) error {
	if err := c.RequireConnected(); err != nil {
		return err
	}

	schema, err := SchemaFromColumns(def.Columns)
	if err != nil {
		return err
	}

	opts := []catalog.CreateTableOpt{catalog.WithLocation(def.Location)}
	if def.PartitionColumn != "" {
		spec, err := IdentityPartition(schema, def.PartitionColumn)
		if err != nil {
			return err
		}
		opts = append(opts, catalog.WithPartitionSpec(spec))
	}

	ident := table.Identifier{def.Database, def.Table}
	if _, err := c.catalog.CreateTable(ctx, ident, schema, opts...); err != nil {
		if stderrors.Is(err, catalog.ErrTableAlreadyExists) {
			c.Logger().Debug("table already exists", zap.Strings("identifier", ident))
			return nil
		}
		return err
	}

	c.Logger().Info("table created",
		zap.Strings("identifier", ident),
		zap.String("location", def.Location))
	return nil
}

// DropTable drops database.table
func (c *Connector) DropTable(ctx context.Context, database, tableName string) error {
	if err := c.RequireConnected(); err != nil {
		return err
	}
	return c.catalog.DropTable(ctx, table.Identifier{database, tableName})
}

// DescribeTable returns the current schema of database.table
func (c *Connector) DescribeTable(ctx context.Context, database, tableName string) (*core.Result, error) {
	if err := c.RequireConnected(); err != nil {
		return nil, err
	}

	tbl, err := c.catalog.LoadTable(ctx, table.Identifier{database, tableName})
	if err != nil {
		return nil, err
	}

	c.Logger().Debug("table loaded",
		zap.String("table", tableName),
		zap.String("location", tbl.Location()))
	return DescribeSchema(tbl.Schema()), nil
}

// Verify interface compliance.
var (
	_ core.Connector = (*Connector)(nil)
	_ core.Catalog   = (*Connector)(nil)
)
