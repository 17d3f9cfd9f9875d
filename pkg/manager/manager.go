// Package manager provides the TableManager, the facade that turns table
// management operations into statements for the active connector, and the
// Factory that builds managers from the connectors configuration.
//
// Table references are always qualified as catalog.database.table with the
// connector's catalog name. Names and source queries are interpolated as
// given; callers are trusted.
//
// # Errors
//
// CreateDatabase, CreateTable, DropTable and GetProperty wrap engine failures
// in a typed *errors.Error whose message carries the engine text. List,
// insert and upsert operations return the engine error unchanged.
package manager

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/errors"
	"github.com/ajitpratap0/keepice/pkg/logger"
	"github.com/ajitpratap0/keepice/pkg/metrics"
	"github.com/ajitpratap0/keepice/pkg/observability"
)

// TableManager runs table management operations through one connector
type TableManager struct {
	connector core.Connector
	catalog   core.Catalog
	handle    any

	metrics        *metrics.Metrics
	tracerProvider trace.TracerProvider
	tracer         *observability.OperationTracer
	logger         *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// Option configures a TableManager
type Option func(*TableManager)

// WithMetrics records operation metrics on m instead of the default registry
func WithMetrics(m *metrics.Metrics) Option {
	return func(tm *TableManager) {
		tm.metrics = m
	}
}

// WithTracerProvider sets the provider used for operation spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(tm *TableManager) {
		tm.tracerProvider = tp
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(tm *TableManager) {
		tm.logger = l
	}
}

// New connects the connector and binds a manager to it. Connectors that
// implement core.Catalog serve database and table management through the
// catalog API instead of SQL.
func New(ctx context.Context, connector core.Connector, opts ...Option) (*TableManager, error) {
	tm := &TableManager{connector: connector}
	for _, opt := range opts {
		opt(tm)
	}
	if tm.metrics == nil {
		tm.metrics = metrics.Default()
	}
	tm.tracer = observability.NewOperationTracer(string(connector.Type()), connector.CatalogName(), tm.tracerProvider)

	handle, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	tm.handle = handle
	if c, ok := connector.(core.Catalog); ok {
		tm.catalog = c
	}
	tm.metrics.ManagerOpened(string(connector.Type()))
	return tm, nil
}

// Connector returns the connector the manager runs on
func (m *TableManager) Connector() core.Connector {
	return m.connector
}

// Handle returns the session handle obtained when the manager was created
func (m *TableManager) Handle() any {
	return m.handle
}

func (m *TableManager) target(database, table string) string {
	return qualify(m.connector.CatalogName(), database, table)
}

func (m *TableManager) log(ctx context.Context) *zap.Logger {
	if m.logger == nil {
		return logger.WithContext(ctx)
	}
	l := m.logger.With(zap.String("connector", string(m.connector.Type())))
	if op, ok := ctx.Value(logger.OperationKey).(string); ok {
		l = l.With(zap.String("operation", op))
	}
	return l
}

// observe runs fn in a span and records the outcome
func (m *TableManager) observe(ctx context.Context, operation string, fn func(ctx context.Context, span *observability.Span) error) error {
	ctx = context.WithValue(ctx, logger.ConnectorKey, string(m.connector.Type()))
	ctx = context.WithValue(ctx, logger.OperationKey, operation)

	timer := metrics.NewTimer()
	err := m.tracer.Trace(ctx, operation, fn)
	m.metrics.ObserveStatement(string(m.connector.Type()), operation, timer.Stop(), err)
	return err
}

func (m *TableManager) query(ctx context.Context, span *observability.Span, sql string) (*core.Result, error) {
	m.log(ctx).Debug("executing statement", zap.String("sql", sql))
	span.SetAttribute("db.statement", sql)
	return m.connector.Query(ctx, sql)
}

// ListDatabases lists the databases of the catalog
func (m *TableManager) ListDatabases(ctx context.Context) (*core.Result, error) {
	var res *core.Result
	err := m.observe(ctx, "list_databases", func(ctx context.Context, span *observability.Span) error {
		var err error
		if m.catalog != nil {
			res, err = m.catalog.ListNamespaces(ctx)
			return err
		}
		res, err = m.query(ctx, span, listDatabasesSQL)
		return err
	})
	return res, err
}

// ListTables lists the tables of database
func (m *TableManager) ListTables(ctx context.Context, database string) (*core.Result, error) {
	var res *core.Result
	err := m.observe(ctx, "list_tables", func(ctx context.Context, span *observability.Span) error {
		span.SetAttribute("db.name", database)
		var err error
		if m.catalog != nil {
			res, err = m.catalog.ListTables(ctx, database)
			return err
		}
		res, err = m.query(ctx, span, listTablesSQL(database))
		return err
	})
	return res, err
}

// CreateDatabase creates database unless it already exists
func (m *TableManager) CreateDatabase(ctx context.Context, database string) error {
	return m.observe(ctx, "create_database", func(ctx context.Context, span *observability.Span) error {
		span.SetAttribute("db.name", database)
		var err error
		if m.catalog != nil {
			err = m.catalog.CreateNamespace(ctx, database)
		} else {
			_, err = m.query(ctx, span, createDatabaseSQL(database))
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeDatabaseCreation, "").
				WithDetail("database", database)
		}
		return nil
	})
}

// GetTableDDL returns the statement that recreates database.table. The
// catalog connector returns the table schema instead.
func (m *TableManager) GetTableDDL(ctx context.Context, database, table string) (*core.Result, error) {
	var res *core.Result
	err := m.observe(ctx, "get_table_ddl", func(ctx context.Context, span *observability.Span) error {
		var err error
		if m.catalog != nil {
			res, err = m.catalog.DescribeTable(ctx, database, table)
			return err
		}
		res, err = m.query(ctx, span, tableDDLSQL(m.target(database, table)))
		return err
	})
	return res, err
}

// CreateTableOption configures CreateTable
type CreateTableOption func(*core.TableDefinition)

// WithPartitionColumn partitions the table by the identity of column
func WithPartitionColumn(column string) CreateTableOption {
	return func(def *core.TableDefinition) {
		def.PartitionColumn = column
	}
}

// CreateTable creates database.table with columns, in order, stored at
// location. An existing table is left untouched.
func (m *TableManager) CreateTable(ctx context.Context, database, table string, columns []core.Column, location string, opts ...CreateTableOption) error {
	def := core.TableDefinition{
		Database: database,
		Table:    table,
		Columns:  columns,
		Location: location,
	}
	for _, opt := range opts {
		opt(&def)
	}

	return m.observe(ctx, "create_table", func(ctx context.Context, span *observability.Span) error {
		span.SetAttribute("db.name", database)
		span.SetAttribute("db.table", table)
		span.SetAttribute("columns", len(columns))

		if len(columns) == 0 {
			return errors.New(errors.ErrorTypeTableCreation, "at least one column is required").
				WithDetail("table", table)
		}
		if def.PartitionColumn != "" && !def.HasColumn(def.PartitionColumn) {
			return errors.Newf(errors.ErrorTypeTableCreation, "partition column %s is not one of the table columns", def.PartitionColumn).
				WithDetail("table", table)
		}

		var err error
		if m.catalog != nil {
			err = m.catalog.CreateTable(ctx, def)
		} else {
			_, err = m.query(ctx, span, createTableSQL(m.target(database, table), columns, location, def.PartitionColumn))
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeTableCreation, "").
				WithDetail("table", m.target(database, table))
		}
		return nil
	})
}

// DropTable drops database.table
func (m *TableManager) DropTable(ctx context.Context, database, table string) error {
	return m.observe(ctx, "drop_table", func(ctx context.Context, span *observability.Span) error {
		span.SetAttribute("db.name", database)
		span.SetAttribute("db.table", table)

		var err error
		if m.catalog != nil {
			err = m.catalog.DropTable(ctx, database, table)
		} else {
			_, err = m.query(ctx, span, dropTableSQL(m.target(database, table)))
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeTableDrop, "").
				WithDetail("table", m.target(database, table))
		}
		return nil
	})
}

// GetProperty reads one of the metadata tables of database.table. property
// must be one of Properties(); anything else fails before reaching the
// engine.
func (m *TableManager) GetProperty(ctx context.Context, database, table, property string) (*core.Result, error) {
	var res *core.Result
	err := m.observe(ctx, "get_property", func(ctx context.Context, span *observability.Span) error {
		span.SetAttribute("db.table", table)
		span.SetAttribute("table.property", property)

		prop, ok := ParseProperty(property)
		if !ok {
			allowed := make([]string, 0, len(Properties()))
			for _, p := range Properties() {
				allowed = append(allowed, string(p))
			}
			return errors.Newf(errors.ErrorTypeInvalidTableProperty,
				"Invalid table_property: %s. Allowed values are %s.", property, strings.Join(allowed, ", ")).
				WithDetail("property", property)
		}

		var err error
		res, err = m.query(ctx, span, propertySQL(m.target(database, table), prop))
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeMetadataRetrieval, "").
				WithDetail("table", m.target(database, table)).
				WithDetail("property", property)
		}
		return nil
	})
	return res, err
}

// InsertBulkTableData replaces the contents of database.table with the rows
// of source. The delete and the insert are separate statements: if the
// insert fails the table is left empty.
func (m *TableManager) InsertBulkTableData(ctx context.Context, source, database, table string) error {
	return m.observe(ctx, "insert_bulk", func(ctx context.Context, span *observability.Span) error {
		target := m.target(database, table)
		span.SetAttribute("db.table", target)

		if _, err := m.query(ctx, span, deleteAllSQL(target)); err != nil {
			return err
		}
		_, err := m.query(ctx, span, insertSelectSQL(target, source))
		return err
	})
}

// InsertIncrementalTableData appends the rows of source to database.table
func (m *TableManager) InsertIncrementalTableData(ctx context.Context, source, database, table string) error {
	return m.observe(ctx, "insert_incremental", func(ctx context.Context, span *observability.Span) error {
		target := m.target(database, table)
		span.SetAttribute("db.table", target)

		_, err := m.query(ctx, span, insertSelectSQL(target, source))
		return err
	})
}

type upsertOptions struct {
	sourcePrimaryKey string
	changeColumn     string
}

// UpsertOption configures UpsertDeltaTableData
type UpsertOption func(*upsertOptions)

// WithSourcePrimaryKey names the key column of the source when it differs
// from the target's. Empty keeps the target key.
func WithSourcePrimaryKey(column string) UpsertOption {
	return func(o *upsertOptions) {
		o.sourcePrimaryKey = column
	}
}

// WithChangeColumn names the source column that carries the change marker
func WithChangeColumn(column string) UpsertOption {
	return func(o *upsertOptions) {
		o.changeColumn = column
	}
}

// UpsertDeltaTableData merges the changes in source into database.table.
// Source rows are deduplicated per primaryKey keeping the highest
// orderColumn. Matched rows marked 'd' are deleted, matched rows marked 'u'
// are updated and unmatched rows not marked 'd' are inserted.
func (m *TableManager) UpsertDeltaTableData(ctx context.Context, source, database, table, primaryKey, orderColumn string, opts ...UpsertOption) error {
	o := upsertOptions{changeColumn: DefaultChangeColumn}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sourcePrimaryKey == "" {
		o.sourcePrimaryKey = primaryKey
	}
	if o.changeColumn == "" {
		o.changeColumn = DefaultChangeColumn
	}

	return m.observe(ctx, "upsert_delta", func(ctx context.Context, span *observability.Span) error {
		target := m.target(database, table)
		span.SetAttribute("db.table", target)
		span.SetAttribute("merge.primary_key", primaryKey)

		_, err := m.query(ctx, span, mergeSQL(target, source, primaryKey, orderColumn, o.sourcePrimaryKey, o.changeColumn))
		return err
	})
}

// Close releases the connector session. Only the Spark connector holds one;
// Athena and the catalog connector stay usable by other managers. Later
// calls return the result of the first.
func (m *TableManager) Close() error {
	m.closeOnce.Do(func() {
		m.closeErr = m.connector.Close()
		m.metrics.ManagerClosed(string(m.connector.Type()))
	})
	return m.closeErr
}
