// Package core defines the contract every keepice connector implements.
package core

import (
	"context"
	"strings"

	"github.com/ajitpratap0/keepice/pkg/errors"
)

// Type identifies a connector backend
type Type string

const (
	// TypeSparkIceberg runs SQL on a Spark Connect session
	TypeSparkIceberg Type = "spark_iceberg"
	// TypeAthena runs SQL on Amazon Athena
	TypeAthena Type = "athena"
	// TypePyIceberg talks to an Iceberg REST catalog directly
	TypePyIceberg Type = "pyiceberg"
)

// Types lists every connector type in declaration order
func Types() []Type {
	return []Type{TypeSparkIceberg, TypeAthena, TypePyIceberg}
}

// ParseType resolves a connector name case-insensitively
func ParseType(name string) (Type, error) {
	candidate := Type(strings.ToLower(strings.TrimSpace(name)))
	for _, t := range Types() {
		if t == candidate {
			return t, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeUnknownConnector, "Unknown connector type: %s", name)
}

// String returns the configuration key of the type
func (t Type) String() string {
	return string(t)
}

// Connector is the uniform contract over one external engine.
type Connector interface {
	// Type returns the backend this connector talks to
	Type() Type

	// CatalogName qualifies every table reference as catalog.database.table
	CatalogName() string

	// Connect establishes the session and returns its handle. Calling it
	// again returns the same handle.
	Connect(ctx context.Context) (any, error)

	// Query executes sql and returns the materialized result. The text is
	// passed through untouched; engine errors are returned as-is.
	Query(ctx context.Context, sql string) (*Result, error)

	// Close releases the session, if the backend has one
	Close() error
}

// Catalog is implemented by connectors that manage namespaces and tables
// through a catalog API instead of SQL.
type Catalog interface {
	ListNamespaces(ctx context.Context) (*Result, error)
	ListTables(ctx context.Context, database string) (*Result, error)
	CreateNamespace(ctx context.Context, database string) error
	CreateTable(ctx context.Context, def TableDefinition) error
	DropTable(ctx context.Context, database, table string) error
	DescribeTable(ctx context.Context, database, table string) (*Result, error)
}

// Column is one column of a table definition. Order is significant.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableDefinition describes a table to create
type TableDefinition struct {
	Database        string
	Table           string
	Columns         []Column
	Location        string
	PartitionColumn string
}

// HasColumn reports whether name is one of the definition's columns
func (d TableDefinition) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Result is the materialized output of a statement or catalog call
type Result struct {
	// QueryID is the engine-side identifier, when the engine assigns one
	QueryID string   `json:"query_id,omitempty"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Column returns every value of the named column, or nil if absent
func (r *Result) Column(name string) []any {
	if r == nil {
		return nil
	}
	idx := -1
	for i, c := range r.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		} else {
			out = append(out, nil)
		}
	}
	return out
}
