package spark

import (
	"context"

	"github.com/apache/spark-connect-go/v35/spark/sql"
)

// Session is the part of a Spark Connect session the connector drives
type Session interface {
	// Sql runs a statement and collects its output
	Sql(ctx context.Context, query string) (*Rows, error)
	// Stop closes the session on the server
	Stop() error
}

// Rows is a collected DataFrame
type Rows struct {
	Columns []string
	Values  [][]any
}

// SessionFactory opens a session against a Spark Connect remote
type SessionFactory func(ctx context.Context, remote string) (Session, error)

type connectSession struct {
	spark sql.SparkSession
}

func newConnectSession(ctx context.Context, remote string) (Session, error) {
	spark, err := sql.NewSessionBuilder().Remote(remote).Build(ctx)
	if err != nil {
		return nil, err
	}
	return &connectSession{spark: spark}, nil
}

func (s *connectSession) Sql(ctx context.Context, query string) (*Rows, error) {
	df, err := s.spark.Sql(ctx, query)
	if err != nil {
		return nil, err
	}

	schema, err := df.Schema(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := df.Collect(ctx)
	if err != nil {
		return nil, err
	}

	out := &Rows{
		Columns: make([]string, 0, len(schema.Fields)),
		Values:  make([][]any, 0, len(rows)),
	}
	for _, field := range schema.Fields {
		out.Columns = append(out.Columns, field.Name)
	}
	for _, row := range rows {
		out.Values = append(out.Values, row.Values())
	}
	return out, nil
}

func (s *connectSession) Stop() error {
	return s.spark.Stop()
}
