// Package testutil provides testing utilities for keepice
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/keepice/pkg/config"
	"github.com/ajitpratap0/keepice/pkg/connector/core"
)

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// WriteConnectorsConfig creates <tmp>/config/connectors_config.yaml with
// content and returns <tmp>.
func WriteConnectorsConfig(t *testing.T, content string) string {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, config.DirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0o600))
	return root
}

// RecordingConnector is a core.Connector that records every statement it
// receives. Statements starting with a key of FailOn fail with its error.
type RecordingConnector struct {
	ConnectorType core.Type
	Catalog       string
	FailOn        map[string]error
	ConnectErr    error
	Result        *core.Result

	mu       sync.Mutex
	Queries  []string
	Connects int
	Closes   int
}

// NewRecordingConnector returns a spark_iceberg connector on catalog "lake"
// that answers every statement with a one-row result.
func NewRecordingConnector() *RecordingConnector {
	return &RecordingConnector{
		ConnectorType: core.TypeSparkIceberg,
		Catalog:       "lake",
		FailOn:        map[string]error{},
		Result:        &core.Result{Columns: []string{"namespace"}, Rows: [][]any{{"sales"}}},
	}
}

func (r *RecordingConnector) Type() core.Type     { return r.ConnectorType }
func (r *RecordingConnector) CatalogName() string { return r.Catalog }

func (r *RecordingConnector) Connect(context.Context) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Connects++
	if r.ConnectErr != nil {
		return nil, r.ConnectErr
	}
	return "session", nil
}

func (r *RecordingConnector) Query(_ context.Context, sql string) (*core.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Queries = append(r.Queries, sql)
	for prefix, err := range r.FailOn {
		if strings.HasPrefix(sql, prefix) {
			return nil, err
		}
	}
	return r.Result, nil
}

func (r *RecordingConnector) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closes++
	return nil
}

var _ core.Connector = (*RecordingConnector)(nil)
