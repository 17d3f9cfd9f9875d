package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/keepice/pkg/config"
	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/errors"
	"github.com/ajitpratap0/keepice/pkg/testutil"
)

func TestWriteResultTable(t *testing.T) {
	var buf bytes.Buffer
	res := &core.Result{
		Columns: []string{"namespace", "tableName"},
		Rows:    [][]any{{"sales", "orders"}, {"sales", nil}},
	}
	require.NoError(t, writeResult(&buf, "table", res))
	assert.Equal(t, "namespace  tableName\nsales      orders\nsales      NULL\n", buf.String())
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	res := &core.Result{
		Columns: []string{"snapshot_id", "operation"},
		Rows:    [][]any{{int64(42), "append"}},
	}
	require.NoError(t, writeResult(&buf, "json", res))
	assert.JSONEq(t, `[{"snapshot_id": 42, "operation": "append"}]`, buf.String())
}

func TestWriteResultEmptyAndUnknown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, "json", nil))
	assert.JSONEq(t, `[]`, buf.String())

	assert.Error(t, writeResult(&buf, "yaml", &core.Result{}))
}

func TestParseColumns(t *testing.T) {
	cols, err := parseColumns([]string{"id:bigint", "amount: decimal(10,2)", "day:date"})
	require.NoError(t, err)
	assert.Equal(t, []core.Column{
		{Name: "id", Type: "bigint"},
		{Name: "amount", Type: "decimal(10,2)"},
		{Name: "day", Type: "date"},
	}, cols)

	for _, bad := range []string{"id", ":bigint", "id:"} {
		_, err := parseColumns([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "keepice v"+version)
}

func TestCommandTree(t *testing.T) {
	root := newRootCommand()
	for _, path := range [][]string{
		{"databases"}, {"tables"}, {"create-database"}, {"ddl"}, {"create-table"},
		{"drop-table"}, {"property"}, {"load", "bulk"}, {"load", "incremental"}, {"upsert"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestMissingConfigFails(t *testing.T) {
	t.Chdir(t.TempDir())
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"databases"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config folder not found")
}

func TestFailedSetupIsTornDown(t *testing.T) {
	root := testutil.WriteConnectorsConfig(t, `
connectors:
  athena:
    region_name: eu-west-1
    s3_staging_dir: s3://athena-results/
    workgroup: primary
`)

	a := &app{v: viper.New()}
	a.v.Set("config", filepath.Join(root, config.DirName, config.FileName))
	a.v.Set("connector", "pyiceberg")
	a.v.Set("log-level", "warn")
	a.v.Set("trace", true)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetErr(&bytes.Buffer{})

	ran := false
	err := a.run(func(*cobra.Command, []string) error {
		ran = true
		return nil
	})(cmd, nil)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.False(t, ran)
	assert.Nil(t, a.factory)
	assert.Nil(t, a.shutdown)
}
