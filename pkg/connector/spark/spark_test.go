package spark

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/keepice/pkg/config"
	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/errors"
)

type fakeSession struct {
	statements []string
	failOn     string
	result     *Rows
	stops      int
}

func (f *fakeSession) Sql(_ context.Context, query string) (*Rows, error) {
	f.statements = append(f.statements, query)
	if f.failOn != "" && query == f.failOn {
		return nil, stderrors.New("AnalysisException: boom")
	}
	if f.result != nil {
		return f.result, nil
	}
	return &Rows{}, nil
}

func (f *fakeSession) Stop() error {
	f.stops++
	return nil
}

func testConfig() *config.SparkIcebergConfig {
	return &config.SparkIcebergConfig{
		AppName:     "keepice-test",
		Master:      "sc://localhost:15002",
		CatalogName: "lake",
		Config: map[string]string{
			"spark.sql.catalog.lake":      "org.apache.iceberg.spark.SparkCatalog",
			"spark.sql.catalog.lake.type": "rest",
		},
	}
}

func newTestConnector(t *testing.T, session *fakeSession, remotes *[]string) *Connector {
	t.Helper()
	c, err := New(testConfig(),
		WithLogger(zaptest.NewLogger(t)),
		WithSessionFactory(func(_ context.Context, remote string) (Session, error) {
			if remotes != nil {
				*remotes = append(*remotes, remote)
			}
			return session, nil
		}))
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := New(nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("missing master", func(t *testing.T) {
		cfg := testConfig()
		cfg.Master = ""
		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "master")
	})

	t.Run("identity", func(t *testing.T) {
		c := newTestConnector(t, &fakeSession{}, nil)
		assert.Equal(t, core.TypeSparkIceberg, c.Type())
		assert.Equal(t, "lake", c.CatalogName())
	})
}

func TestRemote(t *testing.T) {
	tests := []struct {
		master string
		want   string
	}{
		{"sc://localhost:15002", "sc://localhost:15002/;user_agent=keepice-test"},
		{"sc://localhost:15002/", "sc://localhost:15002/;user_agent=keepice-test"},
		{"sc://host:443/;use_ssl=true", "sc://host:443/;use_ssl=true;user_agent=keepice-test"},
		{"sc://host:443/;user_agent=custom", "sc://host:443/;user_agent=custom"},
	}
	for _, tt := range tests {
		t.Run(tt.master, func(t *testing.T) {
			cfg := testConfig()
			cfg.Master = tt.master
			c, err := New(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Remote())
		})
	}
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("applies settings once", func(t *testing.T) {
		session := &fakeSession{}
		var remotes []string
		c := newTestConnector(t, session, &remotes)

		first, err := c.Connect(ctx)
		require.NoError(t, err)
		second, err := c.Connect(ctx)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Len(t, remotes, 1)
		assert.Equal(t, []string{
			"SET spark.sql.catalog.lake=org.apache.iceberg.spark.SparkCatalog",
			"SET spark.sql.catalog.lake.type=rest",
		}, session.statements)
	})

	t.Run("failed setting stops the session", func(t *testing.T) {
		session := &fakeSession{failOn: "SET spark.sql.catalog.lake.type=rest"}
		c := newTestConnector(t, session, nil)

		_, err := c.Connect(ctx)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
		assert.Contains(t, err.Error(), "spark.sql.catalog.lake.type")
		assert.Equal(t, 1, session.stops)
		assert.False(t, c.Connected())
	})

	t.Run("session factory error", func(t *testing.T) {
		c, err := New(testConfig(), WithSessionFactory(func(context.Context, string) (Session, error) {
			return nil, stderrors.New("connection refused")
		}))
		require.NoError(t, err)

		_, err = c.Connect(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("requires connect", func(t *testing.T) {
		c := newTestConnector(t, &fakeSession{}, nil)
		_, err := c.Query(ctx, "SHOW DATABASES")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	})

	t.Run("collects rows", func(t *testing.T) {
		session := &fakeSession{result: &Rows{
			Columns: []string{"namespace"},
			Values:  [][]any{{"sales"}, {"ops"}},
		}}
		c := newTestConnector(t, session, nil)
		_, err := c.Connect(ctx)
		require.NoError(t, err)

		res, err := c.Query(ctx, "SHOW DATABASES")
		require.NoError(t, err)
		assert.Equal(t, []string{"namespace"}, res.Columns)
		assert.Equal(t, 2, res.Len())
		assert.Equal(t, "SHOW DATABASES", session.statements[len(session.statements)-1])
	})

	t.Run("engine error is returned as-is", func(t *testing.T) {
		session := &fakeSession{failOn: "SELECT broken"}
		c := newTestConnector(t, session, nil)
		_, err := c.Connect(ctx)
		require.NoError(t, err)

		_, err = c.Query(ctx, "SELECT broken")
		require.Error(t, err)
		assert.False(t, errors.IsType(err, errors.ErrorTypeConnection))
		assert.Contains(t, err.Error(), "AnalysisException")
	})
}

func TestClose(t *testing.T) {
	session := &fakeSession{}
	c := newTestConnector(t, session, nil)

	require.NoError(t, c.Close())
	assert.Equal(t, 0, session.stops)

	_, err := c.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.Equal(t, 1, session.stops)
	assert.False(t, c.Connected())
}
