package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/keepice/pkg/config"
	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/connector/registry"
	"github.com/ajitpratap0/keepice/pkg/errors"
	"github.com/ajitpratap0/keepice/pkg/metrics"
	"github.com/ajitpratap0/keepice/pkg/testutil"
)

const testConfigYAML = `
connectors:
  athena:
    region_name: eu-west-1
    s3_staging_dir: s3://athena-results/
    workgroup: ${KEEPICE_TEST_WORKGROUP}
  spark_iceberg:
    app_name: keepice
    master: sc://localhost:15002
    catalog_name: lake
`

func stubFactory(built *int) registry.Factory {
	return func(*zap.Logger) (core.Connector, error) {
		*built++
		conn := testutil.NewRecordingConnector()
		conn.ConnectorType = core.TypeAthena
		conn.Catalog = config.DefaultAthenaCatalog
		return conn, nil
	}
}

func testFactoryOptions(t *testing.T, built *int) []FactoryOption {
	return []FactoryOption{
		WithFactoryLogger(zaptest.NewLogger(t)),
		WithRegistryOptions(registry.WithFactory(core.TypeAthena, stubFactory(built))),
		WithManagerOptions(WithMetrics(metrics.New(prometheus.NewRegistry()))),
	}
}

func TestNewFactory(t *testing.T) {
	t.Setenv("KEEPICE_TEST_WORKGROUP", "analytics")
	root := testutil.WriteConnectorsConfig(t, testConfigYAML)
	nested := filepath.Join(root, "jobs", "nightly")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	var built int
	f, err := NewFactory(append(testFactoryOptions(t, &built), WithSearchDir(nested))...)
	require.NoError(t, err)

	cfg := f.Config()
	require.NotNil(t, cfg.Connectors.Athena)
	assert.Equal(t, "analytics", cfg.Connectors.Athena.Workgroup)
	assert.Equal(t, config.DefaultAthenaCatalog, cfg.Connectors.Athena.CatalogName)
	assert.Equal(t, []core.Type{core.TypeSparkIceberg, core.TypeAthena}, f.Registry().Types())
}

func TestNewFactoryWithConfigPath(t *testing.T) {
	t.Setenv("KEEPICE_TEST_WORKGROUP", "primary")
	root := testutil.WriteConnectorsConfig(t, testConfigYAML)

	f, err := NewFactory(WithConfigPath(filepath.Join(root, config.DirName, config.FileName)),
		WithFactoryLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, "primary", f.Config().Connectors.Athena.Workgroup)
}

func TestNewFactoryErrors(t *testing.T) {
	t.Run("no config folder", func(t *testing.T) {
		_, err := NewFactory(WithSearchDir(t.TempDir()), WithFactoryLogger(zaptest.NewLogger(t)))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfigNotFound))
	})

	t.Run("missing connectors key", func(t *testing.T) {
		root := testutil.WriteConnectorsConfig(t, "other: {}\n")
		_, err := NewFactory(WithSearchDir(root), WithFactoryLogger(zaptest.NewLogger(t)))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("nil in-memory config", func(t *testing.T) {
		_, err := NewFactoryFromConfig(nil)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("invalid in-memory config", func(t *testing.T) {
		_, err := NewFactoryFromConfig(&config.Config{
			Connectors: &config.ConnectorsConfig{Athena: &config.AthenaConfig{RegionName: "eu-west-1"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "athena.s3_staging_dir is required")
	})
}

func TestGetManager(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Connectors: &config.ConnectorsConfig{
		Athena: &config.AthenaConfig{
			RegionName:   "eu-west-1",
			S3StagingDir: "s3://athena-results/",
			Workgroup:    "primary",
		},
	}}

	var built int
	f, err := NewFactoryFromConfig(cfg, testFactoryOptions(t, &built)...)
	require.NoError(t, err)

	t.Run("name is case-insensitive", func(t *testing.T) {
		for _, name := range []string{"athena", "ATHENA", " Athena "} {
			tm, err := f.GetManager(ctx, name)
			require.NoError(t, err, name)
			assert.Equal(t, core.TypeAthena, tm.Connector().Type())
		}
		assert.Equal(t, 1, built)
	})

	t.Run("managers share the connector", func(t *testing.T) {
		a, err := f.GetManager(ctx, "athena")
		require.NoError(t, err)
		b, err := f.GetManager(ctx, "athena")
		require.NoError(t, err)
		assert.Same(t, a.Connector(), b.Connector())
	})

	t.Run("unknown connector", func(t *testing.T) {
		_, err := f.GetManager(ctx, "snowflake")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeUnknownConnector))
		assert.Contains(t, err.Error(), "Unknown connector type: snowflake")
	})

	t.Run("known but not configured", func(t *testing.T) {
		_, err := f.GetManager(ctx, "pyiceberg")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	require.NoError(t, f.Close())
}
