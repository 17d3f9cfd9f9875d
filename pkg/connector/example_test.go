package connector_test

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/connector/registry"
	"github.com/ajitpratap0/keepice/pkg/manager"
	"github.com/ajitpratap0/keepice/pkg/metrics"
	"github.com/ajitpratap0/keepice/pkg/testutil"
)

// Example binds a table manager to a connector taken from the registry and
// prints the statements it sends.
func Example() {
	ctx := context.Background()
	conn := testutil.NewRecordingConnector()

	reg := registry.New(nil,
		registry.WithLogger(zap.NewNop()),
		registry.WithFactory(core.TypeSparkIceberg, func(*zap.Logger) (core.Connector, error) {
			return conn, nil
		}))
	defer reg.Close()

	c, err := reg.Get(ctx, core.TypeSparkIceberg)
	if err != nil {
		fmt.Println(err)
		return
	}

	tm, err := manager.New(ctx, c,
		manager.WithLogger(zap.NewNop()),
		manager.WithMetrics(metrics.New(prometheus.NewRegistry())))
	if err != nil {
		fmt.Println(err)
		return
	}

	_ = tm.CreateDatabase(ctx, "sales")
	_ = tm.InsertBulkTableData(ctx, "staging.orders", "sales", "orders")

	for _, q := range conn.Queries {
		fmt.Println(q)
	}
	// Output:
	// CREATE DATABASE IF NOT EXISTS sales
	// DELETE FROM lake.sales.orders
	// INSERT INTO lake.sales.orders SELECT * FROM staging.orders
}

func Example_parseType() {
	for _, name := range []string{"Spark_Iceberg", "ATHENA", "hive"} {
		t, err := core.ParseType(name)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(t)
	}
	// Output:
	// spark_iceberg
	// athena
	// Unknown Connector Error: Unknown connector type: hive
}
