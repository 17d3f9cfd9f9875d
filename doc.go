// Package keepice manages Apache Iceberg databases and tables through one of
// several engines without owning a query engine of its own.
//
// Every table operation is either a SQL statement handed to an engine client
// or a direct call into an Iceberg catalog:
//   - spark_iceberg runs SQL on a Spark Connect session
//   - athena runs SQL on Amazon Athena
//   - pyiceberg talks to an Iceberg REST (or Glue) catalog directly
//
// # Architecture
//
// The manager.Factory loads config/connectors_config.yaml, builds a
// registry.Registry holding one lazily created connector per type, and binds
// a manager.TableManager to the connector a caller asks for. The
// TableManager renders statements qualified as catalog.database.table,
// dispatches them and classifies failures with the pkg/errors taxonomy.
//
// # Quick Start
//
//	f, err := manager.NewFactory()
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	tm, err := f.GetManager(ctx, "athena")
//	if err != nil {
//		return err
//	}
//	err = tm.CreateTable(ctx, "sales", "orders",
//		[]core.Column{{Name: "id", Type: "bigint"}, {Name: "day", Type: "date"}},
//		"s3://warehouse/sales/orders", manager.WithPartitionColumn("day"))
//
// The keepice command in cmd/keepice exposes the same operations on the
// command line.
package keepice
