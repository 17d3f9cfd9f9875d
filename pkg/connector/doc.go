// Package connector groups the engine connectors keepice runs table
// operations on.
//
// # Architecture Overview
//
//   - core: the Connector contract, the optional Catalog capability, the
//     connector Type enumeration and the Result every engine returns.
//
//   - base: BaseConnector, embedded by every connector. It carries the type,
//     the catalog name and a logger, and makes Connect open a single session.
//
//   - spark: runs SQL on a Spark Connect session. Config entries are applied
//     with SET statements when the session opens.
//
//   - athena: runs SQL on Amazon Athena, polling each execution until it
//     finishes and paging through its results.
//
//   - iceberg: loads an Iceberg catalog with iceberg-go and implements
//     core.Catalog. It has no SQL engine, so Query is unsupported.
//
//   - registry: creates one connector per type on first use and shares it.
//
// Connectors never validate or rewrite SQL; engine errors are returned as
// they are.
package connector
