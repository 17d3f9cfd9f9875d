// Package config loads and validates the connector configuration for keepice.
//
// Configuration lives in a file named connectors_config.yaml inside a
// directory literally named "config". FindConfigDir walks from a start
// directory up through its parents until it finds one.
//
// # File layout
//
//	connectors:
//	  spark_iceberg:
//	    app_name: keepice
//	    master: sc://localhost:15002
//	    catalog_name: lakehouse
//	    config:
//	      spark.sql.catalog.lakehouse.warehouse: s3://bucket/warehouse
//	  athena:
//	    region_name: eu-west-1
//	    s3_staging_dir: s3://bucket/athena-results/
//	    workgroup: primary
//	    catalog_name: awsdatacatalog
//	  pyiceberg:
//	    catalog_name: lakehouse
//	    uri: http://localhost:8181
//	    warehouse: s3://bucket/warehouse
//
// Every section is optional. A section that is present must carry its
// required fields; Validate reports the first missing one.
//
// # Environment Variable Substitution
//
// ${VAR_NAME} placeholders are replaced with the value of the environment
// variable before the YAML is parsed:
//
//	athena:
//	  workgroup: ${ATHENA_WORKGROUP}
package config
