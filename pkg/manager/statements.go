package manager

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/keepice/pkg/connector/core"
)

// TableProperty names a metadata table exposed next to every Iceberg table
type TableProperty string

const (
	PropertyPartitions TableProperty = "partitions"
	PropertySnapshots  TableProperty = "snapshots"
	PropertyHistory    TableProperty = "history"
	PropertyFiles      TableProperty = "files"
	PropertyManifests  TableProperty = "manifests"
	PropertyRefs       TableProperty = "refs"
)

// Properties lists the metadata tables GetProperty accepts
func Properties() []TableProperty {
	return []TableProperty{
		PropertyPartitions,
		PropertySnapshots,
		PropertyHistory,
		PropertyFiles,
		PropertyManifests,
		PropertyRefs,
	}
}

// ParseProperty validates a metadata table name. Matching is exact.
func ParseProperty(name string) (TableProperty, bool) {
	for _, p := range Properties() {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// DefaultChangeColumn is the source column that flags a change as a
// delete ('d') or an update ('u')
const DefaultChangeColumn = "__action"

// Merge aliases used in the rendered MERGE statement
const (
	targetAlias = "iceberg_table"
	sourceAlias = "temp_table"
)

const (
	listDatabasesSQL = "SHOW DATABASES"
)

func qualify(catalog, database, table string) string {
	return catalog + "." + database + "." + table
}

func listTablesSQL(database string) string {
	return "SHOW TABLES IN " + database
}

func createDatabaseSQL(database string) string {
	return "CREATE DATABASE IF NOT EXISTS " + database
}

func tableDDLSQL(target string) string {
	return "SHOW CREATE TABLE " + target
}

func createTableSQL(target string, columns []core.Column, location, partitionColumn string) string {
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, col.Name+" "+col.Type)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (%s) USING iceberg LOCATION '%s'",
		target, strings.Join(defs, ", "), location)
	if partitionColumn != "" {
		fmt.Fprintf(&b, " PARTITIONED BY (%s)", partitionColumn)
	}
	return b.String()
}

func dropTableSQL(target string) string {
	return "DROP TABLE " + target
}

func propertySQL(target string, prop TableProperty) string {
	return "SELECT * FROM " + target + "$" + string(prop)
}

func deleteAllSQL(target string) string {
	return "DELETE FROM " + target
}

func insertSelectSQL(target, source string) string {
	return "INSERT INTO " + target + " SELECT * FROM " + source
}

// mergeSQL deduplicates source by primaryKey, keeping the row with the
// highest orderColumn, and applies it to target according to the change
// marker column.
func mergeSQL(target, source, primaryKey, orderColumn, sourcePrimaryKey, changeColumn string) string {
	marker := sourceAlias + "." + changeColumn
	return fmt.Sprintf(`MERGE INTO %[1]s AS %[2]s
USING (
    SELECT *
    FROM (
        SELECT *, ROW_NUMBER() OVER (PARTITION BY %[4]s ORDER BY %[5]s DESC) AS row_rank
        FROM %[3]s
    )
    WHERE row_rank = 1
) AS %[6]s
ON %[2]s.%[4]s = %[6]s.%[7]s
WHEN MATCHED AND %[8]s = 'd' THEN DELETE
WHEN MATCHED AND %[8]s = 'u' THEN UPDATE SET *
WHEN NOT MATCHED AND %[8]s != 'd' THEN INSERT *`,
		target, targetAlias, source, primaryKey, orderColumn, sourceAlias, sourcePrimaryKey, marker)
}
