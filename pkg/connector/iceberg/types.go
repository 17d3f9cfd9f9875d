package iceberg

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	iceberg "github.com/apache/iceberg-go"

	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/errors"
)

// partitionFieldIDStart is where Iceberg numbers partition fields from
const partitionFieldIDStart = 1000

// maxDecimalPrecision is the widest decimal Iceberg stores
const maxDecimalPrecision = 38

var decimalPattern = regexp.MustCompile(`^decimal\s*\(\s*(\d+)\s*,\s*(\d+)\s*\)$`)

// ConvertSQLType maps a SQL column type to an Iceberg type
func ConvertSQLType(sqlType string) (iceberg.Type, error) {
	typeStr := strings.ToLower(strings.TrimSpace(sqlType))

	switch {
	case typeStr == "string" || strings.HasPrefix(typeStr, "varchar") || strings.HasPrefix(typeStr, "char"):
		return iceberg.PrimitiveTypes.String, nil
	case typeStr == "int" || typeStr == "integer" || typeStr == "smallint" || typeStr == "tinyint":
		return iceberg.PrimitiveTypes.Int32, nil
	case typeStr == "bigint" || typeStr == "long":
		return iceberg.PrimitiveTypes.Int64, nil
	case typeStr == "float" || typeStr == "real":
		return iceberg.PrimitiveTypes.Float32, nil
	case typeStr == "double":
		return iceberg.PrimitiveTypes.Float64, nil
	case typeStr == "boolean" || typeStr == "bool":
		return iceberg.PrimitiveTypes.Bool, nil
	case typeStr == "date":
		return iceberg.PrimitiveTypes.Date, nil
	case typeStr == "timestamp_ntz":
		return iceberg.PrimitiveTypes.Timestamp, nil
	case typeStr == "timestamp" || typeStr == "timestamptz":
		return iceberg.PrimitiveTypes.TimestampTz, nil
	case typeStr == "binary":
		return iceberg.PrimitiveTypes.Binary, nil
	case typeStr == "uuid":
		return iceberg.PrimitiveTypes.UUID, nil
	case decimalPattern.MatchString(typeStr):
		m := decimalPattern.FindStringSubmatch(typeStr)
		precision, perr := strconv.Atoi(m[1])
		scale, serr := strconv.Atoi(m[2])
		if perr != nil || serr != nil || precision < 1 || precision > maxDecimalPrecision || scale > precision {
			return nil, errors.Newf(errors.ErrorTypeUnsupported,
				"unsupported column type %q: decimal precision must be 1-%d and scale at most the precision", sqlType, maxDecimalPrecision)
		}
		return iceberg.DecimalTypeOf(precision, scale), nil
	}

	return nil, errors.Newf(errors.ErrorTypeUnsupported, "unsupported column type %q", sqlType)
}

// SchemaFromColumns builds an Iceberg schema with optional fields numbered
// from 1 in column order.
func SchemaFromColumns(columns []core.Column) (*iceberg.Schema, error) {
	fields := make([]iceberg.NestedField, 0, len(columns))
	for i, col := range columns {
		typ, err := ConvertSQLType(col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		fields = append(fields, iceberg.NestedField{
			ID:   i + 1,
			Name: col.Name,
			Type: typ,
		})
	}
	return iceberg.NewSchema(0, fields...), nil
}

// IdentityPartition partitions by the identity of column
func IdentityPartition(schema *iceberg.Schema, column string) (*iceberg.PartitionSpec, error) {
	field, ok := schema.FindFieldByName(column)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeTableCreation, "partition column %s is not defined", column)
	}

	spec := iceberg.NewPartitionSpec(iceberg.PartitionField{
		SourceID:  field.ID,
		FieldID:   partitionFieldIDStart,
		Name:      column,
		Transform: iceberg.IdentityTransform{},
	})
	return &spec, nil
}

// DescribeSchema renders a schema the way DESCRIBE TABLE does
func DescribeSchema(schema *iceberg.Schema) *core.Result {
	res := &core.Result{Columns: []string{"col_name", "data_type", "comment"}}
	for _, field := range schema.Fields() {
		res.Rows = append(res.Rows, []any{field.Name, field.Type.String(), field.Doc})
	}
	return res
}
