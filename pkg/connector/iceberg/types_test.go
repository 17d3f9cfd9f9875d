package iceberg

import (
	"testing"

	iceberg "github.com/apache/iceberg-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/errors"
)

func TestConvertSQLType(t *testing.T) {
	tests := []struct {
		in   string
		want iceberg.Type
	}{
		{"string", iceberg.PrimitiveTypes.String},
		{"VARCHAR(20)", iceberg.PrimitiveTypes.String},
		{"int", iceberg.PrimitiveTypes.Int32},
		{"BIGINT", iceberg.PrimitiveTypes.Int64},
		{"double", iceberg.PrimitiveTypes.Float64},
		{"boolean", iceberg.PrimitiveTypes.Bool},
		{"date", iceberg.PrimitiveTypes.Date},
		{"timestamp", iceberg.PrimitiveTypes.TimestampTz},
		{"timestamp_ntz", iceberg.PrimitiveTypes.Timestamp},
		{"decimal(10, 2)", iceberg.DecimalTypeOf(10, 2)},
		{"decimal(38,38)", iceberg.DecimalTypeOf(38, 38)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ConvertSQLType(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equals(got), "got %s", got)
		})
	}

	_, err := ConvertSQLType("map<string,int>")
	assert.Error(t, err)
}

func TestConvertSQLTypeDecimalRange(t *testing.T) {
	for _, in := range []string{
		"decimal(39,2)",
		"decimal(0,0)",
		"decimal(10,11)",
		"decimal(99999999999999999999,2)",
	} {
		t.Run(in, func(t *testing.T) {
			got, err := ConvertSQLType(in)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupported))
		})
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	schema, err := SchemaFromColumns([]core.Column{
		{Name: "id", Type: "bigint"},
		{Name: "name", Type: "string"},
	})
	require.NoError(t, err)

	res := DescribeSchema(schema)
	assert.Equal(t, []string{"col_name", "data_type", "comment"}, res.Columns)
	assert.Equal(t, [][]any{{"id", "long", ""}, {"name", "string", ""}}, res.Rows)
}

func TestIdentityPartition(t *testing.T) {
	schema, err := SchemaFromColumns([]core.Column{{Name: "day", Type: "date"}})
	require.NoError(t, err)

	spec, err := IdentityPartition(schema, "day")
	require.NoError(t, err)
	assert.Equal(t, 1, spec.NumFields())
	assert.Equal(t, 1, spec.Field(0).SourceID)

	_, err = IdentityPartition(schema, "missing")
	assert.Error(t, err)
}

func TestSanitizeProperties(t *testing.T) {
	got := SanitizeProperties(iceberg.Properties{
		"uri":                  "http://catalog",
		"s3.access-key-id":     "AKIA",
		"s3.secret-access-key": "secret",
		"rest.sigv4-enabled":   "true",
		"credential":           "client:secret",
	})
	assert.Equal(t, "http://catalog", got["uri"])
	assert.Equal(t, "true", got["rest.sigv4-enabled"])
	assert.Equal(t, redacted, got["s3.access-key-id"])
	assert.Equal(t, redacted, got["s3.secret-access-key"])
	assert.Equal(t, redacted, got["credential"])
}
