package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/keepice/pkg/connector/core"
	"github.com/ajitpratap0/keepice/pkg/manager"
)

func (a *app) databasesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List databases",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			res, err := a.manager.ListDatabases(cmd.Context())
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), a.v.GetString("output"), res)
		}),
	}
}

func (a *app) tablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables <database>",
		Short: "List the tables of a database",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			res, err := a.manager.ListTables(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), a.v.GetString("output"), res)
		}),
	}
}

func (a *app) createDatabaseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create-database <database>",
		Short: "Create a database if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.manager.CreateDatabase(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database %s ready\n", args[0])
			return nil
		}),
	}
}

func (a *app) ddlCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ddl <database> <table>",
		Short: "Show the statement that creates a table",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			res, err := a.manager.GetTableDDL(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), a.v.GetString("output"), res)
		}),
	}
}

func (a *app) createTableCommand() *cobra.Command {
	var columns []string
	var location, partition string

	cmd := &cobra.Command{
		Use:   "create-table <database> <table>",
		Short: "Create an Iceberg table if it does not exist",
		Example: `  keepice create-table sales orders \
    --column id:bigint --column amount:decimal(10,2) --column day:date \
    --location s3://warehouse/sales/orders --partition day`,
		Args: cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			cols, err := parseColumns(columns)
			if err != nil {
				return err
			}
			var opts []manager.CreateTableOption
			if partition != "" {
				opts = append(opts, manager.WithPartitionColumn(partition))
			}
			if err := a.manager.CreateTable(cmd.Context(), args[0], args[1], cols, location, opts...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "table %s.%s ready\n", args[0], args[1])
			return nil
		}),
	}

	cmd.Flags().StringArrayVar(&columns, "column", nil, "Column as name:type, repeat in table order (required)")
	cmd.Flags().StringVar(&location, "location", "", "Table data location (required)")
	cmd.Flags().StringVar(&partition, "partition", "", "Partition column, one of the columns")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func (a *app) dropTableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drop-table <database> <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.manager.DropTable(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "table %s.%s dropped\n", args[0], args[1])
			return nil
		}),
	}
}

func (a *app) propertyCommand() *cobra.Command {
	names := make([]string, 0, len(manager.Properties()))
	for _, p := range manager.Properties() {
		names = append(names, string(p))
	}

	return &cobra.Command{
		Use:       "property <database> <table> <property>",
		Short:     "Read a metadata table (" + strings.Join(names, ", ") + ")",
		Args:      cobra.ExactArgs(3),
		ValidArgs: names,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			res, err := a.manager.GetProperty(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), a.v.GetString("output"), res)
		}),
	}
}

func (a *app) loadCommand() *cobra.Command {
	load := &cobra.Command{
		Use:   "load",
		Short: "Load rows from a source table or query",
	}

	load.AddCommand(&cobra.Command{
		Use:   "bulk <source> <database> <table>",
		Short: "Replace the contents of a table (DELETE then INSERT, not atomic)",
		Args:  cobra.ExactArgs(3),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return a.manager.InsertBulkTableData(cmd.Context(), args[0], args[1], args[2])
		}),
	})

	load.AddCommand(&cobra.Command{
		Use:   "incremental <source> <database> <table>",
		Short: "Append rows to a table",
		Args:  cobra.ExactArgs(3),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return a.manager.InsertIncrementalTableData(cmd.Context(), args[0], args[1], args[2])
		}),
	})
	return load
}

func (a *app) upsertCommand() *cobra.Command {
	var primaryKey, orderCol, sourcePK, changeColumn string

	cmd := &cobra.Command{
		Use:   "upsert <source> <database> <table>",
		Short: "Merge change rows into a table",
		Long: `Merge change rows into a table. Source rows are deduplicated per primary key,
keeping the row with the highest order column. The change column marks a row as a
delete ('d') or an update ('u'); other unmatched rows are inserted.`,
		Args: cobra.ExactArgs(3),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return a.manager.UpsertDeltaTableData(cmd.Context(), args[0], args[1], args[2], primaryKey, orderCol,
				manager.WithSourcePrimaryKey(sourcePK),
				manager.WithChangeColumn(changeColumn))
		}),
	}

	cmd.Flags().StringVar(&primaryKey, "primary-key", "", "Target primary key column (required)")
	cmd.Flags().StringVar(&orderCol, "order-col", "", "Column ordering versions of a row (required)")
	cmd.Flags().StringVar(&sourcePK, "source-pk", "", "Source key column (default: --primary-key)")
	cmd.Flags().StringVar(&changeColumn, "change-column", manager.DefaultChangeColumn, "Source column carrying the change marker")
	_ = cmd.MarkFlagRequired("primary-key")
	_ = cmd.MarkFlagRequired("order-col")
	return cmd
}

// parseColumns turns name:type flags into columns, keeping their order
func parseColumns(specs []string) ([]core.Column, error) {
	columns := make([]core.Column, 0, len(specs))
	for _, spec := range specs {
		name, typ, ok := strings.Cut(spec, ":")
		name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
		if !ok || name == "" || typ == "" {
			return nil, fmt.Errorf("invalid column %q, expected name:type", spec)
		}
		columns = append(columns, core.Column{Name: name, Type: typ})
	}
	return columns, nil
}
