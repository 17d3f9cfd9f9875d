package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/keepice/pkg/connector/core"
)

// writeResult renders res as an aligned table or as a JSON array of rows
// keyed by column name.
func writeResult(w io.Writer, format string, res *core.Result) error {
	if res == nil {
		res = &core.Result{}
	}

	switch format {
	case "json":
		return writeJSON(w, res)
	case "table", "":
		return writeTable(w, res)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeJSON(w io.Writer, res *core.Result) error {
	rows := make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		obj := make(map[string]any, len(row))
		for i, v := range row {
			obj[columnName(res.Columns, i)] = v
		}
		rows = append(rows, obj)
	}

	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeTable(w io.Writer, res *core.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(res.Columns) > 0 {
		for i, col := range res.Columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, col)
		}
		fmt.Fprintln(tw)
	}
	for _, row := range res.Rows {
		for i, v := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			if v == nil {
				fmt.Fprint(tw, "NULL")
				continue
			}
			fmt.Fprint(tw, v)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func columnName(columns []string, i int) string {
	if i < len(columns) {
		return columns[i]
	}
	return fmt.Sprintf("col%d", i)
}
