// Package display renders result sets for terminals and files.
package display

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aman-zulfiqar/coinquery/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// Render writes rs in format. Text cells are HTML-unescaped first.
func Render(w io.Writer, rs *models.ResultSet, format string) error {
	if rs == nil {
		rs = &models.ResultSet{}
	}
	rs = rs.Unescaped()

	switch format {
	case FormatJSON:
		return renderJSON(w, rs)
	case FormatCSV:
		return renderCSV(w, rs)
	case FormatTable, "":
		return renderTable(w, rs)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, rs *models.ResultSet) error {
	if len(rs.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(rs.Columns))
	for i, c := range rs.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range rs.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = models.DisplayValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rs.Rows))
	return nil
}

func renderJSON(w io.Writer, rs *models.ResultSet) error {
	out := make([]map[string]any, 0, len(rs.Rows))
	for _, r := range rs.Rows {
		m := make(map[string]any, len(rs.Columns))
		for i, c := range rs.Columns {
			m[c] = r[i]
		}
		out = append(out, m)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderCSV(w io.Writer, rs *models.ResultSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.Columns); err != nil {
		return err
	}
	for _, r := range rs.Rows {
		rec := make([]string, len(r))
		for i, v := range r {
			rec[i] = models.DisplayString(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
