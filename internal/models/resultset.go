package models

import (
	"fmt"
	"html"
	"time"
)

// ResultSet is the tabular outcome of one executed statement.
// Every row has exactly len(Columns) cells.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ColumnIndex returns the position of the named column, or -1.
func (rs *ResultSet) ColumnIndex(name string) int {
	for i, c := range rs.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of column i across all rows.
func (rs *ResultSet) Column(i int) []any {
	out := make([]any, len(rs.Rows))
	for r, row := range rs.Rows {
		out[r] = row[i]
	}
	return out
}

// Unescaped returns a copy with HTML entities decoded in text cells, for display.
func (rs *ResultSet) Unescaped() *ResultSet {
	out := &ResultSet{
		Columns: append([]string(nil), rs.Columns...),
		Rows:    make([][]any, len(rs.Rows)),
	}
	for i, row := range rs.Rows {
		cp := make([]any, len(row))
		for j, v := range row {
			if s, ok := v.(string); ok {
				v = html.UnescapeString(s)
			}
			cp[j] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// DisplayValue formats a cell the way tables and CSV show it.
func DisplayValue(v any) any {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return v
	}
}

// DisplayString is DisplayValue as text.
func DisplayString(v any) string {
	return fmt.Sprint(DisplayValue(v))
}
