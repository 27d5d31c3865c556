// Package chart decides whether a question asks for a chart, which kind, and
// builds it from a query result.
package chart

import (
	"strings"

	"github.com/aman-zulfiqar/coinquery/internal/models"
)

// Kind is a chart type.
type Kind string

const (
	KindNone      Kind = "none"
	KindPie       Kind = "pie"
	KindHistogram Kind = "histogram"
	KindBar       Kind = "bar"
	KindLine      Kind = "line"
)

// SourceColumn groups multi-asset results; DateColumn is the line chart x axis.
const (
	SourceColumn = "Source"
	DateColumn   = "Date"
	closeColumn  = "Close"
)

var gateKeywords = []string{"plot", "graph", "chart", "visualize", "line", "bar", "histogram", "pie"}

// Shape is the numeric/non-numeric split of a result's columns, as indexes
// in column order.
type Shape struct {
	Numeric    []int
	NonNumeric []int
}

type rule struct {
	kind  Kind
	match func(q string, s Shape) bool
}

// rules are evaluated top to bottom; the first match wins.
var rules = []rule{
	{KindPie, func(q string, s Shape) bool {
		return strings.Contains(q, "pie") && len(s.Numeric) > 0 && len(s.NonNumeric) > 0
	}},
	{KindHistogram, func(q string, _ Shape) bool { return strings.Contains(q, "hist") }},
	{KindBar, func(q string, _ Shape) bool { return strings.Contains(q, "bar") }},
	{KindLine, func(string, Shape) bool { return true }},
}

// Requested reports whether question contains any chart keyword.
func Requested(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range gateKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// Intent classifies question against a result shape.
func Intent(question string, shape Shape) Kind {
	if !Requested(question) {
		return KindNone
	}
	q := strings.ToLower(question)
	for _, r := range rules {
		if r.match(q, shape) {
			return r.kind
		}
	}
	return KindNone
}

// ClassifyColumns splits rs's columns by their runtime values. A column is
// numeric when it has at least one non-nil value and every non-nil value is
// a number.
func ClassifyColumns(rs *models.ResultSet) Shape {
	var s Shape
	if rs == nil {
		return s
	}
	for i := range rs.Columns {
		if isNumericColumn(rs, i) {
			s.Numeric = append(s.Numeric, i)
		} else {
			s.NonNumeric = append(s.NonNumeric, i)
		}
	}
	return s
}

func isNumericColumn(rs *models.ResultSet, col int) bool {
	seen := false
	for _, row := range rs.Rows {
		if col >= len(row) || row[col] == nil {
			continue
		}
		if _, ok := number(row[col]); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
