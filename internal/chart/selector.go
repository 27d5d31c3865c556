package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/coinquery/internal/models"
	"github.com/sirupsen/logrus"
)

const histogramBins = 10

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// PreconditionWarning reports a requested chart whose data requirement is
// not met. It is advisory; the tabular result is still valid.
type PreconditionWarning struct {
	Kind   Kind
	Reason string
}

func (w *PreconditionWarning) Error() string {
	return fmt.Sprintf("cannot draw %s chart: %s", w.Kind, w.Reason)
}

// Point is one x/y pair. Time is set for line charts only.
type Point struct {
	Label string    `json:"label"`
	Time  time.Time `json:"time,omitempty"`
	Value float64   `json:"value"`
}

// Series is one named line or bar group.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Slice is one pie wedge.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Figure is a render-independent chart.
type Figure struct {
	Kind   Kind     `json:"kind"`
	Title  string   `json:"title"`
	XLabel string   `json:"x_label"`
	YLabel string   `json:"y_label"`
	Series []Series `json:"series,omitempty"`
	Slices []Slice  `json:"slices,omitempty"`
}

// Outcome is the result of Select. Figure is nil when no chart is drawn;
// Warning explains why when a chart was requested.
type Outcome struct {
	Kind    Kind
	Figure  *Figure
	Warning *PreconditionWarning
}

// Rendered reports whether a figure was produced.
func (o Outcome) Rendered() bool { return o.Figure != nil }

// Selector picks and builds charts.
type Selector struct {
	logger *logrus.Logger
}

// NewSelector creates a Selector. A nil logger gets a default one.
func NewSelector(logger *logrus.Logger) *Selector {
	if logger == nil {
		logger = logrus.New()
	}
	return &Selector{logger: logger}
}

// Select classifies question against rs and builds the figure. rs is not
// modified.
func (s *Selector) Select(question string, rs *models.ResultSet) Outcome {
	if !Requested(question) {
		return Outcome{Kind: KindNone}
	}
	if rs == nil {
		rs = &models.ResultSet{}
	}
	rs = rs.Unescaped()

	shape := ClassifyColumns(rs)
	kind := Intent(question, shape)

	var (
		fig *Figure
		err *PreconditionWarning
	)
	switch kind {
	case KindPie:
		fig = buildPie(rs, shape)
	case KindHistogram:
		fig, err = buildHistogram(rs, shape)
	case KindBar:
		fig, err = buildBar(rs, shape)
	case KindLine:
		fig, err = buildLine(rs, shape)
	}

	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"kind":   kind,
			"reason": err.Reason,
		}).Debug("chart precondition not met")
		return Outcome{Kind: kind, Warning: err}
	}
	return Outcome{Kind: kind, Figure: fig}
}

func buildPie(rs *models.ResultSet, shape Shape) *Figure {
	num, cat := shape.Numeric[0], shape.NonNumeric[0]

	var slices []Slice
	pos := map[string]int{}
	for _, row := range rs.Rows {
		v, ok := number(row[num])
		if !ok {
			continue
		}
		label := models.DisplayString(row[cat])
		if i, seen := pos[label]; seen {
			slices[i].Value += v
			continue
		}
		pos[label] = len(slices)
		slices = append(slices, Slice{Label: label, Value: v})
	}

	return &Figure{
		Kind:   KindPie,
		Title:  fmt.Sprintf("Pie Chart of %s by %s", rs.Columns[num], rs.Columns[cat]),
		XLabel: rs.Columns[cat],
		YLabel: rs.Columns[num],
		Slices: slices,
	}
}

func buildHistogram(rs *models.ResultSet, shape Shape) (*Figure, *PreconditionWarning) {
	if len(shape.Numeric) == 0 {
		return nil, &PreconditionWarning{Kind: KindHistogram, Reason: "no numeric column available"}
	}
	num := shape.Numeric[0]

	var values []float64
	for _, row := range rs.Rows {
		if v, ok := number(row[num]); ok {
			values = append(values, v)
		}
	}

	return &Figure{
		Kind:   KindHistogram,
		Title:  fmt.Sprintf("Histogram of %s", rs.Columns[num]),
		XLabel: rs.Columns[num],
		YLabel: "Frequency",
		Series: []Series{{Name: rs.Columns[num], Points: binValues(values, histogramBins)}},
	}, nil
}

// binValues counts values into n equal-width bins over [min, max]. The last
// bin is closed on the right.
func binValues(values []float64, n int) []Point {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []Point{{Label: formatNumber(lo), Value: float64(len(values))}}
	}

	width := (hi - lo) / float64(n)
	counts := make([]float64, n)
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		counts[i]++
	}

	points := make([]Point, n)
	for i := range counts {
		from := lo + float64(i)*width
		points[i] = Point{
			Label: fmt.Sprintf("%s to %s", formatNumber(from), formatNumber(from+width)),
			Value: counts[i],
		}
	}
	return points
}

func buildBar(rs *models.ResultSet, shape Shape) (*Figure, *PreconditionWarning) {
	if len(shape.Numeric) == 0 {
		return nil, &PreconditionWarning{Kind: KindBar, Reason: "no numeric column available"}
	}
	num := shape.Numeric[0]

	grp := rs.ColumnIndex(SourceColumn)
	if grp < 0 {
		if len(shape.NonNumeric) == 0 {
			return nil, &PreconditionWarning{Kind: KindBar, Reason: "no column to group by"}
		}
		grp = shape.NonNumeric[0]
	}

	sums := map[string]float64{}
	for _, row := range rs.Rows {
		label := models.DisplayString(row[grp])
		v, _ := number(row[num])
		sums[label] += v
	}
	labels := make([]string, 0, len(sums))
	for l := range sums {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	points := make([]Point, len(labels))
	for i, l := range labels {
		points[i] = Point{Label: l, Value: sums[l]}
	}

	return &Figure{
		Kind:   KindBar,
		Title:  fmt.Sprintf("Bar Chart of %s by %s", rs.Columns[num], rs.Columns[grp]),
		XLabel: rs.Columns[grp],
		YLabel: rs.Columns[num],
		Series: []Series{{Name: rs.Columns[num], Points: points}},
	}, nil
}

func buildLine(rs *models.ResultSet, shape Shape) (*Figure, *PreconditionWarning) {
	date := rs.ColumnIndex(DateColumn)
	if date < 0 {
		return nil, &PreconditionWarning{Kind: KindLine, Reason: "a 'Date' column is required"}
	}

	y := rs.ColumnIndex(closeColumn)
	if len(shape.Numeric) > 0 {
		y = shape.Numeric[0]
	}
	if y < 0 {
		return nil, &PreconditionWarning{Kind: KindLine, Reason: "no numeric column to plot"}
	}

	src := rs.ColumnIndex(SourceColumn)

	var series []Series
	pos := map[string]int{}
	for _, row := range rs.Rows {
		t, ok := parseDate(row[date])
		if !ok {
			continue
		}
		v, ok := toFloat(row[y])
		if !ok {
			continue
		}

		name := ""
		if src >= 0 {
			name = models.DisplayString(row[src])
		}
		i, seen := pos[name]
		if !seen {
			i = len(series)
			pos[name] = i
			series = append(series, Series{Name: name})
		}
		series[i].Points = append(series[i].Points, Point{
			Label: t.Format("2006-01-02"),
			Time:  t,
			Value: v,
		})
	}

	if len(series) == 0 {
		return nil, &PreconditionWarning{Kind: KindLine, Reason: "no rows with a parseable date"}
	}
	for _, s := range series {
		pts := s.Points
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].Time.Before(pts[b].Time) })
	}

	title := fmt.Sprintf("Line Chart of %s over Time", rs.Columns[y])
	if src >= 0 {
		title += " by " + SourceColumn
	}
	return &Figure{
		Kind:   KindLine,
		Title:  title,
		XLabel: DateColumn,
		YLabel: rs.Columns[y],
		Series: series,
	}, nil
}

func parseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// toFloat also accepts numeric text, for the Close fallback.
func toFloat(v any) (float64, bool) {
	if f, ok := number(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
