package chart

import (
	"testing"
	"time"

	"github.com/aman-zulfiqar/coinquery/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priceRows() *models.ResultSet {
	return &models.ResultSet{
		Columns: []string{"Source", "Date", "Close"},
		Rows: [][]any{
			{"Bitcoin", "2021-01-02 23:59:59", 32127.27},
			{"Ethereum", "2021-01-01 23:59:59", 730.37},
			{"Bitcoin", "2021-01-01 23:59:59", 29374.15},
			{"Ethereum", "2021-01-02 23:59:59", 774.53},
			{"Bitcoin", "not a date", 1.0},
		},
	}
}

func TestRequested(t *testing.T) {
	assert.True(t, Requested("Plot BTC"))
	assert.True(t, Requested("VISUALIZE volume"))
	assert.True(t, Requested("a histogram of highs"))
	assert.False(t, Requested("what was the highest close in 2021?"))
	assert.False(t, Requested(""))
}

func TestIntent_Priority(t *testing.T) {
	mixed := Shape{Numeric: []int{1}, NonNumeric: []int{0}}
	numericOnly := Shape{Numeric: []int{0}}

	cases := []struct {
		name     string
		question string
		shape    Shape
		want     Kind
	}{
		{"pie wins over everything", "show me a pie of X by Y as a bar histogram line chart", mixed, KindPie},
		{"pie needs both column kinds", "pie chart of close", numericOnly, KindLine},
		{"pie without shape falls to hist", "pie histogram", numericOnly, KindHistogram},
		{"hist substring", "plot a hist of volume", mixed, KindHistogram},
		{"bar", "bar chart of volume", mixed, KindBar},
		{"bar as substring", "graph barely anything", mixed, KindBar},
		{"line default", "plot close", mixed, KindLine},
		{"no keyword", "average close by year", mixed, KindNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Intent(tc.question, tc.shape))
		})
	}
}

func TestClassifyColumns(t *testing.T) {
	rs := &models.ResultSet{
		Columns: []string{"Source", "Close", "Volume", "Flag", "Empty"},
		Rows: [][]any{
			{"Bitcoin", 1.5, int64(3), true, nil},
			{"Ethereum", nil, int64(4), false, nil},
		},
	}
	s := ClassifyColumns(rs)
	assert.Equal(t, []int{1, 2}, s.Numeric)
	assert.Equal(t, []int{0, 3, 4}, s.NonNumeric)
}

func TestSelect_NoKeywordNeverCharts(t *testing.T) {
	sel := NewSelector(nil)
	for _, rs := range []*models.ResultSet{priceRows(), nil, {Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}} {
		out := sel.Select("what was the max close?", rs)
		assert.Equal(t, KindNone, out.Kind)
		assert.False(t, out.Rendered())
		assert.Nil(t, out.Warning)
	}
}

func TestSelect_PieTopPriority(t *testing.T) {
	rs := &models.ResultSet{
		Columns: []string{"Source", "Volume"},
		Rows: [][]any{
			{"Bitcoin", 10.0},
			{"Ethereum", 5.0},
			{"Bitcoin", 2.0},
			{"USD Coin", nil},
		},
	}
	out := NewSelector(nil).Select("show me a pie of X by Y, maybe a bar or histogram line", rs)
	require.True(t, out.Rendered())
	assert.Equal(t, KindPie, out.Kind)
	assert.Equal(t, "Pie Chart of Volume by Source", out.Figure.Title)
	assert.Equal(t, []Slice{{"Bitcoin", 12}, {"Ethereum", 5}}, out.Figure.Slices)
}

func TestSelect_LineWithoutDateWarns(t *testing.T) {
	rs := &models.ResultSet{
		Columns: []string{"Source", "Close"},
		Rows:    [][]any{{"Bitcoin", 1.0}},
	}
	out := NewSelector(nil).Select("plot close", rs)
	assert.Equal(t, KindLine, out.Kind)
	assert.False(t, out.Rendered())
	require.NotNil(t, out.Warning)
	assert.Contains(t, out.Warning.Error(), "Date")
}

func TestSelect_LinePerSource(t *testing.T) {
	out := NewSelector(nil).Select("plot BTC close over 2021", priceRows())
	require.True(t, out.Rendered())
	fig := out.Figure

	assert.Equal(t, KindLine, fig.Kind)
	assert.Equal(t, "Date", fig.XLabel)
	assert.Equal(t, "Close", fig.YLabel)
	assert.Equal(t, "Line Chart of Close over Time by Source", fig.Title)

	require.Len(t, fig.Series, 2)
	assert.Equal(t, "Bitcoin", fig.Series[0].Name)
	assert.Equal(t, "Ethereum", fig.Series[1].Name)

	btc := fig.Series[0].Points
	require.Len(t, btc, 2, "unparseable date rows are dropped")
	assert.True(t, btc[0].Time.Before(btc[1].Time))
	assert.InDelta(t, 29374.15, btc[0].Value, 1e-9)
	assert.Equal(t, "2021-01-01", btc[0].Label)
}

func TestSelect_LineSingleSeriesAndTimeValues(t *testing.T) {
	d := time.Date(2021, 3, 1, 23, 59, 59, 0, time.UTC)
	rs := &models.ResultSet{
		Columns: []string{"Date", "High"},
		Rows: [][]any{
			{d.AddDate(0, 0, 1), 2.0},
			{d, int64(1)},
		},
	}
	out := NewSelector(nil).Select("line of highs", rs)
	require.True(t, out.Rendered())
	require.Len(t, out.Figure.Series, 1)
	assert.Equal(t, "", out.Figure.Series[0].Name)
	assert.Equal(t, "Line Chart of High over Time", out.Figure.Title)
	assert.Equal(t, 1.0, out.Figure.Series[0].Points[0].Value)
}

func TestSelect_LineCloseFallback(t *testing.T) {
	rs := &models.ResultSet{
		Columns: []string{"Date", "Close"},
		Rows: [][]any{
			{"2021-01-01", "10.5"},
			{"2021-01-02", "n/a"},
		},
	}
	out := NewSelector(nil).Select("chart it", rs)
	require.True(t, out.Rendered())
	assert.Equal(t, "Close", out.Figure.YLabel)
	require.Len(t, out.Figure.Series[0].Points, 1)
	assert.Equal(t, 10.5, out.Figure.Series[0].Points[0].Value)
}

func TestSelect_Histogram(t *testing.T) {
	rs := &models.ResultSet{Columns: []string{"Close"}}
	for i := 0; i <= 100; i++ {
		rs.Rows = append(rs.Rows, []any{float64(i)})
	}
	rs.Rows = append(rs.Rows, []any{nil})

	out := NewSelector(nil).Select("histogram of close", rs)
	require.True(t, out.Rendered())
	fig := out.Figure
	assert.Equal(t, "Histogram of Close", fig.Title)
	assert.Equal(t, "Frequency", fig.YLabel)
	require.Len(t, fig.Series[0].Points, histogramBins)

	total := 0.0
	for _, p := range fig.Series[0].Points {
		total += p.Value
	}
	assert.Equal(t, 101.0, total)
	assert.Equal(t, 11.0, fig.Series[0].Points[histogramBins-1].Value)
}

func TestSelect_HistogramNeedsNumeric(t *testing.T) {
	rs := &models.ResultSet{Columns: []string{"Name"}, Rows: [][]any{{"Bitcoin"}}}
	out := NewSelector(nil).Select("histogram of names", rs)
	assert.Equal(t, KindHistogram, out.Kind)
	assert.False(t, out.Rendered())
	require.NotNil(t, out.Warning)
	assert.Equal(t, KindHistogram, out.Warning.Kind)
}

func TestSelect_BarGroupsBySource(t *testing.T) {
	rs := &models.ResultSet{
		Columns: []string{"Name", "Source", "Volume"},
		Rows: [][]any{
			{"x", "Ethereum", 1.0},
			{"y", "Bitcoin", 2.0},
			{"z", "Ethereum", 3.0},
		},
	}
	out := NewSelector(nil).Select("bar chart of volume", rs)
	require.True(t, out.Rendered())
	assert.Equal(t, "Bar Chart of Volume by Source", out.Figure.Title)
	assert.Equal(t, []Point{{Label: "Bitcoin", Value: 2}, {Label: "Ethereum", Value: 4}}, out.Figure.Series[0].Points)
}

func TestSelect_BarWarnings(t *testing.T) {
	sel := NewSelector(nil)

	out := sel.Select("bar", &models.ResultSet{Columns: []string{"Name"}, Rows: [][]any{{"a"}}})
	require.NotNil(t, out.Warning)

	out = sel.Select("bar", &models.ResultSet{Columns: []string{"Close"}, Rows: [][]any{{1.0}}})
	require.NotNil(t, out.Warning)
	assert.Contains(t, out.Warning.Reason, "group")
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	rs := &models.ResultSet{
		Columns: []string{"Source", "Volume"},
		Rows:    [][]any{{"AT&amp;T", 1.0}},
	}
	out := NewSelector(nil).Select("pie", rs)
	require.True(t, out.Rendered())
	assert.Equal(t, "AT&T", out.Figure.Slices[0].Label)
	assert.Equal(t, "AT&amp;T", rs.Rows[0][0])
}
