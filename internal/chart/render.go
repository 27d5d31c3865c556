package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var errNoFigure = errors.New("no figure to render")

type renderer interface {
	Render(w io.Writer) error
}

// Render writes fig as a standalone HTML page.
func Render(w io.Writer, fig *Figure) error {
	if fig == nil {
		return errNoFigure
	}

	var r renderer
	switch fig.Kind {
	case KindLine:
		r = lineChart(fig)
	case KindBar, KindHistogram:
		r = barChart(fig)
	case KindPie:
		r = pieChart(fig)
	default:
		return fmt.Errorf("unsupported chart kind %q", fig.Kind)
	}

	if err := r.Render(w); err != nil {
		return fmt.Errorf("render %s chart: %w", fig.Kind, err)
	}
	return nil
}

// RenderHTML renders fig into memory.
func RenderHTML(fig *Figure) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, fig); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pageOpts(fig *Figure) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: fig.Title}),
		charts.WithTitleOpts(opts.Title{Title: fig.Title}),
	}
}

func lineChart(fig *Figure) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(pageOpts(fig),
		charts.WithXAxisOpts(opts.XAxis{Name: fig.XLabel, Type: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: fig.YLabel}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)...)

	for _, s := range fig.Series {
		data := make([]opts.LineData, len(s.Points))
		for i, p := range s.Points {
			data[i] = opts.LineData{Value: []interface{}{p.Time.Format("2006-01-02 15:04:05"), p.Value}}
		}
		name := s.Name
		if name == "" {
			name = fig.YLabel
		}
		line.AddSeries(name, data)
	}
	return line
}

func barChart(fig *Figure) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(pageOpts(fig),
		charts.WithXAxisOpts(opts.XAxis{Name: fig.XLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: fig.YLabel}),
	)...)

	if len(fig.Series) == 0 {
		return bar
	}
	s := fig.Series[0]
	labels := make([]string, len(s.Points))
	data := make([]opts.BarData, len(s.Points))
	for i, p := range s.Points {
		labels[i] = p.Label
		data[i] = opts.BarData{Value: p.Value}
	}
	bar.SetXAxis(labels).AddSeries(s.Name, data)
	return bar
}

func pieChart(fig *Figure) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(pageOpts(fig)...)

	data := make([]opts.PieData, len(fig.Slices))
	for i, sl := range fig.Slices {
		data[i] = opts.PieData{Name: sl.Label, Value: sl.Value}
	}
	pie.AddSeries(fig.YLabel, data)
	return pie
}
