// Package trace renders recorded steering samples as an interactive HTML
// chart (go-echarts) or a static PNG (gonum/plot), and can replay raw samples
// through a filter to produce the same trace offline.
package trace

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/arcontrol/internal/db"
	"github.com/banshee-data/arcontrol/internal/steering"
)

// Replay runs samples through a fresh filter with the given alpha. Samples
// without a timestamp are spaced interval apart from start.
func Replay(samples []steering.Sample, alpha float64, start time.Time, interval time.Duration) ([]db.TracePoint, error) {
	f, err := steering.NewFilter(alpha)
	if err != nil {
		return nil, err
	}
	out := make([]db.TracePoint, 0, len(samples))
	for i, s := range samples {
		if s.Time.IsZero() {
			s.Time = start.Add(time.Duration(i) * interval)
		}
		tilt := f.Update(s)
		state := f.State()
		out = append(out, db.TracePoint{
			Time:      s.Time,
			RawX:      s.X,
			RawY:      s.Y,
			FilteredX: state.X,
			FilteredY: state.Y,
			Tilt:      tilt,
		})
	}
	return out, nil
}

// offsets returns each point's time since the first, in seconds.
func offsets(points []db.TracePoint) []float64 {
	out := make([]float64, len(points))
	if len(points) == 0 {
		return out
	}
	t0 := points[0].Time
	for i, p := range points {
		out[i] = p.Time.Sub(t0).Seconds()
	}
	return out
}

// RenderHTML writes a page with two line charts: the steering angle against
// the raw and filtered long-axis reading, and the short-axis reading whose
// sign picks the grip.
func RenderHTML(w io.Writer, title string, points []db.TracePoint) error {
	xs := offsets(points)
	labels := make([]string, len(xs))
	for i, x := range xs {
		labels[i] = fmt.Sprintf("%.3f", x)
	}

	series := func(get func(db.TracePoint) float64) []opts.LineData {
		data := make([]opts.LineData, len(points))
		for i, p := range points {
			data[i] = opts.LineData{Value: get(p)}
		}
		return data
	}
	lineOpts := charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})

	tilt := charts.NewLine()
	tilt.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Steering", Subtitle: fmt.Sprintf("%s samples=%d", title, len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "g", Min: -1, Max: 1}),
	)
	tilt.SetXAxis(labels).
		AddSeries("raw y", series(func(p db.TracePoint) float64 { return p.RawY }), lineOpts).
		AddSeries("filtered y", series(func(p db.TracePoint) float64 { return p.FilteredY }), lineOpts).
		AddSeries("tilt", series(func(p db.TracePoint) float64 { return p.Tilt }), lineOpts)

	grip := charts.NewLine()
	grip.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "300px"}),
		charts.WithTitleOpts(opts.Title{Title: "Grip (short axis)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "g", Min: -1, Max: 1}),
	)
	grip.SetXAxis(labels).
		AddSeries("raw x", series(func(p db.TracePoint) float64 { return p.RawX }), lineOpts).
		AddSeries("filtered x", series(func(p db.TracePoint) float64 { return p.FilteredX }), lineOpts)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(tilt, grip)
	return page.Render(w)
}
