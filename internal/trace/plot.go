package trace

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/arcontrol/internal/db"
)

// ErrEmptyTrace is returned when there is nothing to plot.
var ErrEmptyTrace = errors.New("trace has no samples")

var (
	rawColor      = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	filteredColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	tiltColor     = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Plot builds a static plot of raw Y, filtered Y and tilt against time.
func Plot(title string, points []db.TracePoint) (*plot.Plot, error) {
	if len(points) == 0 {
		return nil, ErrEmptyTrace
	}
	xs := offsets(points)
	raw := make(plotter.XYs, len(points))
	filtered := make(plotter.XYs, len(points))
	tilt := make(plotter.XYs, len(points))
	for i, p := range points {
		raw[i] = plotter.XY{X: xs[i], Y: p.RawY}
		filtered[i] = plotter.XY{X: xs[i], Y: p.FilteredY}
		tilt[i] = plotter.XY{X: xs[i], Y: p.Tilt}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Acceleration (g)"
	p.Add(plotter.NewGrid())

	for _, s := range []struct {
		name  string
		xys   plotter.XYs
		color color.Color
		width vg.Length
	}{
		{"raw y", raw, rawColor, vg.Points(0.5)},
		{"filtered y", filtered, filteredColor, vg.Points(1)},
		{"tilt", tilt, tiltColor, vg.Points(1.5)},
	} {
		line, err := plotter.NewLine(s.xys)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s line: %w", s.name, err)
		}
		line.Color = s.color
		line.Width = s.width
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true
	return p, nil
}

// WritePNG renders the plot as a PNG of the given size.
func WritePNG(w io.Writer, title string, points []db.TracePoint, width, height vg.Length) error {
	p, err := Plot(title, points)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePNG writes the plot to path; the format follows the extension.
func SavePNG(path, title string, points []db.TracePoint) error {
	p, err := Plot(title, points)
	if err != nil {
		return err
	}
	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}
