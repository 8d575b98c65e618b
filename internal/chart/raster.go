package chart

import (
	"io"

	"github.com/rotisserie/eris"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNothingToDraw is returned by RenderPNG when no record has a numeric value.
var ErrNothingToDraw = eris.New("chart: no admissible values")

// ErrNoRaster is returned by RenderPNG for charts without a raster form.
var ErrNoRaster = eris.New("chart: raster export not supported")

var markBlue = drawing.ColorFromHex("0000ff")

// RenderPNG rasterizes the scatter or line chart. Points sit at the same band
// centers as the SVG rendering, with street names as x tick labels.
func RenderPNG(w io.Writer, r Renderer, records []StreetRecord) error {
	var (
		yName string
		style gochart.Style
	)
	switch rr := r.(type) {
	case Scatter:
		yName = rr.Metric.Key()
		style = gochart.Style{StrokeWidth: gochart.Disabled, DotWidth: 5, DotColor: markBlue}
	case Line:
		yName = "Crime Count"
		style = gochart.Style{StrokeWidth: 2, StrokeColor: markBlue}
	default:
		return eris.Wrapf(ErrNoRaster, "%s", r.ID())
	}

	x, _ := streetScales(records)
	d := MaxDomain(records)

	var xs, ys []float64
	for _, rec := range records {
		if !rec.OK {
			continue
		}
		cx, _ := x.Center(rec.Street)
		xs = append(xs, cx)
		ys = append(ys, rec.Value)
	}
	if len(xs) == 0 {
		return ErrNothingToDraw
	}

	hi := d[1]
	if hi <= 0 {
		hi = 1
	}
	r0, r1 := x.Range()

	ticks := make([]gochart.Tick, 0, len(x.Domain()))
	for _, t := range bandTicks(x) {
		ticks = append(ticks, gochart.Tick{Value: t.pos, Label: t.label})
	}

	graph := gochart.Chart{
		Width:  Width,
		Height: Height,
		XAxis: gochart.XAxis{
			Name:      "Streets",
			Range:     &gochart.ContinuousRange{Min: r0, Max: r1},
			Ticks:     ticks,
			TickStyle: gochart.Style{TextRotationDegrees: 45.0},
		},
		YAxis: gochart.YAxis{
			Name:  yName,
			Range: &gochart.ContinuousRange{Min: 0, Max: hi},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: r.ID(), XValues: xs, YValues: ys, Style: style},
		},
	}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return eris.Wrapf(err, "chart: render %s png", r.ID())
	}
	return nil
}
