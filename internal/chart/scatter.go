package chart

import (
	"github.com/sells-group/streetviz/internal/geodata"
)

// Scatter plots one dot per street at its selected metric value.
type Scatter struct {
	Metric geodata.Metric
}

// ID implements Renderer.
func (Scatter) ID() string { return ScatterID }

// Size implements Renderer.
func (Scatter) Size() (int, int) { return Width, 350 }

// Scales builds the street band scale and the [0, max] value scale.
func (Scatter) Scales(records []StreetRecord) (*BandScale, LinearScale) {
	return streetScales(records)
}

// Render implements Renderer.
func (s Scatter) Render(c *Canvas, records []StreetRecord) {
	c.Clear()

	x, y := s.Scales(records)
	streetAxes(c, x, y, DefaultMargin)

	c.Append(
		title("Streets", "x", num(Width/2), "y", num(Height+30)),
		title(s.Metric.Key(), "transform", "rotate(-90)", "x", num(-Height/2), "y", "15"),
	)

	for _, r := range records {
		if !r.OK {
			continue
		}
		cx, _ := x.Center(r.Street)
		c.Append(El("circle", "cx", num(cx), "cy", num(y.Scale(r.Value)), "r", "5", "fill", "blue"))
	}
}
