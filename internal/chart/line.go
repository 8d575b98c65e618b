package chart

import (
	"strings"
)

// Line connects the streets' crime counts in categorical order.
type Line struct{}

// ID implements Renderer.
func (Line) ID() string { return LineID }

// Size implements Renderer.
func (Line) Size() (int, int) { return Width, 350 }

// Scales builds the street band scale and the [0, max] count scale.
func (Line) Scales(records []StreetRecord) (*BandScale, LinearScale) {
	return streetScales(records)
}

// Path returns the SVG path through admissible records, or "" when there are none.
func (l Line) Path(records []StreetRecord) string {
	x, y := l.Scales(records)
	var b strings.Builder
	for _, r := range records {
		if !r.OK {
			continue
		}
		cx, _ := x.Center(r.Street)
		if b.Len() == 0 {
			b.WriteByte('M')
		} else {
			b.WriteByte('L')
		}
		b.WriteString(num(cx))
		b.WriteByte(',')
		b.WriteString(num(y.Scale(r.Value)))
	}
	return b.String()
}

// Render implements Renderer.
func (l Line) Render(c *Canvas, records []StreetRecord) {
	c.Clear()

	x, y := l.Scales(records)
	streetAxes(c, x, y, DefaultMargin)

	c.Append(
		title("Streets", "x", num(Width/2), "y", num(Height+30)),
		title("Crime Count", "transform", "rotate(-90)", "x", num(-Height/2), "y", "15"),
	)

	path := El("path", "fill", "none", "stroke", "blue", "stroke-width", "2")
	if d := l.Path(records); d != "" {
		path.Set("d", d)
	}
	c.Append(path)
}
