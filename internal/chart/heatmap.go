package chart

import (
	"math"
	"strconv"
)

// Heatmap places one cell per street at its peak hour, colored by that hour.
// It shows each street's single dominant hour, not a per-hour distribution.
type Heatmap struct{}

// ID implements Renderer.
func (Heatmap) ID() string { return HeatmapID }

// Size implements Renderer.
func (Heatmap) Size() (int, int) { return Width, Height }

// Scales builds the fixed hour band scale and the street band scale.
func (Heatmap) Scales(records []StreetRecord) (x, y *BandScale) {
	m := HeatmapMargin
	x = NewBandScale(HourDomain(), m.Left, Width-m.Right, HeatmapPadding)
	y = NewBandScale(Streets(records), m.Top, Height-m.Bottom, HeatmapPadding)
	return x, y
}

// HourKey returns the band key for an admissible hour.
func HourKey(r StreetRecord) (string, bool) {
	if !r.OK || r.Value != math.Trunc(r.Value) || r.Value < 0 || r.Value > 23 {
		return "", false
	}
	return strconv.Itoa(int(r.Value)), true
}

// Render implements Renderer.
func (h Heatmap) Render(c *Canvas, records []StreetRecord) {
	c.Clear()

	m := HeatmapMargin
	x, y := h.Scales(records)

	x0, x1 := x.Range()
	y0, y1 := y.Range()
	c.Append(
		axisBottom(x0, x1, Height-m.Bottom, bandTicks(x)),
		axisLeft(y0, y1, m.Left, bandTicks(y)),
		title("Hours (24-hour format)", "x", num(Width/2), "y", num(Height-10)),
		title("Streets", "transform", "rotate(-90)", "x", num(-Height/2), "y", "15"),
	)

	for _, r := range records {
		key, ok := HourKey(r)
		if !ok {
			continue
		}
		px, _ := x.Position(key)
		py, _ := y.Position(r.Street)
		c.Append(El("rect",
			"x", num(px),
			"y", num(py),
			"width", num(x.Bandwidth()),
			"height", num(y.Bandwidth()),
			"fill", CSS(HourColor.Color(r.Value)),
		))
	}
}
