// Package chart turns grouped street records into the scatter plot, hour
// heatmap and crime-count line chart. Every render rebuilds its scales and
// redraws its canvas from scratch.
package chart

import (
	"github.com/sells-group/streetviz/internal/geodata"
)

// Canvas ids of the three charts.
const (
	ScatterID = "scatterplot"
	HeatmapID = "heatmap"
	LineID    = "linechart"
)

// Renderer draws grouped records onto a canvas, clearing it first.
type Renderer interface {
	ID() string
	Size() (width, height int)
	Render(c *Canvas, records []StreetRecord)
}

// Plot pairs a renderer with the selector that produces its records.
type Plot struct {
	Renderer Renderer
	Select   Selector
}

// Plots returns the three charts for the selected metric.
func Plots(m geodata.Metric) []Plot {
	return []Plot{
		{Renderer: Scatter{Metric: m}, Select: MetricSelector(m)},
		{Renderer: Heatmap{}, Select: HourSelector()},
		{Renderer: Line{}, Select: CrimeCountSelector()},
	}
}

// NewCanvasFor creates the canvas a renderer draws into.
func NewCanvasFor(r Renderer) *Canvas {
	w, h := r.Size()
	return NewCanvas(r.ID(), w, h)
}

// streetScales builds the shared scatter/line scales.
func streetScales(records []StreetRecord) (*BandScale, LinearScale) {
	m := DefaultMargin
	x := NewBandScale(Streets(records), m.Left, Width-m.Right, StreetPadding)
	d := MaxDomain(records)
	y := LinearScale{D0: d[0], D1: d[1], R0: Height - m.Bottom, R1: m.Top}
	return x, y
}

// streetAxes draws the x axis with rotated street labels and the y value axis.
func streetAxes(c *Canvas, x *BandScale, y LinearScale, m Margin) {
	r0, r1 := x.Range()
	xAxis := axisBottom(r0, r1, Height-m.Bottom, bandTicks(x))
	rotateLabels(xAxis, -45)
	c.Append(xAxis, axisLeft(y.R0, y.R1, m.Left, linearTicks(y)))
}
