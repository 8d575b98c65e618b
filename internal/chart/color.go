package chart

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// redsScheme is the 9-class ColorBrewer "Reds" sequential scheme.
var redsScheme = []string{
	"fff5f0", "fee0d2", "fcbba1", "fc9272", "fb6a4a", "ef3b2c", "cb181d", "a50f15", "67000d",
}

// Interpolator maps t in [0, 1] to a color.
type Interpolator func(t float64) drawing.Color

// Reds interpolates the Reds scheme with a uniform RGB B-spline. t is clamped to [0, 1].
var Reds = rgbBasis(redsScheme)

// HourColor is the heatmap color scale: hours 0..23 through Reds.
var HourColor = SequentialScale{D0: 0, D1: 23, Interpolate: Reds}

// SequentialScale maps a continuous domain to [0, 1] and then through an interpolator.
type SequentialScale struct {
	D0, D1      float64
	Interpolate Interpolator
}

// Color returns the color for v.
func (s SequentialScale) Color(v float64) drawing.Color {
	t := 0.5
	if d := s.D1 - s.D0; d != 0 {
		t = (v - s.D0) / d
	}
	return s.Interpolate(t)
}

// CSS formats a color as rgb(r, g, b).
func CSS(c drawing.Color) string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

func rgbBasis(hexes []string) Interpolator {
	r := make([]float64, len(hexes))
	g := make([]float64, len(hexes))
	b := make([]float64, len(hexes))
	for i, h := range hexes {
		c := drawing.ColorFromHex(h)
		r[i], g[i], b[i] = float64(c.R), float64(c.G), float64(c.B)
	}
	fr, fg, fb := basisSpline(r), basisSpline(g), basisSpline(b)
	return func(t float64) drawing.Color {
		return drawing.Color{R: clampByte(fr(t)), G: clampByte(fg(t)), B: clampByte(fb(t)), A: 255}
	}
}

func basisSpline(values []float64) func(float64) float64 {
	n := len(values) - 1
	return func(t float64) float64 {
		var i int
		switch {
		case t <= 0:
			t, i = 0, 0
		case t >= 1:
			t, i = 1, n-1
		default:
			i = int(math.Floor(t * float64(n)))
		}
		v1, v2 := values[i], values[i+1]
		v0 := 2*v1 - v2
		if i > 0 {
			v0 = values[i-1]
		}
		v3 := 2*v2 - v1
		if i < n-1 {
			v3 = values[i+2]
		}
		return basis((t-float64(i)/float64(n))*float64(n), v0, v1, v2, v3)
	}
}

func basis(t1, v0, v1, v2, v3 float64) float64 {
	t2 := t1 * t1
	t3 := t2 * t1
	return ((1-3*t1+3*t2-t3)*v0 +
		(4-6*t2+3*t3)*v1 +
		(1+3*t1+3*t2-3*t3)*v2 +
		t3*v3) / 6
}

func clampByte(v float64) uint8 {
	v = math.Floor(v + 0.5)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
