package chart

import "math"

// Axes follow the usual SVG axis layout: a domain path with outer ticks of
// size 6, tick lines of size 6, labels offset by 3 and everything shifted by
// half a pixel for crisp strokes.
const (
	tickSize    = 6
	tickPadding = 3
	crispOffset = 0.5
)

type axisTick struct {
	pos   float64
	label string
}

// bandTicks places ticks so that, once the axis adds crispOffset, they land on
// the band centers.
func bandTicks(s *BandScale) []axisTick {
	inset := math.Max(0, s.Bandwidth()-2*crispOffset) / 2
	out := make([]axisTick, 0, len(s.Domain()))
	for _, k := range s.Domain() {
		p, _ := s.Position(k)
		out = append(out, axisTick{pos: p + inset, label: k})
	}
	return out
}

func linearTicks(s LinearScale) []axisTick {
	const count = 10
	format := s.TickFormat(count)
	values := s.Ticks(count)
	out := make([]axisTick, 0, len(values))
	for _, v := range values {
		out = append(out, axisTick{pos: s.Scale(v), label: format(v)})
	}
	return out
}

func axisGroup(anchor string) *Element {
	return El("g", "fill", "none", "font-size", "10", "font-family", "sans-serif", "text-anchor", anchor)
}

// axisBottom draws a horizontal axis translated to y.
func axisBottom(r0, r1, y float64, ticks []axisTick) *Element {
	g := axisGroup("middle").Set("transform", translate(0, y))
	g.Append(El("path", "class", "domain", "stroke", "currentColor",
		"d", "M"+num(r0+crispOffset)+","+num(tickSize)+"V"+num(crispOffset)+"H"+num(r1+crispOffset)+"V"+num(tickSize)))
	for _, t := range ticks {
		g.Append(El("g", "class", "tick", "opacity", "1", "transform", translate(t.pos+crispOffset, 0)).Append(
			El("line", "stroke", "currentColor", "y2", num(tickSize)),
			El("text", "fill", "currentColor", "y", num(tickSize+tickPadding), "dy", "0.71em").WithText(t.label),
		))
	}
	return g
}

// axisLeft draws a vertical axis translated to x.
func axisLeft(r0, r1, x float64, ticks []axisTick) *Element {
	g := axisGroup("end").Set("transform", translate(x, 0))
	g.Append(El("path", "class", "domain", "stroke", "currentColor",
		"d", "M"+num(-tickSize)+","+num(r0+crispOffset)+"H"+num(crispOffset)+"V"+num(r1+crispOffset)+"H"+num(-tickSize)))
	for _, t := range ticks {
		g.Append(El("g", "class", "tick", "opacity", "1", "transform", translate(0, t.pos+crispOffset)).Append(
			El("line", "stroke", "currentColor", "x2", num(-tickSize)),
			El("text", "fill", "currentColor", "x", num(-(tickSize+tickPadding)), "dy", "0.32em").WithText(t.label),
		))
	}
	return g
}

// rotateLabels tilts every tick label of an axis for legibility.
func rotateLabels(axis *Element, degrees float64) {
	axis.Walk(func(e *Element) {
		if e.Tag == "text" {
			e.Set("transform", "rotate("+num(degrees)+")")
			e.Set("style", "text-anchor: end;")
		}
	})
}

func title(text string, kv ...string) *Element {
	return El("text", kv...).Set("text-anchor", "middle").WithText(text)
}
