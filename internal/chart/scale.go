package chart

import (
	"math"
	"strconv"
	"strings"
)

// Logical chart size shared by all three charts.
const (
	Width  = 400
	Height = 300
)

// Margin is the space reserved around a plot area.
type Margin struct {
	Top, Right, Bottom, Left float64
}

var (
	// DefaultMargin is used by the scatter and line charts.
	DefaultMargin = Margin{Top: 20, Right: 20, Bottom: 50, Left: 50}
	// HeatmapMargin widens the left margin to fit street labels.
	HeatmapMargin = Margin{Top: 20, Right: 20, Bottom: 50, Left: 100}
)

// Band padding per chart.
const (
	StreetPadding  = 0.2
	HeatmapPadding = 0.05
)

// BandScale maps discrete keys to evenly spaced bands with equal inner and
// outer padding, centered in the range.
type BandScale struct {
	domain    []string
	index     map[string]int
	r0, r1    float64
	padding   float64
	step      float64
	bandwidth float64
	start     float64
}

// NewBandScale builds a band scale. Duplicate keys keep their first position.
func NewBandScale(domain []string, r0, r1, padding float64) *BandScale {
	s := &BandScale{index: make(map[string]int, len(domain)), r0: r0, r1: r1, padding: padding}
	for _, k := range domain {
		if _, ok := s.index[k]; ok {
			continue
		}
		s.index[k] = len(s.domain)
		s.domain = append(s.domain, k)
	}

	n := float64(len(s.domain))
	start, stop := r0, r1
	if stop < start {
		start, stop = stop, start
	}
	s.step = (stop - start) / math.Max(1, n-padding+padding*2)
	s.start = start + (stop-start-s.step*(n-padding))*0.5
	s.bandwidth = s.step * (1 - padding)
	return s
}

// Domain returns the keys in band order.
func (s *BandScale) Domain() []string { return s.domain }

// Range returns the output interval.
func (s *BandScale) Range() (float64, float64) { return s.r0, s.r1 }

// Step returns the distance between band starts.
func (s *BandScale) Step() float64 { return s.step }

// Bandwidth returns the width of each band.
func (s *BandScale) Bandwidth() float64 { return s.bandwidth }

// Position returns the start of the key's band.
func (s *BandScale) Position(key string) (float64, bool) {
	i, ok := s.index[key]
	if !ok {
		return 0, false
	}
	if s.r1 < s.r0 {
		i = len(s.domain) - 1 - i
	}
	return s.start + s.step*float64(i), true
}

// Center returns the middle of the key's band.
func (s *BandScale) Center(key string) (float64, bool) {
	p, ok := s.Position(key)
	if !ok {
		return 0, false
	}
	return p + s.bandwidth/2, true
}

// LinearScale maps a continuous domain onto a continuous range.
type LinearScale struct {
	D0, D1 float64
	R0, R1 float64
}

// Scale maps v. A degenerate domain maps every value to the range midpoint.
func (s LinearScale) Scale(v float64) float64 {
	var t float64
	if d := s.D1 - s.D0; d != 0 {
		t = (v - s.D0) / d
	} else {
		t = 0.5
	}
	return s.R0 + t*(s.R1-s.R0)
}

// Ticks returns roughly count nicely rounded values spanning the domain.
func (s LinearScale) Ticks(count int) []float64 {
	return ticks(s.D0, s.D1, count)
}

// TickFormat returns a formatter with the fixed precision implied by the tick step.
func (s LinearScale) TickFormat(count int) func(float64) string {
	step := tickStep(s.D0, s.D1, count)
	precision := 0
	if step != 0 && !math.IsNaN(step) {
		precision = max(0, -exponent(step))
	}
	return func(v float64) string {
		return formatGrouped(v, precision)
	}
}

// MaxDomain returns [0, max] over admissible values, or [0, 0] when there are none.
func MaxDomain(records []StreetRecord) [2]float64 {
	hi, found := 0.0, false
	for _, r := range records {
		if !r.OK {
			continue
		}
		if !found || r.Value > hi {
			hi, found = r.Value, true
		}
	}
	return [2]float64{0, hi}
}

// Streets returns the record streets in order.
func Streets(records []StreetRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Street
	}
	return out
}

// HourDomain returns the fixed hour-of-day keys "0".."23".
func HourDomain() []string {
	out := make([]string, 24)
	for h := range out {
		out[h] = strconv.Itoa(h)
	}
	return out
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// tickSpec returns integer bounds and an increment; a negative increment means
// the ticks are i / -inc.
func tickSpec(start, stop float64, count float64) (i1, i2, inc float64) {
	step := (stop - start) / math.Max(0, count)
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}

	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}

	if i2 < i1 && 0.5 <= count && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

func ticks(start, stop float64, count int) []float64 {
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}

	reverse := stop < start
	lo, hi := start, stop
	if reverse {
		lo, hi = stop, start
	}
	i1, i2, inc := tickSpec(lo, hi, float64(count))
	if !(i2 >= i1) {
		return nil
	}

	n := int(i2-i1) + 1
	out := make([]float64, n)
	for i := range n {
		k := i1 + float64(i)
		if reverse {
			k = i2 - float64(i)
		}
		if inc < 0 {
			out[i] = k / -inc
		} else {
			out[i] = k * inc
		}
	}
	return out
}

func tickStep(start, stop float64, count int) float64 {
	if count <= 0 || start == stop {
		return 0
	}
	lo, hi := start, stop
	if hi < lo {
		lo, hi = hi, lo
	}
	_, _, inc := tickSpec(lo, hi, float64(count))
	if inc < 0 {
		return 1 / -inc
	}
	return inc
}

// exponent returns the decimal exponent of x as written in scientific notation.
func exponent(x float64) int {
	s := strconv.FormatFloat(math.Abs(x), 'e', -1, 64)
	_, exp, _ := strings.Cut(s, "e")
	n, _ := strconv.Atoi(exp)
	return n
}

// formatGrouped formats v with fixed precision and comma thousands grouping,
// using the typographic minus for negatives.
func formatGrouped(v float64, precision int) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', precision, 64)
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}

	out := b.String()
	if v < 0 && strings.Trim(out, "0.,") != "" {
		out = "−" + out
	}
	return out
}
