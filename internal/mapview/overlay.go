// Package mapview builds the map overlay: one colored polyline per street line
// part with an info popup, plus the styled administrative boundary layer.
package mapview

import (
	"bytes"
	"encoding/json"
	"html/template"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/sells-group/streetviz/internal/geodata"
)

// Stroke colors and widths.
const (
	RiskColor      = "red"
	SafeColor      = "green"
	StreetWeight   = 3
	BoundaryColor  = "darkgrey"
	BoundaryWeight = 2
	RiskThreshold  = 0.5
)

const (
	defaultZoom    = 10
	defaultTileURL = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	notAvailable   = "N/A"
)

// DefaultCenter is the initial map center as (lat, lon).
var DefaultCenter = [2]float64{41.8781, -87.6298}

// Options configures the map view.
type Options struct {
	Center  [2]float64
	Zoom    int
	TileURL string
}

// DefaultOptions returns the Chicago view over the public OSM tiles.
func DefaultOptions() Options {
	return Options{Center: DefaultCenter, Zoom: defaultZoom, TileURL: defaultTileURL}
}

// Style is a static path style.
type Style struct {
	Color  string `json:"color"`
	Weight int    `json:"weight"`
}

// BoundaryLayer is the boundary collection drawn with a fixed style.
type BoundaryLayer struct {
	Data  json.RawMessage `json:"data"`
	Style Style           `json:"style"`
}

// Polyline is one drawn line part of a street feature. Positions are (lat, lon).
type Polyline struct {
	Key       string       `json:"key"`
	Positions [][2]float64 `json:"positions"`
	Color     string       `json:"color"`
	Weight    int          `json:"weight"`
	Popup     string       `json:"popup"`
}

// Overlay is everything the map surface draws.
type Overlay struct {
	Center     [2]float64     `json:"center"`
	Zoom       int            `json:"zoom"`
	TileURL    string         `json:"tileUrl"`
	Boundaries *BoundaryLayer `json:"boundaries,omitempty"`
	Polylines  []Polyline     `json:"polylines"`
	// Bounds is [[south, west], [north, east]] over all polylines.
	Bounds *[2][2]float64 `json:"bounds,omitempty"`
}

// StrokeColor applies the binary risk rule. Non-numeric risk reads as safe.
func StrokeColor(p geodata.Properties) string {
	if v, ok := p.Float(geodata.PropRiskIndex); ok && v > RiskThreshold {
		return RiskColor
	}
	return SafeColor
}

var popupTmpl = template.Must(template.New("popup").Parse(
	`<strong>Street:</strong> {{.Street}}<br /><strong>LVI:</strong> {{.Risk}}<br />` +
		`<strong>Top Crime:</strong> {{.TopCrime}}<br /><strong>Crime Count:</strong> {{.CrimeCount}}`))

type popupData struct {
	Street     string
	Risk       string
	TopCrime   string
	CrimeCount string
}

// Popup renders the escaped info popup for a feature.
func Popup(p geodata.Properties) string {
	data := popupData{
		Street:     p.Street(),
		Risk:       notAvailable,
		TopCrime:   p.String(geodata.PropTopCrime),
		CrimeCount: p.String(geodata.PropCrimeCount),
	}
	if v, ok := p.Float(geodata.PropRiskIndex); ok {
		data.Risk = fixed2(v)
	}

	var buf bytes.Buffer
	if err := popupTmpl.Execute(&buf, data); err != nil {
		zap.L().Warn("mapview: render popup", zap.Error(err))
		return ""
	}
	return buf.String()
}

// fixed2 formats v with two decimals. Exact halves round away from zero, so
// 0.125 reads 0.13.
func fixed2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	scaled := new(big.Float).SetPrec(128).SetFloat64(math.Abs(v))
	scaled.Mul(scaled, big.NewFloat(100))
	n, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(128).Sub(scaled, new(big.Float).SetInt(n))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		n.Add(n, big.NewInt(1))
	}

	digits := n.String()
	if len(digits) < 3 {
		digits = strings.Repeat("0", 3-len(digits)) + digits
	}
	out := digits[:len(digits)-2] + "." + digits[len(digits)-2:]
	if v < 0 {
		out = "-" + out
	}
	return out
}

// Build draws every MultiLineString part of every street feature, without
// grouping. Other geometry types are skipped. Either input may be nil.
func Build(streets *geodata.StreetCollection, boundaries *geodata.Boundaries, opts Options) *Overlay {
	out := &Overlay{
		Center:    opts.Center,
		Zoom:      opts.Zoom,
		TileURL:   opts.TileURL,
		Polylines: []Polyline{},
	}
	if boundaries != nil {
		out.Boundaries = &BoundaryLayer{
			Data:  boundaries.Raw,
			Style: Style{Color: BoundaryColor, Weight: BoundaryWeight},
		}
	}
	if streets == nil {
		return out
	}

	var (
		bound   orb.Bound
		bounded bool
		skipped int
	)
	for _, f := range streets.Features {
		parts, ok := geodata.MultiLineParts(f.Geometry)
		if !ok {
			skipped++
			continue
		}
		color := StrokeColor(f.Properties)
		popup := Popup(f.Properties)
		for i, coords := range parts {
			positions := make([][2]float64, 0, len(coords))
			for _, c := range coords {
				if len(c) < 2 {
					continue
				}
				pt := orb.Point{c[0], c[1]}
				if !bounded {
					bound, bounded = pt.Bound(), true
				} else {
					bound = bound.Extend(pt)
				}
				positions = append(positions, [2]float64{pt.Lat(), pt.Lon()})
			}
			out.Polylines = append(out.Polylines, Polyline{
				Key:       strconv.Itoa(f.Index) + "-" + strconv.Itoa(i),
				Positions: positions,
				Color:     color,
				Weight:    StreetWeight,
				Popup:     popup,
			})
		}
	}

	if bounded {
		out.Bounds = &[2][2]float64{
			{bound.Min.Lat(), bound.Min.Lon()},
			{bound.Max.Lat(), bound.Max.Lon()},
		}
	}
	if skipped > 0 {
		zap.L().Debug("mapview: skipped non-multiline features", zap.Int("skipped", skipped))
	}
	return out
}
