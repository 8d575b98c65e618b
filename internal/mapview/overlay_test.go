package mapview

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/streetviz/internal/geodata"
)

func multiLine(parts ...[]geom.Coord) *geom.MultiLineString {
	return geom.NewMultiLineString(geom.XY).MustSetCoords(parts)
}

func feature(idx int, g geom.T, props geodata.Properties) geodata.StreetFeature {
	return geodata.StreetFeature{Index: idx, Geometry: g, Properties: props}
}

func TestStrokeColor(t *testing.T) {
	tests := []struct {
		name string
		lvi  any
		want string
	}{
		{"above threshold", 0.8, RiskColor},
		{"just above", 0.51, RiskColor},
		{"exactly threshold", 0.5, SafeColor},
		{"below", 0.3, SafeColor},
		{"numeric string", "0.9", RiskColor},
		{"non numeric", "high", SafeColor},
		{"missing", nil, SafeColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StrokeColor(geodata.Properties{"LVI": tt.lvi}))
		})
	}
}

func TestPopup(t *testing.T) {
	p := geodata.Properties{
		"cleaned_block": "Main St",
		"LVI":           0.8,
		"Top_Crime":     "THEFT",
		"Crime_Count":   12.0,
	}
	assert.Equal(t,
		"<strong>Street:</strong> Main St<br /><strong>LVI:</strong> 0.80<br />"+
			"<strong>Top Crime:</strong> THEFT<br /><strong>Crime Count:</strong> 12",
		Popup(p))
}

func TestPopup_RiskRounding(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.125, "0.13"},
		{0.625, "0.63"},
		{0.375, "0.38"},
		{0.875, "0.88"},
		{0.505, "0.51"},
		{0.004, "0.00"},
		{1, "1.00"},
		{-0.125, "-0.13"},
	}
	for _, tt := range tests {
		got := Popup(geodata.Properties{"LVI": tt.in})
		assert.Contains(t, got, "<strong>LVI:</strong> "+tt.want+"<br />", tt.in)
	}
}

func TestPopup_NonNumericRiskAndEscaping(t *testing.T) {
	p := geodata.Properties{"cleaned_block": "<b>Oak</b>", "LVI": "n/a"}
	got := Popup(p)
	assert.Contains(t, got, "<strong>LVI:</strong> N/A")
	assert.Contains(t, got, "&lt;b&gt;Oak&lt;/b&gt;")
	assert.NotContains(t, got, "<b>Oak</b>")
}

func TestBuild_PolylinesPerPart(t *testing.T) {
	streets := &geodata.StreetCollection{Features: []geodata.StreetFeature{
		feature(0, multiLine(
			[]geom.Coord{{-87.62, 41.88}, {-87.61, 41.89}},
			[]geom.Coord{{-87.60, 41.90}, {-87.59, 41.91}},
		), geodata.Properties{"cleaned_block": "Main St", "LVI": 0.8}),
		feature(1, multiLine(
			[]geom.Coord{{-87.70, 41.80}, {-87.69, 41.81}},
		), geodata.Properties{"cleaned_block": "Main St", "LVI": 0.3}),
	}}

	ov := Build(streets, nil, DefaultOptions())

	require.Len(t, ov.Polylines, 3)
	assert.Equal(t, "0-0", ov.Polylines[0].Key)
	assert.Equal(t, "0-1", ov.Polylines[1].Key)
	assert.Equal(t, "1-0", ov.Polylines[2].Key)
	assert.Equal(t, RiskColor, ov.Polylines[0].Color)
	assert.Equal(t, RiskColor, ov.Polylines[1].Color)
	assert.Equal(t, SafeColor, ov.Polylines[2].Color)
	for _, pl := range ov.Polylines {
		assert.Equal(t, StreetWeight, pl.Weight)
	}

	// Positions are (lat, lon).
	assert.Equal(t, [][2]float64{{41.88, -87.62}, {41.89, -87.61}}, ov.Polylines[0].Positions)

	require.NotNil(t, ov.Bounds)
	assert.Equal(t, [2][2]float64{{41.80, -87.70}, {41.91, -87.59}}, *ov.Bounds)
	assert.Nil(t, ov.Boundaries)
}

func TestBuild_SkipsOtherGeometries(t *testing.T) {
	line := geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{-87.6, 41.8}, {-87.5, 41.9}})
	streets := &geodata.StreetCollection{Features: []geodata.StreetFeature{
		feature(0, line, geodata.Properties{"LVI": 0.9}),
		feature(1, nil, geodata.Properties{"LVI": 0.9}),
		feature(2, multiLine([]geom.Coord{{-87.6, 41.8}, {-87.5, 41.9}}), geodata.Properties{"LVI": 0.1}),
	}}

	ov := Build(streets, nil, DefaultOptions())
	require.Len(t, ov.Polylines, 1)
	assert.Equal(t, "2-0", ov.Polylines[0].Key)
}

func TestBuild_BoundaryLayerOnly(t *testing.T) {
	b, err := geodata.DecodeBoundaries(strings.NewReader(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)

	ov := Build(nil, b, DefaultOptions())
	require.NotNil(t, ov.Boundaries)
	assert.Equal(t, Style{Color: "darkgrey", Weight: 2}, ov.Boundaries.Style)
	assert.Empty(t, ov.Polylines)
	assert.Nil(t, ov.Bounds)
	assert.Equal(t, [2]float64{41.8781, -87.6298}, ov.Center)
	assert.Equal(t, 10, ov.Zoom)
}

func TestOverlay_JSON(t *testing.T) {
	b, err := geodata.DecodeBoundaries(strings.NewReader(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	streets := &geodata.StreetCollection{Features: []geodata.StreetFeature{
		feature(0, multiLine([]geom.Coord{{-87.6, 41.8}, {-87.5, 41.9}}), geodata.Properties{"LVI": 0.9}),
	}}

	data, err := json.Marshal(Build(streets, b, DefaultOptions()))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "FeatureCollection", got["boundaries"].(map[string]any)["data"].(map[string]any)["type"])
	line := got["polylines"].([]any)[0].(map[string]any)
	assert.Equal(t, "red", line["color"])
	assert.Equal(t, float64(3), line["weight"])
	assert.Contains(t, got, "bounds")
}
