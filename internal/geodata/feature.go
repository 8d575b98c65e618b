// Package geodata decodes the street and boundary GeoJSON datasets and holds
// the street-name normalization applied when street data arrives.
package geodata

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Properties is the property bag of a GeoJSON feature.
type Properties map[string]any

// Clone returns a shallow copy of the properties.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the property as a string. Missing and null values read as "".
// Numbers are formatted without trailing zeros.
func (p Properties) String(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Float returns the property as a finite number. Numeric strings are accepted;
// ok is false for missing, null, empty, non-numeric or non-finite values.
func (p Properties) Float(key string) (float64, bool) {
	var f float64
	switch v := p[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Street returns the street-name property.
func (p Properties) Street() string {
	return p.String(PropStreet)
}

// StreetFeature is one street segment record. Index is its position in the
// fetched collection and serves as its identity.
type StreetFeature struct {
	Index      int
	Geometry   geom.T
	Properties Properties
}

// StreetCollection is a decoded street FeatureCollection.
type StreetCollection struct {
	Features []StreetFeature
}

// Len returns the number of features, tolerating a nil collection.
func (c *StreetCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Features)
}

// envelope is the outer FeatureCollection with features left undecoded so a
// single malformed feature does not reject the whole document.
type envelope struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// DecodeStreets decodes a street FeatureCollection. Features whose geometry
// cannot be decoded are kept with a nil Geometry.
func DecodeStreets(r io.Reader) (*StreetCollection, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, eris.Wrap(err, "geodata: decode street collection")
	}
	if env.Type != "FeatureCollection" {
		return nil, eris.Errorf("geodata: expected FeatureCollection, got %q", env.Type)
	}

	out := &StreetCollection{Features: make([]StreetFeature, 0, len(env.Features))}
	var malformed int
	for i, raw := range env.Features {
		f, err := decodeFeature(raw)
		if err != nil {
			malformed++
			zap.L().Debug("geodata: malformed street feature", zap.Int("index", i), zap.Error(err))
		}
		f.Index = i
		out.Features = append(out.Features, f)
	}

	if malformed > 0 {
		zap.L().Warn("geodata: street features without usable geometry",
			zap.Int("malformed", malformed),
			zap.Int("total", len(env.Features)),
		)
	}
	return out, nil
}

// decodeFeature decodes one feature via go-geom. On failure it falls back to a
// properties-only decode and returns the original error alongside.
func decodeFeature(raw json.RawMessage) (StreetFeature, error) {
	var gf geojson.Feature
	err := json.Unmarshal(raw, &gf)
	if err == nil {
		return StreetFeature{Geometry: gf.Geometry, Properties: Properties(nonNil(gf.Properties))}, nil
	}

	var loose struct {
		Properties map[string]any `json:"properties"`
	}
	_ = json.Unmarshal(raw, &loose)
	return StreetFeature{Properties: Properties(nonNil(loose.Properties))}, eris.Wrap(err, "geodata: decode feature")
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// Boundaries is the administrative boundary collection. It is treated as
// opaque: only its envelope is validated and its features counted.
type Boundaries struct {
	Raw   json.RawMessage
	Count int
}

// DecodeBoundaries reads a boundary FeatureCollection.
func DecodeBoundaries(r io.Reader) (*Boundaries, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "geodata: read boundaries")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(err, "geodata: decode boundary collection")
	}
	if env.Type != "FeatureCollection" {
		return nil, eris.Errorf("geodata: expected FeatureCollection, got %q", env.Type)
	}

	return &Boundaries{Raw: json.RawMessage(bytes.TrimSpace(data)), Count: len(env.Features)}, nil
}

// MultiLineParts returns the parts of a MultiLineString geometry as
// (longitude, latitude) coordinate sequences. ok is false for any other
// geometry type, including a single LineString.
func MultiLineParts(g geom.T) ([][]geom.Coord, bool) {
	mls, ok := g.(*geom.MultiLineString)
	if !ok || mls == nil {
		return nil, false
	}
	parts := make([][]geom.Coord, 0, mls.NumLineStrings())
	for i := 0; i < mls.NumLineStrings(); i++ {
		parts = append(parts, mls.LineString(i).Coords())
	}
	return parts, true
}
