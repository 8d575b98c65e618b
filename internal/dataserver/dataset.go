// Package dataserver serves the street and boundary GeoJSON datasets the
// view consumes, preparing them once at startup.
package dataserver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/streetviz/internal/geodata"
)

// Dataset holds the prepared, pre-encoded collections.
type Dataset struct {
	Streets    []byte
	Boundaries []byte

	StreetCount   int
	BoundaryCount int
}

// LoadCollection reads a GeoJSON FeatureCollection, or an ESRI shapefile when
// the path ends in .shp.
func LoadCollection(path string) (*geojson.FeatureCollection, error) {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return ReadShapefile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataserver: read %s", path)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "dataserver: decode %s", path)
	}
	return &fc, nil
}

// Load reads and prepares both datasets.
func Load(streetsPath, boundariesPath string, p Profile) (*Dataset, error) {
	streets, err := LoadCollection(streetsPath)
	if err != nil {
		return nil, err
	}
	boundaries, err := LoadCollection(boundariesPath)
	if err != nil {
		return nil, err
	}
	return Prepare(streets, boundaries, p)
}

// Prepare filters and fills the streets, fills the boundaries and encodes
// both.
func Prepare(streets, boundaries *geojson.FeatureCollection, p Profile) (*Dataset, error) {
	kept := FilterStreets(streets.Features, p.Keywords)
	for _, f := range kept {
		f.Properties = fillProperties(f.Properties, p.Fill, true)
	}
	for _, f := range boundaries.Features {
		f.Properties = fillProperties(f.Properties, p.Fill, false)
	}

	streetJSON, err := json.Marshal(&geojson.FeatureCollection{Features: kept})
	if err != nil {
		return nil, eris.Wrap(err, "dataserver: encode streets")
	}
	boundaryJSON, err := json.Marshal(&geojson.FeatureCollection{Features: boundaries.Features})
	if err != nil {
		return nil, eris.Wrap(err, "dataserver: encode boundaries")
	}

	zap.L().Info("dataserver: datasets prepared",
		zap.Int("streets_total", len(streets.Features)),
		zap.Int("streets_kept", len(kept)),
		zap.Int("boundaries", len(boundaries.Features)),
	)
	return &Dataset{
		Streets:       streetJSON,
		Boundaries:    boundaryJSON,
		StreetCount:   len(kept),
		BoundaryCount: len(boundaries.Features),
	}, nil
}

// FilterStreets keeps features whose street name contains any keyword,
// ignoring case. Features without a name never match. No keywords keeps all.
func FilterStreets(features []*geojson.Feature, keywords []string) []*geojson.Feature {
	kept := make([]*geojson.Feature, 0, len(features))
	if len(keywords) == 0 {
		return append(kept, features...)
	}

	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}
	for _, f := range features {
		name, ok := f.Properties[geodata.PropStreet].(string)
		if !ok {
			continue
		}
		name = strings.ToLower(name)
		for _, k := range lower {
			if strings.Contains(name, k) {
				kept = append(kept, f)
				break
			}
		}
	}
	return kept
}

// fillProperties replaces null values with their defaults. With addMissing,
// absent keys are filled too; otherwise only keys already present are.
func fillProperties(props map[string]any, fill map[string]any, addMissing bool) map[string]any {
	if props == nil {
		props = make(map[string]any, len(fill))
	}
	for k, def := range fill {
		v, present := props[k]
		if (present && v == nil) || (!present && addMissing) {
			props[k] = def
		}
	}
	return props
}
