package dataserver

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// ReadShapefile reads a shapefile into a feature collection. Polygons become
// MultiPolygons with one polygon per ring; polylines become MultiLineStrings.
// Numeric attribute fields are emitted as floats.
func ReadShapefile(path string) (*geojson.FeatureCollection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataserver: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	fc := &geojson.FeatureCollection{}
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		props := make(map[string]any, len(fields))
		for i, f := range fields {
			props[names[i]] = attribute(f, reader.Attribute(i))
		}

		g := shapeGeometry(shape)
		if g == nil {
			skipped++
		}
		fc.Features = append(fc.Features, &geojson.Feature{Geometry: g, Properties: props})
	}

	if skipped > 0 {
		zap.L().Debug("dataserver: shapefile records without usable geometry",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return fc, nil
}

// attribute converts a raw dBase value. Empty values are null.
func attribute(f shp.Field, raw string) any {
	val := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	if val == "" {
		return nil
	}
	switch f.Fieldtype {
	case 'N', 'F':
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			return n
		}
	}
	return val
}

func shapeGeometry(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Polygon:
		return multiPolygon(s.NumParts, s.Parts, s.Points)
	case *shp.PolyLine:
		return multiLineString(s.NumParts, s.Parts, s.Points)
	default:
		return nil
	}
}

// partCoords splits shapefile points into their parts.
func partCoords(numParts int32, parts []int32, points []shp.Point) [][]float64 {
	out := make([][]float64, 0, numParts)
	for i := int32(0); i < numParts; i++ {
		start, end := parts[i], int32(len(points))
		if i+1 < numParts {
			end = parts[i+1]
		}
		flat := make([]float64, 0, (end-start)*2)
		for _, p := range points[start:end] {
			flat = append(flat, p.X, p.Y)
		}
		out = append(out, flat)
	}
	return out
}

func multiPolygon(numParts int32, parts []int32, points []shp.Point) geom.T {
	if numParts == 0 || len(points) == 0 {
		return nil
	}
	mp := geom.NewMultiPolygon(geom.XY)
	for i, flat := range partCoords(numParts, parts, points) {
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("dataserver: skipping malformed ring", zap.Int("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("dataserver: skipping malformed polygon", zap.Int("part", i), zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

func multiLineString(numParts int32, parts []int32, points []shp.Point) geom.T {
	if numParts == 0 || len(points) == 0 {
		return nil
	}
	mls := geom.NewMultiLineString(geom.XY)
	for i, flat := range partCoords(numParts, parts, points) {
		if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("dataserver: skipping malformed line", zap.Int("part", i), zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}
