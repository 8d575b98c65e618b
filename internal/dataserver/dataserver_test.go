package dataserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/streetviz/internal/geodata"
)

const streetsFixture = `{"type":"FeatureCollection","features":[
 {"type":"Feature","geometry":{"type":"MultiLineString","coordinates":[[[-87.64,41.85],[-87.64,41.86]]]},
  "properties":{"cleaned_block":"S HALSTED ST","LVI":0.7,"LPI":null,"Crime_Count":4,"Top_Crime":null}},
 {"type":"Feature","geometry":{"type":"MultiLineString","coordinates":[[[-87.66,41.85],[-87.66,41.86]]]},
  "properties":{"cleaned_block":"n ashland ave","LVI":0.2}},
 {"type":"Feature","geometry":{"type":"MultiLineString","coordinates":[[[-87.70,41.85],[-87.70,41.86]]]},
  "properties":{"cleaned_block":"W MADISON ST","LVI":0.9}},
 {"type":"Feature","geometry":{"type":"MultiLineString","coordinates":[[[-87.71,41.85],[-87.71,41.86]]]},
  "properties":{"LVI":0.9}}
]}`

const boundariesFixture = `{"type":"FeatureCollection","features":[
 {"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[-87.9,41.6],[-87.5,41.6],[-87.5,42.0],[-87.9,41.6]]]},
  "properties":{"name":"Chicago","LVI":null}}
]}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadFixture(t *testing.T, p Profile) *Dataset {
	t.Helper()
	ds, err := Load(writeFile(t, "streets.geojson", streetsFixture), writeFile(t, "boundaries.geojson", boundariesFixture), p)
	require.NoError(t, err)
	return ds
}

func TestLoad_FilterAndFill(t *testing.T) {
	ds := loadFixture(t, DefaultProfile())
	assert.Equal(t, 2, ds.StreetCount)
	assert.Equal(t, 1, ds.BoundaryCount)

	streets, err := geodata.DecodeStreets(strings.NewReader(string(ds.Streets)))
	require.NoError(t, err)
	require.Equal(t, 2, streets.Len())

	first := streets.Features[0].Properties
	assert.Equal(t, "S HALSTED ST", first.Street())
	assert.Equal(t, 0.7, first["LVI"])
	assert.Equal(t, 0.0, first["LPI"])
	assert.Equal(t, 4.0, first["Crime_Count"])
	assert.Equal(t, "Unknown", first["Top_Crime"])
	assert.Equal(t, "Unknown", first["Frequent_Time"])
	assert.Equal(t, 0.0, first["Street_Light_Outage"])

	_, ok := geodata.MultiLineParts(streets.Features[0].Geometry)
	assert.True(t, ok)
	assert.Equal(t, "n ashland ave", streets.Features[1].Properties.Street())
}

func TestLoad_BoundariesFillOnlyPresentKeys(t *testing.T) {
	ds := loadFixture(t, DefaultProfile())

	var fc struct {
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(ds.Boundaries, &fc))
	require.Len(t, fc.Features, 1)
	props := fc.Features[0].Properties
	assert.Equal(t, 0.0, props["LVI"])
	assert.Equal(t, "Chicago", props["name"])
	assert.NotContains(t, props, "Crime_Count")
}

func TestFilterStreets_NoKeywordsKeepsAll(t *testing.T) {
	p := DefaultProfile()
	p.Keywords = nil
	ds := loadFixture(t, p)
	assert.Equal(t, 4, ds.StreetCount)
}

func TestLoadProfile(t *testing.T) {
	path := writeFile(t, "profile.yaml", `
dataset:
  keywords: ["Madison"]
`)
	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Madison"}, p.Keywords)
	assert.Equal(t, DefaultProfile().Fill, p.Fill)

	path = writeFile(t, "profile.yaml", `
dataset:
  fill:
    LVI: 1
    Top_Crime: NONE
`)
	p, err = LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile().Keywords, p.Keywords)
	assert.Equal(t, map[string]any{"LVI": 1.0, "Top_Crime": "NONE"}, p.Fill)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadProfile(writeFile(t, "bad.yaml", "dataset: [unclosed"))
	assert.Error(t, err)
}

func TestLoadCollection_Errors(t *testing.T) {
	_, err := LoadCollection(filepath.Join(t.TempDir(), "nope.geojson"))
	assert.Error(t, err)

	_, err = LoadCollection(writeFile(t, "bad.geojson", `{"type":`))
	assert.Error(t, err)
}

func TestReadShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boundaries.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("NAME", 25),
		shp.FloatField("AREA", 12, 2),
	}))

	square := &shp.Polygon{
		Box:       shp.Box{MinX: -87.9, MinY: 41.6, MaxX: -87.5, MaxY: 42.0},
		NumParts:  2,
		NumPoints: 10,
		Parts:     []int32{0, 5},
		Points: []shp.Point{
			{X: -87.9, Y: 41.6}, {X: -87.9, Y: 42.0}, {X: -87.5, Y: 42.0}, {X: -87.5, Y: 41.6}, {X: -87.9, Y: 41.6},
			{X: -87.8, Y: 41.7}, {X: -87.8, Y: 41.8}, {X: -87.7, Y: 41.8}, {X: -87.7, Y: 41.7}, {X: -87.8, Y: 41.7},
		},
	}
	row := w.Write(square)
	require.NoError(t, w.WriteAttribute(int(row), 0, "Chicago"))
	require.NoError(t, w.WriteAttribute(int(row), 1, 606.1))
	w.Close()

	fc, err := LoadCollection(path)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	mp, ok := fc.Features[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
	assert.Equal(t, "Chicago", fc.Features[0].Properties["NAME"])
	assert.InDelta(t, 606.1, fc.Features[0].Properties["AREA"], 1e-9)
}

func TestShapeGeometry(t *testing.T) {
	line := &shp.PolyLine{
		NumParts:  2,
		NumPoints: 4,
		Parts:     []int32{0, 2},
		Points:    []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}},
	}
	mls, ok := shapeGeometry(line).(*geom.MultiLineString)
	require.True(t, ok)
	assert.Equal(t, 2, mls.NumLineStrings())
	assert.Equal(t, []geom.Coord{{2, 2}, {3, 3}}, mls.LineString(1).Coords())

	assert.Nil(t, shapeGeometry(&shp.Point{X: 1, Y: 2}))
	assert.Nil(t, shapeGeometry(&shp.PolyLine{}))
	assert.Nil(t, shapeGeometry(nil))
}

func TestRouter(t *testing.T) {
	h := NewRouter(loadFixture(t, DefaultProfile()))

	for _, path := range []string{"/api/streets", "/api/boundaries"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Body.String(), `"FeatureCollection"`)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","streets":2,"boundaries":1}`, rec.Body.String())
}
