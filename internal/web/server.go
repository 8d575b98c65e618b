// Package web exposes a view over HTTP: the rendered charts, the map overlay,
// the metric control and the basemap tile proxy.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sells-group/streetviz/internal/chart"
	"github.com/sells-group/streetviz/internal/geodata"
	"github.com/sells-group/streetviz/internal/geospatial"
	"github.com/sells-group/streetviz/internal/view"
)

// Viewer is the view state the server reads and drives.
type Viewer interface {
	Snapshot() *view.Snapshot
	SelectMetric(ctx context.Context, m geodata.Metric) (*view.Snapshot, error)
}

// TileSource returns basemap tile bodies.
type TileSource interface {
	Fetch(ctx context.Context, t geospatial.Tile) ([]byte, error)
}

type server struct {
	view  Viewer
	tiles TileSource
}

// NewRouter builds the HTTP handler. tiles may be nil to disable the
// basemap proxy.
func NewRouter(v Viewer, tiles TileSource) http.Handler {
	s := &server{view: v, tiles: tiles}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/api/view", s.getView)
	r.Put("/api/metric", s.putMetric)
	r.Get("/charts/{file}", s.getChart)
	r.Get("/map/overlay.json", s.getOverlay)
	if tiles != nil {
		r.Get("/basemap/{z}/{x}/{y}", s.getTile)
	}
	return r
}

type metricOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type viewResponse struct {
	State    view.LoadState `json:"state"`
	Metric   geodata.Metric `json:"metric"`
	Metrics  []metricOption `json:"metrics"`
	Charts   []string       `json:"charts"`
	Counters view.Counters  `json:"counters"`
	Revision string         `json:"revision"`
}

func newViewResponse(snap *view.Snapshot) viewResponse {
	resp := viewResponse{
		State:    snap.State,
		Metric:   snap.Metric,
		Charts:   []string{},
		Counters: snap.Counters,
		Revision: snap.Revision,
	}
	for _, m := range geodata.Metrics() {
		resp.Metrics = append(resp.Metrics, metricOption{Key: m.Key(), Label: m.Label()})
	}
	for _, id := range []string{chart.ScatterID, chart.HeatmapID, chart.LineID} {
		if _, ok := snap.Chart(id); ok {
			resp.Charts = append(resp.Charts, id)
		}
	}
	return resp
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) getView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newViewResponse(s.view.Snapshot()))
}

func (s *server) putMetric(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Metric string `json:"metric"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := geodata.ParseMetric(req.Metric)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown metric")
		return
	}

	snap, err := s.view.SelectMetric(r.Context(), m)
	if err != nil {
		if errors.Is(err, view.ErrClosed) {
			writeError(w, http.StatusServiceUnavailable, "view closed")
			return
		}
		zap.L().Error("web: select metric", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "select metric failed")
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(snap))
}

func (s *server) getChart(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	ext := path.Ext(file)
	id := strings.TrimSuffix(file, ext)

	snap := s.view.Snapshot()
	cv, ok := snap.Chart(id)
	if !ok {
		writeError(w, http.StatusNotFound, "chart not available")
		return
	}

	etag := `"` + snap.Revision + `"`
	switch ext {
	case ".svg":
		if notModified(w, r, etag) {
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("ETag", etag)
		_, _ = w.Write(cv.SVG)
	case ".png":
		var buf bytes.Buffer
		if err := chart.RenderPNG(&buf, cv.Renderer, cv.Records); err != nil {
			if errors.Is(err, chart.ErrNoRaster) || errors.Is(err, chart.ErrNothingToDraw) {
				writeError(w, http.StatusNotFound, "raster not available")
				return
			}
			zap.L().Error("web: render png", zap.String("chart", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "render failed")
			return
		}
		if notModified(w, r, etag) {
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("ETag", etag)
		_, _ = w.Write(buf.Bytes())
	default:
		writeError(w, http.StatusNotFound, "unknown chart format")
	}
}

// notModified answers 304 when the client already holds this revision.
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	if r.Header.Get("If-None-Match") != etag {
		return false
	}
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
	return true
}

func (s *server) getOverlay(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.view.Snapshot().Overlay)
}

func (s *server) getTile(w http.ResponseWriter, r *http.Request) {
	t, err := geospatial.ParseTile(chi.URLParam(r, "z"), chi.URLParam(r, "x"), chi.URLParam(r, "y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tile")
		return
	}

	data, err := s.tiles.Fetch(r.Context(), t)
	if err != nil {
		zap.L().Warn("web: basemap tile", zap.Stringer("tile", t), zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("web: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
