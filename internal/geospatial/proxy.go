package geospatial

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/streetviz/internal/fetcher"
	"github.com/sells-group/streetviz/internal/resilience"
)

// MaxZoom is the deepest zoom level the proxy forwards.
const MaxZoom = 19

// maxTileBytes caps a single upstream tile body.
const maxTileBytes = 4 << 20

// ErrBadTile is returned for tile coordinates outside the slippy-map grid.
var ErrBadTile = eris.New("geospatial: invalid tile")

// ParseTile validates z/x/y path segments.
func ParseTile(z, x, y string) (Tile, error) {
	zi, errZ := strconv.Atoi(z)
	xi, errX := strconv.Atoi(x)
	yi, errY := strconv.Atoi(strings.TrimSuffix(y, ".png"))
	if errZ != nil || errX != nil || errY != nil {
		return Tile{}, eris.Wrapf(ErrBadTile, "%s/%s/%s", z, x, y)
	}
	t := Tile{Z: zi, X: xi, Y: yi}
	if t.Z < 0 || t.Z > MaxZoom {
		return Tile{}, eris.Wrapf(ErrBadTile, "zoom %d", t.Z)
	}
	n := 1 << t.Z
	if t.X < 0 || t.X >= n || t.Y < 0 || t.Y >= n {
		return Tile{}, eris.Wrapf(ErrBadTile, "%s out of range", t)
	}
	return t, nil
}

// TileProxy serves basemap PNG tiles from an upstream tile server through a
// cache. Upstream calls go through a circuit breaker so an unreachable tile
// server fails fast.
type TileProxy struct {
	baseURL string
	fetcher fetcher.Fetcher
	cache   *TileCache
	breaker *resilience.Breaker
}

// NewTileProxy creates a proxy for baseURL ({baseURL}/{z}/{x}/{y}.png).
// cache may be nil.
func NewTileProxy(baseURL string, f fetcher.Fetcher, cache *TileCache) *TileProxy {
	return &TileProxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: f,
		cache:   cache,
		breaker: resilience.NewBreaker(resilience.BreakerConfig{Name: "basemap"}),
	}
}

// TileURL returns the upstream URL of a tile.
func (p *TileProxy) TileURL(t Tile) string {
	return p.baseURL + "/" + t.String() + ".png"
}

// Fetch returns the tile body, from cache when possible.
func (p *TileProxy) Fetch(ctx context.Context, t Tile) ([]byte, error) {
	if p.cache != nil {
		if data := p.cache.Get(t); data != nil {
			return data, nil
		}
	}

	data, err := resilience.Call(ctx, p.breaker, func(ctx context.Context) ([]byte, error) {
		body, err := p.fetcher.Download(ctx, p.TileURL(t))
		if err != nil {
			return nil, err
		}
		defer body.Close() //nolint:errcheck
		return io.ReadAll(io.LimitReader(body, maxTileBytes))
	})
	if err != nil {
		return nil, eris.Wrapf(err, "geospatial: fetch tile %s", t)
	}

	if p.cache != nil {
		p.cache.Put(t, data)
	}
	zap.L().Debug("geospatial: fetched basemap tile", zap.Stringer("tile", t), zap.Int("bytes", len(data)))
	return data, nil
}

// Stats returns the cache counters, or zero stats without a cache.
func (p *TileProxy) Stats() CacheStats {
	if p.cache == nil {
		return CacheStats{}
	}
	return p.cache.Stats()
}
