package main

import (
	"github.com/sells-group/streetviz/internal/config"
	"github.com/sells-group/streetviz/internal/fetcher"
	"github.com/sells-group/streetviz/internal/mapview"
	"github.com/sells-group/streetviz/internal/source"
)

func newFetcher(c *config.Config) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   c.Source.UserAgent,
		Timeout:     c.Source.Timeout(),
		MaxAttempts: c.Source.MaxRetries,
	})
}

func newSource(c *config.Config, f fetcher.Fetcher) (*source.HTTPSource, error) {
	return source.NewHTTPSource(f, c.Source.BaseURL, c.Source.StreetsPath, c.Source.BoundariesPath)
}

// mapOptions builds the map view from config. tileURL is the basemap tile
// template the overlay advertises.
func mapOptions(c *config.Config, tileURL string) mapview.Options {
	return mapview.Options{
		Center:  [2]float64{c.Map.CenterLat, c.Map.CenterLon},
		Zoom:    c.Map.Zoom,
		TileURL: tileURL,
	}
}
