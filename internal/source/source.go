// Package source reads the street and boundary datasets from the upstream
// data API.
package source

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/streetviz/internal/fetcher"
	"github.com/sells-group/streetviz/internal/geodata"
)

// Source yields the two datasets a view needs. The view controller depends on
// this interface so tests can substitute canned data.
type Source interface {
	Streets(ctx context.Context) (*geodata.StreetCollection, error)
	Boundaries(ctx context.Context) (*geodata.Boundaries, error)
}

// HTTPSource fetches both datasets from a data API base URL.
type HTTPSource struct {
	fetcher       fetcher.Fetcher
	streetsURL    string
	boundariesURL string
}

// NewHTTPSource resolves the dataset paths against baseURL.
func NewHTTPSource(f fetcher.Fetcher, baseURL, streetsPath, boundariesPath string) (*HTTPSource, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, eris.Wrap(err, "source: parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, eris.Errorf("source: base url %q must be absolute", baseURL)
	}
	resolve := func(p string) string {
		return base.ResolveReference(&url.URL{Path: strings.TrimLeft(p, "/")}).String()
	}
	return &HTTPSource{
		fetcher:       f,
		streetsURL:    resolve(streetsPath),
		boundariesURL: resolve(boundariesPath),
	}, nil
}

// Streets fetches and decodes the street collection. The result is raw:
// street names are not yet normalized.
func (s *HTTPSource) Streets(ctx context.Context) (*geodata.StreetCollection, error) {
	body, err := s.fetcher.Download(ctx, s.streetsURL)
	if err != nil {
		return nil, eris.Wrap(err, "source: fetch streets")
	}
	defer body.Close() //nolint:errcheck

	c, err := geodata.DecodeStreets(body)
	if err != nil {
		return nil, eris.Wrap(err, "source: streets")
	}
	return c, nil
}

// Boundaries fetches and validates the boundary collection.
func (s *HTTPSource) Boundaries(ctx context.Context) (*geodata.Boundaries, error) {
	body, err := s.fetcher.Download(ctx, s.boundariesURL)
	if err != nil {
		return nil, eris.Wrap(err, "source: fetch boundaries")
	}
	defer body.Close() //nolint:errcheck

	b, err := geodata.DecodeBoundaries(body)
	if err != nil {
		return nil, eris.Wrap(err, "source: boundaries")
	}
	return b, nil
}
