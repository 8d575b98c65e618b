package view

import (
	"github.com/sells-group/streetviz/internal/chart"
	"github.com/sells-group/streetviz/internal/geodata"
	"github.com/sells-group/streetviz/internal/mapview"
)

// LoadState reports which datasets have arrived.
type LoadState int

const (
	// Empty means neither dataset has arrived.
	Empty LoadState = iota
	// StreetsLoaded means only the street dataset has arrived.
	StreetsLoaded
	// BoundariesLoaded means only the boundary dataset has arrived.
	BoundariesLoaded
	// FullyLoaded means both datasets have arrived.
	FullyLoaded
)

func (s LoadState) String() string {
	switch s {
	case Empty:
		return "empty"
	case StreetsLoaded:
		return "streets-loaded"
	case BoundariesLoaded:
		return "boundaries-loaded"
	case FullyLoaded:
		return "fully-loaded"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s LoadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// HasStreets reports whether the street dataset is held.
func (s LoadState) HasStreets() bool {
	return s == StreetsLoaded || s == FullyLoaded
}

func loadState(streets, boundaries bool) LoadState {
	switch {
	case streets && boundaries:
		return FullyLoaded
	case streets:
		return StreetsLoaded
	case boundaries:
		return BoundariesLoaded
	default:
		return Empty
	}
}

// ChartView is one rendered chart.
type ChartView struct {
	Renderer chart.Renderer
	Records  []chart.StreetRecord
	SVG      []byte
}

// Counters counts redraws since the view mounted.
type Counters struct {
	Charts map[string]int `json:"charts"`
	Map    int            `json:"map"`
}

// Snapshot is an immutable view of the controller state. Readers must not
// modify anything reachable from it.
type Snapshot struct {
	State    LoadState
	Metric   geodata.Metric
	Charts   map[string]*ChartView
	Overlay  *mapview.Overlay
	Counters Counters
	Revision string
	Closed   bool
}

// Chart returns the rendered chart with the given canvas id.
func (s *Snapshot) Chart(id string) (*ChartView, bool) {
	cv, ok := s.Charts[id]
	return cv, ok
}
