package chart

import (
	"github.com/sells-group/streetviz/internal/geodata"
)

// StreetRecord is one grouped row: a street and the value of the field a chart
// plots. OK is false when the source value is not numeric.
type StreetRecord struct {
	Street string  `json:"street"`
	Value  float64 `json:"value"`
	OK     bool    `json:"ok"`
}

// Selector projects a feature to the (street, value) pair a chart needs.
type Selector func(geodata.StreetFeature) StreetRecord

// Group keys items by street in first-seen order and keeps only the first
// record per street. Later duplicates are discarded, never merged.
func Group[T any](items []T, sel func(T) StreetRecord) []StreetRecord {
	seen := make(map[string]struct{}, len(items))
	out := make([]StreetRecord, 0, len(items))
	for _, item := range items {
		rec := sel(item)
		if _, dup := seen[rec.Street]; dup {
			continue
		}
		seen[rec.Street] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// GroupStreets groups a street collection with the given selector.
func GroupStreets(c *geodata.StreetCollection, sel Selector) []StreetRecord {
	if c == nil {
		return nil
	}
	return Group(c.Features, sel)
}

// MetricSelector reads the selected metric.
func MetricSelector(m geodata.Metric) Selector {
	return fieldSelector(m.Key())
}

// HourSelector reads the peak hour.
func HourSelector() Selector {
	return fieldSelector(geodata.PropPeakHour)
}

// CrimeCountSelector reads the crime count.
func CrimeCountSelector() Selector {
	return fieldSelector(geodata.PropCrimeCount)
}

func fieldSelector(key string) Selector {
	return func(f geodata.StreetFeature) StreetRecord {
		v, ok := f.Properties.Float(key)
		return StreetRecord{Street: f.Properties.Street(), Value: v, OK: ok}
	}
}
