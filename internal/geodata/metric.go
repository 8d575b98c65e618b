package geodata

import (
	"github.com/rotisserie/eris"
)

// Property keys carried by street features.
const (
	PropStreet      = "cleaned_block"
	PropRiskIndex   = "LVI"
	PropSecondary   = "LPI"
	PropLightOutage = "Street_Light_Outage"
	PropTopCrime    = "Top_Crime"
	PropCrimeCount  = "Crime_Count"
	PropPeakHour    = "Frequent_Time"
)

// Metric is a user-selectable street metric. Its value is the property key.
type Metric string

const (
	// MetricRiskIndex is the dominant risk index (LVI). It is the default.
	MetricRiskIndex Metric = PropRiskIndex
	// MetricSecondaryIndex is the secondary index (LPI).
	MetricSecondaryIndex Metric = PropSecondary
	// MetricOutageCount is the street light outage count.
	MetricOutageCount Metric = PropLightOutage
)

// DefaultMetric is selected when a view mounts.
const DefaultMetric = MetricRiskIndex

// ErrUnknownMetric is returned by ParseMetric for values outside the fixed set.
var ErrUnknownMetric = eris.New("geodata: unknown metric")

// Metrics returns the selectable metrics in display order.
func Metrics() []Metric {
	return []Metric{MetricRiskIndex, MetricSecondaryIndex, MetricOutageCount}
}

// ParseMetric validates a metric key.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownMetric, "%q", s)
}

// Key returns the property key the metric reads.
func (m Metric) Key() string { return string(m) }

// Label returns the human-readable option label.
func (m Metric) Label() string {
	switch m {
	case MetricRiskIndex:
		return "LVI"
	case MetricSecondaryIndex:
		return "LPI"
	case MetricOutageCount:
		return "Street Light Outage"
	default:
		return string(m)
	}
}
