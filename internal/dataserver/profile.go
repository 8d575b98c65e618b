package dataserver

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/streetviz/internal/geodata"
)

// Profile controls how the street dataset is prepared.
type Profile struct {
	// Keywords selects streets whose name contains any of them, ignoring case.
	// An empty list keeps every street.
	Keywords []string `yaml:"keywords"`
	// Fill replaces missing or null property values.
	Fill map[string]any `yaml:"fill"`
}

// DefaultProfile returns the Chicago arterial street selection.
func DefaultProfile() Profile {
	return Profile{
		Keywords: []string{
			"Halsted", "Ashland", "State", "Roosevelt", "Taylor",
			"Pulaski", "S HALSTED ST", "W 35TH ST", "W NORTH AVE",
			"S LAKE SHORE DR", "W FULLERTON AVE", "W BELMONT AVE",
		},
		Fill: map[string]any{
			geodata.PropCrimeCount:  0.0,
			geodata.PropRiskIndex:   0.0,
			geodata.PropSecondary:   0.0,
			geodata.PropLightOutage: 0.0,
			geodata.PropTopCrime:    "Unknown",
			geodata.PropPeakHour:    "Unknown",
		},
	}
}

// LoadProfile reads a profile from YAML. Sections absent from the file keep
// their defaults. The YAML has a top-level "dataset" key.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, eris.Wrapf(err, "dataserver: read profile %s", path)
	}

	var wrapper struct {
		Dataset struct {
			Keywords *[]string      `yaml:"keywords"`
			Fill     map[string]any `yaml:"fill"`
		} `yaml:"dataset"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Profile{}, eris.Wrap(err, "dataserver: parse profile")
	}

	p := DefaultProfile()
	if wrapper.Dataset.Keywords != nil {
		p.Keywords = *wrapper.Dataset.Keywords
	}
	if wrapper.Dataset.Fill != nil {
		p.Fill = make(map[string]any, len(wrapper.Dataset.Fill))
		for k, v := range wrapper.Dataset.Fill {
			p.Fill[k] = normalizeNumber(v)
		}
	}
	return p, nil
}

// normalizeNumber turns YAML integers into floats so filled values encode
// like the numbers decoded from GeoJSON.
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return v
	}
}
