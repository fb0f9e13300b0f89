package selection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// ErrInvalidGeometry is returned when no geometry with a type and
// coordinates can be found in a request body.
var ErrInvalidGeometry = errors.New("GeoJSON geometry with type and coordinates is required")

type envelope struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometry    json.RawMessage `json:"geometry"`
	Features    []struct {
		Geometry json.RawMessage `json:"geometry"`
	} `json:"features"`
}

// Parse extracts the selection geometry from body. It accepts a bare
// geometry, {"geometry": ...} (which also covers a Feature), or a
// FeatureCollection whose first feature carries the geometry. Only the
// presence of type and coordinates is checked, not topology.
func Parse(body []byte) (*geojson.Geometry, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	raw := json.RawMessage(body)
	switch {
	case hasValue(env.Geometry):
		raw = env.Geometry
	case len(env.Features) > 0 && hasValue(env.Features[0].Geometry):
		raw = env.Features[0].Geometry
	}

	var probe envelope
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if probe.Type == "" || !hasValue(probe.Coordinates) {
		return nil, ErrInvalidGeometry
	}

	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return g, nil
}

func hasValue(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
