package spatial

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	sel := geojson.NewGeometry(orb.Polygon{{{-73.6, 45.5}, {-73.5, 45.5}, {-73.5, 45.6}, {-73.6, 45.5}}})

	p, ok, err := Build(sel, "geom")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t,
		`ST_Intersects("geom", ST_Transform(ST_SetSRID(ST_GeomFromGeoJSON($1), 4326), ST_SRID("geom")))`,
		p.SQL)

	var decoded struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal([]byte(p.Arg), &decoded))
	assert.Equal(t, "Polygon", decoded.Type)
	assert.Equal(t, -73.6, decoded.Coordinates[0][0][0])
	assert.NotContains(t, p.SQL, "-73.6", "coordinates travel as a bound parameter")
}

func TestBuild_TargetSRIDComesFromColumn(t *testing.T) {
	sel := geojson.NewGeometry(orb.Point{0, 0})

	p, ok, err := Build(sel, "the_geom")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, p.SQL, `ST_SRID("the_geom")`)
	assert.NotContains(t, p.SQL, "2950", "no projection is hard-coded for the target")
}

func TestBuild_NoSelection(t *testing.T) {
	p, ok, err := Build(nil, "geom")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, p.SQL)
	assert.Empty(t, p.Arg)
}

func TestBuild_QuotesColumn(t *testing.T) {
	sel := geojson.NewGeometry(orb.Point{0, 0})

	p, _, err := Build(sel, `geom"); DROP TABLE bati; --`)
	require.NoError(t, err)
	assert.Contains(t, p.SQL, `"geom""); DROP TABLE bati; --"`)
}
