// Package spatial builds the PostGIS intersection predicate that narrows
// aggregations to rows touching the current selection.
package spatial

import (
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/geodash/internal/schema"
)

// SelectionSRID is the reference system selections are authored in.
const SelectionSRID = 4326

// Placeholder is the bound parameter carrying the selection. The selection is
// the only bound value of an aggregation statement, so it is always $1, and
// every UNION ALL branch references the same parameter.
const Placeholder = "$1"

// Predicate is a WHERE fragment plus the single value bound to Placeholder.
type Predicate struct {
	SQL string
	Arg string
}

// Build returns the intersection predicate for geomColumn, reprojecting the
// selection from EPSG:4326 to whatever SRID the column is stored in. It
// returns false when there is no selection.
func Build(sel *geojson.Geometry, geomColumn string) (Predicate, bool, error) {
	if sel == nil || sel.Geometry() == nil {
		return Predicate{}, false, nil
	}

	data, err := sel.MarshalJSON()
	if err != nil {
		return Predicate{}, false, fmt.Errorf("encoding selection: %w", err)
	}

	col := schema.Ident(geomColumn)
	return Predicate{
		SQL: fmt.Sprintf(
			"ST_Intersects(%[1]s, ST_Transform(ST_SetSRID(ST_GeomFromGeoJSON(%[2]s), %[3]d), ST_SRID(%[1]s)))",
			col, Placeholder, SelectionSRID,
		),
		Arg: string(data),
	}, true, nil
}
