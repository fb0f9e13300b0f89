package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/geodash/internal/aggregate"
	"github.com/joeblew999/geodash/internal/schema"
)

// Page defaults for GeoJSON listings.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 10000
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// LayerService exposes table metadata and features for map rendering.
type LayerService struct {
	db    sqlx.QueryerContext
	guard *schema.Guard
	log   *slog.Logger
}

// NewLayerService creates a layer service.
func NewLayerService(db sqlx.QueryerContext, guard *schema.Guard, log *slog.Logger) *LayerService {
	return &LayerService{db: db, guard: guard, log: log}
}

// Tables returns the whitelisted tables.
func (s *LayerService) Tables() []string {
	return schema.AllowedTables()
}

// Columns lists a table's columns without bookkeeping columns.
func (s *LayerService) Columns(ctx context.Context, table string) ([]schema.Column, error) {
	return s.guard.PublicColumns(ctx, table)
}

// ValidateStructure returns each table's public columns sorted by name so
// clients can compare tables before a grouped chart.
func (s *LayerService) ValidateStructure(ctx context.Context, tables []string) ([]TableSchema, error) {
	if len(tables) == 0 {
		return nil, missing("tableNames")
	}
	described, err := s.guard.DescribePublic(ctx, tables)
	if err != nil {
		return nil, err
	}

	out := make([]TableSchema, len(described))
	for i, tc := range described {
		slices.SortFunc(tc.Columns, func(a, b schema.Column) int { return strings.Compare(a.Name, b.Name) })
		out[i] = TableSchema{TableName: tc.Table, SchemaDef: tc.Columns}
	}
	return out, nil
}

type featureRow struct {
	Geometry   string `db:"geometry"`
	Properties string `db:"properties"`
}

// FeaturePage is one page of a table's features.
type FeaturePage struct {
	Collection *geojson.FeatureCollection
	Total      int
	Limit      int
	Offset     int
}

// Features returns one page of a table's features in EPSG:4326. Rows
// without geometry are skipped; geometries with SRID 0 are returned as
// stored.
func (s *LayerService) Features(ctx context.Context, table string, limit, offset int) (FeaturePage, error) {
	if limit <= 0 || offset < 0 {
		return FeaturePage{}, &ValidationError{Msg: "limit must be positive and offset non-negative"}
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if err := s.guard.CheckTables([]string{table}); err != nil {
		return FeaturePage{}, err
	}

	from := s.guard.QualifiedTable(table) + " AS t"
	geom := schema.Ident(DefaultGeomColumn)

	countSQL, _, err := psql.Select("count(*)").From(from).Where(geom + " IS NOT NULL").ToSql()
	if err != nil {
		return FeaturePage{}, fmt.Errorf("building feature count: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, s.db, &total, countSQL); err != nil {
		return FeaturePage{}, fmt.Errorf("counting features of %s: %w", table, err)
	}
	if total == 0 {
		return FeaturePage{}, aggregate.ErrNoData
	}

	pageSQL, _, err := psql.Select(
		fmt.Sprintf("ST_AsGeoJSON(CASE WHEN ST_SRID(%[1]s) = 0 THEN %[1]s ELSE ST_Transform(%[1]s, 4326) END) AS geometry", geom),
		fmt.Sprintf("(to_jsonb(t) - '%s')::text AS properties", DefaultGeomColumn),
	).
		From(from).
		Where(geom + " IS NOT NULL").
		OrderBy("ctid").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return FeaturePage{}, fmt.Errorf("building feature page: %w", err)
	}

	var rows []featureRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, pageSQL); err != nil {
		return FeaturePage{}, fmt.Errorf("reading features of %s: %w", table, err)
	}

	fc := geojson.NewFeatureCollection()
	var bound orb.Bound
	for i, r := range rows {
		g, err := geojson.UnmarshalGeometry([]byte(r.Geometry))
		if err != nil {
			return FeaturePage{}, fmt.Errorf("decoding geometry of %s row %d: %w", table, offset+i, err)
		}
		f := geojson.NewFeature(g.Geometry())
		if err := json.Unmarshal([]byte(r.Properties), &f.Properties); err != nil {
			return FeaturePage{}, fmt.Errorf("decoding properties of %s row %d: %w", table, offset+i, err)
		}
		if i == 0 {
			bound = f.Geometry.Bound()
		} else {
			bound = bound.Union(f.Geometry.Bound())
		}
		fc.Append(f)
	}
	if len(fc.Features) > 0 {
		fc.BBox = geojson.NewBBox(bound)
	}

	s.log.Debug("feature page", "table", table, "limit", limit, "offset", offset, "returned", len(fc.Features), "total", total)
	return FeaturePage{Collection: fc, Total: total, Limit: limit, Offset: offset}, nil
}
