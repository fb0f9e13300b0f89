package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/joeblew999/geodash/internal/aggregate"
	"github.com/joeblew999/geodash/internal/schema"
	"github.com/joeblew999/geodash/internal/selection"
	"github.com/joeblew999/geodash/internal/spatial"
)

// DefaultGeomColumn is the geometry column used when a request names none.
const DefaultGeomColumn = "geom"

// ValidationError reports a malformed request. It is raised before any
// store access.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func missing(fields ...string) error {
	return &ValidationError{Msg: strings.Join(fields, ", ") + " required"}
}

// ChartService runs chart aggregations: validate, filter, execute one
// statement, reshape.
type ChartService struct {
	db        sqlx.QueryerContext
	guard     *schema.Guard
	selection selection.Store
	builder   aggregate.Builder
	log       *slog.Logger
}

// NewChartService creates a chart service reading the selection from sel.
func NewChartService(db sqlx.QueryerContext, guard *schema.Guard, sel selection.Store, log *slog.Logger) *ChartService {
	return &ChartService{
		db:        db,
		guard:     guard,
		selection: sel,
		builder:   aggregate.Builder{Schema: guard.Schema()},
		log:       log,
	}
}

// Pie returns one slice per category, largest first. Bar charts share it.
func (s *ChartService) Pie(ctx context.Context, req PieRequest) ([]aggregate.Slice, error) {
	if req.TableName == "" || req.CategoryColumn == "" || req.ValueColumn == "" {
		return nil, missing("tableName", "categoryColumn", "valueColumn")
	}

	tables := []string{req.TableName}
	opts, err := s.prepare(ctx, "pie", tables, req.ChartOptions,
		schema.ColumnRef{Role: schema.RoleCategory, Name: req.CategoryColumn},
		schema.ColumnRef{Role: schema.RoleValue, Name: req.ValueColumn},
	)
	if err != nil {
		return nil, err
	}

	st, err := s.builder.Slices(req.TableName, req.CategoryColumn, req.ValueColumn, opts)
	if err != nil {
		return nil, err
	}
	var rows []aggregate.SliceRow
	if err := s.run(ctx, "pie", st, &rows); err != nil {
		return nil, err
	}
	return aggregate.Slices(rows)
}

// Grouped returns the dense category x dimension matrix over the union of
// every requested table.
func (s *ChartService) Grouped(ctx context.Context, req GroupedRequest) (aggregate.Matrix, error) {
	if len(req.TableNames) == 0 {
		return nil, missing("tableNames[]")
	}
	if req.DimensionColumn == "" || req.CategoryColumn == "" || req.ValueColumn == "" {
		return nil, missing("dimensionColumn", "categoryColumn", "valueColumn")
	}

	opts, err := s.prepare(ctx, "bar_grouped", req.TableNames, req.ChartOptions,
		schema.ColumnRef{Role: schema.RoleDimension, Name: req.DimensionColumn},
		schema.ColumnRef{Role: schema.RoleCategory, Name: req.CategoryColumn},
		schema.ColumnRef{Role: schema.RoleValue, Name: req.ValueColumn},
	)
	if err != nil {
		return nil, err
	}

	st, err := s.builder.Grouped(req.TableNames, req.DimensionColumn, req.CategoryColumn, req.ValueColumn, opts)
	if err != nil {
		return nil, err
	}
	var rows []aggregate.PairRow
	if err := s.run(ctx, "bar_grouped", st, &rows); err != nil {
		return nil, err
	}
	return aggregate.Pivot(rows), nil
}

// Line returns x values and the series aligned on them.
func (s *ChartService) Line(ctx context.Context, req LineRequest) (aggregate.LineSeries, error) {
	tables := req.Tables()
	if len(tables) == 0 {
		return aggregate.LineSeries{}, missing("tableName or tableNames")
	}
	if req.XColumn == "" || req.ValueColumn == "" {
		return aggregate.LineSeries{}, missing("xColumn", "valueColumn")
	}

	opts, err := s.prepare(ctx, "line", tables, req.ChartOptions,
		schema.ColumnRef{Role: schema.RoleX, Name: req.XColumn},
		schema.ColumnRef{Role: schema.RoleValue, Name: req.ValueColumn},
		schema.ColumnRef{Role: schema.RoleSeries, Name: req.SeriesColumn},
	)
	if err != nil {
		return aggregate.LineSeries{}, err
	}

	st, err := s.builder.Line(tables, req.XColumn, req.ValueColumn, req.SeriesColumn, opts)
	if err != nil {
		return aggregate.LineSeries{}, err
	}
	var rows []aggregate.PointRow
	if err := s.run(ctx, "line", st, &rows); err != nil {
		return aggregate.LineSeries{}, err
	}
	return aggregate.Lines(rows, req.SeriesColumn == "" && len(tables) == 1), nil
}

// Sunburst returns row counts nested by parent then child.
func (s *ChartService) Sunburst(ctx context.Context, req SunburstRequest) ([]aggregate.Node, error) {
	if req.TableName == "" || req.ParentColumn == "" || req.ChildColumn == "" {
		return nil, missing("tableName", "parentColumn", "childColumn")
	}

	opts, err := s.prepare(ctx, "sunburst", []string{req.TableName}, req.ChartOptions,
		schema.ColumnRef{Role: schema.RoleParent, Name: req.ParentColumn},
		schema.ColumnRef{Role: schema.RoleChild, Name: req.ChildColumn},
	)
	if err != nil {
		return nil, err
	}

	st, err := s.builder.Hierarchy(req.TableName, req.ParentColumn, req.ChildColumn, opts)
	if err != nil {
		return nil, err
	}
	var rows []aggregate.HierarchyRow
	if err := s.run(ctx, "sunburst", st, &rows); err != nil {
		return nil, err
	}
	return aggregate.Sunburst(rows)
}

// prepare validates tables and columns, then resolves the spatial filter.
// The geometry column is only required when filtering was requested.
func (s *ChartService) prepare(ctx context.Context, chart string, tables []string, co ChartOptions, refs ...schema.ColumnRef) (aggregate.Options, error) {
	geom := co.GeomColumn
	if geom == "" {
		geom = DefaultGeomColumn
	}
	if co.UseSelection {
		refs = append(refs, schema.ColumnRef{Role: schema.RoleGeometry, Name: geom})
	}
	if err := s.guard.Require(ctx, tables, refs); err != nil {
		return aggregate.Options{}, err
	}

	opts := aggregate.Options{
		IncludeNulls:     co.IncludeNulls,
		UnspecifiedLabel: co.UnspecifiedLabel,
	}

	sel, hasSelection := s.selection.Get(ctx)
	if !co.UseSelection {
		sel = nil
	}
	pred, active, err := spatial.Build(sel, geom)
	if err != nil {
		return aggregate.Options{}, err
	}
	if !active {
		s.log.Info("spatial filter inactive", "chart", chart, "useSelection", co.UseSelection, "hasSelection", hasSelection)
		return opts, nil
	}
	s.log.Info("spatial filter active", "chart", chart, "geomColumn", geom)
	opts.Filter = &pred
	return opts, nil
}

func (s *ChartService) run(ctx context.Context, chart string, st aggregate.Statement, dest any) error {
	s.log.Debug("aggregation", "chart", chart, "sql", st.SQL, "filtered", len(st.Args) > 0)
	if err := sqlx.SelectContext(ctx, s.db, dest, st.SQL, st.Args...); err != nil {
		return fmt.Errorf("%s aggregation: %w", chart, err)
	}
	return nil
}
