// Package schema guards every table and column name before it reaches SQL text.
//
// Table and column identifiers cannot be bound as query parameters, so they are
// checked against a fixed whitelist and the live information_schema on every
// request, then quoted with the engine's identifier quoting.
package schema

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"
	"github.com/sourcegraph/conc/pool"
)

// allowedTables is the fixed set of queryable relations.
var allowedTables = []string{
	"agri2022",
	"agri2023",
	"agri2024",
	"milieux_humides",
	"bati",
	"casernes",
	"interventions_pompiers",
	"reseau_express_velo",
}

// bookkeepingColumns are hidden from column listings.
var bookkeepingColumns = []string{"gid", "geom", "index"}

// maxIntrospection bounds concurrent information_schema lookups per request.
const maxIntrospection = 4

const columnsQuery = `SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

// IsTableAllowed reports whether name is in the whitelist.
func IsTableAllowed(name string) bool {
	return slices.Contains(allowedTables, name)
}

// AllowedTables returns a copy of the whitelist.
func AllowedTables() []string {
	return slices.Clone(allowedTables)
}

// Column describes one introspected column.
type Column struct {
	Name string `json:"name" db:"column_name" doc:"Column name" example:"culture"`
	Type string `json:"type" db:"data_type" doc:"SQL data type" example:"character varying"`
}

// Role is the part a requested column plays in an aggregation.
type Role string

const (
	RoleDimension Role = "dimension"
	RoleCategory  Role = "category"
	RoleValue     Role = "value"
	RoleX         Role = "x"
	RoleSeries    Role = "series"
	RoleGeometry  Role = "geometry"
	RoleParent    Role = "parent"
	RoleChild     Role = "child"
)

// ColumnRef is a requested column together with its role.
type ColumnRef struct {
	Role Role
	Name string
}

// Guard validates identifiers against the whitelist and the live schema.
type Guard struct {
	db     sqlx.QueryerContext
	schema string
	log    *slog.Logger
}

// NewGuard creates a guard introspecting tables of schemaName.
func NewGuard(db sqlx.QueryerContext, schemaName string, log *slog.Logger) *Guard {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Guard{db: db, schema: schemaName, log: log}
}

// Schema returns the database schema the guarded tables live in.
func (g *Guard) Schema() string {
	return g.schema
}

// CheckTables rejects the first table that is not whitelisted. It never
// touches the store.
func (g *Guard) CheckTables(tables []string) error {
	for _, t := range tables {
		if !IsTableAllowed(t) {
			g.log.Warn("table not allowed", "table", t)
			return &TableNotAllowedError{Table: t}
		}
	}
	return nil
}

// Columns introspects every column of a whitelisted table.
func (g *Guard) Columns(ctx context.Context, table string) ([]Column, error) {
	if err := g.CheckTables([]string{table}); err != nil {
		return nil, err
	}
	return g.columns(ctx, table)
}

// PublicColumns is Columns without the bookkeeping columns (gid, geom, index).
func (g *Guard) PublicColumns(ctx context.Context, table string) ([]Column, error) {
	cols, err := g.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	return publicOnly(cols), nil
}

// TableColumns pairs a table with its introspected columns.
type TableColumns struct {
	Table   string
	Columns []Column
}

// Describe introspects several whitelisted tables concurrently. The result
// follows the order of tables.
func (g *Guard) Describe(ctx context.Context, tables []string) ([]TableColumns, error) {
	if err := g.CheckTables(tables); err != nil {
		return nil, err
	}
	return g.describe(ctx, tables)
}

// DescribePublic is Describe without the bookkeeping columns.
func (g *Guard) DescribePublic(ctx context.Context, tables []string) ([]TableColumns, error) {
	described, err := g.Describe(ctx, tables)
	if err != nil {
		return nil, err
	}
	for i := range described {
		described[i].Columns = publicOnly(described[i].Columns)
	}
	return described, nil
}

// Require checks the whitelist, then verifies that every non-empty ref exists
// on every table. Whitelist failures happen before any store access.
func (g *Guard) Require(ctx context.Context, tables []string, refs []ColumnRef) error {
	if err := g.CheckTables(tables); err != nil {
		return err
	}
	described, err := g.describe(ctx, tables)
	if err != nil {
		return err
	}
	for _, tc := range described {
		names := make(map[string]struct{}, len(tc.Columns))
		for _, c := range tc.Columns {
			names[c.Name] = struct{}{}
		}
		for _, ref := range refs {
			if ref.Name == "" {
				continue
			}
			if _, ok := names[ref.Name]; !ok {
				return &InvalidColumnError{Table: tc.Table, Column: ref.Name, Role: ref.Role}
			}
		}
	}
	return nil
}

// Ident quotes a single identifier.
func Ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Qualified quotes table inside schemaName.
func Qualified(schemaName, table string) string {
	return pgx.Identifier{schemaName, table}.Sanitize()
}

// QualifiedTable quotes table inside the guard's schema.
func (g *Guard) QualifiedTable(table string) string {
	return Qualified(g.schema, table)
}

func (g *Guard) columns(ctx context.Context, table string) ([]Column, error) {
	var cols []Column
	if err := sqlx.SelectContext(ctx, g.db, &cols, columnsQuery, g.schema, table); err != nil {
		return nil, fmt.Errorf("introspecting columns of %s: %w", table, err)
	}
	return cols, nil
}

func (g *Guard) describe(ctx context.Context, tables []string) ([]TableColumns, error) {
	if len(tables) == 1 {
		cols, err := g.columns(ctx, tables[0])
		if err != nil {
			return nil, err
		}
		return []TableColumns{{Table: tables[0], Columns: cols}}, nil
	}

	type indexed struct {
		i  int
		tc TableColumns
	}
	p := pool.NewWithResults[indexed]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(maxIntrospection)
	for i, t := range tables {
		p.Go(func(ctx context.Context) (indexed, error) {
			cols, err := g.columns(ctx, t)
			if err != nil {
				return indexed{}, err
			}
			return indexed{i: i, tc: TableColumns{Table: t, Columns: cols}}, nil
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	out := make([]TableColumns, len(tables))
	for _, r := range results {
		out[r.i] = r.tc
	}
	return out, nil
}

func publicOnly(cols []Column) []Column {
	out := make([]Column, 0, len(cols))
	for _, c := range cols {
		if slices.Contains(bookkeepingColumns, c.Name) {
			continue
		}
		out = append(out, c)
	}
	return out
}
