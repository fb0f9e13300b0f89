// Package aggregate assembles chart aggregation statements and reshapes
// their rows into chart-ready structures.
//
// Identifiers handed to the builder must already have passed schema.Guard;
// the builder only quotes them. The selection geometry, when present, is the
// only bound value of any statement.
package aggregate

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/joeblew999/geodash/internal/schema"
	"github.com/joeblew999/geodash/internal/spatial"
)

// psql renders postgres placeholders. Aggregations bind nothing through
// squirrel; the selection parameter is already written as $1.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DefaultUnspecifiedLabel replaces NULL categorical values when nulls are kept.
const DefaultUnspecifiedLabel = "Non spécifié"

// Options carries the per-request null policy and optional spatial filter.
type Options struct {
	IncludeNulls     bool
	UnspecifiedLabel string
	Filter           *spatial.Predicate
}

func (o Options) label() string {
	if o.UnspecifiedLabel == "" {
		return DefaultUnspecifiedLabel
	}
	return o.UnspecifiedLabel
}

func (o Options) args() []any {
	if o.Filter == nil {
		return nil
	}
	return []any{o.Filter.Arg}
}

// Statement is one executable aggregation.
type Statement struct {
	SQL  string
	Args []any
}

// Builder renders statements against tables of Schema.
type Builder struct {
	Schema string
}

// Slices groups one table by category and sums value, largest first.
// Pie and bar charts share this shape.
func (b Builder) Slices(table, category, value string, opts Options) (Statement, error) {
	q := psql.Select(
		b.label(category, opts)+" AS name",
		fmt.Sprintf("SUM(%s::numeric) AS value", schema.Ident(value)),
	).From(b.table(table))
	q = b.where(q, opts, category)
	q = q.GroupBy("1").OrderBy("value DESC")
	return finish(q, opts)
}

// Grouped unions every table and sums value per (category, dimension).
func (b Builder) Grouped(tables []string, dimension, category, value string, opts Options) (Statement, error) {
	branches := make([]sq.SelectBuilder, len(tables))
	for i, t := range tables {
		q := psql.Select(
			b.label(dimension, opts)+" AS dim",
			b.label(category, opts)+" AS cat",
			fmt.Sprintf("%s::numeric AS val", schema.Ident(value)),
		).From(b.table(t))
		branches[i] = b.where(q, opts, dimension, category)
	}

	src, err := unionAll(branches)
	if err != nil {
		return Statement{}, err
	}
	q := psql.Select("cat", "dim", "SUM(val) AS value").
		Prefix(src).
		From("src").
		GroupBy("cat", "dim").
		OrderBy("cat", "dim")
	return finish(q, opts)
}

// Line sums value along x. With a series column, or with several tables,
// rows are unioned and split into series; several tables without a series
// column become one series per table name.
func (b Builder) Line(tables []string, x, value, series string, opts Options) (Statement, error) {
	if series == "" && len(tables) == 1 {
		q := psql.Select(
			b.label(x, opts)+" AS x",
			fmt.Sprintf("SUM(%s::numeric) AS value", schema.Ident(value)),
		).From(b.table(tables[0]))
		q = b.where(q, opts, x)
		q = q.GroupBy("1").OrderBy("1")
		return finish(q, opts)
	}

	branches := make([]sq.SelectBuilder, len(tables))
	for i, t := range tables {
		seriesExpr := quoteLiteral(t)
		categorical := []string{x}
		if series != "" {
			seriesExpr = b.label(series, opts)
			categorical = append(categorical, series)
		}
		q := psql.Select(
			b.label(x, opts)+" AS x",
			seriesExpr+" AS series",
			fmt.Sprintf("%s::numeric AS v", schema.Ident(value)),
		).From(b.table(t))
		branches[i] = b.where(q, opts, categorical...)
	}

	src, err := unionAll(branches)
	if err != nil {
		return Statement{}, err
	}
	q := psql.Select("series", "x", "SUM(v) AS value").
		Prefix(src).
		From("src").
		GroupBy("series", "x").
		OrderBy("series", "x")
	return finish(q, opts)
}

// Hierarchy counts rows per (parent, child) for sunburst charts.
func (b Builder) Hierarchy(table, parent, child string, opts Options) (Statement, error) {
	q := psql.Select(
		b.label(parent, opts)+" AS parent",
		b.label(child, opts)+" AS child",
		"COUNT(*) AS value",
	).From(b.table(table))
	q = b.where(q, opts, parent, child)
	q = q.GroupBy("1", "2").OrderBy("1", "2")
	return finish(q, opts)
}

func (b Builder) table(name string) string {
	s := b.Schema
	if s == "" {
		s = "public"
	}
	return schema.Qualified(s, name)
}

// label renders a categorical column as text, folding NULL into the
// placeholder label when nulls are kept.
func (b Builder) label(col string, opts Options) string {
	if opts.IncludeNulls {
		return fmt.Sprintf("COALESCE(%s::text, %s)", schema.Ident(col), quoteLiteral(opts.label()))
	}
	return schema.Ident(col) + "::text"
}

// where drops NULL categorical rows unless nulls are kept, then ANDs the
// spatial filter.
func (b Builder) where(q sq.SelectBuilder, opts Options, categorical ...string) sq.SelectBuilder {
	if !opts.IncludeNulls {
		for _, col := range categorical {
			q = q.Where(schema.Ident(col) + " IS NOT NULL")
		}
	}
	if opts.Filter != nil {
		q = q.Where(opts.Filter.SQL)
	}
	return q
}

func unionAll(branches []sq.SelectBuilder) (string, error) {
	parts := make([]string, len(branches))
	for i, br := range branches {
		s, _, err := br.ToSql()
		if err != nil {
			return "", fmt.Errorf("building union branch %d: %w", i, err)
		}
		parts[i] = s
	}
	return "WITH src AS (" + strings.Join(parts, " UNION ALL ") + ")", nil
}

func finish(q sq.SelectBuilder, opts Options) (Statement, error) {
	s, _, err := q.ToSql()
	if err != nil {
		return Statement{}, fmt.Errorf("building aggregation: %w", err)
	}
	return Statement{SQL: s, Args: opts.args()}, nil
}

// quoteLiteral renders s as a standard-conforming SQL string literal.
func quoteLiteral(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
