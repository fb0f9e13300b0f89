package aggregate

import (
	"database/sql"
	"errors"
	"math"
	"slices"
)

// ErrNoData is returned when an aggregation yields no rows.
var ErrNoData = errors.New("no data for this aggregation")

// HeaderMarker is the first cell of a pivot matrix header row.
const HeaderMarker = "__header__"

// TotalSeries names the only series of a single-table line chart.
const TotalSeries = "Total"

// SliceRow is one pie/bar aggregation row.
type SliceRow struct {
	Name  sql.NullString  `db:"name"`
	Value sql.NullFloat64 `db:"value"`
}

// PairRow is one (category, dimension) aggregation row.
type PairRow struct {
	Category  sql.NullString  `db:"cat"`
	Dimension sql.NullString  `db:"dim"`
	Value     sql.NullFloat64 `db:"value"`
}

// PointRow is one line aggregation row. Series is empty for single-table
// statements.
type PointRow struct {
	Series sql.NullString  `db:"series"`
	X      sql.NullString  `db:"x"`
	Value  sql.NullFloat64 `db:"value"`
}

// HierarchyRow is one (parent, child) count row.
type HierarchyRow struct {
	Parent sql.NullString  `db:"parent"`
	Child  sql.NullString  `db:"child"`
	Value  sql.NullFloat64 `db:"value"`
}

// Slice is one pie or bar slice.
type Slice struct {
	Name  string  `json:"name" example:"Maïs"`
	Value float64 `json:"value" example:"1250.5"`
}

// Matrix is a dense pivot: a header row then one row per category.
type Matrix [][]any

// Series is one named line aligned to LineSeries.X.
type Series struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

// LineSeries is the line chart payload.
type LineSeries struct {
	X      []string `json:"x"`
	Series []Series `json:"series"`
}

// Node is one sunburst ring entry.
type Node struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value,omitempty"`
	Children []Node  `json:"children,omitempty"`
}

// Slices keeps the statement order, which is value descending.
func Slices(rows []SliceRow) ([]Slice, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	out := make([]Slice, len(rows))
	for i, r := range rows {
		out[i] = Slice{Name: r.Name.String, Value: num(r.Value)}
	}
	return out, nil
}

// Pivot turns (category, dimension, value) rows into a dense matrix.
// Dimensions are sorted; categories keep their first-seen order, which the
// statement already sorts. Absent pairs are 0.
func Pivot(rows []PairRow) Matrix {
	var dims, cats []string
	cells := make(map[[2]string]float64, len(rows))
	for _, r := range rows {
		c, d := r.Category.String, r.Dimension.String
		if !slices.Contains(dims, d) {
			dims = append(dims, d)
		}
		if !slices.Contains(cats, c) {
			cats = append(cats, c)
		}
		cells[[2]string{c, d}] += num(r.Value)
	}
	slices.Sort(dims)

	m := make(Matrix, 0, len(cats)+1)
	header := make([]any, 0, len(dims)+1)
	header = append(header, HeaderMarker)
	for _, d := range dims {
		header = append(header, d)
	}
	m = append(m, header)

	for _, c := range cats {
		row := make([]any, 0, len(dims)+1)
		row = append(row, c)
		for _, d := range dims {
			row = append(row, cells[[2]string{c, d}])
		}
		m = append(m, row)
	}
	return m
}

// Lines reshapes line rows. With single set, rows are (x, value) pairs
// already ordered by x and collapse into one Total series. Otherwise x values
// and series names are sorted and every missing cell is 0.
func Lines(rows []PointRow, single bool) LineSeries {
	if single {
		out := LineSeries{
			X:      make([]string, 0, len(rows)),
			Series: []Series{{Name: TotalSeries, Data: make([]float64, 0, len(rows))}},
		}
		for _, r := range rows {
			out.X = append(out.X, r.X.String)
			out.Series[0].Data = append(out.Series[0].Data, num(r.Value))
		}
		return out
	}

	var xs, names []string
	cells := make(map[[2]string]float64, len(rows))
	for _, r := range rows {
		s, x := r.Series.String, r.X.String
		if !slices.Contains(xs, x) {
			xs = append(xs, x)
		}
		if !slices.Contains(names, s) {
			names = append(names, s)
		}
		cells[[2]string{s, x}] += num(r.Value)
	}
	slices.Sort(xs)
	slices.Sort(names)

	out := LineSeries{X: xs, Series: make([]Series, len(names))}
	if out.X == nil {
		out.X = []string{}
	}
	for i, name := range names {
		data := make([]float64, len(xs))
		for j, x := range xs {
			data[j] = cells[[2]string{name, x}]
		}
		out.Series[i] = Series{Name: name, Data: data}
	}
	return out
}

// Sunburst groups children under their parent in first-seen parent order.
func Sunburst(rows []HierarchyRow) ([]Node, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	var out []Node
	index := make(map[string]int)
	for _, r := range rows {
		p := r.Parent.String
		i, ok := index[p]
		if !ok {
			i = len(out)
			index[p] = i
			out = append(out, Node{Name: p})
		}
		out[i].Children = append(out[i].Children, Node{Name: r.Child.String, Value: num(r.Value)})
	}
	return out, nil
}

// num reads a driver numeric with a 0 fallback.
func num(v sql.NullFloat64) float64 {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return 0
	}
	return v.Float64
}
