// Package table provides the in-memory tabular structure the feature pipeline
// reads from. Cells are kept as loaded; numeric interpretation is explicit
// through the typed accessors on Column.
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// nullMarkers are cell values treated as missing by the numeric accessors.
// Ergast-style exports use \N for SQL NULL.
var nullMarkers = map[string]struct{}{
	"":    {},
	`\N`:  {},
	"NA":  {},
	"NaN": {},
	"nan": {},
}

// Column is a named, homogeneous column of raw cell values.
type Column struct {
	name  string
	cells []string
}

// NewColumn builds a column from raw cells. The slice is copied.
func NewColumn(name string, cells []string) Column {
	c := make([]string, len(cells))
	copy(c, cells)
	return Column{name: name, cells: c}
}

// Strings builds a column from string values.
func Strings(name string, vals ...string) Column {
	return NewColumn(name, vals)
}

// Ints builds a column from integer values.
func Ints(name string, vals ...int) Column {
	cells := make([]string, len(vals))
	for i, v := range vals {
		cells[i] = strconv.Itoa(v)
	}
	return Column{name: name, cells: cells}
}

// Floats builds a column from float values; NaN becomes a missing cell.
func Floats(name string, vals ...float64) Column {
	cells := make([]string, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		cells[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return Column{name: name, cells: cells}
}

// Name returns the column header as it appeared in the source.
func (c Column) Name() string { return c.name }

// Len returns the number of cells.
func (c Column) Len() int { return len(c.cells) }

// String returns the raw cell at row i.
func (c Column) String(i int) string { return c.cells[i] }

// Strings returns a copy of all raw cells.
func (c Column) Strings() []string {
	out := make([]string, len(c.cells))
	copy(out, c.cells)
	return out
}

// Float coerces the cell at row i to a number. Text such as "DNF" or "R"
// and null markers report ok=false.
func (c Column) Float(i int) (float64, bool) {
	return parseFloat(c.cells[i])
}

// Floats coerces every cell, using NaN for cells that are not numeric.
func (c Column) Floats() []float64 {
	out := make([]float64, len(c.cells))
	for i, s := range c.cells {
		v, ok := parseFloat(s)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if _, null := nullMarkers[s]; null {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Table is a named set of equally sized columns.
type Table struct {
	name  string
	cols  []Column
	index map[string]int
	rows  int
}

// New builds a table. All columns must have the same length and unique names.
func New(name string, cols ...Column) (*Table, error) {
	t := &Table{
		name:  name,
		cols:  make([]Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("table %q column %q has %d rows, want %d: %w", name, c.name, c.Len(), t.rows, ErrRaggedColumns)
		}
		if _, dup := t.index[c.name]; dup {
			return nil, fmt.Errorf("table %q column %q: %w", name, c.name, ErrDuplicateColumn)
		}
		t.index[c.name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is like New but panics on error. Intended for fixtures.
func MustNew(name string, cols ...Column) *Table {
	t, err := New(name, cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Len returns the number of rows; a nil table has zero rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// Empty reports whether the table is nil or has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// Column looks up a column by its exact name.
func (t *Table) Column(name string) (Column, bool) {
	if t == nil {
		return Column{}, false
	}
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// Set is a collection of tables keyed by logical name (results, races, ...).
type Set map[string]*Table

// Get returns the named table when it is present and non-empty.
func (s Set) Get(name string) (*Table, bool) {
	t, ok := s[name]
	if !ok || t.Empty() {
		return nil, false
	}
	return t, true
}
