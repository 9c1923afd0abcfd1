package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TextColumn is the column name used for tables built from non-tabular
// sources (plain text, documents, PDFs).
const TextColumn = "Text"

// Kind identifies what a Cell holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Cell is a single (row, column) value.
//
// Number cells keep the literal they were read from in Text so that
// serialization reproduces the source spelling ("1.50" stays "1.50").
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
	Bool   bool
}

// Null returns a missing value.
func Null() Cell { return Cell{} }

// Text returns a text cell.
func Text(s string) Cell { return Cell{Kind: KindText, Text: s} }

// Number returns a numeric cell with a canonical literal.
func Number(f float64) Cell {
	return Cell{Kind: KindNumber, Number: f, Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NumberLiteral returns a numeric cell that remembers its source literal.
func NumberLiteral(literal string, f float64) Cell {
	return Cell{Kind: KindNumber, Number: f, Text: literal}
}

// Bool returns a boolean cell.
func Bool(b bool) Cell { return Cell{Kind: KindBool, Bool: b} }

// IsNull reports whether the cell is missing.
func (c Cell) IsNull() bool { return c.Kind == KindNull }

// String renders the cell for text-oriented outputs. Null renders as "".
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		if c.Text != "" {
			return c.Text
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(c.Bool)
	default:
		return ""
	}
}

// Value returns the cell as a JSON-friendly value: nil, string,
// json.Number or bool.
func (c Cell) Value() any {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return json.Number(c.String())
	case KindBool:
		return c.Bool
	default:
		return nil
	}
}

// Equal compares cells by kind and value. Numbers compare numerically, so
// "1" and "1.0" are equal, as are 0 and -0. NaN equals NaN.
func (c Cell) Equal(o Cell) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case KindText:
		return c.Text == o.Text
	case KindNumber:
		return c.Number == o.Number || (math.IsNaN(c.Number) && math.IsNaN(o.Number))
	case KindBool:
		return c.Bool == o.Bool
	default:
		return true
	}
}

// key returns a collision-free identity for the cell, consistent with Equal.
func (c Cell) key() string {
	switch c.Kind {
	case KindText:
		return "t" + strconv.Itoa(len(c.Text)) + ":" + c.Text
	case KindNumber:
		if c.Number == 0 {
			return "n0"
		}
		return "n" + strconv.FormatFloat(c.Number, 'g', -1, 64)
	case KindBool:
		return "b" + strconv.FormatBool(c.Bool)
	default:
		return "z"
	}
}

// Table is the uniform in-memory representation passed between the
// ingest, normalize and serialize stages. Every row has exactly one cell per
// column, in column order.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Append adds a row. The row must have one cell per column.
func (t *Table) Append(row []Cell) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of a column by exact name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// TextColumnIndex picks the column used by line-oriented outputs: the
// "Text" column when present, otherwise the only column.
func (t *Table) TextColumnIndex() (int, bool) {
	if i, ok := t.ColumnIndex(TextColumn); ok {
		return i, true
	}
	if len(t.Columns) == 1 {
		return 0, true
	}
	return -1, false
}

// Clone returns a deep copy that shares nothing with t.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns...)
	out.Rows = make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]Cell, len(row))
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// Head returns a copy of the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := NewTable(t.Columns...)
	out.Rows = make([][]Cell, n)
	for i := 0; i < n; i++ {
		r := make([]Cell, len(t.Rows[i]))
		copy(r, t.Rows[i])
		out.Rows[i] = r
	}
	return out
}

// Equal reports whether both tables have the same columns and rows.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		for j := range t.Rows[i] {
			if !t.Rows[i][j].Equal(o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// rowKey builds the identity of a whole row for duplicate detection.
func rowKey(row []Cell) string {
	var b strings.Builder
	for i, c := range row {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(c.key())
	}
	return b.String()
}

// UniqueColumns fixes up header names so they can key a row: blank names
// become "Unnamed: <index>" and repeats get ".1", ".2", ... suffixes. Other
// names are kept exactly, surrounding whitespace included.
func UniqueColumns(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]int, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		if _, dup := seen[name]; dup {
			n := seen[name]
			for {
				n++
				candidate = name + "." + strconv.Itoa(n)
				if _, taken := seen[candidate]; !taken {
					break
				}
			}
			seen[name] = n
		}
		seen[candidate] = 0
		out[i] = candidate
	}
	return out
}

// Preview is a display-ready slice of a table.
type Preview struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	TotalRows int      `json:"totalRows"`
}

// PreviewOf renders the first n rows of t.
func PreviewOf(t *Table, n int) Preview {
	head := t.Head(n)
	p := Preview{
		Columns:   head.Columns,
		Rows:      make([][]any, len(head.Rows)),
		TotalRows: t.Len(),
	}
	for i, row := range head.Rows {
		vals := make([]any, len(row))
		for j, c := range row {
			vals[j] = c.Value()
		}
		p.Rows[i] = vals
	}
	return p
}
