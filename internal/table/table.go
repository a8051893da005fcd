// Package table holds the in-memory tabular form of the CRM export: named
// tables of string cells with an ordered header, plus the ordered records
// handed to prompts and API responses.
package table

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Table is a rectangular set of rows under an ordered header. Row order is
// the source order and is significant: matching ties resolve by it.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// New builds a table, padding short rows with empty cells and truncating
// long ones so every row has len(columns) cells.
func New(name string, columns []string, rows [][]string) *Table {
	cols := append([]string(nil), columns...)
	out := make([][]string, len(rows))
	for i, row := range rows {
		r := make([]string, len(cols))
		copy(r, row)
		out[i] = r
	}
	return &Table{Name: name, Columns: cols, Rows: out}
}

// Index returns the position of a column, or -1.
func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Has reports whether the table carries the column.
func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// MustIndex returns the position of a column or an error naming the table.
func (t *Table) MustIndex(column string) (int, error) {
	i := t.Index(column)
	if i < 0 {
		return -1, eris.Errorf("table: %s has no column %q", t.Name, column)
	}
	return i, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Record returns row i as an ordered record.
func (t *Table) Record(i int) Record {
	rec := make(Record, len(t.Columns))
	for j, c := range t.Columns {
		rec[j] = Field{Name: c, Value: t.Rows[i][j]}
	}
	return rec
}

// Records returns every row as an ordered record, in table order.
func (t *Table) Records() []Record {
	out := make([]Record, t.Len())
	for i := range out {
		out[i] = t.Record(i)
	}
	return out
}

// Field is one named cell of a record.
type Field struct {
	Name  string
	Value string
}

// Record is a flat row that keeps its column order when serialized.
type Record []Field

// Get returns the value of the named field.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// MarshalJSON encodes the record as a JSON object with keys in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteString(", ")
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, eris.Wrap(err, "table: marshal field name")
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, eris.Wrap(err, "table: marshal field value")
		}
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as an ordered mapping.
func (r Record) MarshalYAML() (any, error) {
	return yamlMapping(r), nil
}
