package table

import (
	"fmt"
	"time"
)

// ColumnKind classifies a column after type coercion over a sample.
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindDatetime    ColumnKind = "datetime"
	KindCategorical ColumnKind = "categorical"
)

// ValueType defines the storage type for cell values
type ValueType string

const (
	ValueTypeString    ValueType = "string"
	ValueTypeNumeric   ValueType = "numeric"
	ValueTypeTimestamp ValueType = "timestamp"
	ValueTypeMissing   ValueType = "missing"
)

// Value represents a typed cell value with deterministic coercion
type Value struct {
	Type         ValueType  `json:"type"`
	StringVal    *string    `json:"string_val,omitempty"`
	NumericVal   *float64   `json:"numeric_val,omitempty"`
	TimestampVal *time.Time `json:"timestamp_val,omitempty"`
	IsMissing    bool       `json:"is_missing"`
}

// NewStringValue creates a string value
func NewStringValue(s string) Value {
	if s == "" {
		return NewMissingValue()
	}
	return Value{Type: ValueTypeString, StringVal: &s}
}

// NewNumericValue creates a numeric value
func NewNumericValue(n float64) Value {
	return Value{Type: ValueTypeNumeric, NumericVal: &n}
}

// NewTimestampValue creates a timestamp value
func NewTimestampValue(t time.Time) Value {
	return Value{Type: ValueTypeTimestamp, TimestampVal: &t}
}

// NewMissingValue creates a missing value
func NewMissingValue() Value {
	return Value{Type: ValueTypeMissing, IsMissing: true}
}

// Float returns the numeric payload, if any.
func (v Value) Float() (float64, bool) {
	if v.Type == ValueTypeNumeric && v.NumericVal != nil {
		return *v.NumericVal, true
	}
	return 0, false
}

// Time returns the timestamp payload, if any.
func (v Value) Time() (time.Time, bool) {
	if v.Type == ValueTypeTimestamp && v.TimestampVal != nil {
		return *v.TimestampVal, true
	}
	return time.Time{}, false
}

// String returns the raw string representation of the value
func (v Value) String() string {
	switch v.Type {
	case ValueTypeString:
		if v.StringVal != nil {
			return *v.StringVal
		}
	case ValueTypeNumeric:
		if v.NumericVal != nil {
			return fmt.Sprintf("%g", *v.NumericVal)
		}
	case ValueTypeTimestamp:
		if v.TimestampVal != nil {
			return v.TimestampVal.Format("2006-01-02")
		}
	}
	return ""
}

// Column describes one column of a table.
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Row is a single record keyed by column name.
type Row map[string]Value

// Table is an ordered, immutable-by-convention tabular dataset loaded for one
// request. Column order is preserved from the source file; row order is
// preserved unless a routine explicitly sorts by date.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// ColumnNames returns the column names in source order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the column descriptor by name.
func (t *Table) Lookup(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// NumericColumns returns names of numeric-kind columns in source order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// CategoricalColumns returns names of non-numeric columns in source order.
func (t *Table) CategoricalColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.Kind != KindNumeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// FloatColumn extracts the numeric values of a column, skipping missing and
// non-numeric cells. The returned slice preserves row order.
func (t *Table) FloatColumn(name string) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if f, ok := row[name].Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// UniqueCount returns the number of distinct non-missing raw values in a column.
func (t *Table) UniqueCount(name string) int {
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		v := row[name]
		if v.IsMissing {
			continue
		}
		seen[v.String()] = struct{}{}
	}
	return len(seen)
}
