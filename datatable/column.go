// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datatable

import "fmt"

// Column is a named, typed sequence of values.
// A Column is owned by exactly one Table and never mutated after construction.
type Column struct {
	name   string
	typ    DataType
	values []Value
}

// NewColumn creates a column of the declared type. Every non-null value must
// carry the declared type; null values are re-tagged with it.
// The values slice is copied.
func NewColumn(name string, dataType DataType, values []Value) (*Column, error) {
	if name == "" {
		return nil, &ConfigurationError{Option: "column", Reason: "column name must not be empty"}
	}

	vals := make([]Value, len(values))
	for i, v := range values {
		if v.IsNull {
			vals[i] = NewNullValue(dataType)
			continue
		}
		if v.Type != dataType || !rawMatches(v.Raw, dataType) {
			return nil, fmt.Errorf("%w: column %q row %d holds %s, declared %s",
				ErrTypeMismatch, name, i, v.Type, dataType)
		}
		vals[i] = v
	}

	return &Column{name: name, typ: dataType, values: vals}, nil
}

// NewColumnOf builds a column from plain Go values with nil as explicit
// missing. Non-nil values of another type are cast with Value.Cast.
func NewColumnOf(name string, dataType DataType, raws ...interface{}) (*Column, error) {
	values := make([]Value, len(raws))
	for i, raw := range raws {
		if raw == nil {
			values[i] = NewNullValue(dataType)
			continue
		}
		v, err := ValueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		if v.Type != dataType {
			if v, err = v.Cast(dataType); err != nil || v.Type != dataType {
				return nil, fmt.Errorf("%w: column %q row %d: %v is not %s", ErrTypeMismatch, name, i, raw, dataType)
			}
		}
		values[i] = v
	}
	return NewColumn(name, dataType, values)
}

// MustColumn is like NewColumnOf but panics on error. Intended for tests and
// static fixtures.
func MustColumn(name string, dataType DataType, raws ...interface{}) *Column {
	c, err := NewColumnOf(name, dataType, raws...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the declared data type.
func (c *Column) Type() DataType { return c.typ }

// Len returns the number of values.
func (c *Column) Len() int { return len(c.values) }

// Value returns the value at row i. It panics if i is out of range.
func (c *Column) Value(i int) Value { return c.values[i] }

// IsNull reports whether row i is explicitly missing.
func (c *Column) IsNull(i int) bool { return c.values[i].IsNull }

// Values returns a copy of the column values.
func (c *Column) Values() []Value {
	out := make([]Value, len(c.values))
	copy(out, c.values)
	return out
}

// NullCount returns the number of explicit missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.values {
		if v.IsNull {
			n++
		}
	}
	return n
}

// Renamed returns a copy of the column under a new name.
func (c *Column) Renamed(name string) *Column {
	return &Column{name: name, typ: c.typ, values: c.Values()}
}

// Clone returns a copy of the column.
func (c *Column) Clone() *Column { return c.Renamed(c.name) }

// Take returns a new column holding the values at the given row indices, in
// order. An index of -1 produces an explicit missing cell.
func (c *Column) Take(rows []int) *Column {
	vals := make([]Value, len(rows))
	for i, r := range rows {
		if r < 0 {
			vals[i] = NewNullValue(c.typ)
			continue
		}
		vals[i] = c.values[r]
	}
	return &Column{name: c.name, typ: c.typ, values: vals}
}

// Equal reports whether two columns have the same name, type and values.
func (c *Column) Equal(other *Column) bool {
	if c.name != other.name || c.typ != other.typ || len(c.values) != len(other.values) {
		return false
	}
	for i := range c.values {
		if !c.values[i].Equal(other.values[i]) {
			return false
		}
	}
	return true
}

func rawMatches(raw interface{}, dataType DataType) bool {
	switch dataType {
	case TypeString:
		_, ok := raw.(string)
		return ok
	case TypeInt:
		_, ok := raw.(int64)
		return ok
	case TypeFloat:
		_, ok := raw.(float64)
		return ok
	case TypeBool:
		_, ok := raw.(bool)
		return ok
	}
	return false
}
