// Package filter provides row predicates over datatable rows: explicit
// missing checks, column comparisons parsed from short query expressions,
// and AND/OR composition.
package filter

import (
	"fmt"
	"strings"

	"tidyframe/datatable"
)

// LogicOp represents a logical operator for combining filters.
type LogicOp int

const (
	// LogicAND requires all filters to pass.
	LogicAND LogicOp = iota
	// LogicOR requires at least one filter to pass.
	LogicOR
)

// String returns the string representation of a LogicOp.
func (op LogicOp) String() string {
	switch op {
	case LogicAND:
		return "AND"
	case LogicOR:
		return "OR"
	default:
		return fmt.Sprintf("unknown(%d)", op)
	}
}

// CompositeFilter joins filters with one logic operator. With no filters
// every row passes.
type CompositeFilter struct {
	Filters []datatable.Filter
	Logic   LogicOp
}

var _ datatable.Filter = (*CompositeFilter)(nil)

// Evaluate implements the Filter interface. Evaluation stops at the first
// filter that decides the result.
func (f *CompositeFilter) Evaluate(row []datatable.Value, columnNames []string) (bool, error) {
	if len(f.Filters) == 0 {
		return true, nil
	}
	if f.Logic != LogicAND && f.Logic != LogicOR {
		return false, fmt.Errorf("%w: unknown logic operator %d", datatable.ErrInvalidFilter, f.Logic)
	}

	// AND is decided by the first failure, OR by the first success.
	decisive := f.Logic == LogicOR
	for _, sub := range f.Filters {
		ok, err := sub.Evaluate(row, columnNames)
		if err != nil {
			return false, err
		}
		if ok == decisive {
			return decisive, nil
		}
	}
	return !decisive, nil
}

// Description implements the Filter interface.
func (f *CompositeFilter) Description() string {
	if len(f.Filters) == 0 {
		return "all rows"
	}
	parts := make([]string, len(f.Filters))
	for i, sub := range f.Filters {
		parts[i] = sub.Description()
	}
	return "(" + strings.Join(parts, " "+f.Logic.String()+" ") + ")"
}

// MissingFilter passes rows whose column is explicit missing, or, with
// Negate, rows whose column holds a value.
type MissingFilter struct {
	Column string
	Negate bool
}

var _ datatable.Filter = (*MissingFilter)(nil)

// Evaluate implements the Filter interface.
func (f *MissingFilter) Evaluate(row []datatable.Value, columnNames []string) (bool, error) {
	i := indexOf(columnNames, f.Column)
	if i < 0 || i >= len(row) {
		return false, &datatable.UnknownColumnError{Name: f.Column}
	}
	return row[i].IsNull != f.Negate, nil
}

// Description implements the Filter interface.
func (f *MissingFilter) Description() string {
	if f.Negate {
		return f.Column + " is not missing"
	}
	return f.Column + " is missing"
}

// NotMissing passes rows where every listed column holds a value.
func NotMissing(columns ...string) *CompositeFilter {
	filters := make([]datatable.Filter, len(columns))
	for i, c := range columns {
		filters[i] = &MissingFilter{Column: c, Negate: true}
	}
	return &CompositeFilter{Filters: filters, Logic: LogicAND}
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
