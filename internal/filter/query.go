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

package filter

import (
	"fmt"
	"strconv"
	"strings"

	"tidyframe/datatable"
)

// CompOp is a comparison operator.
type CompOp int

const (
	OpEqual CompOp = iota
	OpNotEqual
	OpGreater
	OpLess
	OpGreaterEqual
	OpLessEqual
	OpContains
)

var opSymbols = []struct {
	op     CompOp
	symbol string
}{
	// longer symbols first so ">=" is not read as ">"
	{OpGreaterEqual, ">="},
	{OpLessEqual, "<="},
	{OpNotEqual, "!="},
	{OpEqual, "="},
	{OpGreater, ">"},
	{OpLess, "<"},
	{OpContains, "~"},
}

// String returns the operator symbol.
func (op CompOp) String() string {
	for _, s := range opSymbols {
		if s.op == op {
			return s.symbol
		}
	}
	return fmt.Sprintf("unknown(%d)", op)
}

// ComparisonFilter compares one column with a literal. An empty Column with
// OpContains searches every column. Column names match case-insensitively.
// Missing cells never pass, except for OpNotEqual.
type ComparisonFilter struct {
	Column string
	Op     CompOp
	Value  string
}

var _ datatable.Filter = (*ComparisonFilter)(nil)

// Evaluate implements the Filter interface.
func (f *ComparisonFilter) Evaluate(row []datatable.Value, columnNames []string) (bool, error) {
	if f.Column == "" && f.Op == OpContains {
		needle := strings.ToLower(f.Value)
		for _, cell := range row {
			if !cell.IsNull && strings.Contains(strings.ToLower(cell.Formatted), needle) {
				return true, nil
			}
		}
		return false, nil
	}

	idx := -1
	for i, n := range columnNames {
		if strings.EqualFold(n, f.Column) {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(row) {
		return false, &datatable.UnknownColumnError{Name: f.Column}
	}

	cell := row[idx]
	if cell.IsNull {
		return f.Op == OpNotEqual, nil
	}

	switch f.Op {
	case OpEqual:
		return strings.EqualFold(cell.Formatted, f.Value), nil
	case OpNotEqual:
		return !strings.EqualFold(cell.Formatted, f.Value), nil
	case OpContains:
		return strings.Contains(strings.ToLower(cell.Formatted), strings.ToLower(f.Value)), nil
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		return compareOrdered(cell.Formatted, f.Value, f.Op), nil
	}
	return false, fmt.Errorf("%w: unknown operator %d", datatable.ErrInvalidFilter, f.Op)
}

// Description implements the Filter interface.
func (f *ComparisonFilter) Description() string {
	if f.Column == "" {
		return fmt.Sprintf("any ~ %q", f.Value)
	}
	return fmt.Sprintf("%s %s %q", f.Column, f.Op, f.Value)
}

// compareOrdered compares numerically when both sides parse as numbers and
// case-insensitively as strings otherwise.
func compareOrdered(cellValue, compareValue string, op CompOp) bool {
	var cmp int
	cell, err1 := strconv.ParseFloat(strings.TrimSpace(cellValue), 64)
	lit, err2 := strconv.ParseFloat(strings.TrimSpace(compareValue), 64)
	if err1 == nil && err2 == nil {
		switch {
		case cell < lit:
			cmp = -1
		case cell > lit:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(strings.ToLower(cellValue), strings.ToLower(compareValue))
	}

	switch op {
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLessEqual:
		return cmp <= 0
	}
	return false
}

// ParseQuery parses expressions such as `year >= 2000 AND country ~ bra`
// into a filter. Terms are combined strictly left to right; AND and OR have
// equal precedence. A term without an operator is a contains search over all
// columns. Every referenced column must be in columns.
func ParseQuery(query string, columns []string) (datatable.Filter, error) {
	if strings.TrimSpace(query) == "" {
		return &CompositeFilter{}, nil
	}

	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[strings.ToLower(c)] = struct{}{}
	}

	var (
		result  datatable.Filter
		pending *LogicOp
	)
	for _, part := range splitByLogicOps(query) {
		if part.isOperator {
			if result == nil || pending != nil {
				return nil, fmt.Errorf("%w: misplaced %s in %q", datatable.ErrInvalidFilter, part.text, query)
			}
			op := LogicAND
			if part.text == "OR" {
				op = LogicOR
			}
			pending = &op
			continue
		}

		term, err := parseExpression(part.text, known)
		if err != nil {
			return nil, err
		}
		switch {
		case result == nil:
			result = term
		case pending == nil:
			return nil, fmt.Errorf("%w: missing AND/OR before %q", datatable.ErrInvalidFilter, part.text)
		default:
			result = &CompositeFilter{Filters: []datatable.Filter{result, term}, Logic: *pending}
			pending = nil
		}
	}

	if result == nil || pending != nil {
		return nil, fmt.Errorf("%w: incomplete query %q", datatable.ErrInvalidFilter, query)
	}
	return result, nil
}

type queryPart struct {
	text       string
	isOperator bool
}

// splitByLogicOps splits query by AND/OR while preserving the operators
func splitByLogicOps(query string) []queryPart {
	parts := make([]queryPart, 0)
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			parts = append(parts, queryPart{text: s})
		}
		current.Reset()
	}

	for i := 0; i < len(query); {
		matched := false
		for _, kw := range []string{"AND", "OR"} {
			end := i + len(kw)
			if end > len(query) || !strings.EqualFold(query[i:end], kw) {
				continue
			}
			// Check it's a word boundary
			if (i == 0 || isWhitespace(query[i-1])) && (end >= len(query) || isWhitespace(query[end])) {
				flush()
				parts = append(parts, queryPart{text: kw, isOperator: true})
				i = end
				matched = true
				break
			}
		}
		if !matched {
			current.WriteByte(query[i])
			i++
		}
	}
	flush()

	return parts
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// parseExpression parses a single expression like "column = value"
func parseExpression(exprStr string, known map[string]struct{}) (*ComparisonFilter, error) {
	exprStr = strings.TrimSpace(exprStr)

	for _, opInfo := range opSymbols {
		idx := strings.Index(exprStr, opInfo.symbol)
		if idx <= 0 {
			continue
		}
		column := strings.TrimSpace(exprStr[:idx])
		value := strings.TrimSpace(exprStr[idx+len(opInfo.symbol):])
		value = strings.Trim(value, "\"'")

		if _, ok := known[strings.ToLower(column)]; !ok {
			return nil, &datatable.UnknownColumnError{Name: column}
		}
		return &ComparisonFilter{Column: column, Op: opInfo.op, Value: value}, nil
	}

	// If no operator found, treat as contains search on all columns
	return &ComparisonFilter{Op: OpContains, Value: exprStr}, nil
}
