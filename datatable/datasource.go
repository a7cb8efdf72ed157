package datatable

import "fmt"

// DataSource is read-only, row addressable access to a table. Table
// implements it; writers accept it so that any source can be exported.
// Implementations must be safe for concurrent reads.
type DataSource interface {
	RowCount() int
	ColumnCount() int

	// ColumnName returns ErrInvalidColumn if col is out of range.
	ColumnName(col int) (string, error)

	// ColumnType returns ErrInvalidColumn if col is out of range.
	ColumnType(col int) (DataType, error)

	// Cell returns ErrInvalidRow or ErrInvalidColumn when out of range.
	Cell(row, col int) (Value, error)

	// Row returns the cells of row in column order.
	Row(row int) ([]Value, error)

	// Metadata is never nil.
	Metadata() Metadata
}

// Filter decides whether a row passes.
type Filter interface {
	// Evaluate reports whether row, laid out as columnNames, passes the filter.
	Evaluate(row []Value, columnNames []string) (bool, error)

	// Description returns a human readable summary of the filter.
	Description() string
}

// SourceColumnNames returns the column names of src in order.
func SourceColumnNames(src DataSource) ([]string, error) {
	if src == nil {
		return nil, ErrNoDataSource
	}
	names := make([]string, src.ColumnCount())
	for i := range names {
		n, err := src.ColumnName(i)
		if err != nil {
			return nil, err
		}
		names[i] = n
	}
	return names, nil
}

// Materialize copies src into a Table. A *Table is returned as is.
func Materialize(src DataSource) (*Table, error) {
	if src == nil {
		return nil, ErrNoDataSource
	}
	if t, ok := src.(*Table); ok {
		return t, nil
	}

	names, err := SourceColumnNames(src)
	if err != nil {
		return nil, err
	}
	rows := src.RowCount()
	cols := make([]*Column, len(names))
	for c, name := range names {
		typ, err := src.ColumnType(c)
		if err != nil {
			return nil, err
		}
		values := make([]Value, rows)
		for r := range values {
			if values[r], err = src.Cell(r, c); err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, r, err)
			}
		}
		if cols[c], err = NewColumn(name, typ, values); err != nil {
			return nil, err
		}
	}

	t, err := New(cols...)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		t.rows = rows
	}
	return t.WithMetadata(src.Metadata()), nil
}
