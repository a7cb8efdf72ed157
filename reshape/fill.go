package reshape

import (
	"fmt"
	"strings"

	"tidyframe/datatable"
)

// Direction is the scan direction of Fill.
type Direction int

const (
	// Down carries values towards later rows.
	Down Direction = iota
	// Up carries values towards earlier rows.
	Up
	// DownUp fills down, then fills the leading gap up.
	DownUp
	// UpDown fills up, then fills the trailing gap down.
	UpDown
)

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	case DownUp:
		return "downup"
	case UpDown:
		return "updown"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection parses a direction name. The empty string means Down.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "down":
		return Down, nil
	case "up":
		return Up, nil
	case "downup", "down-up", "down-then-up":
		return DownUp, nil
	case "updown", "up-down", "up-then-down":
		return UpDown, nil
	}
	return Down, &datatable.ConfigurationError{Option: "direction", Reason: fmt.Sprintf("unknown direction %q", s)}
}

// FillOptions configures Fill.
type FillOptions struct {
	Cols      []string
	Direction Direction

	// GroupBy restricts the scan to rows sharing the values of these columns.
	GroupBy []string
}

// Fill replaces explicit missing cells in Cols with the nearest non-missing
// value in the scan direction. Cells with no such value stay missing. Row
// order and every other column are unchanged.
func Fill(t *datatable.Table, opts FillOptions) (*datatable.Table, error) {
	if t == nil {
		return nil, datatable.ErrNoDataSource
	}
	idx, err := t.Resolve(opts.Cols)
	if err != nil {
		return nil, err
	}
	groupIdx, err := t.Resolve(opts.GroupBy)
	if err != nil {
		return nil, err
	}
	if opts.Direction < Down || opts.Direction > UpDown {
		return nil, &datatable.ConfigurationError{Option: "direction", Reason: opts.Direction.String()}
	}

	_, groups := datatable.GroupRows(t, groupIdx)
	cols := make([]*datatable.Column, t.ColumnCount())
	for c := range cols {
		cols[c] = t.ColumnAt(c).Clone()
	}

	for _, c := range idx {
		values := t.ColumnAt(c).Values()
		for _, rows := range groups {
			switch opts.Direction {
			case Down:
				fillDown(values, rows)
			case Up:
				fillUp(values, rows)
			case DownUp:
				fillDown(values, rows)
				fillUp(values, rows)
			case UpDown:
				fillUp(values, rows)
				fillDown(values, rows)
			}
		}
		col, err := datatable.NewColumn(t.ColumnAt(c).Name(), t.ColumnAt(c).Type(), values)
		if err != nil {
			return nil, err
		}
		cols[c] = col
	}
	return datatable.New(cols...)
}

// fillDown fills values at rows, visited in ascending order.
func fillDown(values []datatable.Value, rows []int) {
	last := -1
	for _, r := range rows {
		if !values[r].IsNull {
			last = r
		} else if last >= 0 {
			values[r] = values[last]
		}
	}
}

// fillUp fills values at rows, visited in descending order.
func fillUp(values []datatable.Value, rows []int) {
	last := -1
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		if !values[r].IsNull {
			last = r
		} else if last >= 0 {
			values[r] = values[last]
		}
	}
}
