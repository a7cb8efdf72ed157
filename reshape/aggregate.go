package reshape

import (
	"fmt"
	"strings"

	"tidyframe/datatable"
)

// Aggregator resolves several values that land in the same PivotWider cell.
type Aggregator interface {
	// Name identifies the aggregator in messages and recipes.
	Name() string
	// ResultType returns the type of the aggregated column for an input
	// column of type input.
	ResultType(input datatable.DataType) datatable.DataType
	// Aggregate reduces values, all of the input column type, to one value.
	// values is never empty.
	Aggregate(values []datatable.Value) (datatable.Value, error)
}

type aggregator struct {
	name   string
	result func(datatable.DataType) datatable.DataType
	fn     func([]datatable.Value) (datatable.Value, error)
}

// NewAggregator builds an Aggregator from functions. A nil result keeps the
// input type.
func NewAggregator(name string, result func(datatable.DataType) datatable.DataType,
	fn func(values []datatable.Value) (datatable.Value, error)) Aggregator {
	if result == nil {
		result = sameType
	}
	return &aggregator{name: name, result: result, fn: fn}
}

func (a *aggregator) Name() string { return a.name }

func (a *aggregator) ResultType(input datatable.DataType) datatable.DataType { return a.result(input) }

func (a *aggregator) Aggregate(values []datatable.Value) (datatable.Value, error) {
	return a.fn(values)
}

func sameType(t datatable.DataType) datatable.DataType { return t }

func always(t datatable.DataType) func(datatable.DataType) datatable.DataType {
	return func(datatable.DataType) datatable.DataType { return t }
}

// Built-in aggregators. Sum, Mean, Min and Max skip explicit missing values
// and return missing when nothing is left; First, Last and Count look at
// every value.
var (
	// First keeps the value of the earliest row.
	First = NewAggregator("first", nil, func(v []datatable.Value) (datatable.Value, error) {
		return v[0], nil
	})

	// Last keeps the value of the latest row.
	Last = NewAggregator("last", nil, func(v []datatable.Value) (datatable.Value, error) {
		return v[len(v)-1], nil
	})

	// Count returns the number of rows.
	Count = NewAggregator("count", always(datatable.TypeInt), func(v []datatable.Value) (datatable.Value, error) {
		return datatable.IntValue(int64(len(v))), nil
	})

	// Sum adds numeric values.
	Sum = NewAggregator("sum", nil, sum)

	// Mean averages numeric values as a float.
	Mean = NewAggregator("mean", always(datatable.TypeFloat), mean)

	// Min keeps the smallest value.
	Min = NewAggregator("min", nil, func(v []datatable.Value) (datatable.Value, error) {
		return extreme(v, -1)
	})

	// Max keeps the largest value.
	Max = NewAggregator("max", nil, func(v []datatable.Value) (datatable.Value, error) {
		return extreme(v, 1)
	})
)

// Collect joins the rendered values of every row with sep, using "NA" for
// explicit missing cells.
func Collect(sep string) Aggregator {
	return NewAggregator("collect", always(datatable.TypeString), func(v []datatable.Value) (datatable.Value, error) {
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = x.String()
		}
		return datatable.StringValue(strings.Join(parts, sep)), nil
	})
}

// AggregatorByName returns a built-in aggregator by its recipe name.
func AggregatorByName(name string) (Aggregator, error) {
	switch strings.ToLower(name) {
	case "first":
		return First, nil
	case "last":
		return Last, nil
	case "count", "length":
		return Count, nil
	case "sum":
		return Sum, nil
	case "mean", "avg":
		return Mean, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "collect", "list":
		return Collect(", "), nil
	}
	return nil, &datatable.ConfigurationError{Option: "values_fn", Reason: fmt.Sprintf("unknown aggregation %q", name)}
}

func sum(values []datatable.Value) (datatable.Value, error) {
	typ := values[0].Type
	if typ != datatable.TypeInt && typ != datatable.TypeFloat {
		return datatable.Value{}, fmt.Errorf("%w: cannot sum %s values", datatable.ErrTypeMismatch, typ)
	}
	var (
		isum int64
		fsum float64
		seen bool
	)
	for _, v := range values {
		if v.IsNull {
			continue
		}
		seen = true
		if typ == datatable.TypeInt {
			isum += v.Raw.(int64)
		} else {
			fsum += v.Raw.(float64)
		}
	}
	switch {
	case !seen:
		return datatable.NewNullValue(typ), nil
	case typ == datatable.TypeInt:
		return datatable.IntValue(isum), nil
	default:
		return datatable.FloatValue(fsum), nil
	}
}

func mean(values []datatable.Value) (datatable.Value, error) {
	var (
		total float64
		n     int
	)
	for _, v := range values {
		if v.IsNull {
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			return datatable.Value{}, fmt.Errorf("%w: cannot average %s values", datatable.ErrTypeMismatch, v.Type)
		}
		total += f
		n++
	}
	if n == 0 {
		return datatable.NewNullValue(datatable.TypeFloat), nil
	}
	return datatable.FloatValue(total / float64(n)), nil
}

// extreme returns the minimum (dir < 0) or maximum (dir > 0) non-missing value.
func extreme(values []datatable.Value, dir int) (datatable.Value, error) {
	best := -1
	for i, v := range values {
		if v.IsNull {
			continue
		}
		if best < 0 || compareValues(v, values[best])*dir > 0 {
			best = i
		}
	}
	if best < 0 {
		return datatable.NewNullValue(values[0].Type), nil
	}
	return values[best], nil
}

// compareValues orders two non-missing values of the same type.
func compareValues(a, b datatable.Value) int {
	if af, ok := a.AsFloat(); ok {
		bf, _ := b.AsFloat()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	if ab, ok := a.Raw.(bool); ok {
		bb := b.Raw.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		}
		return 1
	}
	return strings.Compare(a.Formatted, b.Formatted)
}
