package datatable

import (
	"strconv"
	"strings"
)

// Coerce parses raw strictly as the target type. Surrounding whitespace is
// ignored. A failure is reported as a *TypeCoercionError naming raw.
func Coerce(raw string, target DataType) (Value, error) {
	s := strings.TrimSpace(raw)
	switch target {
	case TypeString:
		return StringValue(raw), nil
	case TypeInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, &TypeCoercionError{Raw: raw, Target: target}
		}
		return IntValue(i), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, &TypeCoercionError{Raw: raw, Target: target}
		}
		return FloatValue(f), nil
	case TypeBool:
		switch strings.ToLower(s) {
		case "true", "t":
			return BoolValue(true), nil
		case "false", "f":
			return BoolValue(false), nil
		}
		return Value{}, &TypeCoercionError{Raw: raw, Target: target}
	}
	return Value{}, &TypeCoercionError{Raw: raw, Target: target}
}

// CoerceAll converts every value to target, failing on the first value that
// does not convert. column names the offending column in the error.
func CoerceAll(column string, values []Value, target DataType) ([]Value, error) {
	out := make([]Value, len(values))
	for i, v := range values {
		c, err := v.Cast(target)
		if err != nil {
			if tce, ok := err.(*TypeCoercionError); ok {
				tce.Column = column
			}
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// InferType returns the narrowest type every non-null string value parses as:
// TypeInt, then TypeFloat, otherwise TypeString. Columns with no non-null
// values stay TypeString.
func InferType(values []Value) DataType {
	isInt, isFloat, seen := true, true, false
	for _, v := range values {
		if v.IsNull {
			continue
		}
		seen = true
		s := strings.TrimSpace(v.Formatted)
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if !isInt && isFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if !isInt && !isFloat {
			return TypeString
		}
	}
	switch {
	case !seen:
		return TypeString
	case isInt:
		return TypeInt
	case isFloat:
		return TypeFloat
	}
	return TypeString
}

// Convert is the best-effort counterpart of CoerceAll: the values are cast to
// the type InferType picks, and left untouched when any cast fails.
func Convert(values []Value) (DataType, []Value) {
	target := InferType(values)
	if target == TypeString {
		return TypeString, values
	}
	out, err := CoerceAll("", values, target)
	if err != nil {
		return TypeString, values
	}
	return target, out
}
