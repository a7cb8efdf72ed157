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

// Package datatable provides the in-memory table model used by the reshape engine.
//
// A Table is an ordered list of uniquely named Columns of equal length. Every
// Column has a single declared DataType and holds Values. A Value with IsNull
// set is an explicit missing cell: the position exists but its content is
// unknown. Implicit missingness (a combination of keys with no row at all) has
// no cell-level representation; the reshape package makes it explicit.
//
// Tables are immutable once built. Operations produce new tables and never
// share column storage with their inputs.
package datatable

import (
	"fmt"
	"strconv"
	"strings"
)

// DataType represents the type of data in a column.
type DataType int

const (
	// TypeString represents string data.
	TypeString DataType = iota
	// TypeInt represents integer data, stored as int64.
	TypeInt
	// TypeFloat represents floating-point data, stored as float64.
	TypeFloat
	// TypeBool represents boolean data.
	TypeBool
)

// String returns the string representation of a DataType.
func (dt DataType) String() string {
	switch dt {
	case TypeString:
		return "String"
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeBool:
		return "Bool"
	default:
		return fmt.Sprintf("Unknown(%d)", dt)
	}
}

// ParseDataType maps a type name as written in configuration files to a DataType.
func ParseDataType(name string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "str", "character", "chr":
		return TypeString, nil
	case "int", "integer", "int64":
		return TypeInt, nil
	case "float", "double", "float64", "numeric":
		return TypeFloat, nil
	case "bool", "boolean", "logical":
		return TypeBool, nil
	default:
		return TypeString, &ConfigurationError{Option: "type", Reason: fmt.Sprintf("unknown data type %q", name)}
	}
}

// Value is a typed container for cell values.
// It holds the raw value, type information, and a pre-formatted string.
type Value struct {
	// Raw holds the underlying value: string, int64, float64 or bool
	// depending on Type. Raw is nil when IsNull is set.
	Raw interface{}

	// Type indicates the data type of this value.
	Type DataType

	// IsNull marks an explicit missing cell.
	IsNull bool

	// Formatted is the canonical string rendering of Raw ("" when IsNull).
	Formatted string
}

// NewValue creates a new Value from a raw value and type.
// Integer and float raws of any Go width are normalized to int64 and float64.
func NewValue(raw interface{}, dataType DataType) Value {
	if raw == nil {
		return NewNullValue(dataType)
	}

	raw = normalizeRaw(raw, dataType)

	return Value{
		Raw:       raw,
		Type:      dataType,
		IsNull:    false,
		Formatted: formatValue(raw, dataType),
	}
}

// NewNullValue creates a null value of the specified type.
func NewNullValue(dataType DataType) Value {
	return Value{
		Raw:       nil,
		Type:      dataType,
		IsNull:    true,
		Formatted: "",
	}
}

// StringValue returns a non-null string Value.
func StringValue(s string) Value { return NewValue(s, TypeString) }

// IntValue returns a non-null integer Value.
func IntValue(i int64) Value { return NewValue(i, TypeInt) }

// FloatValue returns a non-null float Value.
func FloatValue(f float64) Value { return NewValue(f, TypeFloat) }

// BoolValue returns a non-null boolean Value.
func BoolValue(b bool) Value { return NewValue(b, TypeBool) }

// ValueOf builds a Value from a plain Go value, inferring its type.
// nil yields a null string Value.
func ValueOf(raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return NewNullValue(TypeString), nil
	case Value:
		return v, nil
	case string:
		return StringValue(v), nil
	case bool:
		return BoolValue(v), nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return NewValue(v, TypeInt), nil
	case float32, float64:
		return NewValue(v, TypeFloat), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported Go type %T", ErrTypeMismatch, raw)
	}
}

// String returns the formatted representation. Null values render as "NA".
func (v Value) String() string {
	if v.IsNull {
		return "NA"
	}
	return v.Formatted
}

// Key returns a canonical, type-tagged representation suitable for hashing.
// Values of different types never share a key, and all nulls of a type share one.
func (v Value) Key() string {
	if v.IsNull {
		return "\x00NA"
	}
	switch v.Type {
	case TypeInt:
		return "i:" + v.Formatted
	case TypeFloat:
		if f, ok := v.Raw.(float64); ok && f == 0 {
			// -0 and 0 are equal
			return "f:0"
		}
		return "f:" + v.Formatted
	case TypeBool:
		return "b:" + v.Formatted
	default:
		return "s:" + v.Formatted
	}
}

// Equal reports whether two values have the same type, nullness and content.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type || v.IsNull != other.IsNull {
		return false
	}
	if v.IsNull {
		return true
	}
	return v.Raw == other.Raw
}

// AsFloat returns the numeric content of an int or float value.
func (v Value) AsFloat() (float64, bool) {
	if v.IsNull {
		return 0, false
	}
	switch r := v.Raw.(type) {
	case int64:
		return float64(r), true
	case float64:
		return r, true
	default:
		return 0, false
	}
}

// Cast converts v to the target type. Nulls stay null; widening int to float
// and rendering anything as a string always succeed, other conversions parse
// the formatted text strictly.
func (v Value) Cast(target DataType) (Value, error) {
	if v.Type == target {
		return v, nil
	}
	if v.IsNull {
		return NewNullValue(target), nil
	}
	if target == TypeString {
		return StringValue(v.Formatted), nil
	}
	if f, ok := v.AsFloat(); ok && target == TypeFloat {
		return FloatValue(f), nil
	}
	return Coerce(v.Formatted, target)
}

func normalizeRaw(raw interface{}, dataType DataType) interface{} {
	switch dataType {
	case TypeInt:
		switch n := raw.(type) {
		case int:
			return int64(n)
		case int8:
			return int64(n)
		case int16:
			return int64(n)
		case int32:
			return int64(n)
		case uint8:
			return int64(n)
		case uint16:
			return int64(n)
		case uint32:
			return int64(n)
		}
	case TypeFloat:
		switch n := raw.(type) {
		case float32:
			return float64(n)
		case int64:
			return float64(n)
		case int:
			return float64(n)
		}
	}
	return raw
}

// formatValue converts a raw value to its canonical string.
func formatValue(raw interface{}, dataType DataType) string {
	if raw == nil {
		return ""
	}

	switch r := raw.(type) {
	case string:
		return r
	case int64:
		return strconv.FormatInt(r, 10)
	case float64:
		return strconv.FormatFloat(r, 'f', -1, 64)
	case bool:
		if r {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", raw)
	}
}

// CommonType returns the narrowest type both a and b can be stored as.
// Identical types unify to themselves and int with float unifies to float;
// every other pairing is incompatible.
func CommonType(a, b DataType) (DataType, bool) {
	if a == b {
		return a, true
	}
	if (a == TypeInt && b == TypeFloat) || (a == TypeFloat && b == TypeInt) {
		return TypeFloat, true
	}
	return TypeString, false
}

// Metadata holds optional metadata about a data source.
type Metadata map[string]interface{}
