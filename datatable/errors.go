package datatable

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by the datatable, pattern and reshape packages.
var (
	// ErrInvalidColumn is returned when a column index is out of range.
	ErrInvalidColumn = errors.New("invalid column index")

	// ErrInvalidRow is returned when a row index is out of range.
	ErrInvalidRow = errors.New("invalid row index")

	// ErrInvalidFilter is returned when a filter expression is invalid.
	ErrInvalidFilter = errors.New("invalid filter expression")

	// ErrTypeMismatch is returned when a cell does not match its column type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNoDataSource is returned when a required data source is nil.
	ErrNoDataSource = errors.New("data source is nil")

	// ErrColumnNotFound is returned when a column name is not found.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrLengthMismatch is returned when columns of one table differ in length.
	ErrLengthMismatch = errors.New("column length mismatch")

	// ErrPatternArity is returned when a decomposed name yields the wrong number of pieces.
	ErrPatternArity = errors.New("pattern arity mismatch")

	// ErrTypeCoercion is returned when a strict type conversion fails.
	ErrTypeCoercion = errors.New("type coercion failed")

	// ErrDuplicateKey is returned when a key tuple maps to more than one row.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConfiguration is returned when operation options are inconsistent.
	ErrConfiguration = errors.New("invalid configuration")
)

// UnknownColumnError reports a reference to a column the table does not have.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("%s: %q", ErrColumnNotFound, e.Name)
}

func (e *UnknownColumnError) Unwrap() error { return ErrColumnNotFound }

// PatternArityError reports a column name (or cell) whose decomposition
// produced a different number of pieces than there are targets.
type PatternArityError struct {
	Name     string
	Expected int
	Actual   int
}

func (e *PatternArityError) Error() string {
	return fmt.Sprintf("%s: %q produced %d pieces, expected %d", ErrPatternArity, e.Name, e.Actual, e.Expected)
}

func (e *PatternArityError) Unwrap() error { return ErrPatternArity }

// TypeCoercionError reports the raw string that could not be converted.
// Levels is set when the target is an ordered set of allowed strings.
type TypeCoercionError struct {
	Column string
	Raw    string
	Target DataType
	Levels []string
}

func (e *TypeCoercionError) Error() string {
	if len(e.Levels) > 0 {
		return fmt.Sprintf("%s: column %q: %q is not one of the levels [%s]",
			ErrTypeCoercion, e.Column, e.Raw, strings.Join(e.Levels, ", "))
	}
	if e.Column == "" {
		return fmt.Sprintf("%s: %q is not a valid %s", ErrTypeCoercion, e.Raw, e.Target)
	}
	return fmt.Sprintf("%s: column %q: %q is not a valid %s", ErrTypeCoercion, e.Column, e.Raw, e.Target)
}

func (e *TypeCoercionError) Unwrap() error { return ErrTypeCoercion }

// DuplicateKeyError reports a key tuple that occurs with the same
// names-from value on more than one row.
type DuplicateKeyError struct {
	Key       []string
	NamesFrom string
	Count     int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: key (%s) has %d rows for %q; supply an aggregation function",
		ErrDuplicateKey, strings.Join(e.Key, ", "), e.Count, e.NamesFrom)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// ConfigurationError reports mutually inconsistent or missing options.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Option, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
