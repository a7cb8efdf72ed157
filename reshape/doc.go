// Package reshape implements tidy-data reshaping over datatable tables.
//
// # Operations
//
//   - PivotLonger: wide to long. Selected columns become rows; their names are
//     decomposed into key variables and their cells into value columns.
//   - PivotWider: long to wide, the structural inverse. One column supplies new
//     column names and one or more columns supply their values.
//   - Separate / SeparateRows: split a string column into several columns or rows.
//   - Unite: paste several columns into one string column.
//   - Expand / Complete: build the cartesian key space of columns and append
//     rows for the combinations the table lacks.
//   - Fill: carry the nearest non-missing value into explicit missing cells.
//   - DropNA / ReplaceNA / FilterRows: row and cell housekeeping.
//
// Every operation takes its input table read-only and returns a new table. On
// failure no table is returned. Errors are the kinds declared in the datatable
// package (UnknownColumnError, PatternArityError, TypeCoercionError,
// DuplicateKeyError, ConfigurationError) and can be matched with errors.As or
// errors.Is against their sentinels.
//
// # Missing values
//
// An explicit missing cell is a datatable.Value with IsNull set. A key
// combination with no row at all is implicitly missing. PivotWider and
// Complete turn implicit missingness into explicit missing cells, and
// PivotLonger with ValuesDropNA turns explicit missing cells back into absent
// rows. No operation does either silently.
//
// # Ordering and parallelism
//
// Output order is documented per operation and depends only on the input row
// order. Operations that accept a Workers option split the input rows into
// contiguous ranges, process them concurrently and concatenate the results in
// range order, so the result is identical for every worker count.
package reshape
