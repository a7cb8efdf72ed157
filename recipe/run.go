package recipe

import (
	"errors"
	"fmt"
	"io"
	"log"

	"tidyframe/datatable"
)

// compileStep is swapped in tests.
var compileStep = compile

// Validate checks the recipe structure and every step's options without
// running anything. Column references are checked only when the recipe runs.
// All problems are reported, joined.
func Validate(r *Recipe) error {
	_, err := compileAll(r, io.Discard)
	return err
}

// compileAll validates r and compiles its steps, with script output going to
// stdout.
func compileAll(r *Recipe, stdout io.Writer) ([]stepFunc, error) {
	if r == nil {
		return nil, &datatable.ConfigurationError{Option: "recipe", Reason: "is nil"}
	}

	var errs []error
	if r.Version != "1" {
		errs = append(errs, &datatable.ConfigurationError{Option: "version", Reason: fmt.Sprintf("unsupported version %q", r.Version)})
	}
	if len(r.Steps) == 0 {
		errs = append(errs, &datatable.ConfigurationError{Option: "steps", Reason: "recipe has no steps"})
	}
	steps := make([]stepFunc, len(r.Steps))
	for i := range r.Steps {
		fn, err := compileStep(&r.Steps[i], r.Workers, stdout)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Steps[i].Label(i), err))
			continue
		}
		steps[i] = fn
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return steps, nil
}

// Run applies the steps in order and returns the final table. Each step is
// logged with the shape of its result; a nil logger discards the log.
// Script output goes to the logger's writer.
func (r *Recipe) Run(t *datatable.Table, logger *log.Logger) (*datatable.Table, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	steps, err := compileAll(r, logger.Writer())
	if err != nil {
		return nil, err
	}

	logger.Printf("input: %d rows, %d columns", t.RowCount(), t.ColumnCount())
	for i, fn := range steps {
		out, err := fn(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Steps[i].Label(i), err)
		}
		t = out
		logger.Printf("%s: %d rows, %d columns", r.Steps[i].Label(i), t.RowCount(), t.ColumnCount())
	}
	return t, nil
}
