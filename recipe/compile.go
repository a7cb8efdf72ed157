package recipe

import (
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"

	"tidyframe/datatable"
	"tidyframe/internal/filter"
	"tidyframe/internal/scripting"
	"tidyframe/pattern"
	"tidyframe/reshape"
)

// stepFunc applies one compiled step.
type stepFunc func(t *datatable.Table) (*datatable.Table, error)

func required(option string) error {
	return &datatable.ConfigurationError{Option: option, Reason: "is required"}
}

// compile checks a step and turns it into a function. Scripts write their
// output to stdout.
func compile(s *Step, workers int, stdout io.Writer) (stepFunc, error) {
	switch s.Op {
	case OpPivotLonger:
		return compileLonger(s, workers)
	case OpPivotWider:
		return compileWider(s, workers, stdout)
	case OpSeparate:
		return compileSeparate(s, workers)
	case OpSeparateRows:
		return compileSeparateRows(s)
	case OpUnite:
		return compileUnite(s)
	case OpComplete, OpExpand:
		return compileComplete(s)
	case OpFill:
		return compileFill(s)
	case OpDropNA:
		cols := []string(s.Cols)
		return func(t *datatable.Table) (*datatable.Table, error) {
			return reshape.DropNA(t, cols...)
		}, nil
	case OpReplaceNA:
		if len(s.Replace) == 0 {
			return nil, required("replace")
		}
		replace, err := values(s.Replace)
		if err != nil {
			return nil, err
		}
		return func(t *datatable.Table) (*datatable.Table, error) {
			return reshape.ReplaceNA(t, replace)
		}, nil
	case OpFilter:
		if s.Where == "" {
			return nil, required("where")
		}
		where := s.Where
		return func(t *datatable.Table) (*datatable.Table, error) {
			f, err := filter.ParseQuery(where, t.ColumnNames())
			if err != nil {
				return nil, err
			}
			return reshape.FilterRows(t, f)
		}, nil
	case OpSelect, OpDrop:
		if len(s.Cols) == 0 {
			return nil, required("cols")
		}
		cols := []string(s.Cols)
		if s.Op == OpSelect {
			return func(t *datatable.Table) (*datatable.Table, error) { return t.Select(cols...) }, nil
		}
		return func(t *datatable.Table) (*datatable.Table, error) { return t.Drop(cols...) }, nil
	case "":
		return nil, required("op")
	}
	return nil, &datatable.ConfigurationError{Option: "op", Reason: fmt.Sprintf("unknown operation %q", s.Op)}
}

func compileLonger(s *Step, workers int) (stepFunc, error) {
	if len(s.Cols) == 0 {
		return nil, required("cols")
	}
	opts := reshape.DefaultLongerOptions()
	opts.Cols = s.Cols
	opts.NamesTo = s.NamesTo
	opts.NamesPrefix = s.NamesPrefix
	opts.NamesLevels = s.NamesLevels
	opts.ValuesTo = s.ValuesTo
	opts.ValuesDropNA = s.ValuesDropNA
	opts.Workers = workers

	if s.NamesSep != nil && s.NamesPattern != "" {
		return nil, &datatable.ConfigurationError{Option: "names_sep", Reason: "cannot be combined with names_pattern"}
	}
	if s.NamesSep != nil {
		opts.NamesSep = pattern.Literal(*s.NamesSep)
	}
	if s.NamesPattern != "" {
		re, err := regexp.Compile(s.NamesPattern)
		if err != nil {
			return nil, &datatable.ConfigurationError{Option: "names_pattern", Reason: err.Error()}
		}
		opts.NamesPattern = re
	}

	var err error
	if opts.NamesExtra, err = pattern.ParseExtraPolicy(s.Extra); err != nil {
		return nil, err
	}
	if opts.NamesFill, err = fillPolicy(s.Fill); err != nil {
		return nil, err
	}
	if opts.NamesTypes, err = types(s.NamesTypes); err != nil {
		return nil, err
	}
	if opts.ValuesTypes, err = types(s.ValuesTypes); err != nil {
		return nil, err
	}
	return func(t *datatable.Table) (*datatable.Table, error) {
		return reshape.PivotLonger(t, opts)
	}, nil
}

func compileWider(s *Step, workers int, stdout io.Writer) (stepFunc, error) {
	if s.NamesFrom == "" {
		return nil, required("names_from")
	}
	if len(s.ValuesFrom) == 0 {
		return nil, required("values_from")
	}
	opts := reshape.DefaultWiderOptions()
	opts.NamesFrom = s.NamesFrom
	opts.ValuesFrom = s.ValuesFrom
	opts.IDCols = s.IDCols
	opts.NamesPrefix = s.NamesPrefix
	opts.Workers = workers
	if s.NamesSep != nil {
		opts.NamesSep = *s.NamesSep
	}

	var err error
	if len(s.ValuesFill) > 0 {
		if opts.ValuesFill, err = values(s.ValuesFill); err != nil {
			return nil, err
		}
	}

	switch {
	case s.ValuesFn != "" && s.ValuesFnScript != "":
		return nil, &datatable.ConfigurationError{Option: "values_fn", Reason: "cannot be combined with values_fn_script"}
	case s.ValuesFn != "":
		if opts.ValuesFn, err = reshape.AggregatorByName(s.ValuesFn); err != nil {
			return nil, err
		}
	case s.ValuesFnScript != "":
		result := datatable.TypeString
		if s.ValuesFnType != "" {
			if result, err = datatable.ParseDataType(s.ValuesFnType); err != nil {
				return nil, err
			}
		}
		name := s.Name
		if name == "" {
			name = "values_fn_script"
		}
		agg, err := scripting.Compile(name, s.ValuesFnScript, result, stdout)
		if err != nil {
			return nil, err
		}
		opts.ValuesFn = agg
	}

	return func(t *datatable.Table) (*datatable.Table, error) {
		return reshape.PivotWider(t, opts)
	}, nil
}

func compileSeparate(s *Step, workers int) (stepFunc, error) {
	if s.Col == "" {
		return nil, required("col")
	}
	if len(s.Into) == 0 {
		return nil, required("into")
	}
	opts := reshape.DefaultSeparateOptions()
	opts.Col = s.Col
	opts.Into = s.Into
	opts.Convert = s.Convert
	opts.Remove = s.remove()
	opts.Workers = workers

	var err error
	if opts.Sep, err = separator(s, opts.Sep); err != nil {
		return nil, err
	}
	if opts.Extra, err = pattern.ParseExtraPolicy(s.Extra); err != nil {
		return nil, err
	}
	if opts.Fill, err = fillPolicy(s.Fill); err != nil {
		return nil, err
	}
	if opts.IntoTypes, err = types(s.IntoTypes); err != nil {
		return nil, err
	}
	return func(t *datatable.Table) (*datatable.Table, error) {
		return reshape.Separate(t, opts)
	}, nil
}

func compileSeparateRows(s *Step) (stepFunc, error) {
	if len(s.Cols) == 0 {
		return nil, required("cols")
	}
	opts := reshape.DefaultSeparateRowsOptions()
	opts.Cols = s.Cols
	opts.Convert = s.Convert

	var err error
	if opts.Sep, err = separator(s, opts.Sep); err != nil {
		return nil, err
	}
	return func(t *datatable.Table) (*datatable.Table, error) {
		return reshape.SeparateRows(t, opts)
	}, nil
}

func compileUnite(s *Step) (stepFunc, error) {
	if s.Col == "" {
		return nil, required("col")
	}
	opts := reshape.DefaultUniteOptions()
	opts.Col = s.Col
	opts.Cols = s.Cols
	if s.Sep != nil {
		opts.Sep = *s.Sep
	}
	opts.Remove = s.remove()
	opts.NARm = s.NARm
	return func(t *datatable.Table) (*datatable.Table, error) {
		return reshape.Unite(t, opts)
	}, nil
}

func compileComplete(s *Step) (stepFunc, error) {
	if len(s.Cols) == 0 && len(s.Nesting) == 0 {
		return nil, required("cols")
	}
	opts := reshape.CompleteOptions{
		Cols:     s.Cols,
		Nesting:  s.Nesting,
		GroupBy:  s.GroupBy,
		Explicit: s.Explicit,
	}
	if s.Op == OpExpand {
		return func(t *datatable.Table) (*datatable.Table, error) {
			return reshape.Expand(t, opts)
		}, nil
	}

	if s.Fill.Kind != 0 {
		var raw map[string]interface{}
		if err := s.Fill.Decode(&raw); err != nil {
			return nil, &datatable.ConfigurationError{Option: "fill", Reason: fmt.Sprintf("line %d: expected a map of column to value", s.Fill.Line)}
		}
		fill, err := values(raw)
		if err != nil {
			return nil, err
		}
		opts.Fill = fill
	}
	return func(t *datatable.Table) (*datatable.Table, error) {
		return reshape.Complete(t, opts)
	}, nil
}

func compileFill(s *Step) (stepFunc, error) {
	if len(s.Cols) == 0 {
		return nil, required("cols")
	}
	dir, err := reshape.ParseDirection(s.Direction)
	if err != nil {
		return nil, err
	}
	opts := reshape.FillOptions{Cols: s.Cols, Direction: dir, GroupBy: s.GroupBy}
	return func(t *datatable.Table) (*datatable.Table, error) {
		return reshape.Fill(t, opts)
	}, nil
}

func (s *Step) remove() bool { return s.Remove == nil || *s.Remove }

// separator picks at most one of sep, sep_regex and positions, falling back
// to def.
func separator(s *Step, def pattern.Separator) (pattern.Separator, error) {
	set := 0
	if s.Sep != nil {
		set++
	}
	if s.SepRegex != "" {
		set++
	}
	if len(s.Positions) > 0 {
		set++
	}
	if set > 1 {
		return pattern.Separator{}, &datatable.ConfigurationError{Option: "sep", Reason: "only one of sep, sep_regex or positions may be set"}
	}

	switch {
	case s.Sep != nil:
		return pattern.Literal(*s.Sep), nil
	case s.SepRegex != "":
		return pattern.Regex(s.SepRegex)
	case len(s.Positions) > 0:
		return pattern.Positions(s.Positions...), nil
	}
	return def, nil
}

func fillPolicy(node yaml.Node) (pattern.FillPolicy, error) {
	if node.Kind == 0 {
		return pattern.FillError, nil
	}
	var name string
	if err := node.Decode(&name); err != nil {
		return pattern.FillError, &datatable.ConfigurationError{Option: "fill", Reason: fmt.Sprintf("line %d: expected a policy name", node.Line)}
	}
	return pattern.ParseFillPolicy(name)
}

func types(names map[string]string) (map[string]datatable.DataType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make(map[string]datatable.DataType, len(names))
	for col, name := range names {
		dt, err := datatable.ParseDataType(name)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		out[col] = dt
	}
	return out, nil
}

func values(raw map[string]interface{}) (map[string]datatable.Value, error) {
	out := make(map[string]datatable.Value, len(raw))
	for col, r := range raw {
		v, err := datatable.ValueOf(r)
		if err != nil {
			return nil, &datatable.ConfigurationError{Option: col, Reason: err.Error()}
		}
		out[col] = v
	}
	return out, nil
}
