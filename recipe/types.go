package recipe

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpPivotLonger  = "pivot_longer"
	OpPivotWider   = "pivot_wider"
	OpSeparate     = "separate"
	OpSeparateRows = "separate_rows"
	OpUnite        = "unite"
	OpComplete     = "complete"
	OpExpand       = "expand"
	OpFill         = "fill"
	OpDropNA       = "drop_na"
	OpReplaceNA    = "replace_na"
	OpFilter       = "filter"
	OpSelect       = "select"
	OpDrop         = "drop"
)

// Ops lists every supported step operation.
var Ops = []string{
	OpPivotLonger, OpPivotWider, OpSeparate, OpSeparateRows, OpUnite,
	OpComplete, OpExpand, OpFill, OpDropNA, OpReplaceNA, OpFilter,
	OpSelect, OpDrop,
}

// Recipe is an ordered list of reshape steps.
type Recipe struct {
	Version string `yaml:"version"`
	// Workers is the default parallelism of pivot_longer and separate.
	Workers int    `yaml:"workers,omitempty"`
	Steps   []Step `yaml:"steps"`
}

// Step is one operation. Only the fields of its op are read.
type Step struct {
	Op   string `yaml:"op"`
	Name string `yaml:"name,omitempty"`

	Cols    StringList `yaml:"cols,omitempty"`
	Col     string     `yaml:"col,omitempty"`
	GroupBy StringList `yaml:"group_by,omitempty"`

	// pivot_longer
	NamesTo      StringList          `yaml:"names_to,omitempty"`
	NamesPrefix  string              `yaml:"names_prefix,omitempty"`
	NamesSep     *string             `yaml:"names_sep,omitempty"`
	NamesPattern string              `yaml:"names_pattern,omitempty"`
	NamesTypes   map[string]string   `yaml:"names_types,omitempty"`
	NamesLevels  map[string][]string `yaml:"names_levels,omitempty"`
	ValuesTo     string              `yaml:"values_to,omitempty"`
	ValuesTypes  map[string]string   `yaml:"values_types,omitempty"`
	ValuesDropNA bool                `yaml:"values_drop_na,omitempty"`

	// pivot_wider
	NamesFrom      string                 `yaml:"names_from,omitempty"`
	ValuesFrom     StringList             `yaml:"values_from,omitempty"`
	IDCols         StringList             `yaml:"id_cols,omitempty"`
	ValuesFill     map[string]interface{} `yaml:"values_fill,omitempty"`
	ValuesFn       string                 `yaml:"values_fn,omitempty"`
	ValuesFnScript string                 `yaml:"values_fn_script,omitempty"`
	ValuesFnType   string                 `yaml:"values_fn_type,omitempty"`

	// separate, separate_rows, unite
	Into      StringList        `yaml:"into,omitempty"`
	Sep       *string           `yaml:"sep,omitempty"`
	SepRegex  string            `yaml:"sep_regex,omitempty"`
	Positions []int             `yaml:"positions,omitempty"`
	Extra     string            `yaml:"extra,omitempty"`
	Convert   bool              `yaml:"convert,omitempty"`
	IntoTypes map[string]string `yaml:"into_types,omitempty"`
	Remove    *bool             `yaml:"remove,omitempty"`
	NARm      bool              `yaml:"na_rm,omitempty"`

	// Fill is a policy name for separate and a column to value map for
	// complete.
	Fill yaml.Node `yaml:"fill,omitempty"`

	// complete, expand
	Nesting  [][]string `yaml:"nesting,omitempty"`
	Explicit bool       `yaml:"explicit,omitempty"`

	// fill
	Direction string `yaml:"direction,omitempty"`

	// replace_na
	Replace map[string]interface{} `yaml:"replace,omitempty"`

	// filter
	Where string `yaml:"where,omitempty"`
}

// Label names the step in logs and errors.
func (s *Step) Label(i int) string {
	if s.Name != "" {
		return fmt.Sprintf("step %d (%s %s)", i+1, s.Op, s.Name)
	}
	return fmt.Sprintf("step %d (%s)", i+1, s.Op)
}

// StringList accepts a single string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string
		if err := node.Decode(&str); err != nil {
			return err
		}
		if str != "" {
			*s = StringList{str}
		} else {
			*s = StringList{}
		}
		return nil

	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}
		*s = arr
		return nil

	default:
		return fmt.Errorf("line %d: expected string or list of strings", node.Line)
	}
}

// MarshalYAML writes a single element as a plain string.
func (s StringList) MarshalYAML() (interface{}, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}
