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

// Package scripting compiles user supplied Go snippets into reshape
// aggregators using the yaegi interpreter.
package scripting

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"tidyframe/datatable"
	"tidyframe/reshape"
)

// FuncName is the function a script must define, or whose body it supplies.
const FuncName = "Aggregate"

// scriptTemplate wraps a function body. The blank assignments keep the
// preloaded imports legal when the body does not use them.
const scriptTemplate = `package agg

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	_ = fmt.Sprint
	_ = math.Abs
	_ = sort.Strings
	_ = strconv.Itoa
	_ = strings.Join
)

func Aggregate(values []string) string {
%s
}
`

// Aggregator runs a compiled script. Values reach the script as their
// rendered strings, "NA" for explicit missing, and a result of "NA" becomes
// explicit missing. The result is converted to the declared result type by
// the caller.
type Aggregator struct {
	name   string
	result datatable.DataType
	fn     func([]string) string
	out    *bytes.Buffer
	stdout io.Writer

	// the interpreter is not safe for concurrent calls
	mu sync.Mutex
}

var _ reshape.Aggregator = (*Aggregator)(nil)

// Compile builds an aggregator from source. Source is either the body of
//
//	func Aggregate(values []string) string
//
// or a complete "package agg" file defining it. Output the script prints is
// copied to stdout after every call; a nil stdout discards it.
func Compile(name, source string, result datatable.DataType, stdout io.Writer) (*Aggregator, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &datatable.ConfigurationError{Option: "values_fn_script", Reason: "empty script"}
	}
	if stdout == nil {
		stdout = io.Discard
	}

	code := source
	if !strings.Contains(source, "package ") {
		code = fmt.Sprintf(scriptTemplate, source)
	}

	var out bytes.Buffer
	i := interp.New(interp.Options{Stdout: &out, Stderr: &out})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib: %w", err)
	}
	if _, err := i.Eval(code); err != nil {
		return nil, &datatable.ConfigurationError{Option: "values_fn_script", Reason: fmt.Sprintf("%s: %v", name, err)}
	}
	v, err := i.Eval("agg." + FuncName)
	if err != nil {
		return nil, &datatable.ConfigurationError{Option: "values_fn_script", Reason: fmt.Sprintf("%s: %v", name, err)}
	}
	fn, ok := v.Interface().(func([]string) string)
	if !ok {
		return nil, &datatable.ConfigurationError{
			Option: "values_fn_script",
			Reason: fmt.Sprintf("%s: %s has type %s, want func([]string) string", name, FuncName, v.Type()),
		}
	}

	return &Aggregator{name: name, result: result, fn: fn, out: &out, stdout: stdout}, nil
}

// Name implements reshape.Aggregator.
func (a *Aggregator) Name() string { return a.name }

// ResultType implements reshape.Aggregator.
func (a *Aggregator) ResultType(datatable.DataType) datatable.DataType { return a.result }

// Aggregate implements reshape.Aggregator.
func (a *Aggregator) Aggregate(values []datatable.Value) (res datatable.Value, err error) {
	in := make([]string, len(values))
	for i, v := range values {
		in[i] = v.String()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	defer func() {
		if a.out.Len() > 0 {
			_, _ = a.out.WriteTo(a.stdout)
		}
		if r := recover(); r != nil {
			err = fmt.Errorf("script %s panicked: %v", a.name, r)
		}
	}()

	s := a.fn(in)
	if s == "NA" {
		return datatable.NewNullValue(a.result), nil
	}
	if a.result == datatable.TypeString {
		return datatable.StringValue(s), nil
	}
	v, err := datatable.Coerce(s, a.result)
	if err != nil {
		return datatable.Value{}, fmt.Errorf("script %s: %w", a.name, err)
	}
	return v, nil
}
