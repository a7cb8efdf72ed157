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

// Package pattern decomposes composite strings, such as the column names
// "new_sp_m014" or "x_1", into an ordered tuple of pieces bound to target
// variable names.
//
// A Spec splits either on a Separator (literal text, a regular expression or
// fixed character positions) or with a regular expression whose capture
// groups produce the pieces. When a separator yields more or fewer pieces
// than there are targets, the Extra and Fill policies decide what happens;
// both default to failing with a *datatable.PatternArityError.
//
// Decomposition is a pure function. Decompose returns one tagged Result per
// input so callers can report every failing name at once.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"tidyframe/datatable"
)

// DefaultSeparator splits on any run of non-alphanumeric characters.
const DefaultSeparator = `[^[:alnum:]]+`

// ExtraPolicy controls what happens when a value splits into too many pieces.
type ExtraPolicy int

const (
	// ExtraError fails with a PatternArityError.
	ExtraError ExtraPolicy = iota
	// ExtraDrop discards the surplus pieces.
	ExtraDrop
	// ExtraMerge splits at most N-1 times, so the last piece keeps the rest.
	ExtraMerge
)

// String returns the configuration name of the policy.
func (p ExtraPolicy) String() string {
	switch p {
	case ExtraError:
		return "error"
	case ExtraDrop:
		return "drop"
	case ExtraMerge:
		return "merge"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// ParseExtraPolicy maps "error", "drop" or "merge" to a policy.
func ParseExtraPolicy(s string) (ExtraPolicy, error) {
	switch strings.ToLower(s) {
	case "", "error":
		return ExtraError, nil
	case "drop":
		return ExtraDrop, nil
	case "merge", "merge-into-last":
		return ExtraMerge, nil
	}
	return ExtraError, &datatable.ConfigurationError{Option: "extra", Reason: fmt.Sprintf("unknown policy %q", s)}
}

// FillPolicy controls what happens when a value splits into too few pieces.
type FillPolicy int

const (
	// FillError fails with a PatternArityError.
	FillError FillPolicy = iota
	// FillRight pads the missing pieces on the right with explicit missing values.
	FillRight
	// FillLeft pads the missing pieces on the left with explicit missing values.
	FillLeft
)

// String returns the configuration name of the policy.
func (p FillPolicy) String() string {
	switch p {
	case FillError:
		return "error"
	case FillRight:
		return "right"
	case FillLeft:
		return "left"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// ParseFillPolicy maps "error", "right" or "left" to a policy.
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch strings.ToLower(s) {
	case "", "error":
		return FillError, nil
	case "right", "fill-right-with-missing":
		return FillRight, nil
	case "left", "fill-left-with-missing":
		return FillLeft, nil
	}
	return FillError, &datatable.ConfigurationError{Option: "fill", Reason: fmt.Sprintf("unknown policy %q", s)}
}

// Spec describes how to decompose a string into len(Names) pieces.
// Exactly one of Sep and Pattern may be set; with neither, only a single
// target is allowed and the whole string becomes its piece.
type Spec struct {
	// Names are the target variable names, one per piece.
	Names []string
	// Sep splits the string.
	Sep Separator
	// Pattern extracts one piece per capture group.
	Pattern *regexp.Regexp
	// Extra applies to separator splits that yield too many pieces.
	Extra ExtraPolicy
	// Fill applies to separator splits that yield too few pieces.
	Fill FillPolicy
}

// Validate checks the spec for inconsistent options.
func (s Spec) Validate() error {
	n := len(s.Names)
	if n == 0 {
		return &datatable.ConfigurationError{Option: "names", Reason: "at least one target name is required"}
	}
	if s.Pattern != nil && !s.Sep.IsZero() {
		return &datatable.ConfigurationError{Option: "pattern", Reason: "a separator and a pattern are mutually exclusive"}
	}
	if s.Pattern != nil {
		if got := s.Pattern.NumSubexp(); got != n {
			return &datatable.ConfigurationError{
				Option: "pattern",
				Reason: fmt.Sprintf("pattern %q has %d capture groups for %d names", s.Pattern, got, n),
			}
		}
		return nil
	}
	if s.Sep.IsZero() && n > 1 {
		return &datatable.ConfigurationError{
			Option: "names",
			Reason: fmt.Sprintf("%d names need a separator or a pattern", n),
		}
	}
	if len(s.Sep.Positions) > 0 && len(s.Sep.Positions) != n-1 {
		return &datatable.ConfigurationError{
			Option: "sep",
			Reason: fmt.Sprintf("%d positions cannot produce %d pieces", len(s.Sep.Positions), n),
		}
	}
	return nil
}

// Result is the outcome of decomposing one string.
type Result struct {
	// Source is the decomposed string.
	Source string
	// Pieces holds one string value per target name when Err is nil.
	// Pieces padded by a fill policy are explicit missing.
	Pieces []datatable.Value
	// Err is a *datatable.PatternArityError when decomposition failed.
	Err error
}

// OK reports whether decomposition succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Decompose splits each name according to spec. The returned error is
// non-nil only for an invalid spec; per-name failures are in the results.
func Decompose(names []string, spec Spec) ([]Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	out := make([]Result, len(names))
	for i, name := range names {
		pieces, err := split(name, spec)
		out[i] = Result{Source: name, Pieces: pieces, Err: err}
	}
	return out, nil
}

// DecomposeAll is Decompose for callers that need every name to succeed.
// All failures are joined into the returned error.
func DecomposeAll(names []string, spec Spec) ([][]datatable.Value, error) {
	results, err := Decompose(names, spec)
	if err != nil {
		return nil, err
	}
	var errs []error
	out := make([][]datatable.Value, len(results))
	for i, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
			continue
		}
		out[i] = r.Pieces
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Split decomposes a single string. The spec is validated on every call;
// callers splitting many values should validate once and use a Splitter.
func Split(s string, spec Spec) ([]datatable.Value, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return split(s, spec)
}

// Splitter is a validated Spec.
type Splitter struct {
	spec Spec
}

// NewSplitter validates spec once for repeated use.
func NewSplitter(spec Spec) (*Splitter, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{spec: spec}, nil
}

// Split decomposes s.
func (sp *Splitter) Split(s string) ([]datatable.Value, error) {
	return split(s, sp.spec)
}

func split(s string, spec Spec) ([]datatable.Value, error) {
	n := len(spec.Names)
	switch {
	case spec.Pattern != nil:
		return extract(s, spec.Pattern, n)
	case len(spec.Sep.Positions) > 0:
		return strs(splitPositions(s, spec.Sep.Positions)), nil
	case spec.Sep.IsZero():
		return strs([]string{s}), nil
	}

	pieces := spec.Sep.splitN(s, -1)
	switch {
	case len(pieces) == n:
		return strs(pieces), nil

	case len(pieces) > n:
		switch spec.Extra {
		case ExtraDrop:
			return strs(pieces[:n]), nil
		case ExtraMerge:
			return strs(spec.Sep.splitN(s, n)), nil
		}

	default:
		missing := n - len(pieces)
		switch spec.Fill {
		case FillRight:
			return append(strs(pieces), nulls(missing)...), nil
		case FillLeft:
			return append(nulls(missing), strs(pieces)...), nil
		}
	}

	return nil, &datatable.PatternArityError{Name: s, Expected: n, Actual: len(pieces)}
}

func extract(s string, re *regexp.Regexp, n int) ([]datatable.Value, error) {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return nil, &datatable.PatternArityError{Name: s, Expected: n, Actual: 0}
	}
	out := make([]datatable.Value, n)
	for g := 1; g <= n; g++ {
		start, end := loc[2*g], loc[2*g+1]
		if start < 0 {
			out[g-1] = datatable.NewNullValue(datatable.TypeString)
			continue
		}
		out[g-1] = datatable.StringValue(s[start:end])
	}
	return out, nil
}

func strs(pieces []string) []datatable.Value {
	out := make([]datatable.Value, len(pieces))
	for i, p := range pieces {
		out[i] = datatable.StringValue(p)
	}
	return out
}

func nulls(n int) []datatable.Value {
	out := make([]datatable.Value, n)
	for i := range out {
		out[i] = datatable.NewNullValue(datatable.TypeString)
	}
	return out
}
