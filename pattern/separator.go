package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"tidyframe/datatable"
)

// Separator describes where a string is cut. Only one of the fields is used:
// Positions when non-empty, otherwise Regex when non-nil, otherwise Literal.
type Separator struct {
	// Literal is a plain separator string.
	Literal string
	// Regex matches separators.
	Regex *regexp.Regexp
	// Positions are 1-based cut points. Positive positions count characters
	// from the left, negative ones from the right (-1 cuts before the last
	// character).
	Positions []int
}

// Literal returns a separator that splits on the exact string sep.
func Literal(sep string) Separator { return Separator{Literal: sep} }

// Regex returns a separator that splits on matches of expr.
func Regex(expr string) (Separator, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Separator{}, &datatable.ConfigurationError{Option: "sep", Reason: fmt.Sprintf("invalid regular expression %q: %v", expr, err)}
	}
	return Separator{Regex: re}, nil
}

// MustRegex is like Regex but panics on an invalid expression.
func MustRegex(expr string) Separator {
	s, err := Regex(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// Positions returns a separator that cuts at fixed character positions.
func Positions(pos ...int) Separator {
	p := make([]int, len(pos))
	copy(p, pos)
	return Separator{Positions: p}
}

// IsZero reports whether no separator is configured.
func (s Separator) IsZero() bool {
	return s.Literal == "" && s.Regex == nil && len(s.Positions) == 0
}

// String describes the separator for messages.
func (s Separator) String() string {
	switch {
	case len(s.Positions) > 0:
		return fmt.Sprintf("positions %v", s.Positions)
	case s.Regex != nil:
		return fmt.Sprintf("regex %q", s.Regex.String())
	default:
		return fmt.Sprintf("%q", s.Literal)
	}
}

// splitN splits s on the separator into at most n pieces (n < 0 means all).
func (s Separator) splitN(str string, n int) []string {
	if s.Regex != nil {
		return s.Regex.Split(str, n)
	}
	return strings.SplitN(str, s.Literal, n)
}

// SplitAll splits s on every separator occurrence. Positions are not
// supported here and yield the unsplit string.
func (s Separator) SplitAll(str string) []string {
	if len(s.Positions) > 0 || s.IsZero() {
		return []string{str}
	}
	return s.splitN(str, -1)
}

// splitPositions cuts str at the given character positions. Out of range
// positions are clamped and a cut before the previous one yields an empty piece.
func splitPositions(str string, positions []int) []string {
	runes := []rune(str)
	size := len(runes)
	out := make([]string, 0, len(positions)+1)
	prev := 0
	for _, p := range positions {
		cut := p
		if p < 0 {
			cut = size + p
		}
		if cut < prev {
			cut = prev
		}
		if cut > size {
			cut = size
		}
		out = append(out, string(runes[prev:cut]))
		prev = cut
	}
	return append(out, string(runes[prev:]))
}
