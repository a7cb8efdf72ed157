// Package recipe reads YAML recipes, ordered lists of reshape steps, and
// runs them against a table.
package recipe

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile loads and parses a YAML recipe from the given path.
func LoadFile(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Recipe and applies defaults. It does not
// validate; call Validate or Run.
func Parse(data []byte) (*Recipe, error) {
	var r Recipe

	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse recipe YAML: %w", err)
	}

	applyDefaults(&r)

	return &r, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(r *Recipe) {
	if r.Version == "" {
		r.Version = "1"
	}
	if r.Workers <= 0 {
		r.Workers = 1
	}

	for i := range r.Steps {
		s := &r.Steps[i]
		if s.Remove == nil {
			remove := true
			s.Remove = &remove
		}
		switch s.Op {
		case OpUnite:
			if s.Sep == nil {
				sep := "_"
				s.Sep = &sep
			}
		case OpFill:
			if s.Direction == "" {
				s.Direction = "down"
			}
		case OpPivotLonger:
			if len(s.NamesTo) == 0 {
				s.NamesTo = StringList{"name"}
			}
			if s.ValuesTo == "" {
				s.ValuesTo = "value"
			}
		}
	}
}

// Marshal serializes a Recipe to YAML.
func Marshal(r *Recipe) ([]byte, error) {
	return yaml.Marshal(r)
}

// WriteFile writes a Recipe to the given path.
func WriteFile(r *Recipe, path string) error {
	data, err := Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write recipe file %s: %w", path, err)
	}

	return nil
}
