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

// Package csvadapter reads and writes tables as delimited text.
package csvadapter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"tidyframe/datatable"
)

// Config controls how delimited text is read and written.
type Config struct {
	// Delimiter separates fields. Zero means detect it from the header line.
	Delimiter rune

	// HasHeaders treats the first record as column names. Without headers
	// columns are named V1, V2, ...
	HasHeaders bool

	// TrimSpace removes leading and trailing white space from every field.
	TrimSpace bool

	// NullValues are read as explicit missing.
	NullValues []string

	// NullString is written for explicit missing cells.
	NullString string

	// InferTypes narrows each column to int or float when every value parses.
	InferTypes bool
}

// DefaultConfig returns a comma separated configuration with headers that
// reads "" and "NA" as missing.
func DefaultConfig() Config {
	return Config{
		Delimiter:  ',',
		HasHeaders: true,
		TrimSpace:  true,
		NullValues: []string{"", "NA"},
		InferTypes: true,
	}
}

// NewFromFile reads a table from a file.
func NewFromFile(path string, cfg Config) (*datatable.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	t, err := NewFromReader(f, cfg)
	if err != nil {
		return nil, err
	}
	return t.WithMetadata(datatable.Metadata{"source": path, "format": "csv"}), nil
}

// NewFromReader reads a table from r.
func NewFromReader(r io.Reader, cfg Config) (*datatable.Table, error) {
	br := bufio.NewReader(r)
	if cfg.Delimiter == 0 {
		head, _ := br.Peek(64 * 1024)
		line, _, _ := bytes.Cut(head, []byte("\n"))
		cfg.Delimiter = DetectSeparator(string(line))
	}

	cr := csv.NewReader(br)
	cr.Comma = cfg.Delimiter
	cr.TrimLeadingSpace = cfg.TrimSpace
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return datatable.New()
	}

	var names []string
	if cfg.HasHeaders {
		names, records = records[0], records[1:]
		if cfg.TrimSpace {
			for i := range names {
				names[i] = strings.TrimSpace(names[i])
			}
		}
	} else {
		names = make([]string, len(records[0]))
		for i := range names {
			names[i] = fmt.Sprintf("V%d", i+1)
		}
	}

	cols := make([]*datatable.Column, len(names))
	for c, name := range names {
		values := make([]datatable.Value, len(records))
		for r, rec := range records {
			field := rec[c]
			if cfg.TrimSpace {
				field = strings.TrimSpace(field)
			}
			if slices.Contains(cfg.NullValues, field) {
				values[r] = datatable.NewNullValue(datatable.TypeString)
				continue
			}
			values[r] = datatable.StringValue(field)
		}

		typ := datatable.TypeString
		if cfg.InferTypes {
			typ, values = datatable.Convert(values)
		}
		col, err := datatable.NewColumn(name, typ, values)
		if err != nil {
			return nil, err
		}
		cols[c] = col
	}
	return datatable.New(cols...)
}

// DetectSeparator guesses the delimiter of a header line: the most frequent
// of comma, semicolon, tab and pipe, with ties resolved in that order.
// A line with none of them is comma separated.
func DetectSeparator(line string) rune {
	best, bestCount := ',', 0
	for _, sep := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(line, string(sep)); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

// SeparatorName returns a readable name for a delimiter.
func SeparatorName(sep rune) string {
	switch sep {
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '\t':
		return "tab"
	case '|':
		return "pipe"
	default:
		return string(sep)
	}
}

// Write writes src with a header line.
func Write(w io.Writer, src datatable.DataSource, cfg Config) error {
	names, err := datatable.SourceColumnNames(src)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if cfg.Delimiter != 0 {
		cw.Comma = cfg.Delimiter
	}

	if err := cw.Write(names); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	record := make([]string, len(names))
	for r := 0; r < src.RowCount(); r++ {
		row, err := src.Row(r)
		if err != nil {
			return err
		}
		for c, v := range row {
			if v.IsNull {
				record[c] = cfg.NullString
				continue
			}
			record[c] = v.Formatted
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes t to path.
func WriteFile(path string, t *datatable.Table, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	if err := Write(f, t, cfg); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
