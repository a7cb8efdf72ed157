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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	csvadapter "tidyframe/adapters/csv"
	"tidyframe/adapters/deltasharing"
	jsonadapter "tidyframe/adapters/json"
	parquetadapter "tidyframe/adapters/parquet"
	"tidyframe/datatable"
)

// FileType represents the type of data file
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeCSV
	FileTypeParquet
	FileTypeJSON
	FileTypeDeltaSharingProfile
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "csv"
	case FileTypeParquet:
		return "parquet"
	case FileTypeJSON:
		return "json"
	case FileTypeDeltaSharingProfile:
		return "delta sharing profile"
	default:
		return "unknown"
	}
}

// ParseFileType maps a -format value to a FileType.
func ParseFileType(name string) (FileType, error) {
	switch strings.ToLower(name) {
	case "csv", "tsv":
		return FileTypeCSV, nil
	case "parquet":
		return FileTypeParquet, nil
	case "json":
		return FileTypeJSON, nil
	}
	return FileTypeUnknown, fmt.Errorf("unknown format %q", name)
}

// DetectFileType determines the type of file based on extension and content
func DetectFileType(filePath string, content string) FileType {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".csv", ".tsv":
		return FileTypeCSV
	case ".parquet":
		return FileTypeParquet
	case ".json", ".share", ".txt":
		// JSON data and sharing profiles share extensions
		if deltasharing.IsProfile(content) {
			return FileTypeDeltaSharingProfile
		}
		return FileTypeJSON
	default:
		return FileTypeUnknown
	}
}

// needsContent reports whether DetectFileType looks at the file content for
// this path.
func needsContent(filePath string) bool {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json", ".share", ".txt":
		return true
	}
	return false
}

// loadOptions carries the input related flags.
type loadOptions struct {
	Format    string
	Delimiter string
	Table     string
	FileID    string
	Columns   []string
	Limit     int
	Timeout   time.Duration
}

// loadTable reads the input file in whatever format it has.
func loadTable(ctx context.Context, path string, opts loadOptions) (*datatable.Table, error) {
	var content string
	if needsContent(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		content = string(data)
	}

	ft := DetectFileType(path, content)
	if opts.Format != "" && ft != FileTypeDeltaSharingProfile {
		var err error
		if ft, err = ParseFileType(opts.Format); err != nil {
			return nil, err
		}
	}

	var (
		t   *datatable.Table
		err error
	)
	switch ft {
	case FileTypeCSV:
		cfg := csvadapter.DefaultConfig()
		if cfg.Delimiter, err = delimiter(opts.Delimiter, path); err != nil {
			return nil, err
		}
		t, err = csvadapter.NewFromFile(path, cfg)
	case FileTypeParquet:
		t, err = parquetadapter.ReadFile(ctx, path)
	case FileTypeJSON:
		t, err = jsonadapter.ReadFile(path)
	case FileTypeDeltaSharingProfile:
		return deltasharing.Load(ctx, deltasharing.Options{
			Profile: content,
			Table:   opts.Table,
			FileID:  opts.FileID,
			Columns: opts.Columns,
			Limit:   opts.Limit,
			Timeout: opts.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return deltasharing.Apply(t, opts.Columns, opts.Limit)
}

// delimiter resolves the -delimiter flag. Empty means tab for .tsv files and
// detection otherwise.
func delimiter(flagValue, path string) (rune, error) {
	switch strings.ToLower(flagValue) {
	case "":
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			return '\t', nil
		}
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	r := []rune(flagValue)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", flagValue)
	}
	return r[0], nil
}

// writeTable writes t in the format of ft.
func writeTable(w io.Writer, t *datatable.Table, ft FileType) error {
	switch ft {
	case FileTypeCSV:
		return csvadapter.Write(w, t, csvadapter.DefaultConfig())
	case FileTypeParquet:
		return parquetadapter.Write(w, t)
	case FileTypeJSON:
		return jsonadapter.Write(w, t)
	}
	return fmt.Errorf("cannot write %s output", ft)
}

// writeFile creates path and writes t to it. On failure no file is left
// behind.
func writeFile(path string, t *datatable.Table, ft FileType) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeTable(f, t, ft); err != nil {
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
