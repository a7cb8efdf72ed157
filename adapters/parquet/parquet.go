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

// Package parquetadapter reads and writes tables as Parquet files through
// the Arrow adapter.
package parquetadapter

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	arrowadapter "tidyframe/adapters/arrow"
	"tidyframe/datatable"
)

// Read reads a whole Parquet file.
func Read(ctx context.Context, r parquet.ReaderAtSeeker) (*datatable.Table, error) {
	pf, err := file.NewParquetReader(r, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer table.Release()

	return arrowadapter.FromArrowTable(table)
}

// ReadFile reads the Parquet file at path.
func ReadFile(ctx context.Context, path string) (*datatable.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer f.Close()

	t, err := Read(ctx, f)
	if err != nil {
		return nil, err
	}
	md := t.Metadata()
	md["source"] = path
	md["format"] = "parquet"
	return t.WithMetadata(md), nil
}

// Write writes src as a Snappy compressed Parquet file.
func Write(w io.Writer, src datatable.DataSource) error {
	t, err := datatable.Materialize(src)
	if err != nil {
		return err
	}
	table, err := arrowadapter.ToArrowTable(t, memory.NewGoAllocator())
	if err != nil {
		return err
	}
	defer table.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(table.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.WriteTable(table, max(table.NumRows(), 1)); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write table to parquet: %w", err)
	}
	return writer.Close()
}

// WriteFile writes t to path.
func WriteFile(path string, t *datatable.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	if err := Write(f, t); err != nil {
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
