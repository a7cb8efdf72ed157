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

// Package arrowadapter converts between Apache Arrow tables and records and
// datatable tables.
//
// Integer Arrow types map to TypeInt, floating point types to TypeFloat and
// booleans to TypeBool. Every other type, including dates, timestamps,
// decimals and nested types, is rendered to TypeString.
package arrowadapter

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"tidyframe/datatable"
)

// FromArrowTable copies an Arrow table into a datatable table. The Arrow
// table is not released.
func FromArrowTable(tbl arrow.Table) (*datatable.Table, error) {
	schema := tbl.Schema()
	cols := make([]*datatable.Column, tbl.NumCols())
	for i := range cols {
		col, err := fromChunks(schema.Field(i), tbl.Column(i).Data().Chunks())
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	out, err := datatable.New(cols...)
	if err != nil {
		return nil, err
	}
	return out.WithMetadata(metadataOf(schema)), nil
}

// FromRecord copies a single Arrow record.
func FromRecord(rec arrow.Record) (*datatable.Table, error) {
	schema := rec.Schema()
	cols := make([]*datatable.Column, rec.NumCols())
	for i := range cols {
		col, err := fromChunks(schema.Field(i), []arrow.Array{rec.Column(i)})
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	out, err := datatable.New(cols...)
	if err != nil {
		return nil, err
	}
	return out.WithMetadata(metadataOf(schema)), nil
}

func metadataOf(schema *arrow.Schema) datatable.Metadata {
	md := datatable.Metadata{"format": "arrow"}
	keys, values := schema.Metadata().Keys(), schema.Metadata().Values()
	for i := range keys {
		md[keys[i]] = values[i]
	}
	return md
}

// DataTypeOf returns the datatable type an Arrow type is read as.
func DataTypeOf(dt arrow.DataType) datatable.DataType {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return datatable.TypeInt
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return datatable.TypeFloat
	case arrow.BOOL:
		return datatable.TypeBool
	default:
		return datatable.TypeString
	}
}

func fromChunks(field arrow.Field, chunks []arrow.Array) (*datatable.Column, error) {
	typ := DataTypeOf(field.Type)
	var values []datatable.Value
	for _, chunk := range chunks {
		for pos := 0; pos < chunk.Len(); pos++ {
			v, err := valueAt(chunk, pos, typ)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", field.Name, len(values), err)
			}
			values = append(values, v)
		}
	}
	return datatable.NewColumn(field.Name, typ, values)
}

// valueAt reads the value at pos of col as typ.
func valueAt(col arrow.Array, pos int, typ datatable.DataType) (datatable.Value, error) {
	if col.IsNull(pos) {
		return datatable.NewNullValue(typ), nil
	}

	switch c := col.(type) {
	case *array.Int8:
		return datatable.IntValue(int64(c.Value(pos))), nil
	case *array.Int16:
		return datatable.IntValue(int64(c.Value(pos))), nil
	case *array.Int32:
		return datatable.IntValue(int64(c.Value(pos))), nil
	case *array.Int64:
		return datatable.IntValue(c.Value(pos)), nil
	case *array.Uint8:
		return datatable.IntValue(int64(c.Value(pos))), nil
	case *array.Uint16:
		return datatable.IntValue(int64(c.Value(pos))), nil
	case *array.Uint32:
		return datatable.IntValue(int64(c.Value(pos))), nil
	case *array.Uint64:
		u := c.Value(pos)
		if u > 1<<63-1 {
			return datatable.Value{}, fmt.Errorf("%w: %d overflows int64", datatable.ErrTypeMismatch, u)
		}
		return datatable.IntValue(int64(u)), nil
	case *array.Float16:
		return datatable.FloatValue(float64(c.Value(pos).Float32())), nil
	case *array.Float32:
		return datatable.FloatValue(float64(c.Value(pos))), nil
	case *array.Float64:
		return datatable.FloatValue(c.Value(pos)), nil
	case *array.Boolean:
		return datatable.BoolValue(c.Value(pos)), nil
	}
	return datatable.StringValue(formatValue(col, pos)), nil
}

// formatValue renders a non-numeric Arrow value.
func formatValue(col arrow.Array, pos int) string {
	switch c := col.(type) {
	case *array.String:
		return c.Value(pos)
	case *array.LargeString:
		return c.Value(pos)
	case *array.Binary:
		return string(c.Value(pos))
	case *array.Date32:
		return c.Value(pos).ToTime().Format("2006-01-02")
	case *array.Date64:
		return c.Value(pos).ToTime().Format("2006-01-02")
	case *array.Decimal128:
		return c.Value(pos).BigInt().String()
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		return c.Value(pos).ToTime(unit).Format("2006-01-02 15:04:05.999999999")
	case *array.Struct:
		s := array.NewSlice(c, int64(pos), int64(pos+1))
		defer s.Release()
		b, _ := s.MarshalJSON()
		return string(b)
	default:
		return c.ValueStr(pos)
	}
}

// Schema returns the Arrow schema a table is written with. Every field is
// nullable.
func Schema(t *datatable.Table) *arrow.Schema {
	fields := make([]arrow.Field, t.ColumnCount())
	for i := range fields {
		col := t.ColumnAt(i)
		fields[i] = arrow.Field{Name: col.Name(), Type: arrowType(col.Type()), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(typ datatable.DataType) arrow.DataType {
	switch typ {
	case datatable.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case datatable.TypeFloat:
		return arrow.PrimitiveTypes.Float64
	case datatable.TypeBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// ToRecord builds an Arrow record holding all rows of t. The caller releases it.
func ToRecord(t *datatable.Table, mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	schema := Schema(t)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i := 0; i < t.ColumnCount(); i++ {
		col := t.ColumnAt(i)
		fb := b.Field(i)
		for r := 0; r < col.Len(); r++ {
			v := col.Value(r)
			if v.IsNull {
				fb.AppendNull()
				continue
			}
			switch fb := fb.(type) {
			case *array.Int64Builder:
				fb.Append(v.Raw.(int64))
			case *array.Float64Builder:
				fb.Append(v.Raw.(float64))
			case *array.BooleanBuilder:
				fb.Append(v.Raw.(bool))
			case *array.StringBuilder:
				fb.Append(v.Formatted)
			default:
				return nil, fmt.Errorf("%w: no builder for column %q", datatable.ErrTypeMismatch, col.Name())
			}
		}
	}
	return b.NewRecord(), nil
}

// ToArrowTable builds an Arrow table holding t. The caller releases it.
func ToArrowTable(t *datatable.Table, mem memory.Allocator) (arrow.Table, error) {
	rec, err := ToRecord(t, mem)
	if err != nil {
		return nil, err
	}
	defer rec.Release()
	return array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec}), nil
}
