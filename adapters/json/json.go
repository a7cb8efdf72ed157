// Package jsonadapter reads and writes tables as JSON arrays of records.
package jsonadapter

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	sliceadapter "tidyframe/adapters/slice"
	"tidyframe/datatable"
)

// Read decodes either an array of objects or a single object. Columns follow
// the order given in columns, or the sorted union of keys. Numbers that are
// integral become ints, other numbers floats; nested arrays and objects are
// kept as JSON text.
func Read(r io.Reader, columns ...string) (*datatable.Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	var records []map[string]interface{}
	if err := decode(content, &records); err != nil {
		var single map[string]interface{}
		if err := decode(content, &single); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		records = []map[string]interface{}{single}
	}

	for _, rec := range records {
		for k, v := range rec {
			norm, err := normalize(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			rec[k] = norm
		}
	}
	return sliceadapter.NewFromMaps(records, columns...)
}

// ReadFile reads the JSON file at path.
func ReadFile(path string, columns ...string) (*datatable.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer f.Close()

	t, err := Read(f, columns...)
	if err != nil {
		return nil, err
	}
	return t.WithMetadata(datatable.Metadata{"source": path, "format": "json"}), nil
}

func decode(content []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	return dec.Decode(v)
}

func normalize(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return x.Float64()
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return v, nil
}

// record marshals one row with its keys in column order.
type record struct {
	names  []string
	values []datatable.Value
}

func (r record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var raw interface{}
		if !r.values[i].IsNull {
			raw = r.values[i].Raw
		}
		val, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Write encodes src as an indented array of records, keys in column order and
// explicit missing cells as null.
func Write(w io.Writer, src datatable.DataSource) error {
	names, err := datatable.SourceColumnNames(src)
	if err != nil {
		return err
	}
	records := make([]record, src.RowCount())
	for r := range records {
		row, err := src.Row(r)
		if err != nil {
			return err
		}
		records[r] = record{names: names, values: row}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteFile writes t to path.
func WriteFile(path string, t *datatable.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
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
