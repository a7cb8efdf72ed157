package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table4a = `country,1999,2000
Afghanistan,745,2666
Brazil,37737,80488
`

const longerRecipe = `
steps:
  - op: pivot_longer
    cols: ["1999", "2000"]
    names_to: year
    values_to: cases
    names_types: {year: int}
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDetectFileType(t *testing.T) {
	profile := `{"shareCredentialsVersion": 1, "endpoint": "https://x", "bearerToken": "t"}`
	assert.Equal(t, FileTypeCSV, DetectFileType("a.CSV", ""))
	assert.Equal(t, FileTypeCSV, DetectFileType("a.tsv", ""))
	assert.Equal(t, FileTypeParquet, DetectFileType("a.parquet", ""))
	assert.Equal(t, FileTypeJSON, DetectFileType("a.json", `[{"a": 1}]`))
	assert.Equal(t, FileTypeDeltaSharingProfile, DetectFileType("a.share", profile))
	assert.Equal(t, FileTypeUnknown, DetectFileType("a.xlsx", ""))
}

func TestRunCSVToStdout(t *testing.T) {
	in := writeTemp(t, "t.csv", table4a)
	rec := writeTemp(t, "r.yaml", longerRecipe)

	var stdout, stderr bytes.Buffer
	code := runWithArgs([]string{"-recipe", rec, in}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Equal(t, "country,year,cases\n"+
		"Afghanistan,1999,745\n"+
		"Afghanistan,2000,2666\n"+
		"Brazil,1999,37737\n"+
		"Brazil,2000,80488\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRunVerboseToFiles(t *testing.T) {
	in := writeTemp(t, "t.csv", table4a)
	rec := writeTemp(t, "r.yaml", longerRecipe)
	dir := t.TempDir()

	for _, name := range []string{"out.json", "out.parquet", "out.csv"} {
		out := filepath.Join(dir, name)
		var stdout, stderr bytes.Buffer
		code := runWithArgs([]string{"-v", "-recipe", rec, "-o", out, in}, &stdout, &stderr)
		require.Equal(t, 0, code, stderr.String())
		assert.Contains(t, stderr.String(), "step 1 (pivot_longer): 4 rows, 3 columns")
		assert.Empty(t, stdout.String())

		// the written file loads back with the same shape
		back, err := loadTable(t.Context(), out, loadOptions{})
		require.NoError(t, err, name)
		assert.Equal(t, 4, back.RowCount(), name)
		assert.ElementsMatch(t, []string{"country", "year", "cases"}, back.ColumnNames(), name)
	}
}

func TestRunColumnsAndLimit(t *testing.T) {
	in := writeTemp(t, "t.txt", `[{"a": 1, "b": "x"}, {"a": 2, "b": "y"}, {"a": 3, "b": "z"}]`)
	rec := writeTemp(t, "r.yaml", "steps: [{op: drop_na}]")

	var stdout, stderr bytes.Buffer
	code := runWithArgs([]string{"-recipe", rec, "-columns", "b", "-limit", "2", in}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "b\nx\ny\n", stdout.String())
}

func TestRunErrors(t *testing.T) {
	in := writeTemp(t, "t.csv", table4a)
	good := writeTemp(t, "good.yaml", longerRecipe)
	bad := writeTemp(t, "bad.yaml", "steps: [{op: melt}]")
	failing := writeTemp(t, "failing.yaml", "steps: [{op: select, cols: [nope]}]")

	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"no input", []string{"-recipe", good}, 2, "exactly one input"},
		{"no recipe", []string{in}, 2, "-recipe is required"},
		{"unknown flag", []string{"-nope", in}, 2, "flag provided but not defined"},
		{"invalid recipe", []string{"-recipe", bad, in}, 1, "unknown operation"},
		{"step failure", []string{"-recipe", failing, in}, 1, "step 1 (select)"},
		{"missing input", []string{"-recipe", good, filepath.Join(t.TempDir(), "x.csv")}, 1, "error loading"},
		{"unknown output", []string{"-recipe", good, "-o", "out.xlsx", in}, 2, "-out-format"},
		{"bad out format", []string{"-recipe", good, "-out-format", "xml", in}, 2, "unknown format"},
		{"bad delimiter", []string{"-recipe", good, "-delimiter", "::", in}, 1, "single character"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := runWithArgs(tt.args, &stdout, &stderr)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestDelimiter(t *testing.T) {
	tests := []struct {
		flag, path string
		want       rune
	}{
		{"", "a.csv", 0},
		{"", "a.TSV", '\t'},
		{"tab", "a.csv", '\t'},
		{";", "a.csv", ';'},
	}
	for _, tt := range tests {
		got, err := delimiter(tt.flag, tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.flag)
	}
}

func TestWriteFileRemovesPartialOutput(t *testing.T) {
	in := writeTemp(t, "t.csv", table4a)
	tbl, err := loadTable(t.Context(), in, loadOptions{})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.xlsx")
	err = writeFile(out, tbl, FileTypeUnknown)
	assert.ErrorContains(t, err, "cannot write unknown output")
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "partial output left behind")

	ok := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, writeFile(ok, tbl, FileTypeCSV))
	data, err := os.ReadFile(ok)
	require.NoError(t, err)
	assert.Equal(t, table4a, string(data))
}
