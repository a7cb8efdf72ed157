// Command reshape loads a table, runs a reshape recipe on it and writes the
// result.
//
//	reshape -recipe steps.yaml -o tidy.csv messy.parquet
//	reshape -recipe steps.yaml -table share.schema.cases profile.share
//	reshape -list-tables profile.share
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tidyframe/adapters/deltasharing"
	"tidyframe/recipe"
)

func main() {
	os.Exit(runWithArgs(os.Args[1:], os.Stdout, os.Stderr))
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reshape", flag.ContinueOnError)
	fs.SetOutput(stderr)
	recipePath := fs.String("recipe", "", "path to the YAML recipe")
	outPath := fs.String("o", "", "output file (default: stdout)")
	format := fs.String("format", "", "input format when the extension does not tell (csv, parquet, json)")
	outFormat := fs.String("out-format", "", "output format (default: from -o extension, else csv)")
	delim := fs.String("delimiter", "", "CSV input delimiter (default: detect)")
	table := fs.String("table", "", "shared table as share.schema.table, for sharing profiles")
	fileID := fs.String("file-id", "", "data file of the shared table (default: first)")
	columns := fs.String("columns", "", "comma separated columns to load")
	limit := fs.Int("limit", 0, "maximum number of rows to load")
	timeout := fs.Int("timeout", 60, "timeout in seconds for sharing server calls")
	workers := fs.Int("workers", 0, "parallel workers (default: from recipe)")
	listTables := fs.Bool("list-tables", false, "list the tables of a sharing profile and exit")
	verbose := fs.Bool("v", false, "log each step")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: reshape [options] <input>\n\n")
		fmt.Fprintln(stderr, "Reshapes a CSV, Parquet, JSON or Delta Sharing table with a recipe.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "error: exactly one input file is required")
		fs.Usage()
		return 2
	}
	input := fs.Arg(0)

	logger := log.New(io.Discard, "reshape: ", log.LstdFlags)
	if *verbose {
		logger.SetOutput(stderr)
	}
	ctx := context.Background()
	callTimeout := time.Duration(*timeout) * time.Second

	if *listTables {
		profile, err := os.ReadFile(input)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		names, err := deltasharing.ListTables(ctx, string(profile), callTimeout)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		for _, n := range names {
			fmt.Fprintln(stdout, n)
		}
		return 0
	}

	if *recipePath == "" {
		fmt.Fprintln(stderr, "error: -recipe is required")
		fs.Usage()
		return 2
	}
	r, err := recipe.LoadFile(*recipePath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *workers > 0 {
		r.Workers = *workers
	}
	if err := recipe.Validate(r); err != nil {
		fmt.Fprintf(stderr, "error: invalid recipe %s:\n%v\n", *recipePath, err)
		return 1
	}

	ft := FileTypeCSV
	switch {
	case *outFormat != "":
		if ft, err = ParseFileType(*outFormat); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
	case *outPath != "":
		if ft = DetectFileType(*outPath, ""); ft == FileTypeUnknown {
			fmt.Fprintf(stderr, "error: cannot tell the output format of %s, use -out-format\n", *outPath)
			return 2
		}
	}

	opts := loadOptions{
		Format:    *format,
		Delimiter: *delim,
		Table:     *table,
		FileID:    *fileID,
		Limit:     *limit,
		Timeout:   callTimeout,
	}
	if *columns != "" {
		for _, c := range strings.Split(*columns, ",") {
			opts.Columns = append(opts.Columns, strings.TrimSpace(c))
		}
	}

	t, err := loadTable(ctx, input, opts)
	if err != nil {
		fmt.Fprintf(stderr, "error loading %s: %v\n", input, err)
		return 1
	}
	logger.Printf("loaded %s: %d rows, %d columns", filepath.Base(input), t.RowCount(), t.ColumnCount())

	out, err := r.Run(t, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if *outPath == "" {
		err = writeTable(stdout, out, ft)
	} else {
		err = writeFile(*outPath, out, ft)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error writing output: %v\n", err)
		return 1
	}
	logger.Printf("wrote %d rows, %d columns as %s", out.RowCount(), out.ColumnCount(), ft)
	return 0
}
