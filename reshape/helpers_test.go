package reshape

import (
	"tidyframe/datatable"
)

// render returns the cells of tbl as strings, "NA" for explicit missing.
func render(tbl *datatable.Table) [][]string {
	out := make([][]string, tbl.RowCount())
	for r := range out {
		row, err := tbl.Row(r)
		if err != nil {
			panic(err)
		}
		out[r] = make([]string, len(row))
		for i, v := range row {
			out[r][i] = v.String()
		}
	}
	return out
}

func columnStrings(tbl *datatable.Table, name string) []string {
	col, err := tbl.Column(name)
	if err != nil {
		panic(err)
	}
	out := make([]string, col.Len())
	for i := range out {
		out[i] = col.Value(i).String()
	}
	return out
}

func str(name string, vals ...interface{}) *datatable.Column {
	return datatable.MustColumn(name, datatable.TypeString, vals...)
}

func ints(name string, vals ...interface{}) *datatable.Column {
	return datatable.MustColumn(name, datatable.TypeInt, vals...)
}
