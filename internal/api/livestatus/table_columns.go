package livestatus

import "iter"

// columnRow is one row of the columns table.
type columnRow struct {
	table  string
	column Column
}

// newColumnsTable lists the columns of every table in reg, including its
// own.
func newColumnsTable(reg *Registry) *Table {
	t := newTable(reg.core, "columns", "column_")
	o := Offsets{}
	t.AddColumn(NewStringColumn("table", "The name of the table", o, func(r *columnRow) string { return r.table }))
	t.AddColumn(NewStringColumn("name", "The name of the column within the table", o, func(r *columnRow) string { return r.column.Name() }))
	t.AddColumn(NewStringColumn("description", "A description of the column", o, func(r *columnRow) string { return r.column.Description() }))
	t.AddColumn(NewStringColumn("type", "The data type of the column (int, float, string, list)", o, func(r *columnRow) string {
		return r.column.Type().String()
	}))
	t.rows = func(*Query) iter.Seq[Row] {
		return func(yield func(Row) bool) {
			for _, table := range reg.Tables() {
				for _, c := range table.Columns() {
					if !yield(NewRow(&columnRow{table: table.Name(), column: c})) {
						return
					}
				}
			}
		}
	}
	return t
}
