package livestatus

import (
	"fmt"
	"time"
)

// ColumnType is the value type of a column, as reported by the columns table.
type ColumnType int

const (
	ColumnInt ColumnType = iota
	ColumnDouble
	ColumnString
	ColumnList
	ColumnTime
	ColumnDict
	ColumnBlob
	ColumnNull
)

var columnTypeNames = [...]string{"int", "float", "string", "list", "time", "dict", "blob", "null"}

func (t ColumnType) String() string {
	if t < 0 || int(t) >= len(columnTypeNames) {
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
	return columnTypeNames[t]
}

// Column is a named, typed accessor over rows of one table. Columns are
// immutable once their table is built and may be shared by concurrent
// queries.
type Column interface {
	Name() string
	Description() string
	Type() ColumnType
	Output(row Row, r *RowRenderer, user User, tz time.Duration)
	CreateFilter(kind FilterKind, op RelOp, value string) (Filter, error)
	CreateAggregator(f AggregationFactory) (Aggregator, error)
}

type columnInfo struct {
	name        string
	description string
	offsets     Offsets
}

func (c *columnInfo) Name() string        { return c.name }
func (c *columnInfo) Description() string { return c.description }

func errNoAggregation(c Column) error {
	return fmt.Errorf("aggregating on %s column '%s' not supported", c.Type(), c.Name())
}
