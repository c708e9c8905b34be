package livestatus

import (
	"fmt"
	"time"
)

// BlobColumn reads raw bytes from a *T. A nil result renders as null.
type BlobColumn[T any] struct {
	columnInfo
	get func(*T) []byte
}

func NewBlobColumn[T any](name, description string, o Offsets, get func(*T) []byte) *BlobColumn[T] {
	return &BlobColumn[T]{columnInfo: columnInfo{name: name, description: description, offsets: o}, get: get}
}

func (c *BlobColumn[T]) Type() ColumnType { return ColumnBlob }

func (c *BlobColumn[T]) Value(row Row) []byte {
	if d := columnData[T](c.offsets, row); d != nil {
		return c.get(d)
	}
	return nil
}

func (c *BlobColumn[T]) Output(row Row, r *RowRenderer, _ User, _ time.Duration) {
	r.Blob(c.Value(row))
}

func (c *BlobColumn[T]) CreateFilter(FilterKind, RelOp, string) (Filter, error) {
	return nil, fmt.Errorf("filtering on blob column '%s' not supported", c.name)
}

func (c *BlobColumn[T]) CreateAggregator(AggregationFactory) (Aggregator, error) {
	return nil, errNoAggregation(c)
}

// NullColumn has no value. Filters on it accept every row and cannot be
// negated.
type NullColumn struct {
	columnInfo
}

func NewNullColumn(name, description string) *NullColumn {
	return &NullColumn{columnInfo: columnInfo{name: name, description: description}}
}

func (c *NullColumn) Type() ColumnType { return ColumnNull }

func (c *NullColumn) Output(_ Row, r *RowRenderer, _ User, _ time.Duration) { r.Null() }

func (c *NullColumn) CreateFilter(kind FilterKind, op RelOp, value string) (Filter, error) {
	return &nullFilter{columnFilter{kind: kind, column: c.name, op: op, value: value}}, nil
}

func (c *NullColumn) CreateAggregator(AggregationFactory) (Aggregator, error) {
	return nil, errNoAggregation(c)
}
