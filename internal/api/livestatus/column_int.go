package livestatus

import "time"

// IntColumn reads an integer from a *T.
type IntColumn[T any] struct {
	columnInfo
	get func(*T, User) int64
}

func NewIntColumn[T any](name, description string, o Offsets, get func(*T) int64) *IntColumn[T] {
	return NewAuthIntColumn(name, description, o, func(t *T, _ User) int64 { return get(t) })
}

// NewAuthIntColumn builds an int column whose value depends on what the
// querying user may see, e.g. the number of visible services.
func NewAuthIntColumn[T any](name, description string, o Offsets, get func(*T, User) int64) *IntColumn[T] {
	return &IntColumn[T]{columnInfo: columnInfo{name: name, description: description, offsets: o}, get: get}
}

// NewBoolColumn renders a flag as 0 or 1.
func NewBoolColumn[T any](name, description string, o Offsets, get func(*T) bool) *IntColumn[T] {
	return NewIntColumn(name, description, o, func(t *T) int64 { return boolToInt(get(t)) })
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (c *IntColumn[T]) Type() ColumnType { return ColumnInt }

// Value returns 0 if the row has no data for this column.
func (c *IntColumn[T]) Value(row Row, user User) int64 {
	if d := columnData[T](c.offsets, row); d != nil {
		return c.get(d, user)
	}
	return 0
}

func (c *IntColumn[T]) Output(row Row, r *RowRenderer, user User, _ time.Duration) {
	r.Int(c.Value(row, user))
}

func (c *IntColumn[T]) CreateFilter(kind FilterKind, op RelOp, value string) (Filter, error) {
	return newIntFilter(kind, c.name, op, value, c.Value, false)
}

func (c *IntColumn[T]) CreateAggregator(f AggregationFactory) (Aggregator, error) {
	return &valueAggregator{
		aggregation: f(),
		get:         func(row Row, user User, _ time.Duration) float64 { return float64(c.Value(row, user)) },
	}, nil
}

// DoubleColumn reads a float from a *T.
type DoubleColumn[T any] struct {
	columnInfo
	get func(*T) float64
}

func NewDoubleColumn[T any](name, description string, o Offsets, get func(*T) float64) *DoubleColumn[T] {
	return &DoubleColumn[T]{columnInfo: columnInfo{name: name, description: description, offsets: o}, get: get}
}

func (c *DoubleColumn[T]) Type() ColumnType { return ColumnDouble }

func (c *DoubleColumn[T]) Value(row Row, _ User) float64 {
	if d := columnData[T](c.offsets, row); d != nil {
		return c.get(d)
	}
	return 0
}

func (c *DoubleColumn[T]) Output(row Row, r *RowRenderer, user User, _ time.Duration) {
	r.Double(c.Value(row, user))
}

func (c *DoubleColumn[T]) CreateFilter(kind FilterKind, op RelOp, value string) (Filter, error) {
	return newDoubleFilter(kind, c.name, op, value, c.Value)
}

func (c *DoubleColumn[T]) CreateAggregator(f AggregationFactory) (Aggregator, error) {
	return &valueAggregator{
		aggregation: f(),
		get:         func(row Row, user User, _ time.Duration) float64 { return c.Value(row, user) },
	}, nil
}

// TimeColumn renders a timestamp as Unix seconds shifted by the client's
// timezone offset. The zero time reads as 0.
type TimeColumn[T any] struct {
	columnInfo
	get func(*T) time.Time
}

func NewTimeColumn[T any](name, description string, o Offsets, get func(*T) time.Time) *TimeColumn[T] {
	return &TimeColumn[T]{columnInfo: columnInfo{name: name, description: description, offsets: o}, get: get}
}

func (c *TimeColumn[T]) Type() ColumnType { return ColumnTime }

// rawValue is the unshifted Unix time.
func (c *TimeColumn[T]) rawValue(row Row, _ User) int64 {
	d := columnData[T](c.offsets, row)
	if d == nil {
		return 0
	}
	if t := c.get(d); !t.IsZero() {
		return t.Unix()
	}
	return 0
}

// Value returns the Unix time shifted by tz.
func (c *TimeColumn[T]) Value(row Row, user User, tz time.Duration) int64 {
	return c.rawValue(row, user) + int64(tz/time.Second)
}

func (c *TimeColumn[T]) Output(row Row, r *RowRenderer, user User, tz time.Duration) {
	r.Int(c.Value(row, user, tz))
}

func (c *TimeColumn[T]) CreateFilter(kind FilterKind, op RelOp, value string) (Filter, error) {
	return newIntFilter(kind, c.name, op, value, c.rawValue, true)
}

func (c *TimeColumn[T]) CreateAggregator(f AggregationFactory) (Aggregator, error) {
	return &valueAggregator{
		aggregation: f(),
		get:         func(row Row, user User, tz time.Duration) float64 { return float64(c.Value(row, user, tz)) },
	}, nil
}
