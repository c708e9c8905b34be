package livestatus

import (
	"sort"
	"strings"
	"time"
)

// StringColumn reads a string from a *T.
type StringColumn[T any] struct {
	columnInfo
	get func(*T) string
}

func NewStringColumn[T any](name, description string, o Offsets, get func(*T) string) *StringColumn[T] {
	return &StringColumn[T]{columnInfo: columnInfo{name: name, description: description, offsets: o}, get: get}
}

func (c *StringColumn[T]) Type() ColumnType { return ColumnString }

func (c *StringColumn[T]) Value(row Row, _ User) string {
	if d := columnData[T](c.offsets, row); d != nil {
		return c.get(d)
	}
	return ""
}

func (c *StringColumn[T]) Output(row Row, r *RowRenderer, user User, _ time.Duration) {
	r.String(c.Value(row, user))
}

func (c *StringColumn[T]) CreateFilter(kind FilterKind, op RelOp, value string) (Filter, error) {
	return newStringFilter(kind, c.name, op, value, c.Value)
}

func (c *StringColumn[T]) CreateAggregator(AggregationFactory) (Aggregator, error) {
	return nil, errNoAggregation(c)
}

// ListColumn reads a list of strings from a *T. The getter sees the querying
// user so that lists of objects only contain what the user may see.
type ListColumn[T any] struct {
	columnInfo
	get func(*T, User) []string
	// pairs renders each element "a|b" as a sublist [a, b].
	pairs bool
}

func NewListColumn[T any](name, description string, o Offsets, get func(*T, User) []string) *ListColumn[T] {
	return &ListColumn[T]{columnInfo: columnInfo{name: name, description: description, offsets: o}, get: get}
}

// NewPairListColumn builds a list of host/service pairs. Elements are
// "host|service" and filters compare against that form.
func NewPairListColumn[T any](name, description string, o Offsets, get func(*T, User) []string) *ListColumn[T] {
	c := NewListColumn(name, description, o, get)
	c.pairs = true
	return c
}

func (c *ListColumn[T]) Type() ColumnType { return ColumnList }

func (c *ListColumn[T]) Value(row Row, user User) []string {
	if d := columnData[T](c.offsets, row); d != nil {
		return c.get(d, user)
	}
	return nil
}

func (c *ListColumn[T]) Output(row Row, r *RowRenderer, user User, _ time.Duration) {
	elems := c.Value(row, user)
	r.List(func(l *ListRenderer) {
		for _, e := range elems {
			if !c.pairs {
				l.String(e)
				continue
			}
			first, second, _ := strings.Cut(e, "|")
			l.Sublist(func(s *SublistRenderer) {
				s.String(first)
				s.String(second)
			})
		}
	})
}

func (c *ListColumn[T]) CreateFilter(kind FilterKind, op RelOp, value string) (Filter, error) {
	return newListFilter(kind, c.name, op, value, c.Value)
}

func (c *ListColumn[T]) CreateAggregator(AggregationFactory) (Aggregator, error) {
	return nil, errNoAggregation(c)
}

// DictColumn reads a string map, such as custom variables, from a *T.
type DictColumn[T any] struct {
	columnInfo
	get func(*T) map[string]string
}

func NewDictColumn[T any](name, description string, o Offsets, get func(*T) map[string]string) *DictColumn[T] {
	return &DictColumn[T]{columnInfo: columnInfo{name: name, description: description, offsets: o}, get: get}
}

func (c *DictColumn[T]) Type() ColumnType { return ColumnDict }

func (c *DictColumn[T]) Value(row Row, _ User) map[string]string {
	if d := columnData[T](c.offsets, row); d != nil {
		return c.get(d)
	}
	return nil
}

// Output writes entries in key order.
func (c *DictColumn[T]) Output(row Row, r *RowRenderer, user User, _ time.Duration) {
	m := c.Value(row, user)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	r.Dict(func(d *DictRenderer) {
		for _, k := range keys {
			d.Entry(k, m[k])
		}
	})
}

func (c *DictColumn[T]) CreateFilter(kind FilterKind, op RelOp, value string) (Filter, error) {
	return newDictFilter(kind, c.name, op, value, c.Value)
}

func (c *DictColumn[T]) CreateAggregator(AggregationFactory) (Aggregator, error) {
	return nil, errNoAggregation(c)
}
