package livestatus

import (
	"fmt"
	"strings"
	"time"
)

// FilterKind tells which header family built a filter. Filters of different
// kinds never end up in the same tree.
type FilterKind int

const (
	FilterRow FilterKind = iota
	FilterStats
	FilterWaitCondition
)

// header returns the LQL header prefix for kind, e.g. "Stats" for StatsAnd.
func (k FilterKind) header() string {
	switch k {
	case FilterStats:
		return "Stats"
	case FilterWaitCondition:
		return "WaitCondition"
	}
	return ""
}

// Filter is a boolean predicate over rows. The restriction methods are
// best-effort hints used by tables to narrow iteration; answering "no
// restriction" is always correct.
type Filter interface {
	Kind() FilterKind
	Accepts(row Row, user User, tz time.Duration) bool
	Negate() (Filter, error)
	// PartialFilter keeps only the parts referring to columns accepted by
	// pred. The result accepts a superset of the rows the filter accepts.
	PartialFilter(pred func(column string) bool) Filter
	StringValueRestrictionFor(column string) (string, bool)
	GreatestLowerBoundFor(column string, tz time.Duration) (int64, bool)
	LeastUpperBoundFor(column string, tz time.Duration) (int64, bool)
	// ValueSetLeastUpperBoundFor returns a bitmask of the values 0..31 the
	// column may take in accepted rows.
	ValueSetLeastUpperBoundFor(column string, tz time.Duration) (uint32, bool)
	IsTautology() bool
	IsContradiction() bool
	String() string

	conjuncts() []Filter
	disjuncts() []Filter
}

// Tautology returns the empty conjunction, which accepts every row.
func Tautology(kind FilterKind) Filter { return &andFilter{kind: kind} }

// Contradiction returns the empty disjunction, which accepts nothing.
func Contradiction(kind FilterKind) Filter { return &orFilter{kind: kind} }

// MakeAnd builds the conjunction of filters, flattening nested conjunctions.
func MakeAnd(kind FilterKind, filters []Filter) Filter {
	var subs []Filter
	for _, f := range filters {
		if f.IsContradiction() {
			return Contradiction(kind)
		}
		subs = append(subs, f.conjuncts()...)
	}
	if len(subs) == 1 {
		return subs[0]
	}
	return &andFilter{kind: kind, subfilters: subs}
}

// MakeOr builds the disjunction of filters, flattening nested disjunctions.
func MakeOr(kind FilterKind, filters []Filter) Filter {
	var subs []Filter
	for _, f := range filters {
		if f.IsTautology() {
			return Tautology(kind)
		}
		subs = append(subs, f.disjuncts()...)
	}
	if len(subs) == 1 {
		return subs[0]
	}
	return &orFilter{kind: kind, subfilters: subs}
}

type andFilter struct {
	kind       FilterKind
	subfilters []Filter
}

func (f *andFilter) Kind() FilterKind { return f.kind }

func (f *andFilter) Accepts(row Row, user User, tz time.Duration) bool {
	for _, sub := range f.subfilters {
		if !sub.Accepts(row, user, tz) {
			return false
		}
	}
	return true
}

func (f *andFilter) Negate() (Filter, error) {
	negated := make([]Filter, 0, len(f.subfilters))
	for _, sub := range f.subfilters {
		n, err := sub.Negate()
		if err != nil {
			return nil, err
		}
		negated = append(negated, n)
	}
	return MakeOr(f.kind, negated), nil
}

func (f *andFilter) PartialFilter(pred func(string) bool) Filter {
	parts := make([]Filter, 0, len(f.subfilters))
	for _, sub := range f.subfilters {
		parts = append(parts, sub.PartialFilter(pred))
	}
	return MakeAnd(f.kind, parts)
}

func (f *andFilter) StringValueRestrictionFor(column string) (string, bool) {
	for _, sub := range f.subfilters {
		if v, ok := sub.StringValueRestrictionFor(column); ok {
			return v, true
		}
	}
	return "", false
}

func (f *andFilter) GreatestLowerBoundFor(column string, tz time.Duration) (int64, bool) {
	var result int64
	found := false
	for _, sub := range f.subfilters {
		if v, ok := sub.GreatestLowerBoundFor(column, tz); ok && (!found || v > result) {
			result, found = v, true
		}
	}
	return result, found
}

func (f *andFilter) LeastUpperBoundFor(column string, tz time.Duration) (int64, bool) {
	var result int64
	found := false
	for _, sub := range f.subfilters {
		if v, ok := sub.LeastUpperBoundFor(column, tz); ok && (!found || v < result) {
			result, found = v, true
		}
	}
	return result, found
}

func (f *andFilter) ValueSetLeastUpperBoundFor(column string, tz time.Duration) (uint32, bool) {
	result := ^uint32(0)
	found := false
	for _, sub := range f.subfilters {
		if v, ok := sub.ValueSetLeastUpperBoundFor(column, tz); ok {
			result &= v
			found = true
		}
	}
	return result, found
}

func (f *andFilter) IsTautology() bool     { return len(f.subfilters) == 0 }
func (f *andFilter) IsContradiction() bool { return false }
func (f *andFilter) conjuncts() []Filter   { return f.subfilters }
func (f *andFilter) disjuncts() []Filter   { return []Filter{f} }

func (f *andFilter) String() string {
	return connectiveString(f.kind, "And", f.subfilters)
}

type orFilter struct {
	kind       FilterKind
	subfilters []Filter
}

func (f *orFilter) Kind() FilterKind { return f.kind }

func (f *orFilter) Accepts(row Row, user User, tz time.Duration) bool {
	for _, sub := range f.subfilters {
		if sub.Accepts(row, user, tz) {
			return true
		}
	}
	return false
}

func (f *orFilter) Negate() (Filter, error) {
	negated := make([]Filter, 0, len(f.subfilters))
	for _, sub := range f.subfilters {
		n, err := sub.Negate()
		if err != nil {
			return nil, err
		}
		negated = append(negated, n)
	}
	return MakeAnd(f.kind, negated), nil
}

func (f *orFilter) PartialFilter(pred func(string) bool) Filter {
	parts := make([]Filter, 0, len(f.subfilters))
	for _, sub := range f.subfilters {
		parts = append(parts, sub.PartialFilter(pred))
	}
	return MakeOr(f.kind, parts)
}

// StringValueRestrictionFor only restricts if every disjunct restricts to
// the same value.
func (f *orFilter) StringValueRestrictionFor(column string) (string, bool) {
	var result string
	for i, sub := range f.subfilters {
		v, ok := sub.StringValueRestrictionFor(column)
		if !ok || (i > 0 && v != result) {
			return "", false
		}
		result = v
	}
	return result, len(f.subfilters) > 0
}

func (f *orFilter) GreatestLowerBoundFor(column string, tz time.Duration) (int64, bool) {
	var result int64
	for i, sub := range f.subfilters {
		v, ok := sub.GreatestLowerBoundFor(column, tz)
		if !ok {
			return 0, false
		}
		if i == 0 || v < result {
			result = v
		}
	}
	return result, len(f.subfilters) > 0
}

func (f *orFilter) LeastUpperBoundFor(column string, tz time.Duration) (int64, bool) {
	var result int64
	for i, sub := range f.subfilters {
		v, ok := sub.LeastUpperBoundFor(column, tz)
		if !ok {
			return 0, false
		}
		if i == 0 || v > result {
			result = v
		}
	}
	return result, len(f.subfilters) > 0
}

func (f *orFilter) ValueSetLeastUpperBoundFor(column string, tz time.Duration) (uint32, bool) {
	var result uint32
	for _, sub := range f.subfilters {
		v, ok := sub.ValueSetLeastUpperBoundFor(column, tz)
		if !ok {
			return 0, false
		}
		result |= v
	}
	return result, true
}

func (f *orFilter) IsTautology() bool     { return false }
func (f *orFilter) IsContradiction() bool { return len(f.subfilters) == 0 }
func (f *orFilter) conjuncts() []Filter   { return []Filter{f} }
func (f *orFilter) disjuncts() []Filter   { return f.subfilters }

func (f *orFilter) String() string {
	return connectiveString(f.kind, "Or", f.subfilters)
}

// connectiveString renders a connective back into LQL header lines.
func connectiveString(kind FilterKind, name string, subs []Filter) string {
	var b strings.Builder
	for _, sub := range subs {
		b.WriteString(sub.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s%s: %d", kind.header(), name, len(subs))
	return b.String()
}
