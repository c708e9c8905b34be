package livestatus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// columnFilter carries what every leaf filter has in common.
type columnFilter struct {
	kind   FilterKind
	column string
	op     RelOp
	value  string
}

func (f *columnFilter) Kind() FilterKind      { return f.kind }
func (f *columnFilter) IsTautology() bool     { return false }
func (f *columnFilter) IsContradiction() bool { return false }

func (f *columnFilter) String() string {
	header := f.kind.header()
	if f.kind == FilterRow {
		header = "Filter"
	}
	if f.value == "" {
		return fmt.Sprintf("%s: %s %s", header, f.column, f.op)
	}
	return fmt.Sprintf("%s: %s %s %s", header, f.column, f.op, f.value)
}

func (f *columnFilter) StringValueRestrictionFor(string) (string, bool) { return "", false }

func (f *columnFilter) GreatestLowerBoundFor(string, time.Duration) (int64, bool) { return 0, false }

func (f *columnFilter) LeastUpperBoundFor(string, time.Duration) (int64, bool) { return 0, false }

func (f *columnFilter) ValueSetLeastUpperBoundFor(string, time.Duration) (uint32, bool) {
	return 0, false
}

// partial is the shared PartialFilter of leaves: self or nothing.
func partial(self Filter, column string, pred func(string) bool) Filter {
	if pred(column) {
		return self
	}
	return Tautology(self.Kind())
}

func leafConjuncts(f Filter) []Filter { return []Filter{f} }

// intFilter compares integer and time columns. Time columns shift the row
// value by the client's timezone offset before comparing.
type intFilter struct {
	columnFilter
	ref    int64
	get    func(Row, User) int64
	isTime bool
}

func newIntFilter(kind FilterKind, column string, op RelOp, value string, get func(Row, User) int64, isTime bool) (*intFilter, error) {
	if !op.isNumeric() {
		return nil, fmt.Errorf("invalid operator '%s' for %s column '%s'", op, intKindName(isTime), column)
	}
	ref, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value '%s' for column '%s'", intKindName(isTime), value, column)
	}
	return &intFilter{
		columnFilter: columnFilter{kind: kind, column: column, op: op, value: value},
		ref:          ref,
		get:          get,
		isTime:       isTime,
	}, nil
}

func intKindName(isTime bool) string {
	if isTime {
		return "time"
	}
	return "int"
}

func (f *intFilter) shift(tz time.Duration) int64 {
	if f.isTime {
		return int64(tz / time.Second)
	}
	return 0
}

func (f *intFilter) Accepts(row Row, user User, tz time.Duration) bool {
	return compareOrdered(f.op, f.get(row, user)+f.shift(tz), f.ref)
}

func (f *intFilter) Negate() (Filter, error) {
	n := *f
	n.op = f.op.Negate()
	return &n, nil
}

func (f *intFilter) PartialFilter(pred func(string) bool) Filter { return partial(f, f.column, pred) }
func (f *intFilter) conjuncts() []Filter                         { return leafConjuncts(f) }
func (f *intFilter) disjuncts() []Filter                         { return leafConjuncts(f) }

func (f *intFilter) GreatestLowerBoundFor(column string, tz time.Duration) (int64, bool) {
	if column != f.column {
		return 0, false
	}
	ref := f.ref - f.shift(tz)
	switch f.op {
	case OpEqual, OpGreaterOrEqual:
		return ref, true
	case OpGreater:
		return ref + 1, true
	}
	return 0, false
}

func (f *intFilter) LeastUpperBoundFor(column string, tz time.Duration) (int64, bool) {
	if column != f.column {
		return 0, false
	}
	ref := f.ref - f.shift(tz)
	switch f.op {
	case OpEqual, OpLessOrEqual:
		return ref, true
	case OpLess:
		return ref - 1, true
	}
	return 0, false
}

func (f *intFilter) ValueSetLeastUpperBoundFor(column string, tz time.Duration) (uint32, bool) {
	if column != f.column {
		return 0, false
	}
	ref := f.ref - f.shift(tz)
	var set uint32
	for bit := int64(0); bit < 32; bit++ {
		if compareOrdered(f.op, bit, ref) {
			set |= 1 << bit
		}
	}
	return set, true
}

type doubleFilter struct {
	columnFilter
	ref float64
	get func(Row, User) float64
}

func newDoubleFilter(kind FilterKind, column string, op RelOp, value string, get func(Row, User) float64) (*doubleFilter, error) {
	if !op.isNumeric() {
		return nil, fmt.Errorf("invalid operator '%s' for float column '%s'", op, column)
	}
	ref, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid float value '%s' for column '%s'", value, column)
	}
	return &doubleFilter{
		columnFilter: columnFilter{kind: kind, column: column, op: op, value: value},
		ref:          ref,
		get:          get,
	}, nil
}

func (f *doubleFilter) Accepts(row Row, user User, _ time.Duration) bool {
	return compareOrdered(f.op, f.get(row, user), f.ref)
}

func (f *doubleFilter) Negate() (Filter, error) {
	n := *f
	n.op = f.op.Negate()
	return &n, nil
}

func (f *doubleFilter) PartialFilter(pred func(string) bool) Filter { return partial(f, f.column, pred) }
func (f *doubleFilter) conjuncts() []Filter                         { return leafConjuncts(f) }
func (f *doubleFilter) disjuncts() []Filter                         { return leafConjuncts(f) }

// compileRegex returns nil for operators that are no regex matches.
func compileRegex(op RelOp, value string) (*regexp.Regexp, error) {
	var expr string
	switch op {
	case OpMatches, OpDoesntMatch:
		expr = value
	case OpMatchesIcase, OpDoesntMatchIcase:
		expr = "(?i)" + value
	default:
		return nil, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression '%s': %w", value, err)
	}
	return re, nil
}

func matchString(op RelOp, re *regexp.Regexp, s, ref string) bool {
	switch op {
	case OpMatches, OpMatchesIcase:
		return re.MatchString(s)
	case OpDoesntMatch, OpDoesntMatchIcase:
		return !re.MatchString(s)
	case OpEqualIcase:
		return strings.EqualFold(s, ref)
	case OpNotEqualIcase:
		return !strings.EqualFold(s, ref)
	}
	return compareOrdered(op, s, ref)
}

type stringFilter struct {
	columnFilter
	re  *regexp.Regexp
	get func(Row, User) string
}

func newStringFilter(kind FilterKind, column string, op RelOp, value string, get func(Row, User) string) (*stringFilter, error) {
	re, err := compileRegex(op, value)
	if err != nil {
		return nil, err
	}
	return &stringFilter{
		columnFilter: columnFilter{kind: kind, column: column, op: op, value: value},
		re:           re,
		get:          get,
	}, nil
}

func (f *stringFilter) Accepts(row Row, user User, _ time.Duration) bool {
	return matchString(f.op, f.re, f.get(row, user), f.value)
}

func (f *stringFilter) Negate() (Filter, error) {
	n := *f
	n.op = f.op.Negate()
	return &n, nil
}

func (f *stringFilter) PartialFilter(pred func(string) bool) Filter { return partial(f, f.column, pred) }
func (f *stringFilter) conjuncts() []Filter                         { return leafConjuncts(f) }
func (f *stringFilter) disjuncts() []Filter                         { return leafConjuncts(f) }

func (f *stringFilter) StringValueRestrictionFor(column string) (string, bool) {
	if column == f.column && f.op == OpEqual {
		return f.value, true
	}
	return "", false
}

// listFilter gives the relational operators their list meaning: ">=" is
// "contains", "<" is "does not contain", "<=" and ">" are their
// case-insensitive versions, the regex operators match any element and
// "="/"!=" only test for emptiness.
type listFilter struct {
	columnFilter
	re  *regexp.Regexp
	get func(Row, User) []string
}

func newListFilter(kind FilterKind, column string, op RelOp, value string, get func(Row, User) []string) (*listFilter, error) {
	if (op == OpEqual || op == OpNotEqual) && value != "" {
		return nil, fmt.Errorf("list column '%s' can only be compared to the empty list", column)
	}
	re, err := compileRegex(op, value)
	if err != nil {
		return nil, err
	}
	return &listFilter{
		columnFilter: columnFilter{kind: kind, column: column, op: op, value: value},
		re:           re,
		get:          get,
	}, nil
}

func (f *listFilter) Accepts(row Row, user User, _ time.Duration) bool {
	elems := f.get(row, user)
	switch f.op {
	case OpEqual:
		return len(elems) == 0
	case OpNotEqual:
		return len(elems) != 0
	case OpGreaterOrEqual:
		return containsFunc(elems, func(e string) bool { return e == f.value })
	case OpLess:
		return !containsFunc(elems, func(e string) bool { return e == f.value })
	case OpLessOrEqual, OpEqualIcase:
		return containsFunc(elems, func(e string) bool { return strings.EqualFold(e, f.value) })
	case OpGreater, OpNotEqualIcase:
		return !containsFunc(elems, func(e string) bool { return strings.EqualFold(e, f.value) })
	case OpMatches, OpMatchesIcase:
		return containsFunc(elems, f.re.MatchString)
	case OpDoesntMatch, OpDoesntMatchIcase:
		return !containsFunc(elems, f.re.MatchString)
	}
	return false
}

func containsFunc(elems []string, match func(string) bool) bool {
	for _, e := range elems {
		if match(e) {
			return true
		}
	}
	return false
}

func (f *listFilter) Negate() (Filter, error) {
	n := *f
	n.op = f.op.Negate()
	return &n, nil
}

func (f *listFilter) PartialFilter(pred func(string) bool) Filter { return partial(f, f.column, pred) }
func (f *listFilter) conjuncts() []Filter                         { return leafConjuncts(f) }
func (f *listFilter) disjuncts() []Filter                         { return leafConjuncts(f) }

func (f *listFilter) StringValueRestrictionFor(column string) (string, bool) {
	if column == f.column && f.op == OpGreaterOrEqual {
		return f.value, true
	}
	return "", false
}

// dictFilter takes "KEY VALUE" and compares the value stored under KEY.
type dictFilter struct {
	columnFilter
	key string
	ref string
	re  *regexp.Regexp
	get func(Row, User) map[string]string
}

func newDictFilter(kind FilterKind, column string, op RelOp, value string, get func(Row, User) map[string]string) (*dictFilter, error) {
	key, ref, _ := strings.Cut(strings.TrimLeft(value, " "), " ")
	ref = strings.TrimLeft(ref, " ")
	re, err := compileRegex(op, ref)
	if err != nil {
		return nil, err
	}
	return &dictFilter{
		columnFilter: columnFilter{kind: kind, column: column, op: op, value: value},
		key:          key,
		ref:          ref,
		re:           re,
		get:          get,
	}, nil
}

func (f *dictFilter) Accepts(row Row, user User, _ time.Duration) bool {
	return matchString(f.op, f.re, f.get(row, user)[f.key], f.ref)
}

func (f *dictFilter) Negate() (Filter, error) {
	n := *f
	n.op = f.op.Negate()
	return &n, nil
}

func (f *dictFilter) PartialFilter(pred func(string) bool) Filter { return partial(f, f.column, pred) }
func (f *dictFilter) conjuncts() []Filter                         { return leafConjuncts(f) }
func (f *dictFilter) disjuncts() []Filter                         { return leafConjuncts(f) }

// nullFilter accepts everything and refuses negation.
type nullFilter struct {
	columnFilter
}

func (f *nullFilter) Accepts(Row, User, time.Duration) bool { return true }

func (f *nullFilter) Negate() (Filter, error) {
	return nil, fmt.Errorf("cannot negate filter on null column '%s'", f.column)
}

func (f *nullFilter) PartialFilter(pred func(string) bool) Filter { return partial(f, f.column, pred) }
func (f *nullFilter) conjuncts() []Filter                         { return leafConjuncts(f) }
func (f *nullFilter) disjuncts() []Filter                         { return leafConjuncts(f) }
