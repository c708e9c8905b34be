package livestatus

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/triggers"
)

// Query is one parsed GET request. It is created and consumed per request.
type Query struct {
	table  *Table
	core   api.Core
	output *OutputBuffer

	columns       []Column
	statsColumns  []StatsColumn
	filters       []Filter
	waitFilters   []Filter
	filter        Filter
	waitCondition Filter

	user          User
	format        OutputFormat
	separators    Separators
	columnHeaders *bool
	limit         int
	timeLimit     time.Duration
	keepAlive     bool
	waitTrigger   triggers.Kind
	waitObject    Row
	waitTimeout   time.Duration
	tz            time.Duration

	now func() time.Time

	// execution state
	renderer      *Renderer
	queryRenderer *QueryRenderer
	started       time.Time
	rowCount      int
	groups        map[string][]Aggregator
	groupOrder    []string
	waitTimedOut  bool
}

type headerFunc func(q *Query, args string) error

var headers map[string]headerFunc

func init() {
	headers = map[string]headerFunc{
		"Filter":              func(q *Query, a string) error { return q.parseFilterLine(FilterRow, &q.filters, a) },
		"Or":                  func(q *Query, a string) error { return q.parseConnective(FilterRow, &q.filters, "Or", a) },
		"And":                 func(q *Query, a string) error { return q.parseConnective(FilterRow, &q.filters, "And", a) },
		"Negate":              func(q *Query, a string) error { return q.parseNegate(&q.filters, a) },
		"StatsOr":             func(q *Query, a string) error { return q.parseStatsConnective("StatsOr", a) },
		"StatsAnd":            func(q *Query, a string) error { return q.parseStatsConnective("StatsAnd", a) },
		"StatsNegate":         (*Query).parseStatsNegate,
		"Stats":               (*Query).parseStatsLine,
		"StatsGroupBy":        (*Query).parseColumnsLine,
		"Columns":             (*Query).parseColumnsLine,
		"ColumnHeaders":       (*Query).parseColumnHeadersLine,
		"Limit":               (*Query).parseLimitLine,
		"Timelimit":           (*Query).parseTimelimitLine,
		"AuthUser":            (*Query).parseAuthUserLine,
		"Separators":          (*Query).parseSeparatorsLine,
		"OutputFormat":        (*Query).parseOutputFormatLine,
		"ResponseHeader":      (*Query).parseResponseHeaderLine,
		"KeepAlive":           (*Query).parseKeepAliveLine,
		"WaitCondition":       func(q *Query, a string) error { return q.parseFilterLine(FilterWaitCondition, &q.waitFilters, a) },
		"WaitConditionAnd":    func(q *Query, a string) error { return q.parseConnective(FilterWaitCondition, &q.waitFilters, "WaitConditionAnd", a) },
		"WaitConditionOr":     func(q *Query, a string) error { return q.parseConnective(FilterWaitCondition, &q.waitFilters, "WaitConditionOr", a) },
		"WaitConditionNegate": func(q *Query, a string) error { return q.parseNegate(&q.waitFilters, a) },
		"WaitTrigger":         (*Query).parseWaitTriggerLine,
		"WaitObject":          (*Query).parseWaitObjectLine,
		"WaitTimeout":         (*Query).parseWaitTimeoutLine,
		"Localtime":           (*Query).parseLocaltimeLine,
	}
}

// ParseQuery parses the header lines of a GET request against table. Every
// line that fails is reported to out as bad_request; parsing goes on with
// the next line.
func ParseQuery(core api.Core, table *Table, lines []string, out *OutputBuffer) *Query {
	q := &Query{
		table:      table,
		core:       core,
		output:     out,
		user:       NoAuthUser{},
		format:     FormatBrokenCSV,
		separators: DefaultSeparators,
		limit:      -1,
		now:        time.Now,
	}
	for _, line := range lines {
		line = strings.TrimRight(line, " \r")
		if line == "" {
			break
		}
		name, args, _ := strings.Cut(line, ":")
		args = strings.TrimLeft(args, " ")
		parse, ok := headers[name]
		if !ok {
			out.SetError(CodeBadRequest, "undefined request header '%s'", name)
			continue
		}
		if err := parse(q, args); err != nil {
			out.SetError(CodeBadRequest, "while processing header '%s' for table '%s': %v", name, table.Name(), err)
		}
	}

	q.filter = MakeAnd(FilterRow, q.filters)
	q.waitCondition = MakeAnd(FilterWaitCondition, q.waitFilters)
	q.filters, q.waitFilters = nil, nil
	if len(q.columns) == 0 && len(q.statsColumns) == 0 {
		q.columns = table.Columns()
	}
	return q
}

// nextArgument splits off the first space-separated word of s.
func nextArgument(s string) (arg, rest string) {
	s = strings.TrimLeft(s, " ")
	arg, rest, _ = strings.Cut(s, " ")
	return arg, rest
}

func parseNonNegative(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("expected non-negative integer, got '%s'", s)
	}
	return n, nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("expected 'on' or 'off', got '%s'", s)
}

// parseFilterArgs splits "<column> <op> <value>" and builds the filter.
func (q *Query) parseFilterArgs(kind FilterKind, args string) (Filter, error) {
	name, rest := nextArgument(args)
	if name == "" {
		return nil, errors.New("empty filter line")
	}
	opName, value := nextArgument(rest)
	if opName == "" {
		return nil, fmt.Errorf("missing operator for column '%s'", name)
	}
	op, err := parseRelOp(opName)
	if err != nil {
		return nil, err
	}
	column, err := q.table.Column(name)
	if err != nil {
		return nil, err
	}
	return column.CreateFilter(kind, op, strings.TrimLeft(value, " "))
}

func (q *Query) parseFilterLine(kind FilterKind, stack *[]Filter, args string) error {
	f, err := q.parseFilterArgs(kind, args)
	if err != nil {
		return err
	}
	*stack = append(*stack, f)
	return nil
}

func popN[T any](stack *[]T, header string, n int) ([]T, error) {
	if n > len(*stack) {
		return nil, fmt.Errorf("error combining filters with '%s': expected %d filters, but only %d on stack", header, n, len(*stack))
	}
	cut := len(*stack) - n
	popped := append([]T(nil), (*stack)[cut:]...)
	*stack = (*stack)[:cut]
	return popped, nil
}

func (q *Query) parseConnective(kind FilterKind, stack *[]Filter, header, args string) error {
	n, err := parseNonNegative(args)
	if err != nil {
		return err
	}
	subs, err := popN(stack, header, n)
	if err != nil {
		return err
	}
	if strings.HasSuffix(header, "And") {
		*stack = append(*stack, MakeAnd(kind, subs))
	} else {
		*stack = append(*stack, MakeOr(kind, subs))
	}
	return nil
}

func (q *Query) parseNegate(stack *[]Filter, _ string) error {
	if len(*stack) == 0 {
		return errors.New("no filter on stack to negate")
	}
	top := len(*stack) - 1
	negated, err := (*stack)[top].Negate()
	if err != nil {
		return err
	}
	(*stack)[top] = negated
	return nil
}

func (q *Query) parseStatsLine(args string) error {
	first, rest := nextArgument(args)
	if first == "" {
		return errors.New("missing column name")
	}
	if factory, err := parseAggregation(first); err == nil {
		name, _ := nextArgument(rest)
		column, err := q.table.Column(name)
		if err != nil {
			return err
		}
		if _, err := column.CreateAggregator(factory); err != nil {
			return err
		}
		q.statsColumns = append(q.statsColumns, &statsOp{column: column, factory: factory})
		return nil
	}
	f, err := q.parseFilterArgs(FilterStats, args)
	if err != nil {
		return err
	}
	q.statsColumns = append(q.statsColumns, &statsCount{filter: f})
	return nil
}

func (q *Query) parseStatsConnective(header, args string) error {
	n, err := parseNonNegative(args)
	if err != nil {
		return err
	}
	if n > len(q.statsColumns) {
		return fmt.Errorf("error combining filters with '%s': expected %d filters, but only %d on stack", header, n, len(q.statsColumns))
	}
	cut := len(q.statsColumns) - n
	// Check the whole operand range first so a failure leaves the stack intact.
	for _, sc := range q.statsColumns[cut:] {
		if _, ok := sc.(*statsCount); !ok {
			return fmt.Errorf("'%s' is %w", header, errNotFilterStats)
		}
	}
	subs := make([]Filter, 0, n)
	for _, sc := range q.statsColumns[cut:] {
		f, err := sc.stealFilter()
		if err != nil {
			return err
		}
		subs = append(subs, f)
	}
	q.statsColumns = q.statsColumns[:cut]
	combined := MakeOr(FilterStats, subs)
	if header == "StatsAnd" {
		combined = MakeAnd(FilterStats, subs)
	}
	q.statsColumns = append(q.statsColumns, &statsCount{filter: combined})
	return nil
}

func (q *Query) parseStatsNegate(string) error {
	if len(q.statsColumns) == 0 {
		return errors.New("no stats column on stack to negate")
	}
	top := len(q.statsColumns) - 1
	f, err := q.statsColumns[top].stealFilter()
	if err != nil {
		return err
	}
	negated, err := f.Negate()
	if err != nil {
		q.statsColumns[top] = &statsCount{filter: f}
		return err
	}
	q.statsColumns[top] = &statsCount{filter: negated}
	return nil
}

// parseColumnsLine resolves every column it can. Unknown columns are
// reported and replaced by null columns so the remaining ones keep their
// positions.
func (q *Query) parseColumnsLine(args string) error {
	var errs []error
	for _, name := range strings.Fields(args) {
		column, err := q.table.Column(name)
		if err != nil {
			errs = append(errs, err)
			column = NewNullColumn(name, "non-existing column")
		}
		q.columns = append(q.columns, column)
	}
	if q.columnHeaders == nil {
		off := false
		q.columnHeaders = &off
	}
	return errors.Join(errs...)
}

func (q *Query) parseColumnHeadersLine(args string) error {
	on, err := parseOnOff(args)
	if err != nil {
		return err
	}
	q.columnHeaders = &on
	return nil
}

func (q *Query) parseLimitLine(args string) error {
	n, err := parseNonNegative(args)
	if err != nil {
		return err
	}
	q.limit = n
	return nil
}

func (q *Query) parseTimelimitLine(args string) error {
	n, err := parseNonNegative(args)
	if err != nil {
		return err
	}
	q.timeLimit = time.Duration(n) * time.Second
	return nil
}

func (q *Query) parseAuthUserLine(args string) error {
	q.user = newUser(q.core, strings.TrimSpace(args))
	return nil
}

func (q *Query) parseSeparatorsLine(args string) error {
	fields := strings.Fields(args)
	if len(fields) != 4 {
		return fmt.Errorf("expected 4 separators, got %d", len(fields))
	}
	var seps [4]byte
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || n > 255 {
			return fmt.Errorf("invalid separator '%s'", f)
		}
		seps[i] = byte(n)
	}
	q.separators = Separators{Dataset: seps[0], Field: seps[1], List: seps[2], HostService: seps[3]}
	return nil
}

func (q *Query) parseOutputFormatLine(args string) error {
	f, err := parseOutputFormat(strings.TrimSpace(args))
	if err != nil {
		return err
	}
	q.format = f
	return nil
}

func (q *Query) parseResponseHeaderLine(args string) error {
	switch strings.TrimSpace(args) {
	case "off":
		q.output.Header = ResponseHeaderOff
	case "fixed16":
		q.output.Header = ResponseHeaderFixed16
	default:
		return fmt.Errorf("expected 'off' or 'fixed16', got '%s'", args)
	}
	return nil
}

func (q *Query) parseKeepAliveLine(args string) error {
	on, err := parseOnOff(args)
	if err != nil {
		return err
	}
	q.keepAlive = on
	return nil
}

func (q *Query) parseWaitTriggerLine(args string) error {
	kind, err := triggers.Parse(strings.TrimSpace(args))
	if err != nil {
		return err
	}
	q.waitTrigger = kind
	return nil
}

func (q *Query) parseWaitObjectLine(args string) error {
	key := strings.TrimSpace(args)
	row, ok := q.table.FindObject(key)
	if !ok {
		return fmt.Errorf("primary key '%s' not found or not supported by table '%s'", key, q.table.Name())
	}
	q.waitObject = row
	return nil
}

func (q *Query) parseWaitTimeoutLine(args string) error {
	n, err := parseNonNegative(args)
	if err != nil {
		return err
	}
	q.waitTimeout = time.Duration(n) * time.Millisecond
	return nil
}

// parseLocaltimeLine derives the client's timezone offset from its clock,
// rounded to the nearest half hour.
func (q *Query) parseLocaltimeLine(args string) error {
	ts, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid time '%s'", args)
	}
	diff := float64(ts - q.now().Unix())
	offset := time.Duration(math.Round(diff/1800)*1800) * time.Second
	if offset >= 24*time.Hour || offset <= -24*time.Hour {
		return errors.New("timezone difference greater than or equal to 24 hours")
	}
	q.tz = offset
	return nil
}

// KeepAlive reports whether the client asked to keep the connection open.
func (q *Query) KeepAlive() bool { return q.keepAlive }

// WaitTimedOut reports whether the wait condition was still unmet when the
// WaitTimeout expired.
func (q *Query) WaitTimedOut() bool { return q.waitTimedOut }

// Table returns the table the query runs against.
func (q *Query) Table() *Table { return q.table }

// Filter returns the row filter, for index hints.
func (q *Query) Filter() Filter { return q.filter }

// TimezoneOffset is the client's offset from server time.
func (q *Query) TimezoneOffset() time.Duration { return q.tz }

func (q *Query) doStats() bool { return len(q.statsColumns) > 0 }

func (q *Query) showColumnHeaders() bool {
	if q.columnHeaders != nil {
		return *q.columnHeaders
	}
	return !q.doStats()
}
