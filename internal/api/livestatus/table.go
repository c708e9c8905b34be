package livestatus

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/oceanplexian/livestatusd/internal/api"
)

// Table owns the columns of one object kind and knows how to iterate its
// rows. Tables are built once per core and are read-only afterwards.
type Table struct {
	name    string
	prefix  string
	core    api.Core
	columns map[string]Column
	dynamic map[string]*DynamicColumn

	// rows yields candidate rows, possibly narrowed by index hints taken
	// from the query's filter.
	rows         func(q *Query) iter.Seq[Row]
	isAuthorized func(row Row, user User) bool
	findObject   func(key string) (Row, bool)
	defaultRow   func() Row
	// lookupsLock is set when columns resolve objects through the core,
	// which takes the store lock on every call.
	lookupsLock bool
}

func newTable(core api.Core, name, prefix string) *Table {
	return &Table{
		name:    name,
		prefix:  prefix,
		core:    core,
		columns: make(map[string]Column),
		dynamic: make(map[string]*DynamicColumn),
	}
}

func (t *Table) Name() string       { return t.name }
func (t *Table) NamePrefix() string { return t.prefix }

// AddColumn registers c. A duplicate name is a programming error.
func (t *Table) AddColumn(c Column) {
	if _, exists := t.columns[c.Name()]; exists {
		panic(fmt.Sprintf("livestatus: duplicate column '%s' in table '%s'", c.Name(), t.name))
	}
	t.columns[c.Name()] = c
}

// AddDynamicColumn registers d. A duplicate name is a programming error.
func (t *Table) AddDynamicColumn(d *DynamicColumn) {
	if _, exists := t.dynamic[d.Name()]; exists {
		panic(fmt.Sprintf("livestatus: duplicate dynamic column '%s' in table '%s'", d.Name(), t.name))
	}
	t.dynamic[d.Name()] = d
}

// Columns returns all static columns ordered by name.
func (t *Table) Columns() []Column {
	cols := make([]Column, 0, len(t.columns))
	for _, c := range t.columns {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name() < cols[j].Name() })
	return cols
}

// Column resolves a column name as written in a request. Leading table
// prefixes are stripped; "name:args" refers to a dynamic column.
func (t *Table) Column(name string) (Column, error) {
	if t.prefix != "" {
		for strings.HasPrefix(name, t.prefix) {
			name = name[len(t.prefix):]
		}
	}
	if dyn, rest, ok := strings.Cut(name, ":"); ok {
		return t.DynamicColumn(dyn, rest)
	}
	if c, ok := t.columns[name]; ok {
		return c, nil
	}
	if c, ok := t.columns[t.prefix+name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("table '%s' has no column '%s'", t.name, name)
}

// DynamicColumn builds a column from "<sub-name>:<args>".
func (t *Table) DynamicColumn(name, rest string) (Column, error) {
	d, ok := t.dynamic[name]
	if !ok {
		return nil, fmt.Errorf("table '%s' has no dynamic column '%s'", t.name, name)
	}
	colName, args, ok := strings.Cut(rest, ":")
	if !ok {
		return nil, fmt.Errorf("missing separator in dynamic column '%s'", name)
	}
	if colName == "" {
		return nil, fmt.Errorf("empty column name for dynamic column '%s'", name)
	}
	return d.CreateColumn(colName, args)
}

// AnswerQuery feeds every row the user may see into q until q asks to stop.
func (t *Table) AnswerQuery(q *Query, user User) {
	if t.rows == nil {
		return
	}
	for row := range t.rows(q) {
		if !t.IsAuthorized(row, user) {
			continue
		}
		if !q.processDataset(row) {
			return
		}
	}
}

// IsAuthorized reports whether user may see row.
func (t *Table) IsAuthorized(row Row, user User) bool {
	if t.isAuthorized == nil {
		return true
	}
	return t.isAuthorized(row, user)
}

// FindObject looks up a row by primary key, for WaitObject.
func (t *Table) FindObject(key string) (Row, bool) {
	if t.findObject == nil {
		return Row{}, false
	}
	return t.findObject(key)
}

// DefaultRow is the row a WaitCondition is checked against when no
// WaitObject is given. Only single-row tables have one.
func (t *Table) DefaultRow() Row {
	if t.defaultRow == nil {
		return Row{}
	}
	return t.defaultRow()
}

// sliceRows adapts a slice of objects to a row sequence.
func sliceRows[T any](objs []*T) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for _, o := range objs {
			if !yield(NewRow(o)) {
				return
			}
		}
	}
}

// Registry holds the tables of one core.
type Registry struct {
	core   api.Core
	tables map[string]*Table
	dummy  *Table
}

// NewRegistry builds all tables over core.
func NewRegistry(core api.Core) *Registry {
	r := &Registry{
		core:   core,
		tables: make(map[string]*Table),
		dummy:  newTable(core, "dummy", ""),
	}
	r.register(newHostsTable(core))
	r.register(newServicesTable(core))
	r.register(newHostGroupsTable(core))
	r.register(newServiceGroupsTable(core))
	r.register(newContactsTable(core))
	r.register(newContactGroupsTable(core))
	r.register(newCommandsTable(core))
	r.register(newTimeperiodsTable(core))
	r.register(newCommentsTable(core))
	r.register(newDowntimesTable(core))
	r.register(newStatusTable(core))
	r.register(newLogTable(core))
	r.register(newColumnsTable(r))
	return r
}

func (r *Registry) register(t *Table) {
	r.tables[t.Name()] = t
}

// Table returns the named table.
func (r *Registry) Table(name string) (*Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// Tables returns all tables ordered by name.
func (r *Registry) Tables() []*Table {
	tables := make([]*Table, 0, len(r.tables))
	for _, t := range r.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name() < tables[j].Name() })
	return tables
}

// Core returns the core the tables read from.
func (r *Registry) Core() api.Core { return r.core }

// ParseGet parses a GET request. lines[0] is the request line. An unknown
// table runs as an empty one so that headers such as ResponseHeader still
// apply, and its not_found error wins over header errors.
func (r *Registry) ParseGet(lines []string, out *OutputBuffer) *Query {
	rest, _ := strings.CutPrefix(lines[0], "GET")
	malformed := rest != "" && rest[0] != ' '
	name := strings.TrimSpace(rest)
	t, ok := r.tables[name]
	if !ok || malformed {
		t = r.dummy
	}
	q := ParseQuery(r.core, t, lines[1:], out)
	switch {
	case malformed:
		out.SetError(CodeBadRequest, "Invalid GET request, malformed request line '%s'", lines[0])
	case name == "":
		out.SetError(CodeBadRequest, "Invalid GET request, missing table name")
	case !ok:
		out.SetError(CodeNotFound, "Invalid GET request, no such table '%s'", name)
	}
	return q
}
