package livestatus

// Row is a non-owning handle to one live object. It is only valid for the
// duration of the query that produced it.
type Row struct {
	ptr any
}

// NewRow wraps an object pointer. Typed nil pointers become a null Row.
func NewRow[T any](p *T) Row {
	if p == nil {
		return Row{}
	}
	return Row{ptr: p}
}

// IsNull reports whether the row refers to nothing.
func (r Row) IsNull() bool { return r.ptr == nil }

// Offsets is a chain of navigation steps from a row object to the object a
// column reads from, e.g. service -> host. A nil result at any step ends the
// walk with nil.
type Offsets struct {
	steps []func(any) any
}

// Add returns a new chain with step appended.
func (o Offsets) Add(step func(any) any) Offsets {
	steps := make([]func(any) any, len(o.steps), len(o.steps)+1)
	copy(steps, o.steps)
	return Offsets{steps: append(steps, step)}
}

// ShiftPointer walks the chain starting at row.
func (o Offsets) ShiftPointer(row Row) any {
	p := row.ptr
	for _, step := range o.steps {
		if p == nil {
			return nil
		}
		p = step(p)
	}
	return p
}

// Shift lifts a typed navigation function into an offset step. A nil input,
// a foreign type or a nil result all yield an untyped nil.
func Shift[From, To any](f func(*From) *To) func(any) any {
	return func(p any) any {
		from, ok := p.(*From)
		if !ok || from == nil {
			return nil
		}
		to := f(from)
		if to == nil {
			return nil
		}
		return to
	}
}

// columnData resolves row through offsets to a *T, or nil.
func columnData[T any](o Offsets, row Row) *T {
	t, _ := o.ShiftPointer(row).(*T)
	return t
}

// rowData returns the object a row refers to if it is a *T.
func rowData[T any](row Row) *T {
	t, _ := row.ptr.(*T)
	return t
}
