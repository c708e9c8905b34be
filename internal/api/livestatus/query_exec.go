package livestatus

import "fmt"

// Process runs the query and returns the rendered body. Errors end up in the
// query's OutputBuffer; rows rendered before a cutoff are kept.
func (q *Query) Process() []byte {
	q.renderer = NewRenderer(q.format, q.separators)
	q.doWait()
	q.queryRenderer = newQueryRenderer(q.renderer, true)
	q.start()
	q.table.AnswerQuery(q, q.user)
	q.finish()
	q.queryRenderer.Close()
	return q.renderer.Bytes()
}

// doWait blocks until the wait condition holds for the wait object, the
// WaitTimeout expires or the core shuts down.
func (q *Query) doWait() {
	if q.waitCondition.IsContradiction() && q.waitTimeout == 0 {
		q.output.SetError(CodeInvalidRequest, "waiting for WaitCondition would hang forever")
		return
	}
	row := q.waitObject
	if row.IsNull() {
		row = q.table.DefaultRow()
	}
	if !q.waitCondition.IsTautology() && row.IsNull() {
		q.output.SetError(CodeInvalidRequest, "missing WaitObject")
		return
	}
	satisfied := q.core.Triggers().WaitFor(q.waitTrigger, q.waitTimeout, func() bool {
		return q.core.ShouldTerminate() || q.waitConditionHolds(row)
	})
	q.waitTimedOut = !satisfied
}

// waitConditionHolds evaluates the wait condition under the store's read
// lock so that it sees no half-applied update.
func (q *Query) waitConditionHolds(row Row) bool {
	if !q.table.lookupsLock {
		lock := q.core.ReadLocker()
		lock.Lock()
		defer lock.Unlock()
	}
	return q.waitCondition.Accepts(row, q.user, q.tz)
}

func (q *Query) start() {
	q.started = q.now()
	if q.doStats() {
		q.groups = make(map[string][]Aggregator)
		// Without grouping columns there is exactly one group, and it is
		// reported even if no row matches.
		if len(q.columns) == 0 {
			q.aggregatorsFor("")
		}
	}
	if !q.showColumnHeaders() {
		return
	}
	r := q.queryRenderer.Row()
	for _, c := range q.columns {
		r.String(c.Name())
	}
	for i := range q.statsColumns {
		r.String(fmt.Sprintf("stats_%d", i+1))
	}
	r.End()
}

// processDataset handles one candidate row. It returns false when iteration
// should stop.
func (q *Query) processDataset(row Row) bool {
	if q.core.ShouldTerminate() {
		q.output.SetError(CodeBadGateway, "core is shutting down")
		return false
	}
	if maxSize := q.core.MaxResponseSize(); int64(q.renderer.Len()) > maxSize {
		q.output.SetError(CodePayloadTooLarge, "Maximum response size of %d bytes exceeded!", maxSize)
		return false
	}
	if !q.filter.Accepts(row, q.user, q.tz) {
		return true
	}
	q.rowCount++
	if q.limit >= 0 && q.rowCount > q.limit {
		return false
	}
	if q.timeLimit > 0 && q.rowCount%100 == 0 && q.now().Sub(q.started) >= q.timeLimit {
		q.output.SetError(CodePayloadTooLarge, "Maximum query time of %d seconds exceeded!", int(q.timeLimit.Seconds()))
		return false
	}

	if q.doStats() {
		key := ""
		if len(q.columns) > 0 {
			frag := NewRenderer(q.format, q.separators)
			r := newRowRenderer(frag, false)
			for _, c := range q.columns {
				c.Output(row, r, q.user, q.tz)
			}
			key = frag.String()
		}
		for _, a := range q.aggregatorsFor(key) {
			a.Consume(row, q.user, q.tz)
		}
		return true
	}

	r := q.queryRenderer.Row()
	for _, c := range q.columns {
		c.Output(row, r, q.user, q.tz)
	}
	r.End()
	return true
}

// aggregatorsFor returns the aggregators of the group keyed by a rendered
// row fragment, creating them on first sight.
func (q *Query) aggregatorsFor(key string) []Aggregator {
	if aggs, ok := q.groups[key]; ok {
		return aggs
	}
	aggs := make([]Aggregator, 0, len(q.statsColumns))
	for _, sc := range q.statsColumns {
		a, err := sc.CreateAggregator()
		if err != nil {
			// Validated while parsing the Stats header.
			panic(err)
		}
		aggs = append(aggs, a)
	}
	q.groups[key] = aggs
	q.groupOrder = append(q.groupOrder, key)
	return aggs
}

// finish writes one row per stats group, in first-seen order.
func (q *Query) finish() {
	if !q.doStats() {
		return
	}
	for _, key := range q.groupOrder {
		r := q.queryRenderer.Row()
		if len(q.columns) > 0 {
			r.Fragment(key)
		}
		for _, a := range q.groups[key] {
			a.Output(r)
		}
		r.End()
	}
}
