package livestatus

import (
	"fmt"
	"math"
	"time"
)

// Aggregation is a running accumulator over the values of one group.
// Empty groups divide by zero and yield NaN or Inf, which render as null.
type Aggregation interface {
	Update(v float64)
	Value() float64
}

// AggregationFactory creates a fresh Aggregation per stats group.
type AggregationFactory func() Aggregation

var aggregationFactories = map[string]AggregationFactory{
	"sum":    func() Aggregation { return &sumAggregation{} },
	"min":    func() Aggregation { return &minAggregation{} },
	"max":    func() Aggregation { return &maxAggregation{} },
	"avg":    func() Aggregation { return &avgAggregation{} },
	"std":    func() Aggregation { return &stdAggregation{} },
	"suminv": func() Aggregation { return &sumInvAggregation{} },
	"avginv": func() Aggregation { return &avgInvAggregation{} },
}

type sumAggregation struct{ sum float64 }

func (a *sumAggregation) Update(v float64) { a.sum += v }
func (a *sumAggregation) Value() float64   { return a.sum }

type minAggregation struct {
	first bool
	sum   float64
}

func (a *minAggregation) Update(v float64) {
	if !a.first || v < a.sum {
		a.sum = v
	}
	a.first = true
}
func (a *minAggregation) Value() float64 { return a.sum }

type maxAggregation struct {
	first bool
	sum   float64
}

func (a *maxAggregation) Update(v float64) {
	if !a.first || v > a.sum {
		a.sum = v
	}
	a.first = true
}
func (a *maxAggregation) Value() float64 { return a.sum }

type avgAggregation struct {
	count int
	sum   float64
}

func (a *avgAggregation) Update(v float64) { a.count++; a.sum += v }
func (a *avgAggregation) Value() float64   { return a.sum / float64(a.count) }

type stdAggregation struct {
	count      int
	sum, sumSq float64
}

func (a *stdAggregation) Update(v float64) {
	a.count++
	a.sum += v
	a.sumSq += v * v
}

func (a *stdAggregation) Value() float64 {
	mean := a.sum / float64(a.count)
	return math.Sqrt(a.sumSq/float64(a.count) - mean*mean)
}

type sumInvAggregation struct{ sum float64 }

func (a *sumInvAggregation) Update(v float64) { a.sum += 1 / v }
func (a *sumInvAggregation) Value() float64   { return a.sum }

type avgInvAggregation struct {
	count int
	sum   float64
}

func (a *avgInvAggregation) Update(v float64) { a.count++; a.sum += 1 / v }
func (a *avgInvAggregation) Value() float64   { return a.sum / float64(a.count) }

// Aggregator is the per-group state of one stats column.
type Aggregator interface {
	Consume(row Row, user User, tz time.Duration)
	Output(r *RowRenderer)
}

// countAggregator counts the rows accepted by a stats filter.
type countAggregator struct {
	filter Filter
	count  int64
}

func (a *countAggregator) Consume(row Row, user User, tz time.Duration) {
	if a.filter.Accepts(row, user, tz) {
		a.count++
	}
}

func (a *countAggregator) Output(r *RowRenderer) { r.Int(a.count) }

// valueAggregator feeds a numeric column value into an Aggregation.
type valueAggregator struct {
	aggregation Aggregation
	get         func(Row, User, time.Duration) float64
}

func (a *valueAggregator) Consume(row Row, user User, tz time.Duration) {
	a.aggregation.Update(a.get(row, user, tz))
}

func (a *valueAggregator) Output(r *RowRenderer) { r.Double(a.aggregation.Value()) }

func parseAggregation(name string) (AggregationFactory, error) {
	if f, ok := aggregationFactories[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("invalid aggregation '%s'", name)
}
