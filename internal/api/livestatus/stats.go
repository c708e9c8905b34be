package livestatus

import "errors"

// StatsColumn is one "Stats:" header. It hands out a fresh Aggregator for
// every stats group.
type StatsColumn interface {
	CreateAggregator() (Aggregator, error)
	// stealFilter surrenders the filter of a counting stats column so that
	// StatsAnd, StatsOr and StatsNegate can combine it.
	stealFilter() (Filter, error)
}

var errNotFilterStats = errors.New("only valid on Stats: headers of filter type")

// statsCount counts rows matching a filter.
type statsCount struct {
	filter Filter
}

func (s *statsCount) CreateAggregator() (Aggregator, error) {
	return &countAggregator{filter: s.filter}, nil
}

func (s *statsCount) stealFilter() (Filter, error) {
	f := s.filter
	s.filter = nil
	return f, nil
}

// statsOp aggregates a column value, e.g. "Stats: avg latency".
type statsOp struct {
	column  Column
	factory AggregationFactory
}

func (s *statsOp) CreateAggregator() (Aggregator, error) {
	return s.column.CreateAggregator(s.factory)
}

func (s *statsOp) stealFilter() (Filter, error) {
	return nil, errNotFilterStats
}
