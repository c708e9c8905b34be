// Package metrics exposes livestatus server counters to Prometheus. The
// status table reads the same counters, so both views agree.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns one registry with the server's metrics.
type Collector struct {
	registry *prometheus.Registry

	connections     prometheus.Counter
	requests        *prometheus.CounterVec
	commands        prometheus.Counter
	activeConns     prometheus.Gauge
	queryDuration   *prometheus.HistogramVec
	responseBytes   prometheus.Counter
	waitTimeouts    prometheus.Counter
	errorsByCode    *prometheus.CounterVec
	start           time.Time
	mu              sync.Mutex
	totalConns      uint64
	totalRequests   uint64
	totalCommands   uint64
	active          int64
	rateMark        time.Time
	rateConns       uint64
	rateRequests    uint64
	connectionsRate float64
	requestsRate    float64
}

// NewCollector creates the metrics and registers them on a private registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "livestatus",
			Name:      "connections_total",
			Help:      "Accepted client connections.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livestatus",
			Name:      "requests_total",
			Help:      "Answered GET requests per table.",
		}, []string{"table"}),
		commands: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "livestatus",
			Name:      "commands_total",
			Help:      "External commands received.",
		}),
		activeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "livestatus",
			Name:      "active_connections",
			Help:      "Currently open client connections.",
		}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "livestatus",
			Name:      "query_duration_seconds",
			Help:      "Time spent answering a GET request, including waits.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"table"}),
		responseBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "livestatus",
			Name:      "response_bytes_total",
			Help:      "Bytes written in response bodies.",
		}),
		waitTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "livestatus",
			Name:      "wait_timeouts_total",
			Help:      "WaitCondition waits that ended by timeout.",
		}),
		errorsByCode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livestatus",
			Name:      "errors_total",
			Help:      "Responses with a non-200 status code.",
		}, []string{"code"}),
		start: time.Now(),
	}
	c.rateMark = c.start
	c.registry.MustRegister(c.connections, c.requests, c.commands, c.activeConns,
		c.queryDuration, c.responseBytes, c.waitTimeouts, c.errorsByCode)
	return c
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ConnectionOpened counts an accepted connection; the returned func marks it closed.
func (c *Collector) ConnectionOpened() func() {
	c.connections.Inc()
	c.activeConns.Inc()
	c.mu.Lock()
	c.totalConns++
	c.active++
	c.mu.Unlock()
	return func() {
		c.activeConns.Dec()
		c.mu.Lock()
		c.active--
		c.mu.Unlock()
	}
}

// RequestServed records one answered GET request.
func (c *Collector) RequestServed(table string, d time.Duration, bytes int, code int) {
	c.requests.WithLabelValues(table).Inc()
	c.queryDuration.WithLabelValues(table).Observe(d.Seconds())
	c.responseBytes.Add(float64(bytes))
	if code != http.StatusOK {
		c.errorsByCode.WithLabelValues(http.StatusText(code)).Inc()
	}
	c.mu.Lock()
	c.totalRequests++
	c.mu.Unlock()
}

// CommandReceived records one COMMAND request.
func (c *Collector) CommandReceived() {
	c.commands.Inc()
	c.mu.Lock()
	c.totalCommands++
	c.mu.Unlock()
}

// WaitTimedOut records a wait that hit WaitTimeout.
func (c *Collector) WaitTimedOut() {
	c.waitTimeouts.Inc()
}

// Snapshot is a point-in-time copy of the counters for the status table.
type Snapshot struct {
	Connections       uint64
	ConnectionsRate   float64
	Requests          uint64
	RequestsRate      float64
	Commands          uint64
	ActiveConnections int64
}

// Snapshot returns the totals and per-second rates. Rates are recomputed at
// most every ten seconds.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if elapsed := now.Sub(c.rateMark).Seconds(); elapsed >= 10 {
		c.connectionsRate = float64(c.totalConns-c.rateConns) / elapsed
		c.requestsRate = float64(c.totalRequests-c.rateRequests) / elapsed
		c.rateMark, c.rateConns, c.rateRequests = now, c.totalConns, c.totalRequests
	}
	return Snapshot{
		Connections:       c.totalConns,
		ConnectionsRate:   c.connectionsRate,
		Requests:          c.totalRequests,
		RequestsRate:      c.requestsRate,
		Commands:          c.totalCommands,
		ActiveConnections: c.active,
	}
}
